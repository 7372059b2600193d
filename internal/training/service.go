// Package training runs the session lifecycle: a session of three rounds of
// ten generated questions, scored and commented on as rounds complete.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/feedback"
	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/questiongen"
	"github.com/abhisek/tensetrainer/internal/store"
)

// Listing bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	MaxCommentLen   = 1000
)

// Service orchestrates sessions, rounds and scoring. Every method checks
// ownership through the repository and the lifecycle rules before writing.
type Service struct {
	sessions  store.SessionRepo
	reports   store.ReportRepo
	questions questiongen.Generator
	feedback  feedback.Writer
	logger    *slog.Logger

	now func() time.Time
}

// NewService creates a training Service.
func NewService(sessions store.SessionRepo, reports store.ReportRepo, questions questiongen.Generator, fb feedback.Writer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions:  sessions,
		reports:   reports,
		questions: questions,
		feedback:  fb,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession starts an active session. Round 1 is created separately.
func (s *Service) CreateSession(ctx context.Context, userID string, in CreateSessionInput) (*SessionDTO, error) {
	details := map[string]string{}
	if !in.Tense.Valid() {
		details["tense"] = "must be one of the supported tenses"
	}
	if !in.Difficulty.Valid() {
		details["difficulty"] = "must be Basic or Advanced"
	}
	if len(details) > 0 {
		return nil, apperr.Validation("invalid training session", details)
	}

	now := s.now()
	sess := &store.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Tense:      string(in.Tense),
		Difficulty: string(in.Difficulty),
		Status:     store.StatusActive,
		StartedAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, apperr.Internal("failed to create training session", err)
	}

	s.logger.Info("training session created",
		"session_id", sess.ID, "user_id", userID,
		"tense", sess.Tense, "difficulty", sess.Difficulty)
	dto := toSessionDTO(sess)
	return &dto, nil
}

// CreateRound generates the next round's questions and stores the round
// with them in one transaction.
func (s *Service) CreateRound(ctx context.Context, userID, sessionID string) (*CreateRoundResult, error) {
	sess, err := s.sessions.GetSessionByID(ctx, userID, sessionID)
	if err != nil {
		return nil, classify(err, "training session")
	}
	rounds, err := s.sessions.GetRoundsBySessionID(ctx, sess.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load rounds", err)
	}

	next := len(rounds) + 1
	if aerr := CanCreateRound(sess, rounds, next); aerr != nil {
		return nil, aerr
	}

	generated, err := s.questions.GenerateQuestions(ctx,
		grammar.Tense(sess.Tense), grammar.Difficulty(sess.Difficulty), grammar.QuestionsPerRound)
	if err != nil {
		s.logger.Error("question generation failed",
			"session_id", sess.ID, "round_number", next, "error", err)
		return nil, apperr.Internal("failed to generate questions", err)
	}
	if len(generated) != grammar.QuestionsPerRound {
		return nil, apperr.Internal("failed to generate questions",
			fmt.Errorf("got %d questions, want %d", len(generated), grammar.QuestionsPerRound))
	}

	rd := &store.Round{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		RoundNumber: next,
		StartedAt:   s.now(),
	}
	qs := make([]store.Question, len(generated))
	for i, g := range generated {
		qs[i] = store.Question{
			ID:             uuid.NewString(),
			RoundID:        rd.ID,
			QuestionNumber: i + 1,
			QuestionText:   g.Text,
			Options:        store.StringList(g.Options),
			CorrectAnswer:  g.Answer,
		}
	}

	if err := s.sessions.CreateRoundWithQuestions(ctx, rd, qs); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.BadRequest("round %d was already created", next)
		}
		return nil, apperr.Internal("failed to save round", err)
	}

	s.logger.Info("round created", "session_id", sess.ID, "round_id", rd.ID, "round_number", next)

	res := &CreateRoundResult{
		Round:     toRoundDTO(rd),
		Questions: make([]QuestionDTO, len(qs)),
	}
	for i := range qs {
		res.Questions[i] = toQuestionDTO(&qs[i])
	}
	return res, nil
}

// CompleteRound scores a full set of answers, writes round feedback and
// closes the round. Nothing is written unless every answer is valid.
func (s *Service) CompleteRound(ctx context.Context, userID, roundID string, in CompleteRoundInput) (*CompleteRoundResult, error) {
	rd, sess, err := s.sessions.GetRoundWithSession(ctx, userID, roundID)
	if err != nil {
		return nil, classify(err, "round")
	}
	questions, err := s.sessions.GetQuestionsWithAnswers(ctx, rd.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load questions", err)
	}
	if aerr := CanCompleteRound(rd.CompletedAt, len(questions)); aerr != nil {
		return nil, aerr
	}
	if aerr := validateAnswers(questions, in.Answers); aerr != nil {
		return nil, aerr
	}

	selected := make(map[string]string, len(in.Answers))
	for _, a := range in.Answers {
		selected[a.QuestionID] = a.SelectedAnswer
	}

	now := s.now()
	score := 0
	answers := make([]store.UserAnswer, len(questions))
	reviewed := make([]ReviewedQuestionDTO, len(questions))
	var incorrect []feedback.IncorrectAnswer
	for i := range questions {
		q := &questions[i].Question
		choice := selected[q.ID]
		correct := choice == q.CorrectAnswer
		if correct {
			score++
		} else {
			incorrect = append(incorrect, feedback.IncorrectAnswer{
				RoundNumber:    rd.RoundNumber,
				QuestionNumber: q.QuestionNumber,
				QuestionText:   q.QuestionText,
				SelectedAnswer: choice,
				CorrectAnswer:  q.CorrectAnswer,
			})
		}
		answers[i] = store.UserAnswer{
			ID:             uuid.NewString(),
			QuestionID:     q.ID,
			SessionID:      sess.ID,
			SelectedAnswer: choice,
			IsCorrect:      correct,
			AnsweredAt:     now,
		}
		reviewed[i] = ReviewedQuestionDTO{
			QuestionDTO:    toQuestionDTO(q),
			CorrectAnswer:  q.CorrectAnswer,
			SelectedAnswer: choice,
			IsCorrect:      correct,
		}
	}

	text, err := s.feedback.RoundFeedback(ctx, incorrect,
		grammar.Tense(sess.Tense), grammar.Difficulty(sess.Difficulty), score)
	if err != nil {
		s.logger.Warn("round feedback failed, using fallback",
			"round_id", rd.ID, "score", score, "error", err)
		text = feedback.FallbackRoundFeedback(score)
	}

	done, err := s.sessions.CompleteRoundWithAnswers(ctx, rd.ID, answers, score, text)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.BadRequest("round is already completed")
		}
		return nil, classify(err, "round")
	}

	s.logger.Info("round completed",
		"session_id", sess.ID, "round_id", rd.ID, "round_number", rd.RoundNumber, "score", score)

	return &CompleteRoundResult{
		Round:     toRoundDTO(done),
		Questions: reviewed,
		Summary:   NewRoundSummary(score),
	}, nil
}

// validateAnswers checks a submission against the round's questions and
// reports every problem at once.
func validateAnswers(questions []store.QuestionWithAnswer, answers []AnswerInput) *apperr.Error {
	if len(answers) != grammar.QuestionsPerRound {
		return apperr.BadRequest("exactly %d answers are required", grammar.QuestionsPerRound).
			WithDetail("answers", fmt.Sprintf("got %d answers", len(answers)))
	}

	byID := make(map[string]*store.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i].Question
	}

	details := make(map[string]string)
	seen := make(map[string]bool, len(answers))
	for i, a := range answers {
		key := fmt.Sprintf("answers[%d]", i)
		q, ok := byID[a.QuestionID]
		switch {
		case seen[a.QuestionID]:
			details[key+".question_id"] = "duplicate answer for this question"
		case !ok:
			details[key+".question_id"] = "question does not belong to this round"
		case !q.HasOption(a.SelectedAnswer):
			details[key+".selected_answer"] = "not one of the question's options"
		}
		seen[a.QuestionID] = true
	}
	for i := range questions {
		if !seen[questions[i].ID] {
			details[fmt.Sprintf("questions[%d]", questions[i].QuestionNumber)] = "question was not answered"
		}
	}

	if len(details) > 0 {
		return &apperr.Error{Kind: apperr.KindBadRequest, Message: "invalid answers", Details: details}
	}
	return nil
}

// CompleteSession writes final feedback and closes the session. Unlike
// round feedback there is no fallback: a failure leaves the session active.
func (s *Service) CompleteSession(ctx context.Context, userID, sessionID string) (*CompleteSessionResult, error) {
	detail, err := s.sessions.GetSessionWithDetails(ctx, userID, sessionID)
	if err != nil {
		return nil, classify(err, "training session")
	}

	completed := 0
	for i := range detail.Rounds {
		if detail.Rounds[i].Completed() {
			completed++
		}
	}
	if aerr := CanCompleteSession(detail.Status, len(detail.Rounds), completed); aerr != nil {
		return nil, aerr
	}

	scores, incorrect := tally(detail)
	text, err := s.feedback.FinalFeedback(ctx, incorrect,
		grammar.Tense(detail.Tense), grammar.Difficulty(detail.Difficulty), scores)
	if err != nil {
		s.logger.Error("final feedback failed", "session_id", detail.ID, "error", err)
		return nil, apperr.Internal("failed to generate final feedback", err)
	}

	done, err := s.sessions.UpdateSessionCompletion(ctx, detail.ID, text)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.BadRequest("training session is already completed")
		}
		return nil, classify(err, "training session")
	}

	summary := newSessionSummary(scores)
	s.logger.Info("training session completed",
		"session_id", done.ID, "user_id", userID, "total_score", summary.TotalScore)

	return &CompleteSessionResult{
		Session: toSessionDTO(done),
		Summary: summary,
	}, nil
}

// tally collects per-round scores and every incorrect answer in round and
// question order.
func tally(detail *store.SessionDetail) ([grammar.RoundsPerSession]int, []feedback.IncorrectAnswer) {
	var scores [grammar.RoundsPerSession]int
	var incorrect []feedback.IncorrectAnswer
	for _, rd := range detail.Rounds {
		if rd.RoundNumber < 1 || rd.RoundNumber > grammar.RoundsPerSession {
			continue
		}
		if rd.Score != nil {
			scores[rd.RoundNumber-1] = *rd.Score
		}
		for _, q := range rd.Questions {
			if q.Answer == nil || q.Answer.IsCorrect {
				continue
			}
			incorrect = append(incorrect, feedback.IncorrectAnswer{
				RoundNumber:    rd.RoundNumber,
				QuestionNumber: q.QuestionNumber,
				QuestionText:   q.QuestionText,
				SelectedAnswer: q.Answer.SelectedAnswer,
				CorrectAnswer:  q.CorrectAnswer,
			})
		}
	}
	return scores, incorrect
}

// GetSessionDetail returns a session with all rounds, questions and
// answers. The summary is only present once the session is completed.
func (s *Service) GetSessionDetail(ctx context.Context, userID, sessionID string) (*SessionDetailDTO, error) {
	detail, err := s.sessions.GetSessionWithDetails(ctx, userID, sessionID)
	if err != nil {
		return nil, classify(err, "training session")
	}

	out := &SessionDetailDTO{
		SessionDTO: toSessionDTO(&detail.Session),
		Rounds:     make([]DetailRoundDTO, len(detail.Rounds)),
	}
	for i := range detail.Rounds {
		out.Rounds[i] = toDetailRound(&detail.Rounds[i])
	}
	if detail.Status == store.StatusCompleted {
		scores, _ := tally(detail)
		summary := newSessionSummary(scores)
		out.Summary = &summary
	}
	return out, nil
}

// ListSessions returns one page of the user's sessions.
func (s *Service) ListSessions(ctx context.Context, userID string, in ListInput) (*SessionList, error) {
	f, aerr := normalizeList(in)
	if aerr != nil {
		return nil, aerr
	}

	rows, total, err := s.sessions.GetSessionsWithRounds(ctx, userID, f)
	if err != nil {
		return nil, apperr.Internal("failed to list training sessions", err)
	}

	out := &SessionList{
		Sessions:   make([]SessionListItem, len(rows)),
		Pagination: newPagination(f.Page, f.Limit, total),
	}
	for i := range rows {
		item := SessionListItem{
			SessionDTO: toSessionDTO(&rows[i].Session),
			Rounds:     make([]RoundDTO, len(rows[i].Rounds)),
		}
		for j := range rows[i].Rounds {
			rd := &rows[i].Rounds[j]
			item.Rounds[j] = toRoundDTO(rd)
			if rd.Completed() {
				item.RoundsCompleted++
			}
			if rd.Score != nil {
				item.TotalScore += *rd.Score
			}
		}
		out.Sessions[i] = item
	}
	return out, nil
}

func normalizeList(in ListInput) (store.ListFilter, *apperr.Error) {
	f := store.ListFilter{Status: in.Status, Page: in.Page, Limit: in.Limit, Sort: in.Sort}
	details := map[string]string{}

	switch f.Status {
	case "", store.StatusActive, store.StatusCompleted:
	default:
		details["status"] = "must be active or completed"
	}
	switch f.Sort {
	case "":
		f.Sort = "desc"
	case "asc", "desc":
	default:
		details["sort"] = "must be asc or desc"
	}
	if f.Page == 0 {
		f.Page = 1
	} else if f.Page < 0 {
		details["page"] = "must be a positive integer"
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageSize
	} else if f.Limit < 0 || f.Limit > MaxPageSize {
		details["limit"] = fmt.Sprintf("must be between 1 and %d", MaxPageSize)
	}

	if len(details) > 0 {
		return f, &apperr.Error{Kind: apperr.KindBadRequest, Message: "invalid query parameters", Details: details}
	}
	return f, nil
}

// DeleteSession removes a session and everything under it.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, userID, sessionID); err != nil {
		return classify(err, "training session")
	}
	s.logger.Info("training session deleted", "session_id", sessionID, "user_id", userID)
	return nil
}

// ReportQuestion flags a question from one of the user's own sessions.
func (s *Service) ReportQuestion(ctx context.Context, userID string, in ReportInput) (*ReportDTO, error) {
	comment := strings.TrimSpace(in.Comment)
	if n := utf8.RuneCountInString(comment); n == 0 || n > MaxCommentLen {
		return nil, apperr.Validation("invalid question report", map[string]string{
			"comment": fmt.Sprintf("must be between 1 and %d characters", MaxCommentLen),
		})
	}

	q, err := s.sessions.GetQuestionForUser(ctx, userID, in.QuestionID)
	if err != nil {
		return nil, classify(err, "question")
	}

	r := &store.QuestionReport{
		ID:         uuid.NewString(),
		QuestionID: q.ID,
		UserID:     userID,
		Comment:    comment,
		Status:     store.ReportPending,
		CreatedAt:  s.now(),
	}
	if err := s.reports.CreateReport(ctx, r); err != nil {
		return nil, apperr.Internal("failed to save question report", err)
	}

	s.logger.Info("question reported", "question_id", q.ID, "user_id", userID)
	return &ReportDTO{
		ID:         r.ID,
		QuestionID: r.QuestionID,
		Comment:    r.Comment,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
	}, nil
}

// classify maps repository errors to application errors.
func classify(err error, resource string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, store.ErrConflict):
		return apperr.BadRequest("%s was modified concurrently", resource)
	default:
		return apperr.Internal("failed to load "+resource, err)
	}
}
