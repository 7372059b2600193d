package training

import (
	"fmt"
	"time"

	"github.com/abhisek/tensetrainer/internal/feedback"
	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/store"
)

// CreateSessionInput is the body of a session creation request.
type CreateSessionInput struct {
	Tense      grammar.Tense      `json:"tense" validate:"required,tense"`
	Difficulty grammar.Difficulty `json:"difficulty" validate:"required,difficulty"`
}

// AnswerInput is one submitted answer. Unknown questions and options
// outside the question's four are rejected by the service.
type AnswerInput struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
}

// CompleteRoundInput is the body of a round completion request. The
// answer count is checked by the service, not the validator.
type CompleteRoundInput struct {
	Answers []AnswerInput `json:"answers" validate:"dive"`
}

// ListInput selects a page of sessions. Zero values take defaults.
type ListInput struct {
	Status string
	Page   int
	Limit  int
	Sort   string
}

// ReportInput is the body of a question report request.
type ReportInput struct {
	QuestionID string `json:"question_id" validate:"required,uuid"`
	Comment    string `json:"comment" validate:"required,max=1000"`
}

// SessionDTO is a training session without its rounds.
type SessionDTO struct {
	ID            string     `json:"id"`
	Tense         string     `json:"tense"`
	Difficulty    string     `json:"difficulty"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	FinalFeedback *string    `json:"final_feedback"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RoundDTO is a round without its questions. Score and RoundFeedback
// stay nil until the round is completed.
type RoundDTO struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id"`
	RoundNumber   int        `json:"round_number"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	Score         *int       `json:"score"`
	RoundFeedback *string    `json:"round_feedback"`
}

// QuestionDTO is a question as shown while its round is open. It never
// carries the correct answer.
type QuestionDTO struct {
	ID             string   `json:"id"`
	QuestionNumber int      `json:"question_number"`
	QuestionText   string   `json:"question_text"`
	Options        []string `json:"options"`
}

// ReviewedQuestionDTO is a question of a just-completed round.
type ReviewedQuestionDTO struct {
	QuestionDTO
	CorrectAnswer  string `json:"correct_answer"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// UserAnswerDTO is the stored answer to one question.
type UserAnswerDTO struct {
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// DetailQuestionDTO is a question in a session drill-down. CorrectAnswer
// is only set once the round is completed.
type DetailQuestionDTO struct {
	QuestionDTO
	CorrectAnswer *string        `json:"correct_answer,omitempty"`
	UserAnswer    *UserAnswerDTO `json:"user_answer"`
}

// DetailRoundDTO is a round with its questions, in question order.
type DetailRoundDTO struct {
	RoundDTO
	Questions []DetailQuestionDTO `json:"questions"`
}

// RoundSummary is the score of one round out of ten.
type RoundSummary struct {
	Score              string `json:"score"`
	CorrectAnswers     int    `json:"correct_answers"`
	TotalQuestions     int    `json:"total_questions"`
	AccuracyPercentage int    `json:"accuracy_percentage"`
}

// SessionSummary totals the three rounds of a completed session.
type SessionSummary struct {
	TotalScore         string `json:"total_score"`
	CorrectAnswers     int    `json:"correct_answers"`
	TotalQuestions     int    `json:"total_questions"`
	AccuracyPercentage int    `json:"accuracy_percentage"`
	RoundsScores       []int  `json:"rounds_scores"`
	PerfectScore       bool   `json:"perfect_score"`
}

// SessionDetailDTO is the drill-down of one session. Summary is set
// once the session is completed.
type SessionDetailDTO struct {
	SessionDTO
	Rounds  []DetailRoundDTO `json:"rounds"`
	Summary *SessionSummary  `json:"summary,omitempty"`
}

// SessionListItem is one row of the session history.
type SessionListItem struct {
	SessionDTO
	RoundsCompleted int        `json:"rounds_completed"`
	TotalScore      int        `json:"total_score"`
	Rounds          []RoundDTO `json:"rounds"`
}

// Pagination describes the page of a session list.
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	ItemsPerPage int  `json:"items_per_page"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// SessionList is one page of sessions.
type SessionList struct {
	Sessions   []SessionListItem `json:"sessions"`
	Pagination Pagination        `json:"pagination"`
}

// CreateRoundResult is a started round and its questions.
type CreateRoundResult struct {
	Round     RoundDTO      `json:"round"`
	Questions []QuestionDTO `json:"questions"`
}

// CompleteRoundResult is a scored round with the correct answers revealed.
type CompleteRoundResult struct {
	Round     RoundDTO              `json:"round"`
	Questions []ReviewedQuestionDTO `json:"questions"`
	Summary   RoundSummary          `json:"summary"`
}

// CompleteSessionResult is a completed session and its totals.
type CompleteSessionResult struct {
	Session SessionDTO     `json:"session"`
	Summary SessionSummary `json:"summary"`
}

// ReportDTO is a stored question report.
type ReportDTO struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Comment    string    `json:"comment"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toSessionDTO(s *store.Session) SessionDTO {
	return SessionDTO{
		ID:            s.ID,
		Tense:         s.Tense,
		Difficulty:    s.Difficulty,
		Status:        s.Status,
		StartedAt:     s.StartedAt,
		CompletedAt:   s.CompletedAt,
		FinalFeedback: s.FinalFeedback,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toRoundDTO(r *store.Round) RoundDTO {
	return RoundDTO{
		ID:            r.ID,
		SessionID:     r.SessionID,
		RoundNumber:   r.RoundNumber,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		Score:         r.Score,
		RoundFeedback: r.RoundFeedback,
	}
}

func toQuestionDTO(q *store.Question) QuestionDTO {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return QuestionDTO{
		ID:             q.ID,
		QuestionNumber: q.QuestionNumber,
		QuestionText:   q.QuestionText,
		Options:        opts,
	}
}

func toDetailRound(r *store.RoundWithQuestions) DetailRoundDTO {
	out := DetailRoundDTO{
		RoundDTO:  toRoundDTO(&r.Round),
		Questions: make([]DetailQuestionDTO, len(r.Questions)),
	}
	for i := range r.Questions {
		q := &r.Questions[i]
		dq := DetailQuestionDTO{QuestionDTO: toQuestionDTO(&q.Question)}
		if r.Completed() {
			correct := q.CorrectAnswer
			dq.CorrectAnswer = &correct
		}
		if q.Answer != nil {
			dq.UserAnswer = &UserAnswerDTO{
				SelectedAnswer: q.Answer.SelectedAnswer,
				IsCorrect:      q.Answer.IsCorrect,
				AnsweredAt:     q.Answer.AnsweredAt,
			}
		}
		out.Questions[i] = dq
	}
	return out
}

// NewRoundSummary describes a round scored out of ten.
func NewRoundSummary(score int) RoundSummary {
	return RoundSummary{
		Score:              fmt.Sprintf("%d/%d", score, grammar.QuestionsPerRound),
		CorrectAnswers:     score,
		TotalQuestions:     grammar.QuestionsPerRound,
		AccuracyPercentage: feedback.Percent(score, grammar.QuestionsPerRound),
	}
}

func newSessionSummary(roundsScores [grammar.RoundsPerSession]int) SessionSummary {
	total := 0
	for _, s := range roundsScores {
		total += s
	}
	return SessionSummary{
		TotalScore:         fmt.Sprintf("%d/%d", total, grammar.MaxSessionScore),
		CorrectAnswers:     total,
		TotalQuestions:     grammar.MaxSessionScore,
		AccuracyPercentage: feedback.Percent(total, grammar.MaxSessionScore),
		RoundsScores:       roundsScores[:],
		PerfectScore:       total == grammar.MaxSessionScore,
	}
}

func newPagination(page, limit, total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < pages,
		HasPrevious:  page > 1,
	}
}
