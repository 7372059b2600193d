package transcript

import (
	"errors"
	"sort"
	"sync"

	"github.com/abhisek/tensetrainer/internal/training"
)

// Phase is where the session stands in the round cycle.
type Phase int

const (
	PhaseIdle             Phase = iota // No round started yet
	PhaseRoundInProgress               // An open round awaits answers
	PhaseRoundReviewed                 // The latest round is scored
	PhaseSessionCompleted              // Final feedback received
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRoundInProgress:
		return "round-in-progress"
	case PhaseRoundReviewed:
		return "round-reviewed"
	case PhaseSessionCompleted:
		return "session-completed"
	}
	return "unknown"
}

var (
	// ErrBusy is returned when another request is already pending.
	ErrBusy = errors.New("transcript: a request is already in progress")

	// ErrWrongPhase is returned when an action does not apply to the
	// current phase.
	ErrWrongPhase = errors.New("transcript: action not allowed in the current phase")

	// ErrIncomplete is returned when a round is submitted with unanswered
	// questions.
	ErrIncomplete = errors.New("transcript: every question needs an answer")

	// ErrStale is returned when the store switched sessions while a
	// request was in flight. The response is dropped.
	ErrStale = errors.New("transcript: session changed during the request")
)

// Snapshot is a copy of the store state for rendering.
type Snapshot struct {
	SessionID          string
	Tense              string
	Difficulty         string
	Status             string
	Phase              Phase
	CurrentRoundID     string
	CurrentRoundNumber int
	RoundsCompleted    int
	Components         []Component
	Pending            bool
	Err                error

	// CanAdvance is set when the latest round is scored and the session
	// still takes another round or the final feedback.
	CanAdvance bool
}

// Store is the state of one session view. It is safe for concurrent use;
// the terminal runs requests on background goroutines.
type Store struct {
	mu sync.Mutex

	sessionID          string
	tense              string
	difficulty         string
	status             string
	phase              Phase
	currentRoundID     string
	currentRoundNumber int
	roundsCompleted    int

	components []Component
	nextID     int

	hasAutoStarted bool

	// pendingID is the id of the single loading placeholder, 0 when idle.
	pendingID int
	lastErr   error
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Initialize binds the store to a session. Calling it again with the same
// id is a no-op; a different id resets everything.
func (s *Store) Initialize(sessionID, tense, difficulty, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID == sessionID && sessionID != "" {
		return
	}
	s.sessionID = sessionID
	s.tense = tense
	s.difficulty = difficulty
	s.status = status
	s.phase = PhaseIdle
	if status == "completed" {
		s.phase = PhaseSessionCompleted
	}
	s.currentRoundID = ""
	s.currentRoundNumber = 0
	s.roundsCompleted = 0
	s.components = nil
	s.nextID = 0
	s.hasAutoStarted = false
	s.pendingID = 0
	s.lastErr = nil
}

// RestoreFromRounds rebuilds the transcript from server state. Rounds may
// arrive in any order; the result only depends on their content.
func (s *Store) RestoreFromRounds(rounds []training.DetailRoundDTO, summary *training.SessionSummary, finalFeedback *string) {
	sorted := append([]training.DetailRoundDTO(nil), rounds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RoundNumber < sorted[j].RoundNumber
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.components = nil
	s.nextID = 0
	s.pendingID = 0
	s.lastErr = nil
	s.currentRoundID = ""
	s.currentRoundNumber = 0
	s.roundsCompleted = 0

	for _, r := range sorted {
		qs := make([]Question, len(r.Questions))
		for i, q := range r.Questions {
			qs[i] = fromDetail(q)
		}
		sort.SliceStable(qs, func(i, j int) bool { return qs[i].Number < qs[j].Number })

		if r.CompletedAt == nil {
			s.append(Component{Kind: KindQuestionList, RoundID: r.ID, RoundNumber: r.RoundNumber, Questions: qs})
			s.currentRoundID = r.ID
			s.currentRoundNumber = r.RoundNumber
			continue
		}

		s.append(Component{Kind: KindQuestionList, ReadOnly: true, RoundID: r.ID, RoundNumber: r.RoundNumber, Questions: qs})
		s.append(Component{
			Kind:        KindRoundSummary,
			ReadOnly:    true,
			RoundID:     r.ID,
			RoundNumber: r.RoundNumber,
			Round:       roundResult(r.RoundDTO, qs),
		})
		s.roundsCompleted++
		if s.currentRoundID == "" {
			s.currentRoundNumber = r.RoundNumber
		}
	}

	if s.status == "completed" && summary != nil && finalFeedback != nil {
		s.append(Component{Kind: KindFinalFeedback, Session: sessionResult(*summary, *finalFeedback)})
	}

	switch {
	case s.status == "completed":
		s.phase = PhaseSessionCompleted
	case s.currentRoundID != "":
		s.phase = PhaseRoundInProgress
	case s.roundsCompleted > 0:
		s.phase = PhaseRoundReviewed
	default:
		s.phase = PhaseIdle
	}
}

// Restore initializes the store from a session detail and rebuilds its
// transcript.
func (s *Store) Restore(d *training.SessionDetailDTO) {
	s.Initialize(d.ID, d.Tense, d.Difficulty, d.Status)
	s.mu.Lock()
	s.status = d.Status
	s.mu.Unlock()
	s.RestoreFromRounds(d.Rounds, d.Summary, d.FinalFeedback)
}

// CheckAndAutoStart calls startRound once for a fresh session: no current
// round, an empty transcript and no earlier auto-start. The flag is set
// before startRound runs so concurrent callers cannot start twice. It
// reports whether startRound was called.
func (s *Store) CheckAndAutoStart(startRound func() error) (bool, error) {
	s.mu.Lock()
	if s.hasAutoStarted || s.currentRoundID != "" || len(s.components) > 0 || s.phase != PhaseIdle {
		s.mu.Unlock()
		return false, nil
	}
	s.hasAutoStarted = true
	s.mu.Unlock()

	return true, startRound()
}

// SetQuestions records a freshly started round.
func (s *Store) SetQuestions(round training.RoundDTO, questions []training.QuestionDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()

	qs := make([]Question, len(questions))
	for i, q := range questions {
		qs[i] = Question{
			ID:      q.ID,
			Number:  q.QuestionNumber,
			Text:    q.QuestionText,
			Options: append([]string(nil), q.Options...),
		}
	}

	s.freeze()
	s.clearPending()
	s.dropLoading()
	s.append(Component{Kind: KindQuestionList, RoundID: round.ID, RoundNumber: round.RoundNumber, Questions: qs})
	s.currentRoundID = round.ID
	s.currentRoundNumber = round.RoundNumber
	s.lastErr = nil
	s.phase = PhaseRoundInProgress
}

// SetRoundComplete records a scored round. The round's question list is
// updated with the reviewed answers.
func (s *Store) SetRoundComplete(res *training.CompleteRoundResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviewed := make(map[string]training.ReviewedQuestionDTO, len(res.Questions))
	for _, q := range res.Questions {
		reviewed[q.ID] = q
	}
	for i := range s.components {
		c := &s.components[i]
		if c.Kind != KindQuestionList || c.RoundID != res.Round.ID {
			continue
		}
		for j := range c.Questions {
			q := &c.Questions[j]
			if r, ok := reviewed[q.ID]; ok {
				q.Selected = r.SelectedAnswer
				q.Correct = r.CorrectAnswer
				q.IsCorrect = r.IsCorrect
				q.Reviewed = true
			}
		}
	}

	fb := ""
	if res.Round.RoundFeedback != nil {
		fb = *res.Round.RoundFeedback
	}

	s.freeze()
	s.clearPending()
	s.dropLoading()
	s.append(Component{
		Kind:        KindRoundSummary,
		RoundID:     res.Round.ID,
		RoundNumber: res.Round.RoundNumber,
		Round: &RoundResult{
			Score:          res.Summary.Score,
			CorrectAnswers: res.Summary.CorrectAnswers,
			TotalQuestions: res.Summary.TotalQuestions,
			Accuracy:       res.Summary.AccuracyPercentage,
			Feedback:       fb,
		},
	})
	s.currentRoundID = ""
	s.currentRoundNumber = res.Round.RoundNumber
	s.roundsCompleted++
	s.lastErr = nil
	s.phase = PhaseRoundReviewed
}

// SetSessionComplete records the final feedback.
func (s *Store) SetSessionComplete(res *training.CompleteSessionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb := ""
	if res.Session.FinalFeedback != nil {
		fb = *res.Session.FinalFeedback
	}

	s.freeze()
	s.clearPending()
	s.dropLoading()
	s.append(Component{Kind: KindFinalFeedback, Session: sessionResult(res.Summary, fb)})
	s.status = res.Session.Status
	s.currentRoundID = ""
	s.lastErr = nil
	s.phase = PhaseSessionCompleted
}

// AddChatComponent appends c and returns its id.
func (s *Store) AddChatComponent(c Component) int {
	mustKnow(c.Kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(c.clone())
}

// RemoveChatComponent removes every component matching pred and returns
// how many were removed.
func (s *Store) RemoveChatComponent(pred func(Component) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.components[:0]
	removed := 0
	for _, c := range s.components {
		if pred(c.clone()) {
			if c.ID == s.pendingID {
				s.pendingID = 0
			}
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.components = kept
	return removed
}

// BeginPending shows a loading placeholder. Only one may exist; a second
// call fails with ErrBusy.
func (s *Store) BeginPending(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginPending(label)
}

// FailPending removes the placeholder and records err. The phase is left
// unchanged.
func (s *Store) FailPending(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearPending()
	s.lastErr = err
}

// Select records the chosen option for a question of the open round.
func (s *Store) Select(questionID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.openList()
	if c == nil {
		return ErrWrongPhase
	}
	for i := range c.Questions {
		q := &c.Questions[i]
		if q.ID != questionID {
			continue
		}
		for _, o := range q.Options {
			if o == option {
				q.Selected = option
				return nil
			}
		}
		return errors.New("transcript: option is not offered by the question")
	}
	return errors.New("transcript: question is not part of the open round")
}

// Answers returns the selections of the open round, in question order.
// It fails with ErrIncomplete while a question is unanswered.
func (s *Store) Answers() ([]training.AnswerInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	comps := make([]Component, len(s.components))
	for i, c := range s.components {
		comps[i] = c.clone()
	}
	return Snapshot{
		SessionID:          s.sessionID,
		Tense:              s.tense,
		Difficulty:         s.difficulty,
		Status:             s.status,
		Phase:              s.phase,
		CurrentRoundID:     s.currentRoundID,
		CurrentRoundNumber: s.currentRoundNumber,
		RoundsCompleted:    s.roundsCompleted,
		Components:         comps,
		Pending:            s.pendingID != 0,
		Err:                s.lastErr,
		CanAdvance:         s.phase == PhaseRoundReviewed && s.status != "completed",
	}
}

// Phase returns the current phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Err returns the error of the last failed request, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Helpers below expect s.mu to be held.

func (s *Store) append(c Component) int {
	s.nextID++
	c.ID = s.nextID
	s.components = append(s.components, c)
	return c.ID
}

// freeze marks every editable component read-only.
func (s *Store) freeze() {
	for i := range s.components {
		if s.components[i].Editable() {
			s.components[i].ReadOnly = true
		}
	}
}

func (s *Store) beginPending(label string) error {
	if s.pendingID != 0 {
		return ErrBusy
	}
	s.pendingID = s.append(Component{Kind: KindLoading, ReadOnly: true, Label: label})
	return nil
}

func (s *Store) clearPending() {
	if s.pendingID == 0 {
		return
	}
	for i, c := range s.components {
		if c.ID == s.pendingID {
			s.components = append(s.components[:i], s.components[i+1:]...)
			break
		}
	}
	s.pendingID = 0
}

// dropLoading removes loading components added outside the pending slot.
func (s *Store) dropLoading() {
	kept := s.components[:0]
	for _, c := range s.components {
		if c.Kind != KindLoading {
			kept = append(kept, c)
		}
	}
	s.components = kept
}

func (s *Store) openList() *Component {
	if s.currentRoundID == "" {
		return nil
	}
	for i := len(s.components) - 1; i >= 0; i-- {
		c := &s.components[i]
		if c.Kind == KindQuestionList && c.RoundID == s.currentRoundID && !c.ReadOnly {
			return c
		}
	}
	return nil
}

func (s *Store) answers() ([]training.AnswerInput, error) {
	c := s.openList()
	if c == nil {
		return nil, ErrWrongPhase
	}
	out := make([]training.AnswerInput, 0, len(c.Questions))
	for _, q := range c.Questions {
		if q.Selected == "" {
			return nil, ErrIncomplete
		}
		out = append(out, training.AnswerInput{QuestionID: q.ID, SelectedAnswer: q.Selected})
	}
	return out, nil
}

func fromDetail(q training.DetailQuestionDTO) Question {
	out := Question{
		ID:      q.ID,
		Number:  q.QuestionNumber,
		Text:    q.QuestionText,
		Options: append([]string(nil), q.Options...),
	}
	if q.UserAnswer != nil {
		out.Selected = q.UserAnswer.SelectedAnswer
		out.IsCorrect = q.UserAnswer.IsCorrect
	}
	if q.CorrectAnswer != nil {
		out.Correct = *q.CorrectAnswer
		out.Reviewed = true
	}
	return out
}

// roundResult prefers the stored score and falls back to counting the
// reviewed answers.
func roundResult(r training.RoundDTO, qs []Question) *RoundResult {
	score := 0
	if r.Score != nil {
		score = *r.Score
	} else {
		for _, q := range qs {
			if q.IsCorrect {
				score++
			}
		}
	}
	sum := training.NewRoundSummary(score)
	out := &RoundResult{
		Score:          sum.Score,
		CorrectAnswers: sum.CorrectAnswers,
		TotalQuestions: sum.TotalQuestions,
		Accuracy:       sum.AccuracyPercentage,
	}
	if r.RoundFeedback != nil {
		out.Feedback = *r.RoundFeedback
	}
	return out
}

func sessionResult(sum training.SessionSummary, feedback string) *SessionResult {
	return &SessionResult{
		TotalScore:     sum.TotalScore,
		CorrectAnswers: sum.CorrectAnswers,
		TotalQuestions: sum.TotalQuestions,
		Accuracy:       sum.AccuracyPercentage,
		RoundsScores:   append([]int(nil), sum.RoundsScores...),
		PerfectScore:   sum.PerfectScore,
		Feedback:       feedback,
	}
}
