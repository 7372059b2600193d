package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/training"
	"github.com/abhisek/tensetrainer/internal/transcript"
)

// fakeBackend serves rounds whose correct answer is always the first
// option.
type fakeBackend struct {
	mu       sync.Mutex
	rounds   int
	starts   int
	detail   *training.SessionDetailDTO
	reports  []string
	startErr error
}

func (f *fakeBackend) CreateSession(context.Context, grammar.Tense, grammar.Difficulty) (*training.SessionDTO, error) {
	return nil, errors.New("not used")
}

func (f *fakeBackend) ListSessions(context.Context, training.ListInput) (*training.SessionList, error) {
	return &training.SessionList{}, nil
}

func (f *fakeBackend) GetSession(_ context.Context, id string) (*training.SessionDetailDTO, error) {
	if f.detail == nil {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return f.detail, nil
}

func (f *fakeBackend) DeleteSession(context.Context, string) error { return nil }

func (f *fakeBackend) StartRound(_ context.Context, sessionID string) (*training.CreateRoundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.rounds++
	n := f.rounds
	qs := make([]training.QuestionDTO, grammar.QuestionsPerRound)
	for i := range qs {
		qs[i] = training.QuestionDTO{
			ID:             fmt.Sprintf("r%d-q%d", n, i+1),
			QuestionNumber: i + 1,
			QuestionText:   fmt.Sprintf("Last week we ___ sentence %d.", i+1),
			Options:        []string{"wrote", "write", "written", "writing"},
		}
	}
	return &training.CreateRoundResult{
		Round:     training.RoundDTO{ID: fmt.Sprintf("r%d", n), SessionID: sessionID, RoundNumber: n},
		Questions: qs,
	}, nil
}

func (f *fakeBackend) SubmitRound(_ context.Context, roundID string, answers []training.AnswerInput) (*training.CompleteRoundResult, error) {
	score := 0
	qs := make([]training.ReviewedQuestionDTO, len(answers))
	for i, a := range answers {
		ok := a.SelectedAnswer == "wrote"
		if ok {
			score++
		}
		qs[i] = training.ReviewedQuestionDTO{
			QuestionDTO:    training.QuestionDTO{ID: a.QuestionID, QuestionNumber: i + 1},
			CorrectAnswer:  "wrote",
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      ok,
		}
	}
	var n int
	fmt.Sscanf(roundID, "r%d", &n)
	fb := "Keep an eye on irregular verbs."
	now := time.Now()
	return &training.CompleteRoundResult{
		Round:     training.RoundDTO{ID: roundID, RoundNumber: n, CompletedAt: &now, Score: &score, RoundFeedback: &fb},
		Questions: qs,
		Summary:   training.NewRoundSummary(score),
	}, nil
}

func (f *fakeBackend) CompleteSession(_ context.Context, sessionID string) (*training.CompleteSessionResult, error) {
	fb := "You finished the session."
	return &training.CompleteSessionResult{
		Session: training.SessionDTO{ID: sessionID, Status: "completed", FinalFeedback: &fb},
		Summary: training.SessionSummary{TotalScore: "30/30", CorrectAnswers: 30, TotalQuestions: 30, AccuracyPercentage: 100, RoundsScores: []int{10, 10, 10}, PerfectScore: true},
	}, nil
}

func (f *fakeBackend) ReportQuestion(_ context.Context, questionID, comment string) (*training.ReportDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, questionID+": "+comment)
	return &training.ReportDTO{ID: "rep", QuestionID: questionID, Comment: comment, Status: "pending"}, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// drive runs cmd and feeds the screen's own result messages back until
// nothing is left. Spinner ticks and anything else are dropped.
func drive(t *testing.T, s *PracticeScreen, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case detailLoadedMsg, actionDoneMsg, reportDoneMsg:
			_, next := s.Update(msg)
			queue = append(queue, next)
		}
	}
}

func press(t *testing.T, s *PracticeScreen, msgs ...tea.KeyPressMsg) {
	t.Helper()
	for _, m := range msgs {
		_, cmd := s.Update(m)
		drive(t, s, cmd)
	}
}

func newFresh(t *testing.T, b *fakeBackend) *PracticeScreen {
	t.Helper()
	s := New(b, &training.SessionDTO{ID: "s1", Tense: "Past Simple", Difficulty: "Basic", Status: "active"})
	drive(t, s, s.Init())
	return s
}

func answerRound(t *testing.T, s *PracticeScreen, key rune) {
	t.Helper()
	for i := 0; i < grammar.QuestionsPerRound; i++ {
		press(t, s, keyPress(key))
	}
}

func TestFreshSessionAutoStartsFirstRound(t *testing.T) {
	b := &fakeBackend{}
	s := newFresh(t, b)

	snap := s.store.Snapshot()
	if snap.Phase != transcript.PhaseRoundInProgress {
		t.Fatalf("Phase = %s, want round-in-progress", snap.Phase)
	}
	if b.starts != 1 {
		t.Errorf("StartRound called %d times, want 1", b.starts)
	}
	view := s.View(100, 40)
	if !strings.Contains(view, "Round 1") || !strings.Contains(view, "Last week we ___ sentence 1.") {
		t.Errorf("view missing first question:\n%s", view)
	}
}

func TestSubmitRequiresEveryAnswer(t *testing.T) {
	b := &fakeBackend{}
	s := newFresh(t, b)

	press(t, s, keyPress('1'), keyPress('s'))
	if s.store.Phase() != transcript.PhaseRoundInProgress {
		t.Fatalf("round submitted with one answer")
	}
	if !strings.Contains(s.notice, "Answer all ten") {
		t.Errorf("notice = %q", s.notice)
	}
}

func TestPlayWholeSession(t *testing.T) {
	b := &fakeBackend{}
	s := newFresh(t, b)

	for n := 1; n <= grammar.RoundsPerSession; n++ {
		answerRound(t, s, '1')
		press(t, s, keyPress('s'))
		if got := s.store.Phase(); got != transcript.PhaseRoundReviewed {
			t.Fatalf("round %d: Phase = %s, want round-reviewed", n, got)
		}
		if !strings.Contains(s.View(100, 60), "10/10") {
			t.Errorf("round %d: summary not rendered", n)
		}
		press(t, s, specialKey(tea.KeyEnter))
	}

	snap := s.store.Snapshot()
	if snap.Phase != transcript.PhaseSessionCompleted {
		t.Fatalf("Phase = %s, want session-completed", snap.Phase)
	}
	view := s.View(100, 60)
	if !strings.Contains(view, "Perfect score!") || !strings.Contains(view, "You finished the session.") {
		t.Errorf("final feedback not rendered:\n%s", view)
	}
	if b.starts != grammar.RoundsPerSession {
		t.Errorf("StartRound called %d times, want %d", b.starts, grammar.RoundsPerSession)
	}
}

func TestWrongAnswersAreMarked(t *testing.T) {
	s := newFresh(t, &fakeBackend{})
	answerRound(t, s, '2')
	press(t, s, keyPress('s'))

	view := s.View(120, 80)
	if !strings.Contains(view, "0/10") {
		t.Errorf("expected 0/10 in view:\n%s", view)
	}
	if !strings.Contains(view, "✗") {
		t.Errorf("expected wrong-answer marks in view")
	}
}

func TestStartFailureShowsErrorAndRetries(t *testing.T) {
	b := &fakeBackend{startErr: errors.New("model unavailable")}
	s := newFresh(t, b)

	snap := s.store.Snapshot()
	if snap.Phase != transcript.PhaseIdle || snap.Pending {
		t.Fatalf("Phase = %s pending=%v, want idle and not pending", snap.Phase, snap.Pending)
	}
	if !strings.Contains(s.View(100, 40), "model unavailable") {
		t.Errorf("error not rendered")
	}

	b.startErr = nil
	press(t, s, specialKey(tea.KeyEnter))
	if s.store.Phase() != transcript.PhaseRoundInProgress {
		t.Errorf("retry did not start the round")
	}
}

func TestResumeRestoresTranscript(t *testing.T) {
	score := 7
	fb := "Solid first round."
	now := time.Now()
	correct := "wrote"
	qs := make([]training.DetailQuestionDTO, grammar.QuestionsPerRound)
	for i := range qs {
		qs[i] = training.DetailQuestionDTO{
			QuestionDTO:   training.QuestionDTO{ID: fmt.Sprintf("q%d", i), QuestionNumber: i + 1, QuestionText: "We ___ it.", Options: []string{"wrote", "write", "written", "writing"}},
			CorrectAnswer: &correct,
			UserAnswer:    &training.UserAnswerDTO{SelectedAnswer: "wrote", IsCorrect: i < score},
		}
	}
	b := &fakeBackend{rounds: 1, detail: &training.SessionDetailDTO{
		SessionDTO: training.SessionDTO{ID: "s1", Tense: "Past Simple", Difficulty: "Basic", Status: "active"},
		Rounds: []training.DetailRoundDTO{{
			RoundDTO:  training.RoundDTO{ID: "r1", RoundNumber: 1, CompletedAt: &now, Score: &score, RoundFeedback: &fb},
			Questions: qs,
		}},
	}}

	s := Resume(b, "s1")
	drive(t, s, s.Init())

	if s.store.Phase() != transcript.PhaseRoundReviewed {
		t.Fatalf("Phase = %s, want round-reviewed", s.store.Phase())
	}
	if b.starts != 0 {
		t.Errorf("resumed session auto-started a round")
	}
	if !strings.Contains(s.View(100, 60), "Solid first round.") {
		t.Errorf("restored feedback not rendered")
	}

	press(t, s, specialKey(tea.KeyEnter))
	if got := s.store.Snapshot().CurrentRoundNumber; got != 2 {
		t.Errorf("CurrentRoundNumber = %d, want 2", got)
	}
}

func TestReportQuestion(t *testing.T) {
	b := &fakeBackend{}
	s := newFresh(t, b)

	press(t, s, specialKey(tea.KeyDown))
	s.Update(keyPress('r'))
	if !s.CapturingInput() {
		t.Fatal("report input not open")
	}
	// Typing returns cursor blink commands; they are not needed here.
	for _, r := range "two answers fit" {
		s.Update(keyPress(r))
	}
	press(t, s, specialKey(tea.KeyEnter))

	if s.CapturingInput() {
		t.Error("report input still open")
	}
	if len(b.reports) != 1 || b.reports[0] != "r1-q2: two answers fit" {
		t.Errorf("reports = %v", b.reports)
	}
	if !strings.Contains(s.notice, "reported") {
		t.Errorf("notice = %q", s.notice)
	}
}
