// Package practice is the chat-style screen for one training session.
package practice

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/screen"
	"github.com/abhisek/tensetrainer/internal/training"
	"github.com/abhisek/tensetrainer/internal/transcript"
	"github.com/abhisek/tensetrainer/internal/ui/components"
	"github.com/abhisek/tensetrainer/internal/ui/layout"
)

// requestTimeout bounds one round request; generation and feedback wait
// on the model.
const requestTimeout = 3 * time.Minute

// PracticeScreen implements screen.Screen for a training session.
type PracticeScreen struct {
	backend   screen.Backend
	store     *transcript.Store
	sessionID string
	fresh     *training.SessionDTO

	// cursor is the question index within the latest question list.
	cursor int
	// optCursor remembers the highlighted option per question id.
	optCursor map[string]int

	reporting bool
	input     components.TextInput

	spinner int
	notice  string
	loadErr string
	loaded  bool
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)

// New opens a session that was just created. The first round starts
// automatically.
func New(backend screen.Backend, sess *training.SessionDTO) *PracticeScreen {
	return &PracticeScreen{
		backend:   backend,
		store:     transcript.New(),
		sessionID: sess.ID,
		fresh:     sess,
		optCursor: make(map[string]int),
	}
}

// Resume opens an existing session and rebuilds its transcript.
func Resume(backend screen.Backend, sessionID string) *PracticeScreen {
	return &PracticeScreen{
		backend:   backend,
		store:     transcript.New(),
		sessionID: sessionID,
		optCursor: make(map[string]int),
	}
}

func (s *PracticeScreen) Init() tea.Cmd {
	if s.fresh != nil {
		s.store.Initialize(s.fresh.ID, s.fresh.Tense, s.fresh.Difficulty, s.fresh.Status)
		s.loaded = true
		return s.autoStart()
	}
	return s.loadDetail()
}

func (s *PracticeScreen) Title() string {
	return "Practice"
}

// CapturingInput reports whether Esc belongs to the screen rather than
// the router.
func (s *PracticeScreen) CapturingInput() bool {
	return s.reporting
}

func (s *PracticeScreen) KeyHints() []layout.KeyHint {
	if s.reporting {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Send report"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	snap := s.store.Snapshot()
	switch snap.Phase {
	case transcript.PhaseRoundInProgress:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Question"},
			{Key: "←→/1-4", Description: "Choose"},
			{Key: "S", Description: "Submit round"},
			{Key: "R", Description: "Report"},
			{Key: "Esc", Description: "Leave"},
		}
	case transcript.PhaseRoundReviewed:
		next := "Next round"
		if snap.RoundsCompleted >= grammar.RoundsPerSession {
			next = "Finish session"
		}
		return []layout.KeyHint{
			{Key: "Enter", Description: next},
			{Key: "↑↓", Description: "Question"},
			{Key: "R", Description: "Report"},
			{Key: "Esc", Description: "Leave"},
		}
	case transcript.PhaseIdle:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start round"},
			{Key: "Esc", Description: "Leave"},
		}
	default:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Question"},
			{Key: "R", Description: "Report"},
			{Key: "Esc", Description: "Back"},
		}
	}
}

func (s *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		if msg.Err != nil {
			s.loadErr = msg.Err.Error()
			return s, nil
		}
		s.store.Restore(msg.Detail)
		s.loaded = true
		s.cursor = 0
		return s, s.autoStart()

	case actionDoneMsg:
		// Request failures are kept in the store and rendered from there.
		switch {
		case msg.Err == nil:
			s.cursor = 0
		case errors.Is(msg.Err, transcript.ErrWrongPhase), errors.Is(msg.Err, transcript.ErrIncomplete):
			s.notice = msg.Err.Error()
		}
		return s, nil

	case reportDoneMsg:
		if msg.Err != nil {
			s.notice = "Report failed: " + msg.Err.Error()
		} else {
			s.notice = "Thanks, the question was reported."
		}
		return s, nil

	case spinnerTickMsg:
		if !s.store.Snapshot().Pending {
			return s, nil
		}
		s.spinner++
		return s, spinnerTick()

	case tea.KeyMsg:
		if s.reporting {
			return s.handleReportKey(msg)
		}
		return s.handleKey(msg)
	}

	if s.reporting {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if !s.loaded {
		return s, nil
	}
	snap := s.store.Snapshot()
	list := latestList(snap)

	switch key := msg.String(); key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
		return s, nil
	case "down", "j":
		if list != nil && s.cursor < len(list.Questions)-1 {
			s.cursor++
		}
		return s, nil
	case "r":
		if list == nil || len(list.Questions) == 0 || snap.Pending {
			return s, nil
		}
		s.reporting = true
		s.notice = ""
		s.input = components.NewTextInput("What is wrong with this question?", training.MaxCommentLen)
		return s, s.input.Init()
	}

	if snap.Pending {
		return s, nil
	}

	switch snap.Phase {
	case transcript.PhaseIdle:
		if msg.String() == "enter" {
			return s, s.run(s.store.StartRound)
		}

	case transcript.PhaseRoundInProgress:
		if msg.String() == "s" {
			if _, err := s.store.Answers(); err != nil {
				s.notice = "Answer all ten questions before submitting."
				return s, nil
			}
			s.notice = ""
			return s, s.run(s.store.SubmitRound)
		}
		return s, s.choose(list, msg)

	case transcript.PhaseRoundReviewed:
		if key := msg.String(); key == "enter" || key == "n" {
			s.notice = ""
			if snap.RoundsCompleted >= grammar.RoundsPerSession {
				return s, s.run(s.store.CompleteSession)
			}
			return s, s.run(s.store.StartRound)
		}
	}
	return s, nil
}

// choose forwards option keys to the current question's selector.
func (s *PracticeScreen) choose(list *transcript.Component, msg tea.KeyMsg) tea.Cmd {
	if list == nil || !list.Editable() || s.cursor >= len(list.Questions) {
		return nil
	}
	q := list.Questions[s.cursor]
	mc := s.selector(q)
	mc, cmd := mc.Update(msg)
	s.optCursor[q.ID] = mc.Cursor
	if picked := mc.ChosenOption(); picked != "" && picked != q.Selected {
		if err := s.store.Select(q.ID, picked); err != nil {
			s.notice = err.Error()
		} else if s.cursor < len(list.Questions)-1 {
			s.cursor++
		}
	}
	return cmd
}

func (s *PracticeScreen) selector(q transcript.Question) components.MultiChoice {
	mc := components.NewMultiChoice(q.Text, q.Options, q.Selected)
	if c, ok := s.optCursor[q.ID]; ok {
		mc.Cursor = c
	}
	if q.Reviewed {
		mc.Reveal(q.Correct)
	}
	return mc
}

func (s *PracticeScreen) handleReportKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.reporting = false
		return s, nil
	case "enter":
		comment := strings.TrimSpace(s.input.Value())
		if comment == "" {
			s.notice = "Describe the problem before sending."
			return s, nil
		}
		list := latestList(s.store.Snapshot())
		if list == nil || s.cursor >= len(list.Questions) {
			s.reporting = false
			return s, nil
		}
		questionID := list.Questions[s.cursor].ID
		s.reporting = false
		return s, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_, err := s.backend.ReportQuestion(ctx, questionID, comment)
			return reportDoneMsg{Err: err}
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// run executes a transcript action in the background and animates the
// placeholder while it is pending.
func (s *PracticeScreen) run(action func(context.Context, transcript.API) error) tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return actionDoneMsg{Err: action(ctx, s.backend)}
		},
		spinnerTick(),
	)
}

func (s *PracticeScreen) autoStart() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			_, err := s.store.CheckAndAutoStart(func() error {
				return s.store.StartRound(ctx, s.backend)
			})
			return actionDoneMsg{Err: err}
		},
		spinnerTick(),
	)
}

func (s *PracticeScreen) loadDetail() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		d, err := s.backend.GetSession(ctx, s.sessionID)
		return detailLoadedMsg{Detail: d, Err: err}
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// latestList returns the newest question list of the transcript.
func latestList(snap transcript.Snapshot) *transcript.Component {
	for i := len(snap.Components) - 1; i >= 0; i-- {
		if snap.Components[i].Kind == transcript.KindQuestionList {
			return &snap.Components[i]
		}
	}
	return nil
}
