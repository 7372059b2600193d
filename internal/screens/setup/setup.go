// Package setup lets the learner choose a tense and difficulty and creates
// the session.
package setup

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/router"
	"github.com/abhisek/tensetrainer/internal/screen"
	"github.com/abhisek/tensetrainer/internal/screens/practice"
	"github.com/abhisek/tensetrainer/internal/training"
	"github.com/abhisek/tensetrainer/internal/ui/components"
	"github.com/abhisek/tensetrainer/internal/ui/layout"
	"github.com/abhisek/tensetrainer/internal/ui/theme"
)

type step int

const (
	stepTense step = iota
	stepDifficulty
	stepCreating
)

type tenseChosenMsg struct{ Tense grammar.Tense }

type difficultyChosenMsg struct{ Difficulty grammar.Difficulty }

type sessionCreatedMsg struct {
	Session *training.SessionDTO
	Err     error
}

// SetupScreen walks through tense and difficulty selection.
type SetupScreen struct {
	backend    screen.Backend
	step       step
	tenses     components.Menu
	levels     components.Menu
	tense      grammar.Tense
	difficulty grammar.Difficulty
	errMsg     string
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// New creates a SetupScreen.
func New(backend screen.Backend) *SetupScreen {
	tenses := make([]components.MenuItem, len(grammar.Tenses))
	for i, t := range grammar.Tenses {
		tenses[i] = components.MenuItem{Label: string(t), Hint: t.Usage(), Action: func() tea.Cmd {
			return func() tea.Msg { return tenseChosenMsg{Tense: t} }
		}}
	}
	levels := make([]components.MenuItem, len(grammar.Difficulties))
	for i, d := range grammar.Difficulties {
		levels[i] = components.MenuItem{Label: string(d), Hint: d.Guidance(), Action: func() tea.Cmd {
			return func() tea.Msg { return difficultyChosenMsg{Difficulty: d} }
		}}
	}
	return &SetupScreen{
		backend: backend,
		tenses:  components.NewMenu(tenses),
		levels:  components.NewMenu(levels),
	}
}

func (s *SetupScreen) Init() tea.Cmd {
	return nil
}

func (s *SetupScreen) Title() string {
	return "New Session"
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	if s.step == stepCreating {
		return nil
	}
	back := "Back"
	if s.step == stepDifficulty {
		back = "Change tense"
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Backspace", Description: back},
	}
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tenseChosenMsg:
		s.tense = msg.Tense
		s.step = stepDifficulty
		return s, nil

	case difficultyChosenMsg:
		s.difficulty = msg.Difficulty
		s.step = stepCreating
		s.errMsg = ""
		return s, s.create()

	case sessionCreatedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			s.step = stepDifficulty
			return s, nil
		}
		next := practice.New(s.backend, msg.Session)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }

	case tea.KeyMsg:
		if s.step == stepCreating {
			return s, nil
		}
		if msg.String() == "backspace" {
			if s.step == stepDifficulty {
				s.step = stepTense
				return s, nil
			}
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}

	var cmd tea.Cmd
	switch s.step {
	case stepTense:
		s.tenses, cmd = s.tenses.Update(msg)
	case stepDifficulty:
		s.levels, cmd = s.levels.Update(msg)
	}
	return s, cmd
}

func (s *SetupScreen) create() tea.Cmd {
	tense, difficulty := s.tense, s.difficulty
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sess, err := s.backend.CreateSession(ctx, tense, difficulty)
		return sessionCreatedMsg{Session: sess, Err: err}
	}
}

func (s *SetupScreen) View(width, height int) string {
	var sections []string

	switch s.step {
	case stepTense:
		sections = append(sections, theme.Title.Render("Which tense do you want to practise?"))
		sections = append(sections, s.tenses.View())
	case stepDifficulty:
		sections = append(sections, theme.Subtitle.Render("Tense: "+string(s.tense)))
		sections = append(sections, theme.Title.Render("How hard should it be?"))
		sections = append(sections, s.levels.View())
	case stepCreating:
		sections = append(sections, theme.Hint.Render(
			"Creating a "+strings.ToLower(string(s.difficulty))+" "+string(s.tense)+" session..."))
	}

	if s.errMsg != "" {
		sections = append(sections, theme.ErrorText.Render("✗ "+s.errMsg))
	}

	content := theme.Card.Render(strings.Join(sections, "\n\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
