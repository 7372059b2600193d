// Package history lists past sessions and reopens them.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/router"
	"github.com/abhisek/tensetrainer/internal/screen"
	"github.com/abhisek/tensetrainer/internal/screens/practice"
	"github.com/abhisek/tensetrainer/internal/training"
	"github.com/abhisek/tensetrainer/internal/ui/layout"
	"github.com/abhisek/tensetrainer/internal/ui/theme"
)

const pageSize = 10

type historyLoadedMsg struct {
	List *training.SessionList
	Err  error
}

type sessionDeletedMsg struct {
	ID  string
	Err error
}

// HistoryScreen displays past sessions one page at a time.
type HistoryScreen struct {
	backend    screen.Backend
	page       int
	sessions   []training.SessionListItem
	pagination training.Pagination
	selected   int
	confirm    bool
	loaded     bool
	errMsg     string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(backend screen.Backend) *HistoryScreen {
	return &HistoryScreen{backend: backend, page: 1}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return s.load()
}

func (s *HistoryScreen) load() tea.Cmd {
	page := s.page
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		list, err := s.backend.ListSessions(ctx, training.ListInput{Page: page, Limit: pageSize, Sort: "desc"})
		return historyLoadedMsg{List: list, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.confirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete"},
			{Key: "N", Description: "Keep"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "←→", Description: "Page"},
		{Key: "D", Description: "Delete"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.sessions = msg.List.Sessions
		s.pagination = msg.List.Pagination
		if s.selected >= len(s.sessions) {
			s.selected = max(len(s.sessions)-1, 0)
		}
		return s, nil

	case sessionDeletedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, s.load()

	case tea.KeyMsg:
		if s.confirm {
			return s.handleConfirm(msg)
		}
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
		case "right", "l":
			if s.pagination.HasNext {
				s.page++
				s.selected = 0
				return s, s.load()
			}
		case "left", "h":
			if s.pagination.HasPrevious {
				s.page--
				s.selected = 0
				return s, s.load()
			}
		case "d":
			if len(s.sessions) > 0 {
				s.confirm = true
			}
		case "enter":
			if len(s.sessions) == 0 {
				return s, nil
			}
			next := practice.Resume(s.backend, s.sessions[s.selected].ID)
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

func (s *HistoryScreen) handleConfirm(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	s.confirm = false
	if msg.String() != "y" {
		return s, nil
	}
	id := s.sessions[s.selected].ID
	return s, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sessionDeletedMsg{ID: id, Err: s.backend.DeleteSession(ctx, id)}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	if s.errMsg != "" && len(s.sessions) == 0 {
		return center.Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No sessions yet. Start practising!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "▸ "
		}

		status := fmt.Sprintf("%d/%d rounds", sess.RoundsCompleted, grammar.RoundsPerSession)
		if sess.Status == "completed" {
			status = fmt.Sprintf("%d/%d", sess.TotalScore, grammar.MaxSessionScore)
		}

		line := fmt.Sprintf("%s%s  %-18s  %-8s  %s",
			prefix, sess.StartedAt.Local().Format("Jan 02 15:04"), sess.Tense, sess.Difficulty, status)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.TextDim).Render(fmt.Sprintf(
		"page %d of %d · %d sessions", s.pagination.CurrentPage, max(s.pagination.TotalPages, 1), s.pagination.TotalItems)))

	if s.confirm {
		b.WriteString("\n\n")
		b.WriteString(center.Foreground(theme.Accent).Render("Delete this session? (y/n)"))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(center.Foreground(theme.Error).Render(s.errMsg))
	}

	return b.String()
}
