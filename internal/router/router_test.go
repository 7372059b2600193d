package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tensetrainer/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
	seen    []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}
func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

type pingMsg struct{}

func TestPush(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)

	setup := &stubScreen{title: "new session"}
	r.Push(setup)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "new session" {
		t.Errorf("expected active 'new session', got %q", r.Active().Title())
	}
	if !setup.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPop(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Push(&stubScreen{title: "history"})
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "home" {
		t.Errorf("expected active 'home', got %q", r.Active().Title())
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after pop at bottom, got %d", r.Depth())
	}
}

func TestReplaceScreenMsg(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Push(&stubScreen{title: "new session"})

	practice := &stubScreen{title: "practice"}
	r.Update(ReplaceScreenMsg{Screen: practice})

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "practice" {
		t.Errorf("expected active 'practice', got %q", r.Active().Title())
	}
	if !practice.initRan {
		t.Error("expected Init() to run via ReplaceScreenMsg")
	}
}

func TestUpdateForwardsToActiveOnly(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)
	history := &stubScreen{title: "history"}
	r.Update(PushScreenMsg{Screen: history})

	r.Update(pingMsg{})

	if len(history.seen) != 1 {
		t.Errorf("active screen saw %d messages, want 1", len(history.seen))
	}
	if len(home.seen) != 0 {
		t.Errorf("covered screen saw %d messages, want 0", len(home.seen))
	}
	if got := r.View(80, 24); got != "history" {
		t.Errorf("View() = %q, want %q", got, "history")
	}
}
