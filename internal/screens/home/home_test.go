package home

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tensetrainer/internal/router"
	"github.com/abhisek/tensetrainer/internal/screen"
	"github.com/abhisek/tensetrainer/internal/screens/history"
	"github.com/abhisek/tensetrainer/internal/screens/setup"
)

type nopBackend struct{ screen.Backend }

func TestMenuPushesScreens(t *testing.T) {
	tests := []struct {
		name  string
		downs int
		check func(screen.Screen) bool
	}{
		{"new session", 0, func(s screen.Screen) bool { _, ok := s.(*setup.SetupScreen); return ok }},
		{"history", 1, func(s screen.Screen) bool { _, ok := s.(*history.HistoryScreen); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(nopBackend{}, "ana@example.com")
			for i := 0; i < tt.downs; i++ {
				h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
			}
			_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
			if cmd == nil {
				t.Fatal("expected a command")
			}
			push, ok := cmd().(router.PushScreenMsg)
			if !ok {
				t.Fatal("expected PushScreenMsg")
			}
			if !tt.check(push.Screen) {
				t.Errorf("pushed %T", push.Screen)
			}
		})
	}
}

func TestViewGreetsAccount(t *testing.T) {
	h := New(nopBackend{}, "ana@example.com")
	view := h.View(100, 30)
	if !strings.Contains(view, "ana@example.com") {
		t.Errorf("account missing from view")
	}
	if !strings.Contains(view, "Present Continuous") {
		t.Errorf("tense list missing from view")
	}
}
