package history

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tensetrainer/internal/router"
	"github.com/abhisek/tensetrainer/internal/screen"
	"github.com/abhisek/tensetrainer/internal/screens/practice"
	"github.com/abhisek/tensetrainer/internal/training"
)

// fakeBackend pages over an in-memory session list.
type fakeBackend struct {
	screen.Backend
	sessions []training.SessionListItem
	pages    []int
	deleted  []string
}

func (f *fakeBackend) ListSessions(_ context.Context, in training.ListInput) (*training.SessionList, error) {
	f.pages = append(f.pages, in.Page)
	start := (in.Page - 1) * in.Limit
	end := min(start+in.Limit, len(f.sessions))
	total := (len(f.sessions) + in.Limit - 1) / in.Limit
	return &training.SessionList{
		Sessions: f.sessions[start:end],
		Pagination: training.Pagination{
			CurrentPage: in.Page, TotalPages: total, TotalItems: len(f.sessions),
			ItemsPerPage: in.Limit, HasNext: in.Page < total, HasPrevious: in.Page > 1,
		},
	}, nil
}

func (f *fakeBackend) DeleteSession(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	for i, s := range f.sessions {
		if s.ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			break
		}
	}
	return nil
}

func newBackend(n int) *fakeBackend {
	b := &fakeBackend{}
	for i := 0; i < n; i++ {
		b.sessions = append(b.sessions, training.SessionListItem{
			SessionDTO: training.SessionDTO{
				ID: fmt.Sprintf("s%d", i), Tense: "Present Perfect", Difficulty: "Basic",
				Status: "active", StartedAt: time.Date(2026, 3, 1, 9, i, 0, 0, time.UTC),
			},
			RoundsCompleted: i % 3,
		})
	}
	return b
}

// run resolves cmd through the screen until a router message appears.
func run(s *HistoryScreen, cmd tea.Cmd) tea.Msg {
	for cmd != nil {
		out := cmd()
		if _, ok := out.(router.PushScreenMsg); ok {
			return out
		}
		_, cmd = s.Update(out)
	}
	return nil
}

func press(s *HistoryScreen, k tea.KeyPressMsg) tea.Msg {
	_, cmd := s.Update(k)
	return run(s, cmd)
}

func TestLoadsFirstPage(t *testing.T) {
	b := newBackend(12)
	s := New(b)
	run(s, s.Init())

	if len(s.sessions) != pageSize {
		t.Fatalf("got %d sessions, want %d", len(s.sessions), pageSize)
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "page 1 of 2") || !strings.Contains(view, "Present Perfect") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestPaging(t *testing.T) {
	b := newBackend(12)
	s := New(b)
	run(s, s.Init())

	press(s, tea.KeyPressMsg{Code: tea.KeyRight})
	if s.page != 2 || len(s.sessions) != 2 {
		t.Fatalf("page=%d sessions=%d, want page 2 with 2 sessions", s.page, len(s.sessions))
	}
	press(s, tea.KeyPressMsg{Code: tea.KeyRight})
	if s.page != 2 {
		t.Errorf("paged past the last page")
	}
	press(s, tea.KeyPressMsg{Code: tea.KeyLeft})
	if s.page != 1 {
		t.Errorf("page = %d, want 1", s.page)
	}
	if want := []int{1, 2, 1}; fmt.Sprint(b.pages) != fmt.Sprint(want) {
		t.Errorf("pages requested = %v, want %v", b.pages, want)
	}
}

func TestEnterResumesSelectedSession(t *testing.T) {
	s := New(newBackend(3))
	run(s, s.Init())

	press(s, tea.KeyPressMsg{Code: tea.KeyDown})
	out := press(s, tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := out.(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", out)
	}
	if _, ok := push.Screen.(*practice.PracticeScreen); !ok {
		t.Errorf("pushed %T, want *practice.PracticeScreen", push.Screen)
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	b := newBackend(3)
	s := New(b)
	run(s, s.Init())

	press(s, tea.KeyPressMsg{Code: 'd', Text: "d"})
	press(s, tea.KeyPressMsg{Code: 'n', Text: "n"})
	if len(b.deleted) != 0 {
		t.Fatalf("deleted without confirmation: %v", b.deleted)
	}

	press(s, tea.KeyPressMsg{Code: 'd', Text: "d"})
	if !strings.Contains(s.View(100, 30), "Delete this session?") {
		t.Error("confirmation prompt not shown")
	}
	press(s, tea.KeyPressMsg{Code: 'y', Text: "y"})
	if len(b.deleted) != 1 || b.deleted[0] != "s0" {
		t.Errorf("deleted = %v, want [s0]", b.deleted)
	}
	if len(s.sessions) != 2 {
		t.Errorf("list not reloaded after delete: %d sessions", len(s.sessions))
	}
}

func TestEmptyHistory(t *testing.T) {
	s := New(newBackend(0))
	run(s, s.Init())
	if !strings.Contains(s.View(80, 20), "No sessions yet") {
		t.Error("empty state not rendered")
	}
	if out := press(s, tea.KeyPressMsg{Code: tea.KeyEnter}); out != nil {
		t.Errorf("enter on empty list navigated: %T", out)
	}
}
