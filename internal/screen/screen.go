package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/training"
	"github.com/abhisek/tensetrainer/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Backend is the server API the screens talk to. *client.Client
// implements it.
type Backend interface {
	CreateSession(ctx context.Context, tense grammar.Tense, difficulty grammar.Difficulty) (*training.SessionDTO, error)
	ListSessions(ctx context.Context, in training.ListInput) (*training.SessionList, error)
	GetSession(ctx context.Context, sessionID string) (*training.SessionDetailDTO, error)
	DeleteSession(ctx context.Context, sessionID string) error
	StartRound(ctx context.Context, sessionID string) (*training.CreateRoundResult, error)
	SubmitRound(ctx context.Context, roundID string, answers []training.AnswerInput) (*training.CompleteRoundResult, error)
	CompleteSession(ctx context.Context, sessionID string) (*training.CompleteSessionResult, error)
	ReportQuestion(ctx context.Context, questionID, comment string) (*training.ReportDTO, error)
}
