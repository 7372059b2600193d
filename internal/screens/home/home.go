// Package home is the main menu of the terminal client.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/router"
	"github.com/abhisek/tensetrainer/internal/screen"
	"github.com/abhisek/tensetrainer/internal/screens/history"
	"github.com/abhisek/tensetrainer/internal/screens/setup"
	"github.com/abhisek/tensetrainer/internal/ui/components"
	"github.com/abhisek/tensetrainer/internal/ui/theme"
)

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	menu    components.Menu
	account string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(backend screen.Backend, account string) *HomeScreen {
	items := []components.MenuItem{
		{Label: "New session", Hint: "pick a tense and difficulty", Action: func() tea.Cmd {
			return push(setup.New(backend))
		}},
		{Label: "History", Hint: "resume or review past sessions", Action: func() tea.Cmd {
			return push(history.New(backend))
		}},
		{Label: "Quit", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		menu:    components.NewMenu(items),
		account: account,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string

	greeting := "Welcome back."
	if h.account != "" {
		greeting = "Welcome back, " + h.account + "."
	}
	sections = append(sections, theme.Title.Render(greeting))
	sections = append(sections, theme.Subtitle.Render(
		"Each session is three rounds of ten questions on one tense."))

	var tenses []string
	for _, t := range grammar.Tenses {
		tenses = append(tenses, string(t))
	}
	sections = append(sections, theme.Hint.Render(strings.Join(tenses, " · ")))
	sections = append(sections, h.menu.View())

	content := theme.Card.Render(strings.Join(sections, "\n\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}
