package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tensetrainer/internal/ui/theme"
)

var optionLabels = []string{"A", "B", "C", "D"}

// MultiChoice is a four-option selector for one fill-in-the-blank
// question. Once revealed it shows the correct option and stops taking
// input.
type MultiChoice struct {
	Question string
	Options  []string
	Cursor   int
	Chosen   int // -1 until an option is picked
	Correct  int // -1 until revealed
}

// NewMultiChoice creates a selector. chosen preselects an option by value.
func NewMultiChoice(question string, options []string, chosen string) MultiChoice {
	m := MultiChoice{
		Question: question,
		Options:  options,
		Chosen:   -1,
		Correct:  -1,
	}
	for i, o := range options {
		if o == chosen {
			m.Chosen = i
			m.Cursor = i
		}
	}
	return m
}

// Update moves the cursor and picks options. Letters and digits pick an
// option directly.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Revealed() {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "left", "h":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "right", "l":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter", "space", " ":
		m.Chosen = m.Cursor
	default:
		if i := pickIndex(key); i >= 0 && i < len(m.Options) {
			m.Cursor = i
			m.Chosen = i
		}
	}

	return m, nil
}

func pickIndex(key string) int {
	if len(key) != 1 {
		return -1
	}
	switch c := key[0]; {
	case c >= '1' && c <= '4':
		return int(c - '1')
	case c >= 'a' && c <= 'd':
		return int(c - 'a')
	}
	return -1
}

// Reveal marks the correct option.
func (m *MultiChoice) Reveal(correct string) {
	for i, o := range m.Options {
		if o == correct {
			m.Correct = i
		}
	}
}

// Revealed reports whether the correct option is shown.
func (m MultiChoice) Revealed() bool {
	return m.Correct >= 0
}

// ChosenOption returns the picked option or "".
func (m MultiChoice) ChosenOption() string {
	if m.Chosen < 0 || m.Chosen >= len(m.Options) {
		return ""
	}
	return m.Options[m.Chosen]
}

// View renders the question and its options on one row each.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
	b.WriteString("\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor && !m.Revealed() {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s) %s", prefix, optionLabels[i%len(optionLabels)], opt)

		switch {
		case m.Revealed() && i == m.Correct:
			line = theme.Correct.Render(line + "  ✓")
		case m.Revealed() && i == m.Chosen:
			line = theme.Incorrect.Render(line + "  ✗")
		case m.Revealed():
			line = theme.Hint.Render(line)
		case i == m.Chosen:
			line = theme.Chosen.Render(line + "  ●")
		case i == m.Cursor:
			line = theme.Selected.Render(line)
		default:
			line = theme.Unselected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
