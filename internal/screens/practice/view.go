package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/transcript"
	"github.com/abhisek/tensetrainer/internal/ui/components"
	"github.com/abhisek/tensetrainer/internal/ui/layout"
	"github.com/abhisek/tensetrainer/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *PracticeScreen) View(width, height int) string {
	if s.loadErr != "" {
		return "\n  " + theme.ErrorText.Render("Could not load the session: "+s.loadErr)
	}
	if !s.loaded {
		return "\n  " + theme.Hint.Render("Loading session...")
	}

	snap := s.store.Snapshot()
	cardWidth := width - 4
	if cardWidth < 20 {
		cardWidth = 20
	}

	var blocks []string
	blocks = append(blocks, s.renderInfo(snap))

	latest := latestList(snap)
	for _, c := range snap.Components {
		focused := latest != nil && c.ID == latest.ID
		advance := snap.CanAdvance && c.Kind == transcript.KindRoundSummary && c.RoundNumber == snap.CurrentRoundNumber
		blocks = append(blocks, s.renderComponent(c, focused, advance, cardWidth))
	}

	if snap.Err != nil {
		blocks = append(blocks, "  "+theme.ErrorText.Render("✗ "+snap.Err.Error()))
	}
	if s.notice != "" {
		blocks = append(blocks, "  "+theme.Hint.Render(s.notice))
	}
	if s.reporting {
		blocks = append(blocks, theme.ActiveCard.Width(cardWidth).Render(
			theme.Title.Render("Report question")+"\n"+s.input.View()))
	}

	return layout.Tail(strings.Join(blocks, "\n"), height)
}

func (s *PracticeScreen) renderInfo(snap transcript.Snapshot) string {
	round := snap.CurrentRoundNumber
	if round == 0 {
		round = 1
	}
	info := fmt.Sprintf("  %s · %s · round %d/%d · %s",
		snap.Tense, snap.Difficulty, round, grammar.RoundsPerSession, snap.Phase)
	return lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(info)
}

// renderComponent draws one transcript entry. Every kind is handled;
// an unknown kind panics in Title.
func (s *PracticeScreen) renderComponent(c transcript.Component, focused, advance bool, width int) string {
	title := theme.Title.Render(c.Title())

	switch c.Kind {
	case transcript.KindQuestionList:
		if c.Editable() {
			return theme.ActiveCard.Width(width).Render(title + "\n" + s.renderOpenList(c, width-4))
		}
		return theme.Card.Width(width).Render(title + "\n" + s.renderClosedList(c, focused))

	case transcript.KindRoundSummary:
		r := c.Round
		body := fmt.Sprintf("%s  %s correct (%d%%)", title,
			theme.Chosen.Render(r.Score), r.Accuracy)
		if r.Feedback != "" {
			body += "\n" + theme.Body.Render(r.Feedback)
		}
		if advance {
			next := "Press Enter for the next round."
			if c.RoundNumber >= grammar.RoundsPerSession {
				next = "Press Enter to finish the session."
			}
			body += "\n" + theme.Hint.Render(next)
		}
		return theme.FeedbackCard.Width(width).Render(body)

	case transcript.KindFinalFeedback:
		f := c.Session
		scores := make([]string, len(f.RoundsScores))
		for i, sc := range f.RoundsScores {
			scores[i] = fmt.Sprintf("%d", sc)
		}
		body := fmt.Sprintf("%s  %s (%d%%)  rounds: %s", title,
			theme.Chosen.Render(f.TotalScore), f.Accuracy, strings.Join(scores, " · "))
		if f.PerfectScore {
			body += "\n" + theme.Correct.Render("Perfect score!")
		}
		if f.Feedback != "" {
			body += "\n" + theme.Body.Render(f.Feedback)
		}
		return theme.FeedbackCard.Width(width).Render(body)

	case transcript.KindLoading:
		frame := spinnerFrames[s.spinner%len(spinnerFrames)]
		return "  " + theme.Hint.Render(frame+" "+c.Label)

	default:
		return title
	}
}

// renderOpenList shows answer progress, a strip of question markers and
// the focused question's options.
func (s *PracticeScreen) renderOpenList(c transcript.Component, width int) string {
	answered := 0
	var strip []string
	for i, q := range c.Questions {
		mark := "○"
		if q.Selected != "" {
			answered++
			mark = "●"
		}
		label := fmt.Sprintf("%d%s", i+1, mark)
		if i == s.cursor {
			label = theme.Selected.Render("[" + label + "]")
		} else {
			label = theme.Subtitle.Render(label)
		}
		strip = append(strip, label)
	}

	var b strings.Builder
	b.WriteString(components.NewProgressBar("Answered", answered, len(c.Questions), width).View())
	b.WriteString("\n")
	b.WriteString(strings.Join(strip, " "))
	b.WriteString("\n\n")
	if s.cursor < len(c.Questions) {
		q := c.Questions[s.cursor]
		mc := s.selector(q)
		mc.Question = fmt.Sprintf("%d. %s", q.Number, q.Text)
		b.WriteString(mc.View())
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderClosedList shows one line per question with the outcome.
func (s *PracticeScreen) renderClosedList(c transcript.Component, focused bool) string {
	lines := make([]string, 0, len(c.Questions))
	for i, q := range c.Questions {
		prefix := "  "
		if focused && i == s.cursor {
			prefix = "▸ "
		}
		text := fmt.Sprintf("%s%d. %s", prefix, q.Number, q.Text)
		switch {
		case !q.Reviewed:
			lines = append(lines, theme.Body.Render(text+"  → "+q.Selected))
		case q.IsCorrect:
			lines = append(lines, theme.Correct.Render("✓")+" "+theme.Body.Render(text+"  → "+q.Selected))
		default:
			lines = append(lines, theme.Incorrect.Render("✗")+" "+theme.Body.Render(text)+
				"  "+theme.Incorrect.Render(q.Selected)+" → "+theme.Correct.Render(q.Correct))
		}
	}
	return strings.Join(lines, "\n")
}
