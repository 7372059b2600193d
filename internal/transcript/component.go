// Package transcript holds the client-side state of one training session:
// the phase of the round cycle and the chat-style list of components a
// terminal view renders.
package transcript

import "fmt"

// Kind discriminates transcript components. The set is closed; switches
// over Kind panic on anything else.
type Kind int

const (
	KindQuestionList  Kind = iota + 1 // Ten questions of one round
	KindRoundSummary                  // Score and feedback of one round
	KindFinalFeedback                 // Session totals and final feedback
	KindLoading                       // Placeholder while a request runs
)

func (k Kind) String() string {
	switch k {
	case KindQuestionList:
		return "question-list"
	case KindRoundSummary:
		return "round-summary"
	case KindFinalFeedback:
		return "final-feedback"
	case KindLoading:
		return "loading"
	default:
		panic(fmt.Sprintf("transcript: unknown component kind %d", int(k)))
	}
}

// mustKnow panics when k is outside the closed set of kinds.
func mustKnow(k Kind) {
	switch k {
	case KindQuestionList, KindRoundSummary, KindFinalFeedback, KindLoading:
	default:
		panic(fmt.Sprintf("transcript: unknown component kind %d", int(k)))
	}
}

// Question is one question as the transcript shows it. Correct and
// IsCorrect are only known once the round is reviewed.
type Question struct {
	ID        string
	Number    int
	Text      string
	Options   []string
	Selected  string
	Correct   string
	Reviewed  bool
	IsCorrect bool
}

// RoundResult is the payload of a round summary.
type RoundResult struct {
	Score          string
	CorrectAnswers int
	TotalQuestions int
	Accuracy       int
	Feedback       string
}

// SessionResult is the payload of the final feedback.
type SessionResult struct {
	TotalScore     string
	CorrectAnswers int
	TotalQuestions int
	Accuracy       int
	RoundsScores   []int
	PerfectScore   bool
	Feedback       string
}

// Component is one entry of the transcript. Exactly one payload field is
// set, selected by Kind.
type Component struct {
	ID          int
	Kind        Kind
	ReadOnly    bool
	RoundID     string
	RoundNumber int

	Questions []Question     // KindQuestionList
	Round     *RoundResult   // KindRoundSummary
	Session   *SessionResult // KindFinalFeedback
	Label     string         // KindLoading
}

// Editable reports whether the component still accepts input.
func (c Component) Editable() bool {
	switch c.Kind {
	case KindQuestionList, KindRoundSummary:
		return !c.ReadOnly
	case KindFinalFeedback, KindLoading:
		return false
	default:
		panic(fmt.Sprintf("transcript: unknown component kind %d", int(c.Kind)))
	}
}

// Title is a short heading for the component.
func (c Component) Title() string {
	switch c.Kind {
	case KindQuestionList:
		return fmt.Sprintf("Round %d", c.RoundNumber)
	case KindRoundSummary:
		return fmt.Sprintf("Round %d results", c.RoundNumber)
	case KindFinalFeedback:
		return "Session complete"
	case KindLoading:
		return c.Label
	default:
		panic(fmt.Sprintf("transcript: unknown component kind %d", int(c.Kind)))
	}
}

// clone copies the component deeply enough that callers cannot mutate
// the store through it.
func (c Component) clone() Component {
	if c.Questions != nil {
		qs := make([]Question, len(c.Questions))
		for i, q := range c.Questions {
			q.Options = append([]string(nil), q.Options...)
			qs[i] = q
		}
		c.Questions = qs
	}
	if c.Round != nil {
		r := *c.Round
		c.Round = &r
	}
	if c.Session != nil {
		s := *c.Session
		s.RoundsScores = append([]int(nil), s.RoundsScores...)
		c.Session = &s
	}
	return c
}
