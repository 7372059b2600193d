// Package grammar defines the tenses and difficulty levels a training
// session can target.
package grammar

// Tense is an English grammar tense under practice.
type Tense string

const (
	PresentSimple     Tense = "Present Simple"
	PastSimple        Tense = "Past Simple"
	PresentContinuous Tense = "Present Continuous"
	PresentPerfect    Tense = "Present Perfect"
)

// Tenses lists every supported tense in menu order.
var Tenses = []Tense{PresentSimple, PastSimple, PresentContinuous, PresentPerfect}

// Valid reports whether t is a supported tense.
func (t Tense) Valid() bool {
	for _, v := range Tenses {
		if t == v {
			return true
		}
	}
	return false
}

// Usage is a one-line summary of when the tense is used. Prompts include it
// so generated questions stay on topic.
func (t Tense) Usage() string {
	switch t {
	case PresentSimple:
		return "habits, routines, general truths and fixed schedules (she works, they play)"
	case PastSimple:
		return "finished actions at a definite time in the past (he went, we watched)"
	case PresentContinuous:
		return "actions happening now or around now, and fixed future arrangements (I am reading)"
	case PresentPerfect:
		return "past actions connected to the present, experience and unfinished time (she has lived)"
	}
	return ""
}

// Difficulty controls how demanding generated questions are.
type Difficulty string

const (
	Basic    Difficulty = "Basic"
	Advanced Difficulty = "Advanced"
)

// Difficulties lists every supported difficulty.
var Difficulties = []Difficulty{Basic, Advanced}

// Valid reports whether d is a supported difficulty.
func (d Difficulty) Valid() bool {
	return d == Basic || d == Advanced
}

// Guidance describes the difficulty to the question writer.
func (d Difficulty) Guidance() string {
	if d == Advanced {
		return "longer sentences, irregular verbs, negatives and questions, time expressions that require care, and distractors from neighbouring tenses"
	}
	return "short everyday sentences, common regular verbs, one clear time marker per sentence"
}

// Blank is the gap marker every question sentence must contain.
const Blank = "___"

// Session shape.
const (
	RoundsPerSession   = 3
	QuestionsPerRound  = 10
	OptionsPerQuestion = 4
	MaxSessionScore    = RoundsPerSession * QuestionsPerRound
)
