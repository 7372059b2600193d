package questiongen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

// StaticGenerator builds questions from a fixed verb table without calling
// a model. Output is deterministic for a given seed and call sequence.
type StaticGenerator struct {
	seed  uint64
	calls atomic.Uint64
}

// NewStatic returns a StaticGenerator seeded with seed.
func NewStatic(seed uint64) *StaticGenerator {
	return &StaticGenerator{seed: seed}
}

type subject struct {
	text string
	be   string // am, is, are
	have string // has, have
	s    bool   // third person singular
}

var subjects = []subject{
	{"she", "is", "has", true},
	{"they", "are", "have", false},
	{"I", "am", "have", false},
	{"my brother", "is", "has", true},
	{"we", "are", "have", false},
	{"the children", "are", "have", false},
	{"he", "is", "has", true},
	{"you", "are", "have", false},
}

type verb struct {
	base, third, past, ing, participle string
	object                             string
}

var verbs = []verb{
	{"eat", "eats", "ate", "eating", "eaten", "breakfast"},
	{"go", "goes", "went", "going", "gone", "to the market"},
	{"write", "writes", "wrote", "writing", "written", "a letter"},
	{"drink", "drinks", "drank", "drinking", "drunk", "green tea"},
	{"take", "takes", "took", "taking", "taken", "the bus"},
	{"buy", "buys", "bought", "buying", "bought", "fresh bread"},
	{"play", "plays", "played", "playing", "played", "football"},
	{"watch", "watches", "watched", "watching", "watched", "a film"},
	{"cook", "cooks", "cooked", "cooking", "cooked", "dinner"},
	{"speak", "speaks", "spoke", "speaking", "spoken", "to the manager"},
	{"drive", "drives", "drove", "driving", "driven", "to work"},
	{"swim", "swims", "swam", "swimming", "swum", "in the lake"},
	{"clean", "cleans", "cleaned", "cleaning", "cleaned", "the kitchen"},
	{"visit", "visits", "visited", "visiting", "visited", "the museum"},
	{"study", "studies", "studied", "studying", "studied", "English"},
	{"sing", "sings", "sang", "singing", "sung", "a song"},
}

var templates = map[grammar.Difficulty]map[grammar.Tense]string{
	grammar.Basic: {
		grammar.PresentSimple:     "every day %s ___ %s.",
		grammar.PastSimple:        "yesterday %s ___ %s.",
		grammar.PresentContinuous: "right now %s ___ %s.",
		grammar.PresentPerfect:    "so far this week %s ___ %s twice.",
	},
	grammar.Advanced: {
		grammar.PresentSimple:     "on weekdays %s usually ___ %s before eight o'clock.",
		grammar.PastSimple:        "two years ago, during the long winter, %s ___ %s every weekend.",
		grammar.PresentContinuous: "at the moment %s ___ %s, so please call back later.",
		grammar.PresentPerfect:    "since we moved here %s ___ %s more times than I can count.",
	},
}

// forms returns the four candidate fillers for s and v keyed by tense.
func forms(s subject, v verb) map[grammar.Tense]string {
	present := v.base
	if s.s {
		present = v.third
	}
	return map[grammar.Tense]string{
		grammar.PresentSimple:     present,
		grammar.PastSimple:        v.past,
		grammar.PresentContinuous: s.be + " " + v.ing,
		grammar.PresentPerfect:    s.have + " " + v.participle,
	}
}

// GenerateQuestions returns count questions for the tense.
func (g *StaticGenerator) GenerateQuestions(_ context.Context, tense grammar.Tense, difficulty grammar.Difficulty, count int) ([]Question, error) {
	if err := checkCount(count); err != nil {
		return nil, err
	}
	tmpl, ok := templates[difficulty][tense]
	if !ok {
		return nil, &GenerationError{
			Stage: "static",
			Err:   fmt.Errorf("no template for %s / %s", tense, difficulty),
		}
	}

	rng := rand.New(rand.NewPCG(g.seed, g.calls.Add(1)))
	offset := rng.IntN(len(verbs))

	questions := make([]Question, count)
	for i := range questions {
		v := verbs[(offset+i)%len(verbs)]
		s := subjects[(offset+i*3)%len(subjects)]
		f := forms(s, v)

		options := make([]string, 0, len(grammar.Tenses))
		for _, t := range grammar.Tenses {
			options = append(options, f[t])
		}
		rng.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})

		questions[i] = Question{
			Text:    capitalize(fmt.Sprintf(tmpl, s.text, v.object)),
			Options: options,
			Answer:  f[tense],
		}
	}
	return questions, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
