package training

import (
	"time"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/store"
)

// CanCreateRound checks that round next may be started in session.
// existing holds the session's current rounds in any order.
func CanCreateRound(session *store.Session, existing []store.Round, next int) *apperr.Error {
	if session == nil {
		return apperr.NotFound("training session")
	}
	if session.Status != store.StatusActive {
		return apperr.BadRequest("training session is already completed")
	}
	if next < 1 || next > grammar.RoundsPerSession {
		return apperr.BadRequest("a training session has at most %d rounds", grammar.RoundsPerSession)
	}
	if next == 1 {
		return nil
	}

	for i := range existing {
		if existing[i].RoundNumber != next-1 {
			continue
		}
		if !existing[i].Completed() {
			return apperr.BadRequest("round %d must be completed before starting round %d", next-1, next)
		}
		return nil
	}
	return apperr.BadRequest("round %d must be completed before starting round %d", next-1, next)
}

// CanCompleteRound checks that an open round with a full question set may
// be scored.
func CanCompleteRound(completedAt *time.Time, questionsCount int) *apperr.Error {
	if completedAt != nil {
		return apperr.BadRequest("round is already completed")
	}
	if questionsCount != grammar.QuestionsPerRound {
		return apperr.BadRequest("round has %d questions, expected %d", questionsCount, grammar.QuestionsPerRound)
	}
	return nil
}

// CanCompleteSession checks that an active session has all of its rounds
// created and completed.
func CanCompleteSession(status string, roundsCount, completedRoundsCount int) *apperr.Error {
	if status != store.StatusActive {
		return apperr.BadRequest("training session is already completed")
	}
	if roundsCount != grammar.RoundsPerSession || completedRoundsCount != grammar.RoundsPerSession {
		return apperr.BadRequest("all %d rounds must be completed first (%d of %d done)",
			grammar.RoundsPerSession, completedRoundsCount, grammar.RoundsPerSession)
	}
	return nil
}
