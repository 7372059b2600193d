package transcript

import (
	"context"
	"fmt"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/training"
)

// API is the slice of the server the session view drives.
type API interface {
	StartRound(ctx context.Context, sessionID string) (*training.CreateRoundResult, error)
	SubmitRound(ctx context.Context, roundID string, answers []training.AnswerInput) (*training.CompleteRoundResult, error)
	CompleteSession(ctx context.Context, sessionID string) (*training.CompleteSessionResult, error)
}

// StartRound requests the next round. It is allowed from Idle, or after a
// reviewed round while rounds remain.
func (s *Store) StartRound(ctx context.Context, api API) error {
	s.mu.Lock()
	if s.phase != PhaseIdle && s.phase != PhaseRoundReviewed {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	if s.roundsCompleted >= grammar.RoundsPerSession {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	next := s.roundsCompleted + 1
	if err := s.beginPending(fmt.Sprintf("Generating questions for round %d...", next)); err != nil {
		s.mu.Unlock()
		return err
	}
	sessionID := s.sessionID
	s.mu.Unlock()

	res, err := api.StartRound(ctx, sessionID)
	if err := s.settle(sessionID, err); err != nil {
		return err
	}
	s.SetQuestions(res.Round, res.Questions)
	return nil
}

// SubmitRound sends the selections of the open round for scoring.
func (s *Store) SubmitRound(ctx context.Context, api API) error {
	s.mu.Lock()
	if s.phase != PhaseRoundInProgress {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	answers, err := s.answers()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.beginPending(fmt.Sprintf("Checking round %d...", s.currentRoundNumber)); err != nil {
		s.mu.Unlock()
		return err
	}
	sessionID, roundID := s.sessionID, s.currentRoundID
	s.mu.Unlock()

	res, err := api.SubmitRound(ctx, roundID, answers)
	if err := s.settle(sessionID, err); err != nil {
		return err
	}
	s.SetRoundComplete(res)
	return nil
}

// CompleteSession requests the final feedback once every round is scored.
func (s *Store) CompleteSession(ctx context.Context, api API) error {
	s.mu.Lock()
	if s.phase != PhaseRoundReviewed || s.roundsCompleted < grammar.RoundsPerSession {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	if err := s.beginPending("Writing your final feedback..."); err != nil {
		s.mu.Unlock()
		return err
	}
	sessionID := s.sessionID
	s.mu.Unlock()

	res, err := api.CompleteSession(ctx, sessionID)
	if err := s.settle(sessionID, err); err != nil {
		return err
	}
	s.SetSessionComplete(res)
	return nil
}

// settle handles the end of a request started for sessionID. A failed
// request removes the placeholder and records the error; a response for a
// session the store no longer shows is dropped.
func (s *Store) settle(sessionID string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionID != sessionID {
		return ErrStale
	}
	if err != nil {
		s.clearPending()
		s.lastErr = err
		return err
	}
	return nil
}
