// Package jobs runs housekeeping on a cron schedule while the server is up.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abhisek/tensetrainer/internal/store"
)

// Pruner deletes LLM request events past their retention and revoked
// token ids that have expired on their own.
type Pruner struct {
	events    store.EventRepo
	users     store.UserRepo
	retention time.Duration
	logger    *slog.Logger

	now func() time.Time
}

// NewPruner creates a Pruner.
func NewPruner(events store.EventRepo, users store.UserRepo, retention time.Duration, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		events:    events,
		users:     users,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run prunes once.
func (p *Pruner) Run(ctx context.Context) error {
	now := p.now().UTC()

	events, err := p.events.PruneLLMRequests(ctx, now.Add(-p.retention))
	if err != nil {
		return fmt.Errorf("prune llm events: %w", err)
	}
	tokens, err := p.users.PruneRevokedTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("prune revoked tokens: %w", err)
	}

	p.logger.Info("pruned expired records", "llm_events", events, "revoked_tokens", tokens)
	return nil
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// Start schedules the pruner on spec (standard cron syntax or descriptors
// such as "@daily") and starts the runner.
func Start(spec string, p *Pruner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := p.Run(ctx); err != nil {
			logger.Error("prune job failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule prune job %q: %w", spec, err)
	}
	c.Start()
	logger.Info("prune job scheduled", "spec", spec)
	return &Scheduler{cron: c, logger: logger}, nil
}

// Stop stops scheduling and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
