package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/tensetrainer/internal/api"
	"github.com/abhisek/tensetrainer/internal/auth"
	"github.com/abhisek/tensetrainer/internal/feedback"
	"github.com/abhisek/tensetrainer/internal/jobs"
	"github.com/abhisek/tensetrainer/internal/llm"
	"github.com/abhisek/tensetrainer/internal/questiongen"
	"github.com/abhisek/tensetrainer/internal/store"
	"github.com/abhisek/tensetrainer/internal/training"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.ValidateServer(); err != nil {
			return err
		}

		logger, err := newLogger(os.Stderr, "json")
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func serve(ctx context.Context, logger *slog.Logger) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	questions, writer, err := buildGenerators(ctx, st.EventRepo(), logger)
	if err != nil {
		return err
	}

	trainingSvc := training.NewService(st.Sessions(), st.Reports(), questions, writer, logger)
	authSvc := auth.NewService(st.Users(), auth.Config{
		Secret:   []byte(cfg.Server.JWTSecret),
		TokenTTL: cfg.Server.TokenTTL,
	}, nil, logger)

	app := api.New(trainingSvc, authSvc, logger, api.Options{
		AllowOrigins:       cfg.Server.AllowOrigins,
		SessionCreateLimit: cfg.Server.SessionCreateLimit,
		ReportCreateLimit:  cfg.Server.ReportCreateLimit,
		RateWindow:         cfg.Server.RateWindow,
		AccessLog:          os.Stdout,
		Ping: func(ctx context.Context) error {
			return st.DB().PingContext(ctx)
		},
	})

	pruner := jobs.NewPruner(st.EventRepo(), st.Users(), cfg.Jobs.LLMEventRetention, logger)
	scheduler, err := jobs.Start(cfg.Jobs.PruneSchedule, pruner, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "llm_provider", cfg.LLM.Provider)
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		scheduler.Stop(context.Background())
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop jobs: %w", err))
	}
	return errors.Join(errs...)
}

// buildGenerators picks the AI-backed question generator and feedback
// writer, or the offline ones when the mock provider is configured.
func buildGenerators(ctx context.Context, events store.EventRepo, logger *slog.Logger) (questiongen.Generator, feedback.Writer, error) {
	if cfg.LLM.Provider == llm.ProviderMock {
		logger.Warn("no LLM provider configured, serving offline questions and feedback")
		return questiongen.NewStatic(uint64(time.Now().UnixNano())), feedback.Static{}, nil
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, events, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("llm provider: %w", err)
	}
	return questiongen.New(provider, questiongen.DefaultConfig()),
		feedback.NewService(provider, feedback.DefaultConfig()), nil
}
