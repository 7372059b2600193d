// Package api exposes the training service over HTTP with fiber.
package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/abhisek/tensetrainer/internal/auth"
	"github.com/abhisek/tensetrainer/internal/training"
)

// Options tunes the HTTP server.
type Options struct {
	// AllowOrigins is the CORS origin list. Empty means "*".
	AllowOrigins string

	// Per-user fixed-window limits on session and report creation.
	SessionCreateLimit int
	ReportCreateLimit  int
	RateWindow         time.Duration

	// ReadTimeout and WriteTimeout bound a request. Round creation waits
	// on the model, so the write timeout is generous.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AccessLog receives one line per request. Nil disables access logs.
	AccessLog io.Writer

	// Ping checks backing storage for /health. Optional.
	Ping func(ctx context.Context) error
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		AllowOrigins:       "*",
		SessionCreateLimit: 10,
		ReportCreateLimit:  20,
		RateWindow:         time.Hour,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       2 * time.Minute,
	}
}

// Server holds handler dependencies.
type Server struct {
	training *training.Service
	auth     *auth.Service
	logger   *slog.Logger
	validate *validator.Validate
	opts     Options
}

// New builds the fiber app with all routes and middleware.
func New(trainingSvc *training.Service, authSvc *auth.Service, logger *slog.Logger, opts Options) *fiber.App {
	def := DefaultOptions()
	if opts.AllowOrigins == "" {
		opts.AllowOrigins = def.AllowOrigins
	}
	if opts.SessionCreateLimit <= 0 {
		opts.SessionCreateLimit = def.SessionCreateLimit
	}
	if opts.ReportCreateLimit <= 0 {
		opts.ReportCreateLimit = def.ReportCreateLimit
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = def.RateWindow
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		training: trainingSvc,
		auth:     authSvc,
		logger:   logger,
		validate: newValidator(),
		opts:     opts,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Tense Trainer",
		CaseSensitive:         true,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Output:     opts.AccessLog,
			TimeFormat: time.RFC3339,
			Format:     "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	s.routes(app)
	return app
}

func (s *Server) routes(app *fiber.App) {
	app.Get("/health", s.health)

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", s.register)
	authGroup.Post("/login", s.login)
	authGroup.Post("/logout", s.requireUser(), s.logout)
	authGroup.Post("/password-reset", s.requestPasswordReset)
	authGroup.Post("/password-reset/confirm", s.confirmPasswordReset)

	sessions := v1.Group("/training-sessions", s.requireUser())
	sessions.Post("", s.perUserLimit(s.opts.SessionCreateLimit), s.createSession)
	sessions.Get("", s.listSessions)
	sessions.Get("/:id", s.getSession)
	sessions.Delete("/:id", s.deleteSession)
	sessions.Post("/:id/rounds", s.createRound)
	sessions.Post("/:id/complete", s.completeSession)

	v1.Post("/rounds/:id/complete", s.requireUser(), s.completeRound)
	v1.Post("/question-reports", s.requireUser(), s.perUserLimit(s.opts.ReportCreateLimit), s.reportQuestion)
}
