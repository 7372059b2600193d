// Package auth is the local identity provider: bcrypt password hashes,
// HS256 access tokens with revocation on logout, and password resets.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/store"
)

// Config controls token lifetimes and hashing cost.
type Config struct {
	Secret     []byte
	Issuer     string
	TokenTTL   time.Duration
	ResetTTL   time.Duration
	BcryptCost int
}

// DefaultConfig returns the defaults used when a field is unset.
func DefaultConfig() Config {
	return Config{
		Issuer:     "tensetrainer",
		TokenTTL:   24 * time.Hour,
		ResetTTL:   15 * time.Minute,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Credentials is a register or login request body.
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ResetRequest starts a password reset.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetConfirm completes a password reset.
type ResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Result struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

var errInvalidLogin = apperr.Unauthorized("invalid email or password")

// Service registers users and issues, checks and revokes tokens.
type Service struct {
	users    store.UserRepo
	signer   *Signer
	cfg      Config
	notifier ResetNotifier
	logger   *slog.Logger
}

// NewService creates an auth Service. Zero config fields take defaults.
func NewService(users store.UserRepo, cfg Config, notifier ResetNotifier, logger *slog.Logger) *Service {
	def := DefaultConfig()
	if cfg.Issuer == "" {
		cfg.Issuer = def.Issuer
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = def.ResetTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = def.BcryptCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &Service{
		users:    users,
		signer:   NewSigner(cfg.Secret, cfg.Issuer),
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
	}
}

// Signer returns the token signer, for the HTTP middleware.
func (s *Service) Signer() *Signer {
	return s.signer
}

// Register creates a user and signs them in.
func (s *Service) Register(ctx context.Context, in Credentials) (*Result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Validation("invalid registration", map[string]string{
				"password": "must be at most 72 bytes",
			})
		}
		return nil, apperr.Internal("failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &store.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Conflict("email is already registered")
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return s.signIn(u)
}

// Login checks a password and issues an access token.
func (s *Service) Login(ctx context.Context, in Credentials) (*Result, error) {
	u, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errInvalidLogin
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errInvalidLogin
	}
	return s.signIn(u)
}

func (s *Service) signIn(u *store.User) (*Result, error) {
	token, _, err := s.signer.Issue(u.ID, "", s.cfg.TokenTTL)
	if err != nil {
		return nil, apperr.Internal("failed to create token", err)
	}
	return &Result{
		User:  UserDTO{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt},
		Token: token,
	}, nil
}

// Authenticate accepts verified claims as an access token: not a reset
// token and not revoked.
func (s *Service) Authenticate(ctx context.Context, c *Claims) error {
	if c == nil || c.Subject == "" || c.ID == "" {
		return apperr.Unauthorized("invalid or expired token")
	}
	if c.Purpose != "" {
		return apperr.Unauthorized("token cannot be used for this request")
	}
	revoked, err := s.users.IsTokenRevoked(ctx, c.ID)
	if err != nil {
		return apperr.Internal("failed to check token", err)
	}
	if revoked {
		return apperr.Unauthorized("token has been revoked")
	}
	return nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, c *Claims) error {
	if err := s.users.RevokeToken(ctx, c.ID, c.Expiry()); err != nil {
		return apperr.Internal("failed to revoke token", err)
	}
	s.logger.Info("user logged out", "user_id", c.Subject)
	return nil
}

// RequestPasswordReset sends a reset token when the email is registered.
// Unknown emails succeed silently.
func (s *Service) RequestPasswordReset(ctx context.Context, in ResetRequest) error {
	u, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return apperr.Internal("failed to load user", err)
	}

	token, _, err := s.signer.Issue(u.ID, PurposeReset, s.cfg.ResetTTL)
	if err != nil {
		return apperr.Internal("failed to create reset token", err)
	}
	if err := s.notifier.SendPasswordReset(ctx, u.Email, token); err != nil {
		s.logger.Error("password reset delivery failed", "user_id", u.ID, "error", err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password. Each reset token works once.
func (s *Service) ConfirmPasswordReset(ctx context.Context, in ResetConfirm) error {
	invalid := apperr.BadRequest("invalid or expired reset token")

	c, err := s.signer.Parse(in.Token)
	if err != nil || c.Purpose != PurposeReset {
		return invalid
	}
	revoked, err := s.users.IsTokenRevoked(ctx, c.ID)
	if err != nil {
		return apperr.Internal("failed to check token", err)
	}
	if revoked {
		return invalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, c.Subject, string(hash)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid
		}
		return apperr.Internal("failed to update password", err)
	}
	if err := s.users.RevokeToken(ctx, c.ID, c.Expiry()); err != nil {
		return apperr.Internal("failed to revoke reset token", err)
	}

	s.logger.Info("password reset", "user_id", c.Subject)
	return nil
}
