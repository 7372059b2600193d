package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// userRepo implements UserRepo over sqlx.
type userRepo struct {
	db *sqlx.DB
}

const userColumns = `id, email, password_hash, created_at, updated_at`

func (r *userRepo) CreateUser(ctx context.Context, u *User) error {
	u.Email = normalizeEmail(u.Email)
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :created_at, :updated_at)`, u)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(
		`SELECT `+userColumns+` FROM users WHERE email = ?`), normalizeEmail(email))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(
		`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`),
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeToken records a token id as revoked until it would have expired
// anyway. Revoking twice is not an error.
func (r *userRepo) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		ON CONFLICT (jti) DO NOTHING`), jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *userRepo) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`), jti)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func (r *userRepo) PruneRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	query, args := builder(r.db).Delete("revoked_tokens").
		Where(entsql.LT("expires_at", now.UTC())).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune revoked tokens: %w", err)
	}
	return res.RowsAffected()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
