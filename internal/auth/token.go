package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// PurposeReset marks a password reset token. Access tokens carry no purpose.
const PurposeReset = "reset"

// Claims are the JWT claims issued by this package. Subject is the user id
// and ID (jti) identifies the token for revocation.
type Claims struct {
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Expiry returns the expiry time, or the zero time when unset.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

var errSigningMethod = errors.New("auth: unexpected signing method")

// Signer issues and parses HS256 tokens.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner returns a Signer for the shared secret.
func NewSigner(secret []byte, issuer string) *Signer {
	return &Signer{secret: secret, issuer: issuer}
}

// Issue signs a token for userID valid for ttl.
func (s *Signer) Issue(userID, purpose string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the signature and expiry of raw.
func (s *Signer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.Keyfunc)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("auth: token is missing sub or jti")
	}
	return claims, nil
}

// Keyfunc returns the HMAC secret, rejecting any other algorithm.
func (s *Signer) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: %v", errSigningMethod, t.Header["alg"])
	}
	return s.secret, nil
}
