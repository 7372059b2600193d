package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/auth"
)

const (
	localToken  = "token"
	localClaims = "claims"
)

// requireUser verifies the bearer token, rejects revoked and reset tokens,
// and stores the claims for handlers.
func (s *Server) requireUser() fiber.Handler {
	return jwtware.New(jwtware.Config{
		KeyFunc:    s.auth.Signer().Keyfunc,
		Claims:     &auth.Claims{},
		ContextKey: localToken,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if err.Error() == "Missing or malformed JWT" {
				return apperr.Unauthorized("missing or malformed bearer token")
			}
			return apperr.Unauthorized("invalid or expired token")
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(localToken).(*jwt.Token)
			if !ok {
				return apperr.Unauthorized("invalid or expired token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return apperr.Unauthorized("invalid or expired token")
			}
			if err := s.auth.Authenticate(c.UserContext(), claims); err != nil {
				return err
			}
			c.Locals(localClaims, claims)
			return c.Next()
		},
	})
}

func claimsOf(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(localClaims).(*auth.Claims)
	return claims
}

// userID returns the authenticated user. Only valid behind requireUser.
func userID(c *fiber.Ctx) string {
	if claims := claimsOf(c); claims != nil {
		return claims.Subject
	}
	return ""
}

// perUserLimit allows max requests per user per window.
func (s *Server) perUserLimit(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: s.opts.RateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return userID(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			retry, err := strconv.Atoi(c.GetRespHeader(fiber.HeaderRetryAfter))
			if err != nil || retry <= 0 {
				retry = int(s.opts.RateWindow.Seconds())
			}
			return apperr.RateLimited(retry)
		},
	})
}
