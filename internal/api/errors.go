package api

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/tensetrainer/internal/apperr"
)

// errorBody is the JSON envelope for every error response.
type errorBody struct {
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	RetryAfter int               `json:"retry_after,omitempty"`
}

// errorHandler renders any error as the JSON envelope. Causes of internal
// errors are logged, never sent.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		aerr, ok := apperr.As(err)
		if !ok {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				aerr = &apperr.Error{Kind: kindForStatus(fe.Code), Message: fe.Message}
			} else {
				aerr = apperr.Internal("internal server error", err)
			}
		}

		if aerr.Kind == apperr.KindInternal {
			logger.Error("request failed",
				"method", c.Method(), "path", c.Path(),
				"request_id", c.Locals("requestid"), "error", err)
		}
		if aerr.RetryAfter > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(aerr.RetryAfter))
		}

		return c.Status(aerr.Status()).JSON(errorBody{
			Error:      string(aerr.Kind),
			Message:    aerr.Message,
			Details:    aerr.Details,
			RetryAfter: aerr.RetryAfter,
		})
	}
}

func kindForStatus(code int) apperr.Kind {
	switch code {
	case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
		return apperr.KindBadRequest
	case fiber.StatusUnauthorized:
		return apperr.KindUnauthorized
	case fiber.StatusNotFound:
		return apperr.KindNotFound
	case fiber.StatusConflict:
		return apperr.KindConflict
	case fiber.StatusUnprocessableEntity:
		return apperr.KindValidation
	case fiber.StatusTooManyRequests:
		return apperr.KindRateLimitExceeded
	default:
		return apperr.KindInternal
	}
}
