package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/grammar"
)

// newValidator returns a validator that reports JSON field names and knows
// the tense and difficulty tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Both registrations only fail on an empty tag.
	_ = v.RegisterValidation("tense", func(fl validator.FieldLevel) bool {
		return grammar.Tense(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return grammar.Difficulty(fl.Field().String()).Valid()
	})
	return v
}

// bind parses the JSON body into dst and validates it. Malformed bodies are
// 400; failed field rules are 422 with one detail per field.
func (s *Server) bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.BadRequest("request body must be valid JSON")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperr.Internal("failed to validate request", err)
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fieldPath(fe)] = fieldMessage(fe)
		}
		return apperr.Validation("request validation failed", details)
	}
	return nil
}

// fieldPath drops the root struct name from the namespace, leaving e.g.
// "answers[0].question_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "tense":
		names := make([]string, len(grammar.Tenses))
		for i, t := range grammar.Tenses {
			names[i] = string(t)
		}
		return "must be one of: " + strings.Join(names, ", ")
	case "difficulty":
		return "must be Basic or Advanced"
	default:
		return "is invalid"
	}
}
