package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abhisek/tensetrainer/internal/apperr"
	"github.com/abhisek/tensetrainer/internal/auth"
	"github.com/abhisek/tensetrainer/internal/training"
)

func (s *Server) health(c *fiber.Ctx) error {
	if s.opts.Ping != nil {
		if err := s.opts.Ping(c.UserContext()); err != nil {
			s.logger.Error("health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Auth

func (s *Server) register(c *fiber.Ctx) error {
	var in auth.Credentials
	if err := s.bind(c, &in); err != nil {
		return err
	}
	res, err := s.auth.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) login(c *fiber.Ctx) error {
	var in auth.Credentials
	if err := s.bind(c, &in); err != nil {
		return err
	}
	res, err := s.auth.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) logout(c *fiber.Ctx) error {
	if err := s.auth.Logout(c.UserContext(), claimsOf(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) requestPasswordReset(c *fiber.Ctx) error {
	var in auth.ResetRequest
	if err := s.bind(c, &in); err != nil {
		return err
	}
	if err := s.auth.RequestPasswordReset(c.UserContext(), in); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If an account with that email exists, a reset token has been sent.",
	})
}

func (s *Server) confirmPasswordReset(c *fiber.Ctx) error {
	var in auth.ResetConfirm
	if err := s.bind(c, &in); err != nil {
		return err
	}
	if err := s.auth.ConfirmPasswordReset(c.UserContext(), in); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Training sessions

func (s *Server) createSession(c *fiber.Ctx) error {
	var in training.CreateSessionInput
	if err := s.bind(c, &in); err != nil {
		return err
	}
	sess, err := s.training.CreateSession(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	in := training.ListInput{
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
	}
	details := map[string]string{}
	in.Page = queryInt(c, "page", details)
	in.Limit = queryInt(c, "limit", details)
	if len(details) > 0 {
		return &apperr.Error{Kind: apperr.KindBadRequest, Message: "invalid query parameters", Details: details}
	}

	list, err := s.training.ListSessions(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// queryInt parses an optional positive integer query parameter. A missing
// value is 0; anything unparsable or below 1 is recorded in details.
func queryInt(c *fiber.Ctx, key string, details map[string]string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		details[key] = "must be a positive integer"
		return 0
	}
	return n
}

func (s *Server) getSession(c *fiber.Ctx) error {
	detail, err := s.training.GetSessionDetail(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if err := s.training.DeleteSession(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) createRound(c *fiber.Ctx) error {
	res, err := s.training.CreateRound(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) completeSession(c *fiber.Ctx) error {
	res, err := s.training.CompleteSession(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Rounds and reports

func (s *Server) completeRound(c *fiber.Ctx) error {
	var in training.CompleteRoundInput
	if err := s.bind(c, &in); err != nil {
		return err
	}
	res, err := s.training.CompleteRound(c.UserContext(), userID(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) reportQuestion(c *fiber.Ctx) error {
	var in training.ReportInput
	if err := s.bind(c, &in); err != nil {
		return err
	}
	rep, err := s.training.ReportQuestion(c.UserContext(), userID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rep)
}
