package api

import (
	"errors"

	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors that reach the fiber app as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// Fail maps a dispatch error to the response. Upstream authorization failures are returned
// unchanged so the session guard can force a logout; everything else is answered here
// together with the slice state, which already carries the user-facing message.
func Fail(c *fiber.Ctx, err error, state any) error {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	case upstream.IsUnauthorized(err):
		return err
	case upstream.IsForbidden(err):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": upstream.Message(err, "You do not have permission to do this."),
			"state": state,
		})
	case errors.Is(err, store.ErrSuperseded):
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"state": state})
	}
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error": upstream.Message(err, "Something went wrong. Please try again."),
		"state": state,
	})
}
