package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"teamroster/apperr"
)

// ErrorResponse writes err using its taxonomy status and structured code.
func ErrorResponse(c *fiber.Ctx, err error) error {
	status, code := apperr.Status(err)
	return c.Status(status).JSON(fiber.Map{
		"error": apperr.Message(err),
		"code":  code,
	})
}

// MessageResponse is the body returned by delete endpoints.
func MessageResponse(message string) fiber.Map {
	return fiber.Map{"message": message}
}

// ParseID parses a positive numeric path id. ok is false for anything else.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
