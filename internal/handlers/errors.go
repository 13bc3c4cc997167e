package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ErrorHandler renders every routing error as a JSON body. This is what
// turns fiber's 405 Method Not Allowed on /collect and /stats into the
// {error} shape the tracking client and dashboard expect.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
