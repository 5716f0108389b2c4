// handlers/errors.go
package handlers

import (
	"errors"

	"free-games-bot/services"

	"github.com/gofiber/fiber/v2"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrUnknownUser):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrMalformedInput):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error, message string) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": message,
		"cause": err.Error(),
	})
}
