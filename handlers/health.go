// handlers/health.go
package handlers

import (
	"free-games-bot/services"

	"github.com/gofiber/fiber/v2"
)

// SetupHealthRoute is public and never touches the store.
func SetupHealthRoute(app *fiber.App, dispatcher *services.Dispatcher) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":        "ok",
			"notifications": dispatcher.Stats.Snapshot(),
		})
	})
}

func SetupStoreProbeRoute(api fiber.Router, store services.LedgerStore) {
	api.Get("/test-db", func(c *fiber.Ctx) error {
		probe, err := store.Probe(c.UserContext())
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success":     true,
			"driver":      probe.Driver,
			"dbName":      probe.Database,
			"collections": probe.Collections,
		})
	})
}
