// handlers/digest_routes.go
package handlers

import (
	"strconv"

	"free-games-bot/services"

	"github.com/gofiber/fiber/v2"
)

func SetupDigestRoutes(api fiber.Router, digest *services.DigestService) {
	// silent=true only builds the message; otherwise it is broadcast too
	api.Get("/check-free-games", func(c *fiber.Ctx) error {
		silent, _ := strconv.ParseBool(c.Query("silent", "false"))

		d, err := digest.Run(c.UserContext(), !silent)
		if err != nil {
			return errorResponse(c, err, "failed to run digest")
		}
		return c.JSON(fiber.Map{
			"success":     true,
			"silent":      silent,
			"message":     d.Message,
			"offer_count": d.OfferCount(),
			"stores":      d.Stores,
			"recipients":  d.Recipients,
			"failed":      d.Failed,
			"run_id":      d.RunID,
			"archive_url": d.ArchiveURL,
		})
	})

	api.Get("/digests/latest", func(c *fiber.Ctx) error {
		if digest.Recorder == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "digest history not available"})
		}
		run, err := digest.Recorder.LatestDigest(c.UserContext())
		if err != nil {
			return errorResponse(c, err, "failed to fetch latest digest")
		}
		if run == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no digest has run yet"})
		}
		return c.JSON(run)
	})
}
