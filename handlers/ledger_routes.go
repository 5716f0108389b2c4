// handlers/ledger_routes.go
package handlers

import (
	"log"

	"free-games-bot/middleware"
	"free-games-bot/models"
	"free-games-bot/services"

	"github.com/gofiber/fiber/v2"
)

type claimRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type grantRequest struct {
	ChatID      string `json:"chat_id"`
	Achievement string `json:"achievement"`
}

func SetupLedgerRoutes(api fiber.Router, subs *services.SubscriptionService, claims *services.ClaimService, grants *services.GrantService) {
	users := api.Group("/users")

	// Subscribe; an existing record is left as is
	users.Post("/:chatId", func(c *fiber.Ctx) error {
		var profile models.Profile
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&profile); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid profile body",
					"cause": err.Error(),
				})
			}
		}
		created, err := subs.Subscribe(c.UserContext(), c.Params("chatId"), profile)
		if err != nil {
			return errorResponse(c, err, "failed to subscribe")
		}
		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{"created": created})
	})

	users.Delete("/:chatId", func(c *fiber.Ctx) error {
		if err := subs.Unsubscribe(c.UserContext(), c.Params("chatId")); err != nil {
			return errorResponse(c, err, "failed to unsubscribe")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	users.Get("/:chatId", func(c *fiber.Ctx) error {
		user, err := subs.GetUser(c.UserContext(), c.Params("chatId"))
		if err != nil {
			return errorResponse(c, err, "failed to fetch user")
		}
		return c.JSON(user)
	})

	users.Get("/:chatId/claims", func(c *fiber.Ctx) error {
		list, err := subs.ListClaims(c.UserContext(), c.Params("chatId"))
		if err != nil {
			return errorResponse(c, err, "failed to fetch claims")
		}
		return c.JSON(fiber.Map{"claims": list, "count": len(list)})
	})

	users.Get("/:chatId/achievements", func(c *fiber.Ctx) error {
		list, err := subs.ListAchievements(c.UserContext(), c.Params("chatId"))
		if err != nil {
			return errorResponse(c, err, "failed to fetch achievements")
		}
		return c.JSON(fiber.Map{"achievements": list, "count": len(list)})
	})

	users.Post("/:chatId/claims", func(c *fiber.Ctx) error {
		var req claimRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid claim body",
				"cause": err.Error(),
			})
		}
		result, err := claims.Claim(c.UserContext(), c.Params("chatId"), req.Title, req.URL)
		if err != nil {
			return errorResponse(c, err, "failed to record claim")
		}
		status := fiber.StatusCreated
		if result.Status == services.ClaimStatusAlreadyClaimed {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(result)
	})

	// 🔐 Admin routes — requester identity forwarded in X-User-ID
	admin := api.Group("/admin", middleware.UserContextMiddleware())

	admin.Post("/achievements/grant", func(c *fiber.Ctx) error {
		var req grantRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid grant body",
				"cause": err.Error(),
			})
		}
		requester := middleware.UserID(c)
		result, err := grants.Grant(c.UserContext(), req.ChatID, req.Achievement, requester)
		if err != nil {
			return errorResponse(c, err, "failed to grant achievement")
		}
		log.Printf("✅ [ADMIN] Grant %s → %s: %s", result.Achievement, result.ChatID, result.Status)
		status := fiber.StatusCreated
		if result.Status == services.GrantStatusAlreadyGranted {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(result)
	})
}
