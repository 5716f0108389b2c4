package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"free-games-bot/config"
	"free-games-bot/handlers"
	"free-games-bot/middleware"
	"free-games-bot/services"
	"free-games-bot/utils"
	"free-games-bot/workers"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type ledger interface {
	services.LedgerStore
	services.DigestRecorder
}

func openLedger(ctx context.Context, cfg config.LedgerConfig) (ledger, error) {
	if cfg.Driver == config.LedgerDriverMongo {
		store, err := services.OpenMongoLedger(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := services.OpenPostgresLedger(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func buildSources(cfg config.DigestConfig) []services.OfferSource {
	client := utils.NewHTTPClient(cfg.HTTPTimeout)
	var sources []services.OfferSource
	for _, name := range cfg.Stores {
		switch name {
		case "epic":
			sources = append(sources, workers.NewEpicSource(client))
		case "gog":
			sources = append(sources, workers.NewGOGSource(client))
		case "steam":
			sources = append(sources, workers.NewSteamSource(client, cfg.SteamMinDiscount))
		default:
			log.Printf("⚠️  Unknown store %q in STORES, skipping", name)
		}
	}
	return sources
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := openLedger(connectCtx, cfg.Ledger)
	cancel()
	if err != nil {
		log.Fatal("failed to open ledger store:", err)
	}
	log.Printf("✅ Ledger store ready (driver=%s)", cfg.Ledger.Driver)

	milestoneList, err := services.ParseMilestones(cfg.Ledger.Milestones)
	if err != nil {
		log.Fatal("invalid MILESTONES:", err)
	}
	milestones, err := services.NewMilestoneTable(milestoneList)
	if err != nil {
		log.Fatal("invalid MILESTONES:", err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatal("failed to connect to Telegram:", err)
	}
	bot.Debug = cfg.Telegram.Debug
	log.Printf("✅ Authorized on account @%s", bot.Self.UserName)

	dispatcher := services.NewDispatcher(services.NewTelegramNotifier(bot))

	subscriptionService := services.NewSubscriptionService(store)
	claimService := services.NewClaimService(store, milestones, dispatcher)
	grantService := services.NewGrantService(store, milestones, dispatcher, cfg.Telegram.AdminChatID)

	digestService := services.NewDigestService(buildSources(cfg.Digest), store, dispatcher)
	digestService.Recorder = store
	digestService.BroadcastChatID = cfg.Telegram.BroadcastChatID
	digestService.FanoutLimit = cfg.Digest.FanoutLimit
	if cfg.R2.Enabled() {
		archiver, err := utils.NewR2Archiver(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		digestService.Archiver = archiver
		log.Printf("✅ Digest archive enabled (bucket=%s)", cfg.R2.Bucket)
	}

	router := handlers.NewCommandRouter(subscriptionService, claimService, grantService, digestService, milestones, dispatcher)
	handlers.PublishBotCommands(bot)

	app := fiber.New(fiber.Config{
		AppName: "free-games-bot",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
	}))

	handlers.SetupHealthRoute(app, dispatcher)
	handlers.SetupTelegramWebhookRoute(app, router, cfg.Telegram.WebhookSecret)

	// 🔐 Everything else under /api requires the service token
	api := app.Group("/api", middleware.ServiceTokenMiddleware(cfg.Server.APIToken))
	handlers.SetupDigestRoutes(api, digestService)
	handlers.SetupStoreProbeRoute(api, store)
	handlers.SetupLedgerRoutes(api, subscriptionService, claimService, grantService)

	scheduler, err := digestService.StartDigestScheduler(ctx, cfg.Digest.Cron, cfg.Digest.Interval)
	if err != nil {
		log.Fatal("failed to start digest scheduler:", err)
	}

	if cfg.Telegram.WebhookURL != "" {
		if err := handlers.RegisterWebhook(bot, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			log.Fatal("failed to register webhook:", err)
		}
	} else {
		go handlers.StartPolling(ctx, bot, router)
	}

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()
	log.Printf("✅ Server running on http://localhost:%s", cfg.Server.Port)

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Printf("Ledger close error: %v", err)
	}
}
