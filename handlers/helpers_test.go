package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"free-games-bot/models"
	"free-games-bot/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAdminID  = "999"
	testAPIToken = "token"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (n *recordingNotifier) Notify(_ context.Context, chatID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[string][]string{}
	}
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

func (n *recordingNotifier) to(chatID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent[chatID]...)
}

type staticSource struct{ offers []models.Offer }

func (s staticSource) Name() string { return models.StoreEpic }

func (s staticSource) FetchOffers(context.Context) ([]models.Offer, error) { return s.offers, nil }

type testEnv struct {
	store    *services.GormLedger
	notifier *recordingNotifier
	router   *CommandRouter
	digest   *services.DigestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection: shared-cache SQLite serializes store calls anyway
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := services.NewGormLedger(db)
	require.NoError(t, store.Migrate())

	table, err := services.NewMilestoneTable(services.DefaultMilestones)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	dispatcher := services.NewDispatcher(notifier)
	digest := services.NewDigestService([]services.OfferSource{staticSource{offers: []models.Offer{{
		Store: models.StoreEpic, Title: "Hades", URL: "https://store.epicgames.com/en-US/p/hades", PriceState: models.PriceStateFreeNow,
	}}}}, store, dispatcher)
	digest.Recorder = store

	router := NewCommandRouter(
		services.NewSubscriptionService(store),
		services.NewClaimService(store, table, dispatcher),
		services.NewGrantService(store, table, dispatcher, testAdminID),
		digest,
		table,
		dispatcher,
	)
	return &testEnv{store: store, notifier: notifier, router: router, digest: digest}
}

// app wires the same routes main does.
func (e *testEnv) app(webhookSecret string) *fiber.App {
	app := fiber.New()
	SetupHealthRoute(app, e.router.Dispatcher)
	SetupTelegramWebhookRoute(app, e.router, webhookSecret)
	api := app.Group("/api", func(c *fiber.Ctx) error {
		if c.Get("Authorization") != "Bearer "+testAPIToken {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.Next()
	})
	SetupDigestRoutes(api, e.digest)
	SetupStoreProbeRoute(api, e.store)
	SetupLedgerRoutes(api, e.router.Subscriptions, e.router.Claims, e.router.Grants)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAPIToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}
