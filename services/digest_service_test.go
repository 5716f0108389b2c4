package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"free-games-bot/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name   string
	offers []models.Offer
	err    error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchOffers(context.Context) ([]models.Offer, error) {
	return f.offers, f.err
}

type fakeArchiver struct {
	mu   sync.Mutex
	keys []string
	body []byte
}

func (f *fakeArchiver) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.body = body
	return "https://cdn.example.com/" + key, nil
}

func epicFree(title, url string) models.Offer {
	return models.Offer{Store: models.StoreEpic, Title: title, URL: url, PriceState: models.PriceStateFreeNow, DiscountPercent: 100}
}

func TestCollectIsolatesFailingStore(t *testing.T) {
	svc := NewDigestService([]OfferSource{
		&fakeSource{name: models.StoreEpic, offers: []models.Offer{epicFree("Hades", "https://e/hades")}},
		&fakeSource{name: models.StoreGOG, err: errors.New("503")},
	}, nil, nil)

	stores := svc.Collect(context.Background())
	require.Len(t, stores, 2)
	assert.Equal(t, models.StoreEpic, stores[0].Store)
	assert.Len(t, stores[0].Offers, 1)
	assert.Equal(t, models.StoreGOG, stores[1].Store)
	assert.Empty(t, stores[1].Offers)
	assert.Equal(t, "503", stores[1].Error)
}

func TestSilentRunDoesNotBroadcast(t *testing.T) {
	store := newTestLedger(t)
	notifier := &fakeNotifier{}
	_, err := store.UpsertUser(context.Background(), "1", models.Profile{})
	require.NoError(t, err)

	svc := NewDigestService([]OfferSource{
		&fakeSource{name: models.StoreEpic, offers: []models.Offer{epicFree("Hades", "https://e/hades")}},
	}, store, NewDispatcher(notifier))
	svc.Recorder = store

	d, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Contains(t, d.Message, "Hades")
	assert.Empty(t, notifier.messages())

	latest, err := store.LatestDigest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestBroadcastFansOutOncePerChat(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)
	for _, id := range []string{"1", "2", "-100"} {
		_, err := store.UpsertUser(ctx, id, models.Profile{})
		require.NoError(t, err)
	}
	notifier := &fakeNotifier{}
	archiver := &fakeArchiver{}

	svc := NewDigestService([]OfferSource{
		&fakeSource{name: models.StoreEpic, offers: []models.Offer{epicFree("Hades", "https://e/hades")}},
	}, store, NewDispatcher(notifier))
	svc.Recorder = store
	svc.Archiver = archiver
	svc.BroadcastChatID = " -100 "
	svc.FanoutLimit = 2
	svc.Now = func() time.Time { return time.Date(2024, 6, 7, 8, 0, 0, 0, time.UTC) }

	d, err := svc.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Recipients)
	assert.Zero(t, d.Failed)

	var chats []string
	for _, m := range notifier.messages() {
		chats = append(chats, m.ChatID)
	}
	assert.ElementsMatch(t, []string{"-100", "1", "2"}, chats)

	require.Len(t, archiver.keys, 1)
	assert.True(t, strings.HasPrefix(archiver.keys[0], "digests/2024/06/07/"))
	assert.Contains(t, string(archiver.body), "https://e/hades")
	assert.Equal(t, "https://cdn.example.com/"+archiver.keys[0], d.ArchiveURL)

	latest, err := store.LatestDigest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, d.RunID, latest.ID)
	assert.Equal(t, 1, latest.OfferCount)
	assert.Equal(t, 3, latest.Recipients)
}

func TestBroadcastCountsFailedDeliveries(t *testing.T) {
	ctx := context.Background()
	store := newTestLedger(t)
	_, err := store.UpsertUser(ctx, "1", models.Profile{})
	require.NoError(t, err)

	svc := NewDigestService(nil, store, NewDispatcher(&fakeNotifier{fail: true}))
	d, err := svc.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Recipients)
	assert.Equal(t, 1, d.Failed)
}

func TestFormatDigest(t *testing.T) {
	ends := time.Date(2024, 6, 13, 15, 0, 0, 0, time.UTC)
	free := epicFree("Hades & Friends", "https://e/hades")
	free.EndsAt = &ends

	msg := FormatDigest([]StoreOffers{
		{Store: models.StoreEpic, Offers: []models.Offer{
			free,
			{Store: models.StoreEpic, Title: "Next", URL: "https://e/next", PriceState: models.PriceStateUpcoming},
		}},
		{Store: models.StoreGOG},
		{Store: models.StoreSteam, Offers: []models.Offer{{
			Store: models.StoreSteam, Title: "Deal", URL: "https://s/1", PriceState: models.PriceStateDiscounted,
			DiscountPercent: 90, OriginalPrice: decimal.RequireFromString("19.99"), FinalPrice: decimal.RequireFromString("1.99"), Currency: "USD",
		}}},
	})

	assert.Contains(t, msg, "<b>Epic Games Free Now:</b>")
	assert.Contains(t, msg, `<a href="https://e/hades">Hades &amp; Friends</a> until Jun 13`)
	assert.Contains(t, msg, "Coming soon (Epic Games)")
	assert.Contains(t, msg, "<b>GOG Free Now:</b>\n🚫 No free games right now.")
	assert.Contains(t, msg, "(-90%, <s>19.99</s> → 1.99 USD)")
	assert.Less(t, strings.Index(msg, "Epic Games"), strings.Index(msg, "GOG"))
}

func TestFormatDigestCapsSections(t *testing.T) {
	var offers []models.Offer
	for i := 0; i < 20; i++ {
		offers = append(offers, epicFree(strings.Repeat("x", 100), "https://e/x"))
	}
	msg := FormatDigest([]StoreOffers{{Store: models.StoreEpic, Offers: offers}})

	assert.Contains(t, msg, "…and 5 more")
	assert.NotContains(t, msg, strings.Repeat("x", 80))
	assert.Contains(t, msg, "15. ")
	assert.NotContains(t, msg, "16. ")
}
