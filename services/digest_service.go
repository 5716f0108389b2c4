package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"free-games-bot/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// OfferSource pulls the current offers of one store.
type OfferSource interface {
	Name() string
	FetchOffers(ctx context.Context) ([]models.Offer, error)
}

// Archiver stores a digest snapshot and returns where it can be read back.
type Archiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// StoreOffers is the result of one source for one digest run.
type StoreOffers struct {
	Store  string         `json:"store"`
	Offers []models.Offer `json:"offers"`
	Error  string         `json:"error,omitempty"`
}

type Digest struct {
	RunID      string        `json:"run_id,omitempty"`
	Message    string        `json:"message"`
	Stores     []StoreOffers `json:"stores"`
	Recipients int           `json:"recipients"`
	Failed     int           `json:"failed"`
	ArchiveURL string        `json:"archive_url,omitempty"`
}

// OfferCount sums offers over all stores.
func (d *Digest) OfferCount() int {
	n := 0
	for _, s := range d.Stores {
		n += len(s.Offers)
	}
	return n
}

type DigestService struct {
	Sources    []OfferSource
	Store      LedgerStore
	Recorder   DigestRecorder // optional
	Archiver   Archiver       // optional
	Dispatcher *Dispatcher

	// BroadcastChatID receives every digest in addition to the subscribers.
	BroadcastChatID string
	FanoutLimit     int
	Now             func() time.Time
}

func NewDigestService(sources []OfferSource, store LedgerStore, dispatcher *Dispatcher) *DigestService {
	return &DigestService{
		Sources:     sources,
		Store:       store,
		Dispatcher:  dispatcher,
		FanoutLimit: 8,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// Collect queries every source concurrently. A failing store is logged and
// contributes no offers; it never fails the digest.
func (s *DigestService) Collect(ctx context.Context) []StoreOffers {
	results := make([]StoreOffers, len(s.Sources))
	var g errgroup.Group
	for i, src := range s.Sources {
		g.Go(func() error {
			offers, err := src.FetchOffers(ctx)
			results[i] = StoreOffers{Store: src.Name(), Offers: offers}
			if err != nil {
				log.Printf("[DIGEST] ❌ %s fetch failed: %v", src.Name(), err)
				results[i].Offers = nil
				results[i].Error = err.Error()
				return nil
			}
			log.Printf("[DIGEST] 📥 %s returned %d offer(s)", src.Name(), len(offers))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Run builds the digest. With broadcast it is sent to every subscriber and
// the broadcast chat, then recorded and archived; without it (check-now) the
// message is only returned.
func (s *DigestService) Run(ctx context.Context, broadcast bool) (*Digest, error) {
	log.Println("🔍 [DIGEST] Collecting free games...")
	d := &Digest{Stores: s.Collect(ctx)}
	d.Message = FormatDigest(d.Stores)
	if !broadcast {
		return d, nil
	}

	recipients, err := s.recipients(ctx)
	if err != nil {
		return d, fmt.Errorf("failed to list subscribers: %w", err)
	}
	d.Recipients = len(recipients)
	d.Failed = s.fanout(ctx, recipients, d.Message)
	log.Printf("✅ [DIGEST] Sent to %d recipient(s), %d failed", d.Recipients, d.Failed)

	s.record(ctx, d)
	return d, nil
}

func (s *DigestService) recipients(ctx context.Context) ([]string, error) {
	ids, err := s.Store.ListSubscribers(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids)+1)
	out := make([]string, 0, len(ids)+1)
	if s.BroadcastChatID != "" {
		if id, err := NormalizeChatID(s.BroadcastChatID); err == nil {
			seen[id] = true
			out = append(out, id)
		} else {
			log.Printf("⚠️  [DIGEST] Ignoring invalid broadcast chat id %q", s.BroadcastChatID)
		}
	}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *DigestService) fanout(ctx context.Context, recipients []string, message string) int {
	limit := s.FanoutLimit
	if limit < 1 {
		limit = 1
	}
	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(limit)
	for _, chatID := range recipients {
		g.Go(func() error {
			if !s.Dispatcher.Send(ctx, chatID, message) {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

// record archives and persists the run; both are best effort.
func (s *DigestService) record(ctx context.Context, d *Digest) {
	now := s.Now()
	d.RunID = uuid.NewString()

	payload, err := json.Marshal(d.Stores)
	if err != nil {
		log.Printf("[DIGEST] ⚠️ Failed to encode offers snapshot: %v", err)
		return
	}

	if s.Archiver != nil {
		key := fmt.Sprintf("digests/%s/%s.json", now.Format("2006/01/02"), d.RunID)
		if url, err := s.Archiver.Put(ctx, key, payload, "application/json"); err != nil {
			log.Printf("[DIGEST] ⚠️ Archive upload failed: %v", err)
		} else {
			d.ArchiveURL = url
		}
	}

	if s.Recorder == nil {
		return
	}
	run := &models.DigestRun{
		ID:               d.RunID,
		RanAt:            now,
		OfferCount:       d.OfferCount(),
		Recipients:       d.Recipients,
		FailedDeliveries: d.Failed,
		Offers:           payload,
		ArchiveURL:       d.ArchiveURL,
	}
	if err := s.Recorder.RecordDigest(ctx, run); err != nil {
		log.Printf("[DIGEST] ⚠️ Failed to record digest run %s: %v", d.RunID, err)
	}
}
