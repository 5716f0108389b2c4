// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartDigestScheduler runs the broadcast digest on cronExpr when set,
// otherwise every interval. Overlapping runs are skipped, not queued.
func (s *DigestService) StartDigestScheduler(ctx context.Context, cronExpr string, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	definition := gocron.DurationJob(interval)
	if cronExpr != "" {
		definition = gocron.CronJob(cronExpr, false)
	}

	_, err = sched.NewJob(
		definition,
		gocron.NewTask(func() {
			if _, err := s.Run(ctx, true); err != nil {
				log.Printf("[Scheduler] Digest run failed: %v", err)
			}
		}),
		gocron.WithName("free-games-digest"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule digest: %w", err)
	}

	sched.Start()
	if cronExpr != "" {
		log.Printf("✅ [Scheduler] Digest scheduled with cron %q", cronExpr)
	} else {
		log.Printf("✅ [Scheduler] Digest scheduled every %s", interval)
	}
	return sched, nil
}
