package janitor

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type ChallengeStore interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor removes verification challenges long past their expiry. Codes stay
// queryable for their full logical lifetime; only rows expired for more than
// the retention window are purged.
type Janitor struct {
	cron      *cron.Cron
	store     ChallengeStore
	retention time.Duration
}

func New(store ChallengeStore, retention time.Duration) *Janitor {
	return &Janitor{
		cron:      cron.New(),
		store:     store,
		retention: retention,
	}
}

func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@hourly", j.purge); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cutoff := time.Now().Add(-j.retention)
	removed, err := j.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		log.Printf("otp purge failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("purged %d stale otp challenges", removed)
	}
}
