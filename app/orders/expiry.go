package orders

import (
	"context"
	"log"
	"time"
)

type StaleExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunExpiry expires orders left new for longer than maxAge, once per
// interval, until ctx is done.
func RunExpiry(ctx context.Context, repo StaleExpirer, maxAge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		expireOnce(ctx, repo, maxAge)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func expireOnce(ctx context.Context, repo StaleExpirer, maxAge time.Duration) {
	n, err := repo.ExpireStale(ctx, time.Now().Add(-maxAge))
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("orders: expiring stale orders: %v", err)
		}
		return
	}
	if n > 0 {
		log.Printf("orders: expired %d stale orders", n)
	}
}
