package rates

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRefreshInterval matches the provider's update cadence; quotes are
// daily, so a few refreshes per day keeps the table current.
const DefaultRefreshInterval = 6 * time.Hour

// Refresher periodically refreshes all pairs in the background. It runs on
// its own goroutine, independent of request traffic, and relies on
// RefreshAll's per-pair failure isolation so a flaky provider never kills
// the loop.
type Refresher struct {
	svc      *Service
	interval time.Duration
	log      zerolog.Logger
}

// NewRefresher builds a refresher; a non-positive interval falls back to
// DefaultRefreshInterval.
func NewRefresher(svc *Service, interval time.Duration, log zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{svc: svc, interval: interval, log: log}
}

// Run refreshes once immediately, then on every tick until ctx is
// cancelled. Call it on a dedicated goroutine.
func (r *Refresher) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("starting exchange rate refresher")

	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("exchange rate refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	start := time.Now()
	updated := r.svc.RefreshAll(ctx)
	r.log.Info().
		Int("updated", updated).
		Int("pairs", len(r.svc.Pairs())).
		Dur("took", time.Since(start)).
		Msg("exchange rate refresh finished")
}
