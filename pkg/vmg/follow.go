package vmg

import (
	"context"
	"log/slog"
	"time"

	"sailtimer/pkg/gps"
)

// Follow feeds fixes from src into c until ctx is done. Source errors and
// silence longer than staleAfter are reported through c.ReportError.
func Follow(ctx context.Context, src gps.Source, c *Calculator, staleAfter time.Duration) {
	wd := gps.NewWatchdog(staleAfter)
	unsubscribe := src.Subscribe(
		func(s gps.Sample) {
			wd.Feed()
			c.UpdateSample(s)
		},
		c.ReportError,
	)
	defer unsubscribe()

	slog.Info("VMG: Following GPS", "stale_after", staleAfter)

	if staleAfter <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(staleAfter / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wd.Check(); err != nil {
				c.ReportError(err)
			}
		}
	}
}
