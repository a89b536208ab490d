package cleaner

import (
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Expirer removes entries older than the expiration window as of now.
type Expirer interface {
	Expire(now time.Time) ([]string, error)
}

// SweepObserver is told about every sweep. *metrics.Metrics satisfies it.
type SweepObserver interface {
	ObserveSweep(removed int, err error)
}

// Start runs an expiration sweep every interval until stop is closed.
func Start(e Expirer, interval time.Duration, obs SweepObserver, logger log.Logger, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case now := <-t.C:
				_ = runOnce(e, now, obs, logger)
			case <-stop:
				return
			}
		}
	}()
}

// runOnce sweeps once. The error is logged and reported to obs; the next
// tick tries again.
func runOnce(e Expirer, now time.Time, obs SweepObserver, logger log.Logger) error {
	removed, err := e.Expire(now)
	if obs != nil {
		obs.ObserveSweep(len(removed), err)
	}
	if err != nil {
		level.Error(logger).Log("msg", "expire sweep failed", "removed", len(removed), "err", err)
		return err
	}
	if len(removed) > 0 {
		level.Info(logger).Log("msg", "expired entries", "removed", len(removed))
	}
	return nil
}
