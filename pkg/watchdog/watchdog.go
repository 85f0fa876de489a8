package watchdog

import (
	"context"
	"log/slog"
	"time"
)

// NewWatchdog calls stale once when a full interval passes without a value on
// input, and fresh when values resume after that.
func NewWatchdog[T any](ctx context.Context, interval time.Duration, stale, fresh func(), input <-chan T) func() error {
	return func() error {
		t := time.NewTicker(interval)
		defer t.Stop()
		awake := true
		expired := false
		slog.Debug("watchdog started", "timeout", interval)
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-input:
				if !ok {
					return nil
				}
				awake = true
				if expired {
					slog.Info("sensor readings resumed", "module", "watchdog")
					expired = false
					fresh()
				}
			case <-t.C:
				if !awake && !expired {
					slog.Error("watchdog timeout, no sensor readings", "timeout", interval, "module", "watchdog")
					expired = true
					stale()
				}
				awake = false
			}
		}
	}
}
