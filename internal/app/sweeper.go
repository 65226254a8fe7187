package app

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper forces advancement of sessions whose current question is past its
// deadline. It can be driven by Run or by calling Sweep on every inbound event.
type Sweeper struct {
	registry *Registry
	advance  func(ctx context.Context, conversation string) bool
	interval time.Duration
	log      *slog.Logger
}

func newSweeper(registry *Registry, advance func(context.Context, string) bool, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		registry: registry,
		advance:  advance,
		interval: interval,
		log:      log,
	}
}

// Sweep advances every due session once and returns how many advanced.
// Calling it again without elapsed time is a no-op.
func (w *Sweeper) Sweep(ctx context.Context) int {
	advanced := 0
	for _, conversation := range w.registry.Conversations() {
		if ctx.Err() != nil {
			return advanced
		}
		if w.advance(ctx, conversation) {
			advanced++
		}
	}
	return advanced
}

// Run sweeps on a fixed interval until ctx is canceled.
func (w *Sweeper) Run(ctx context.Context) error {
	if w.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("expiry sweeper started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("expiry sweeper stopped")
			return nil
		case <-ticker.C:
			if n := w.Sweep(ctx); n > 0 {
				w.log.Debug("advanced expired sessions", "count", n)
			}
		}
	}
}
