// Package warmer builds snapshots for configured keys on a fixed interval so
// each series accumulates history even when no dashboard is polling.
package warmer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainview/internal/config"
	"github.com/dgnsrekt/chainview/internal/snapshot"
)

// Builder runs the snapshot pipeline. *snapshot.Engine satisfies it.
type Builder interface {
	Build(ctx context.Context, req snapshot.Request) (*snapshot.Response, error)
}

// Calendar reports trading days. *market.Calendar satisfies it.
type Calendar interface {
	IsMarketDay(t time.Time) bool
}

// Warmer polls the builder for every key while the market calendar says the
// exchange is open today.
type Warmer struct {
	builder  Builder
	calendar Calendar
	keys     []config.WarmKey
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func New(builder Builder, calendar Calendar, keys []config.WarmKey, interval time.Duration, logger *zap.Logger) *Warmer {
	return &Warmer{
		builder:  builder,
		calendar: calendar,
		keys:     keys,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled. Call in a goroutine.
func (w *Warmer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	keys := make([]string, len(w.keys))
	for i, k := range w.keys {
		keys[i] = k.String()
	}
	w.logger.Info("warmer started",
		zap.Duration("interval", w.interval),
		zap.Strings("keys", keys),
	)

	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("warmer stopping")
			return

		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick builds every key once, unless today is not a market day. It returns
// the number of keys built successfully.
func (w *Warmer) Tick(ctx context.Context) int {
	if w.calendar != nil && !w.calendar.IsMarketDay(w.now()) {
		w.logger.Debug("market closed, skipping warm tick")
		return 0
	}

	built := 0
	for _, k := range w.keys {
		if ctx.Err() != nil {
			return built
		}
		req := snapshot.Request{Symbol: k.Symbol, ExpiryMode: k.ExpiryMode, DTE: k.DTE}
		resp, err := w.builder.Build(ctx, req)
		if err != nil {
			w.logger.Warn("warm build failed",
				zap.String("key", k.String()),
				zap.String("kind", snapshot.Kind(err)),
				zap.Error(err),
			)
			continue
		}
		built++
		w.logger.Debug("warmed",
			zap.String("key", k.String()),
			zap.String("expiration", resp.Expiration),
			zap.Int("strikes", len(resp.Strikes)),
		)
	}
	return built
}
