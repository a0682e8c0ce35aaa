package engine

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// ViewSource provides appliance snapshots. Appliance satisfies it.
type ViewSource interface {
	View() domain.View
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets how often the watcher inspects the stock.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithWatcherClock sets the clock driving the watcher's ticker.
func WithWatcherClock(clk clock.WithTicker) WatcherOption {
	return func(w *Watcher) {
		w.clock = clk
	}
}

// WithLowStockLevel sets the level (ml) under which a bottle is reported.
func WithLowStockLevel(ml float64) WatcherOption {
	return func(w *Watcher) {
		w.lowLevel = ml
	}
}

// Watcher periodically inspects published snapshots and warns the staff
// about bottles running low and a menu that can no longer be poured. Each
// condition is reported once until it clears, typically by a restock.
// It only reads snapshots, so it runs on its own goroutine.
type Watcher struct {
	source   ViewSource
	notifier domain.Notifier
	log      *logger.Logger
	clock    clock.WithTicker
	interval time.Duration
	lowLevel float64

	low     [domain.IngredientCount]bool
	drained bool
}

// NewWatcher creates a watcher with the given dependencies.
func NewWatcher(source ViewSource, notifier domain.Notifier, log *logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:   source,
		notifier: notifier,
		log:      log,
		clock:    clock.RealClock{},
		interval: 30 * time.Second,
		lowLevel: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the watcher loop. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watcher started (interval=%s, low=%.0f ml)", w.interval, w.lowLevel)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return nil
		case <-ticker.C():
			w.check(ctx)
		}
	}
}

// check runs one watcher cycle.
func (w *Watcher) check(ctx context.Context) {
	v := w.source.View()

	for i, ing := range v.Stock {
		low := ing.Remaining < w.lowLevel
		if low && !w.low[i] {
			w.say(ctx, fmt.Sprintf("%s is running low (%.0f ml left).", displayName(ing, i), ing.Remaining))
		}
		if !low && w.low[i] {
			w.log.Debug("%s back above %.0f ml", displayName(ing, i), w.lowLevel)
		}
		w.low[i] = low
	}

	drained := len(v.Catalog) > 0
	for i := range v.Catalog {
		if v.Available[i] {
			drained = false
			break
		}
	}
	if drained && !w.drained {
		w.say(ctx, "No drink on the menu can be poured with the current stock.")
	}
	w.drained = drained
}

func (w *Watcher) say(ctx context.Context, msg string) {
	w.log.Warn("%s", msg)
	if err := w.notifier.Notify(ctx, msg); err != nil {
		w.log.Error("watcher: notify: %v", err)
	}
}

func displayName(ing domain.Ingredient, slot int) string {
	if ing.Name == "" {
		return fmt.Sprintf("Bottle %d", slot+1)
	}
	return ing.Name
}
