package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

type staticView struct{ v domain.View }

func (s *staticView) View() domain.View { return s.v }

func TestWatcherWarnsOncePerCrossing(t *testing.T) {
	src := &staticView{}
	src.v.Stock = domain.Stock{{Name: "Gin", Remaining: 500}, {Name: "Vermouth", Remaining: 500}, {Remaining: 500}, {Remaining: 500}}
	notes := &collectingNotifier{}
	w := NewWatcher(src, notes, logger.Nop(), WithLowStockLevel(100))
	ctx := context.Background()

	w.check(ctx)
	assert.Empty(t, notes.normal)

	src.v.Stock[0].Remaining = 80
	src.v.Stock[2].Remaining = 10
	w.check(ctx)
	w.check(ctx)
	assert.Equal(t, []string{
		"Gin is running low (80 ml left).",
		"Bottle 3 is running low (10 ml left).",
	}, notes.normal)

	// Restock clears the warning; the next drop warns again.
	src.v.Stock[0].Remaining = 700
	w.check(ctx)
	src.v.Stock[0].Remaining = 50
	w.check(ctx)
	assert.Len(t, notes.normal, 3)
}

func TestWatcherWarnsWhenNothingPourable(t *testing.T) {
	src := &staticView{}
	for i := range src.v.Stock {
		src.v.Stock[i].Remaining = 1000
	}
	src.v.Catalog = []domain.Recipe{{Name: "Martini"}, {Name: "Gibson"}}
	notes := &collectingNotifier{}
	w := NewWatcher(src, notes, logger.Nop())

	w.check(context.Background())
	w.check(context.Background())
	assert.Equal(t, []string{"No drink on the menu can be poured with the current stock."}, notes.normal)

	src.v.Available[1] = true
	w.check(context.Background())
	assert.Len(t, notes.normal, 1)
}

func TestWatcherChecksOnEveryTick(t *testing.T) {
	src := &staticView{}
	src.v.Stock = domain.Stock{{Name: "Gin", Remaining: 40}, {Remaining: 500}, {Remaining: 500}, {Remaining: 500}}
	notes := &collectingNotifier{}
	clk := testclock.NewFakeClock(time.Unix(0, 0))
	w := NewWatcher(src, notes, logger.Nop(), WithWatcherClock(clk), WithWatchInterval(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	notes.mu.Lock()
	assert.Empty(t, notes.normal, "nothing is checked before the first tick")
	notes.mu.Unlock()

	clk.Step(time.Minute)
	require.Eventually(t, func() bool {
		notes.mu.Lock()
		defer notes.mu.Unlock()
		return len(notes.normal) == 1
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"Gin is running low (40 ml left)."}, notes.normal)
}
