// Package stats keeps the order counters and the popularity ranking.
package stats

import (
	"slices"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Persister receives a snapshot after every mutation.
type Persister interface {
	SaveStats(domain.Stats)
}

// Tracker owns the counters. Like the rest of the appliance state it is
// only touched from the dispatch loop.
type Tracker struct {
	stats     domain.Stats
	persister Persister
	log       *logger.Logger
}

// NewTracker starts from previously loaded counters.
func NewTracker(loaded domain.Stats, persister Persister, log *logger.Logger) *Tracker {
	return &Tracker{stats: loaded, persister: persister, log: log}
}

// Snapshot returns a copy of the counters.
func (t *Tracker) Snapshot() domain.Stats { return t.stats }

// Record books a concluded order. The outcome counter always moves;
// completed orders also bump one category counter and, for presets, the
// counter of the first catalog slot with a matching name. An unselected
// candidate is refused and changes nothing.
func (t *Tracker) Record(c domain.Candidate, outcome domain.Outcome, catalog domain.Catalog) bool {
	category := c.Category()
	if category == domain.CategoryNone {
		t.log.Warn("refusing to record an order without a drink")
		return false
	}

	switch outcome {
	case domain.OutcomeCompleted:
		t.stats.OrdersCompleted++
	case domain.OutcomeCancelled:
		t.stats.OrdersCancelled++
	case domain.OutcomeTimeout:
		t.stats.OrdersTimedOut++
	default:
		t.log.Warn("unknown outcome %d", outcome)
		return false
	}

	if outcome == domain.OutcomeCompleted {
		switch category {
		case domain.CategoryCustom:
			t.stats.CustomOrders++
		case domain.CategoryRandom:
			t.stats.RandomOrders++
		case domain.CategoryPreset:
			t.stats.PresetOrders++
			if slot := catalog.IndexOf(c.Recipe.Name); slot >= 0 {
				t.stats.PresetCounts[slot]++
			} else {
				t.log.Warn("preset %q not in the menu, slot counter unchanged", c.Recipe.Name)
			}
		}
	}

	t.log.Debug("recorded %s %s order %q", outcome, category, c.Recipe.Name)
	t.persister.SaveStats(t.stats)
	return true
}

// ResetRenamed zeroes the popularity counter of every slot whose recipe
// name differs between the two catalogs. It returns the reset slots.
func (t *Tracker) ResetRenamed(old, updated domain.Catalog) []int {
	var reset []int
	for slot := 0; slot < domain.CatalogCapacity; slot++ {
		if old.At(slot).Name == updated.At(slot).Name {
			continue
		}
		reset = append(reset, slot)
		t.stats.PresetCounts[slot] = 0
	}
	if len(reset) > 0 {
		t.log.Info("menu changed, reset popularity of slots %v", reset)
		t.persister.SaveStats(t.stats)
	}
	return reset
}

// Top returns the n most ordered presets of the catalog. Ties keep slot
// order.
func (t *Tracker) Top(n int, catalog domain.Catalog) []domain.Ranked {
	ranked := make([]domain.Ranked, 0, catalog.Len())
	for slot, r := range catalog.Recipes() {
		ranked = append(ranked, domain.Ranked{Slot: slot, Name: r.Name, Count: t.stats.PresetCounts[slot]})
	}
	slices.SortStableFunc(ranked, func(a, b domain.Ranked) int {
		return b.Count - a.Count
	})
	if n < len(ranked) {
		ranked = ranked[:max(n, 0)]
	}
	return ranked
}
