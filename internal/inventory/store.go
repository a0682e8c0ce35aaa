// Package inventory holds the preset catalog and the ingredient stock and
// answers availability questions about them.
package inventory

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// DefaultSafetyMargin is the stock (ml) kept in reserve to absorb dosing
// imprecision.
const DefaultSafetyMargin = 10

// Persister receives snapshots after every mutation. Writes happen
// asynchronously; see storage.Saver.
type Persister interface {
	SaveCatalog(domain.Catalog)
	SaveStock(domain.Stock)
}

// Option configures the store.
type Option func(*Store)

// WithSafetyMargin overrides the availability reserve.
func WithSafetyMargin(ml float64) Option {
	return func(s *Store) {
		s.margin = ml
	}
}

// WithRand injects the random source used by RandomRecipe.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) {
		s.rand = r
	}
}

// Store owns the catalog and stock. It is not safe for concurrent use:
// the dispatch loop is its only caller.
type Store struct {
	catalog   domain.Catalog
	stock     domain.Stock
	margin    float64
	rand      *rand.Rand
	persister Persister
	log       *logger.Logger
}

// New creates a store over the loaded records.
func New(catalog domain.Catalog, stock domain.Stock, persister Persister, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		catalog:   catalog,
		stock:     stock,
		margin:    DefaultSafetyMargin,
		rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		persister: persister,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.stock {
		if s.stock[i].Remaining < 0 {
			s.stock[i].Remaining = 0
		}
	}
	return s
}

// Catalog returns the current catalog.
func (s *Store) Catalog() domain.Catalog { return s.catalog }

// Stock returns a copy of the current stock.
func (s *Store) Stock() domain.Stock { return s.stock }

// Margin returns the configured safety margin.
func (s *Store) Margin() float64 { return s.margin }

// IngredientAvailable reports whether required ml of ingredient i can be
// poured while keeping the safety margin in reserve.
func (s *Store) IngredientAvailable(i int, required float64) bool {
	if i < 0 || i >= domain.IngredientCount {
		return false
	}
	return required <= s.stock[i].Remaining-s.margin
}

// RecipeAvailable reports whether every ingredient of r is available.
func (s *Store) RecipeAvailable(r domain.Recipe) bool {
	return s.RecipeAvailableScaled(r, domain.SizeMedium)
}

// RecipeAvailableScaled is RecipeAvailable with the size multiplier
// applied to every target.
func (s *Store) RecipeAvailableScaled(r domain.Recipe, size domain.Size) bool {
	ok := true
	for i, amount := range r.Amounts {
		if !s.IngredientAvailable(i, float64(amount)*size.Multiplier()) {
			ok = false
		}
	}
	return ok
}

// Debit removes amount ml from ingredient i. Stock never goes negative.
func (s *Store) Debit(i int, amount float64) error {
	if i < 0 || i >= domain.IngredientCount {
		return fmt.Errorf("debit %d: %w", i, domain.ErrIngredientIndex)
	}
	if amount <= 0 {
		return nil
	}
	before := s.stock[i].Remaining
	s.stock[i].Remaining = math.Max(0, before-amount)
	s.log.Debug("debited %.1f ml of %s (%.1f -> %.1f)", amount, s.stock[i].Name, before, s.stock[i].Remaining)
	s.persister.SaveStock(s.stock)
	return nil
}

// ReplaceStock overwrites every stock level, as a restock does.
func (s *Store) ReplaceStock(stock domain.Stock) {
	for i := range stock {
		if stock[i].Remaining < 0 {
			stock[i].Remaining = 0
		}
	}
	s.stock = stock
	s.log.Info("stock replaced")
	s.persister.SaveStock(s.stock)
}

// ReplaceCatalog installs a new catalog and returns the previous one so
// callers can apply the rename rules.
func (s *Store) ReplaceCatalog(c domain.Catalog) domain.Catalog {
	old := s.catalog
	s.catalog = c
	s.log.Info("catalog replaced (%d -> %d recipes)", old.Len(), c.Len())
	s.persister.SaveCatalog(c)
	return old
}

// RandomRecipe composes a random drink of at most maxTotal ml from what is
// in stock. Allocation is greedy in pump order, so earlier ingredients
// tend to get more: the mix is random, not fair. A non-positive maxTotal
// yields an empty drink.
func (s *Store) RandomRecipe(maxTotal int) domain.Recipe {
	r := domain.Recipe{Name: domain.RandomName}
	left := max(0, maxTotal)
	for i := 0; i < domain.IngredientCount; i++ {
		have := s.pourable(i)
		if i == domain.IngredientCount-1 {
			r.Amounts[i] = min(left, have)
			break
		}
		limit := min(have, left)
		if limit <= 0 {
			continue
		}
		r.Amounts[i] = s.rand.IntN(limit + 1)
		left -= r.Amounts[i]
	}
	return r
}

// pourable is the whole ml of ingredient i that can be poured without
// touching the safety margin.
func (s *Store) pourable(i int) int {
	v := int(math.Floor(s.stock[i].Remaining - s.margin))
	if v < 0 {
		return 0
	}
	return v
}
