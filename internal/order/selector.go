// Package order turns menu events into a validated order candidate.
package order

import (
	"math"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Defaults for the custom drink editor.
const (
	DefaultAdjustStep  = 10
	DefaultPerDrinkCap = 200
)

// Inventory is what the selector needs to know about stock.
type Inventory interface {
	Catalog() domain.Catalog
	Stock() domain.Stock
	RecipeAvailable(r domain.Recipe) bool
	RandomRecipe(maxTotal int) domain.Recipe
}

// Option configures the selector.
type Option func(*Selector)

// WithAdjustStep sets the ml added or removed per adjust press.
func WithAdjustStep(ml int) Option {
	return func(s *Selector) {
		s.step = ml
	}
}

// WithPerDrinkCap sets the most a custom drink may use of one ingredient.
func WithPerDrinkCap(ml int) Option {
	return func(s *Selector) {
		s.cap = ml
	}
}

// Selector holds the selected preset, the custom draft and the candidate.
type Selector struct {
	inv       Inventory
	log       *logger.Logger
	step      int
	cap       int
	preset    int // selected catalog slot, -1 when none
	draft     domain.Recipe
	candidate domain.Candidate
}

// NewSelector returns a selector with nothing selected.
func NewSelector(inv Inventory, log *logger.Logger, opts ...Option) *Selector {
	s := &Selector{
		inv:  inv,
		log:  log,
		step: DefaultAdjustStep,
		cap:  DefaultPerDrinkCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.draft = domain.Recipe{Name: domain.CustomName}
	s.candidate.Size = domain.SizeMedium
	s.clear()
	return s
}

// Candidate returns the staged order.
func (s *Selector) Candidate() domain.Candidate { return s.candidate }

// Draft returns the custom composition being edited.
func (s *Selector) Draft() domain.Recipe { return s.draft }

// SelectedSlot returns the selected preset slot, or -1.
func (s *Selector) SelectedSlot() int { return s.preset }

// SelectPreset stages the preset in slot. Empty or unavailable recipes are
// ignored and the previous selection stays; the return value reports
// whether the selection changed.
func (s *Selector) SelectPreset(slot int) bool {
	r := s.inv.Catalog().At(slot)
	if r.Name == "" || r.IsEmpty() {
		return false
	}
	if !s.inv.RecipeAvailable(r) {
		s.log.Debug("ignoring unavailable preset %q", r.Name)
		return false
	}
	s.preset = slot
	s.candidate.Recipe = r
	s.log.Debug("selected preset %q", r.Name)
	return true
}

// Adjust moves one ingredient of the custom draft by one step in the
// given direction. The draft becomes the candidate once the whole
// composition is non-empty and available; a custom candidate that stops
// qualifying is withdrawn.
func (s *Selector) Adjust(ingredient, direction int) {
	if ingredient < 0 || ingredient >= domain.IngredientCount || direction == 0 {
		return
	}
	delta := s.step
	if direction < 0 {
		delta = -delta
	}
	s.draft.Amounts[ingredient] = clamp(s.draft.Amounts[ingredient]+delta, 0, s.limit(ingredient))
	s.syncCustom()
}

// SelectRandom stages a random drink of at most maxTotal ml. An empty
// composition (nothing in stock) is ignored.
func (s *Selector) SelectRandom(maxTotal int) bool {
	r := s.inv.RandomRecipe(maxTotal)
	if r.IsEmpty() {
		s.log.Debug("random drink is empty, nothing in stock")
		return false
	}
	s.preset = -1
	s.candidate.Recipe = r
	s.log.Debug("selected random drink %v", r.Amounts)
	return true
}

// SetSize picks the portion multiplier for the candidate.
func (s *Selector) SetSize(size domain.Size) {
	if size < domain.SizeSmall || size > domain.SizeLarge {
		return
	}
	s.candidate.Size = size
}

// Deselect resets the candidate to the unselected sentinel.
func (s *Selector) Deselect() {
	s.clear()
}

// Take hands the candidate to a submitted order and clears it, so a
// candidate is consumed exactly once. The size choice survives.
func (s *Selector) Take() (domain.Candidate, error) {
	c := s.candidate
	if !c.Selected() {
		return c, domain.ErrNothingSelected
	}
	s.clear()
	return c, nil
}

// CatalogReplaced revalidates the selection against a new catalog. A
// preset selection whose name vanished, or that is no longer available,
// is cleared; otherwise it adopts the new amounts.
func (s *Selector) CatalogReplaced(c domain.Catalog) {
	if s.candidate.Category() != domain.CategoryPreset {
		s.preset = -1
		return
	}
	slot := c.IndexOf(s.candidate.Recipe.Name)
	if slot < 0 {
		s.log.Info("selected %q left the menu, deselecting", s.candidate.Recipe.Name)
		s.clear()
		return
	}
	r := c.At(slot)
	if r.IsEmpty() || !s.inv.RecipeAvailable(r) {
		s.log.Info("selected %q is no longer available, deselecting", r.Name)
		s.clear()
		return
	}
	s.preset = slot
	s.candidate.Recipe = r
}

// StockChanged clamps the custom draft to the new stock levels and
// revalidates a custom candidate.
func (s *Selector) StockChanged() {
	for i := range s.draft.Amounts {
		s.draft.Amounts[i] = clamp(s.draft.Amounts[i], 0, s.limit(i))
	}
	if s.candidate.Category() == domain.CategoryCustom {
		s.syncCustom()
	}
}

func (s *Selector) syncCustom() {
	if !s.draft.IsEmpty() && s.inv.RecipeAvailable(s.draft) {
		s.preset = -1
		s.candidate.Recipe = s.draft
		return
	}
	if s.candidate.Category() == domain.CategoryCustom {
		s.log.Debug("custom draft no longer pourable, withdrawing candidate")
		s.clear()
	}
}

func (s *Selector) limit(i int) int {
	return min(s.cap, int(math.Floor(s.inv.Stock()[i].Remaining)))
}

func (s *Selector) clear() {
	s.preset = -1
	s.candidate.Recipe = domain.Unselected()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
