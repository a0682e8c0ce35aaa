// Package storage provides persistence for the catalog, stock and stats
// records, plus the background saver and the blocking startup loader.
package storage

import (
	"context"
	"sync"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Compile-time interface check.
var _ domain.Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps the records in memory. Safe for concurrent access.
// Failures can be injected with FailNext to exercise retry paths.
type MemoryRepository struct {
	mu       sync.RWMutex
	catalog  domain.Catalog
	stock    domain.Stock
	stats    domain.Stats
	failures int
	saves    int
	log      *logger.Logger
}

// NewMemoryRepository creates a repository preloaded with the given records.
func NewMemoryRepository(catalog domain.Catalog, stock domain.Stock, log *logger.Logger) *MemoryRepository {
	return &MemoryRepository{
		catalog: catalog,
		stock:   stock,
		log:     log,
	}
}

// FailNext makes the next n operations return ErrUnavailable.
func (r *MemoryRepository) FailNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = n
}

// Saves returns how many save calls succeeded.
func (r *MemoryRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

func (r *MemoryRepository) fail() bool {
	if r.failures > 0 {
		r.failures--
		return true
	}
	return false
}

// LoadCatalog returns the stored catalog.
func (r *MemoryRepository) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return domain.Catalog{}, errInjected
	}
	return r.catalog, nil
}

// SaveCatalog overwrites the stored catalog.
func (r *MemoryRepository) SaveCatalog(ctx context.Context, catalog domain.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return errInjected
	}
	r.log.Debug("saving catalog (%d recipes)", catalog.Len())
	r.catalog = catalog
	r.saves++
	return nil
}

// LoadStock returns the stored ingredient levels.
func (r *MemoryRepository) LoadStock(ctx context.Context) (domain.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return domain.Stock{}, errInjected
	}
	return r.stock, nil
}

// SaveStock overwrites the stored ingredient levels.
func (r *MemoryRepository) SaveStock(ctx context.Context, stock domain.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return errInjected
	}
	r.log.Debug("saving stock")
	r.stock = stock
	r.saves++
	return nil
}

// LoadStats returns the stored counters.
func (r *MemoryRepository) LoadStats(ctx context.Context) (domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return domain.Stats{}, errInjected
	}
	return r.stats, nil
}

// SaveStats overwrites the stored counters.
func (r *MemoryRepository) SaveStats(ctx context.Context, stats domain.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail() {
		return errInjected
	}
	r.log.Debug("saving stats (completed=%d)", stats.OrdersCompleted)
	r.stats = stats
	r.saves++
	return nil
}
