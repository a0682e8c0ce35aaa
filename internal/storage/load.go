package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// Records is everything the appliance needs loaded before it can start.
type Records struct {
	Catalog domain.Catalog
	Stock   domain.Stock
	Stats   domain.Stats
}

// LoadWithRetry loads all records, retrying every interval until it
// succeeds. It only gives up when ctx is cancelled: the appliance must not
// start without its catalog.
func LoadWithRetry(ctx context.Context, repo domain.Repository, interval time.Duration, log *logger.Logger) (Records, error) {
	for attempt := 1; ; attempt++ {
		recs, err := load(ctx, repo)
		if err == nil {
			log.Info("loaded %d recipes after %d attempt(s)", recs.Catalog.Len(), attempt)
			return recs, nil
		}
		log.Error("loading records (attempt %d): %v", attempt, err)

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return Records{}, ctx.Err()
		case <-t.C:
		}
	}
}

func load(ctx context.Context, repo domain.Repository) (Records, error) {
	var (
		recs Records
		err  error
	)
	if recs.Catalog, err = repo.LoadCatalog(ctx); err != nil {
		return recs, fmt.Errorf("loading catalog: %w", err)
	}
	if recs.Stock, err = repo.LoadStock(ctx); err != nil {
		return recs, fmt.Errorf("loading stock: %w", err)
	}
	if recs.Stats, err = repo.LoadStats(ctx); err != nil {
		return recs, fmt.Errorf("loading stats: %w", err)
	}
	return recs, nil
}
