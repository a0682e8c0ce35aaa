package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// SaverOption configures the saver.
type SaverOption func(*Saver)

// WithWriteTimeout bounds a single background write.
func WithWriteTimeout(d time.Duration) SaverOption {
	return func(s *Saver) {
		s.writeTimeout = d
	}
}

// Saver persists snapshots in the background so the dispatch loop never
// waits on storage. Pending snapshots coalesce: only the latest value of
// each record is written. A failed write is logged and dropped; the
// in-memory state is never rolled back.
type Saver struct {
	repo         domain.Repository
	log          *logger.Logger
	writeTimeout time.Duration

	mu      sync.Mutex
	catalog *domain.Catalog
	stock   *domain.Stock
	stats   *domain.Stats
	failed  int

	writeMu sync.Mutex
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewSaver creates a saver writing to repo. Call Start to enable
// background writes; until then snapshots wait for Flush.
func NewSaver(repo domain.Repository, log *logger.Logger, opts ...SaverOption) *Saver {
	s := &Saver{
		repo:         repo,
		log:          log,
		writeTimeout: 5 * time.Second,
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveCatalog queues a catalog snapshot.
func (s *Saver) SaveCatalog(c domain.Catalog) {
	s.mu.Lock()
	s.catalog = &c
	s.mu.Unlock()
	s.signal()
}

// SaveStock queues a stock snapshot.
func (s *Saver) SaveStock(stock domain.Stock) {
	s.mu.Lock()
	s.stock = &stock
	s.mu.Unlock()
	s.signal()
}

// SaveStats queues a stats snapshot.
func (s *Saver) SaveStats(stats domain.Stats) {
	s.mu.Lock()
	s.stats = &stats
	s.mu.Unlock()
	s.signal()
}

// Failures returns how many background writes have failed so far.
func (s *Saver) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *Saver) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start launches the background writer. Non-blocking.
func (s *Saver) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn("saver already running")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop terminates the background writer and writes whatever is pending.
func (s *Saver) Stop(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	if running {
		close(s.stop)
		<-s.done
	}
	return s.Flush(ctx)
}

func (s *Saver) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.wake:
			wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			if err := s.Flush(wctx); err != nil {
				s.log.Error("background save: %v", err)
			}
			cancel()
		}
	}
}

// Flush writes every pending snapshot synchronously. Snapshots that fail
// to write are not retried.
func (s *Saver) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	catalog, stock, stats := s.catalog, s.stock, s.stats
	s.catalog, s.stock, s.stats = nil, nil, nil
	s.mu.Unlock()

	var errs []error
	if catalog != nil {
		if err := s.repo.SaveCatalog(ctx, *catalog); err != nil {
			errs = append(errs, err)
		}
	}
	if stock != nil {
		if err := s.repo.SaveStock(ctx, *stock); err != nil {
			errs = append(errs, err)
		}
	}
	if stats != nil {
		if err := s.repo.SaveStats(ctx, *stats); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		s.mu.Lock()
		s.failed += len(errs)
		s.mu.Unlock()
		return errors.Join(errs...)
	}
	return nil
}
