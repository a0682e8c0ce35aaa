package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// Compile-time interface check.
var _ domain.Repository = (*SQLiteRepository)(nil)

// SQLiteRepository stores the records in a SQLite database file.
type SQLiteRepository struct {
	db  *sql.DB
	log *logger.Logger
}

// SQLiteOption configures the repository at open time.
type SQLiteOption func(*sqliteOptions)

type sqliteOptions struct {
	seedCatalog *domain.Catalog
	seedStock   *domain.Stock
}

// WithSeed writes the given catalog and stock on first boot, when the
// database has never been seeded before.
func WithSeed(catalog domain.Catalog, stock domain.Stock) SQLiteOption {
	return func(o *sqliteOptions) {
		o.seedCatalog = &catalog
		o.seedStock = &stock
	}
}

// OpenSQLite creates or opens the database at path, applies pragmas and
// the schema, and seeds it on first boot.
func OpenSQLite(ctx context.Context, path string, log *logger.Logger, opts ...SQLiteOption) (*SQLiteRepository, error) {
	var o sqliteOptions
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	r := &SQLiteRepository{db: db, log: log}
	if o.seedCatalog != nil {
		if err := r.seed(ctx, *o.seedCatalog, *o.seedStock); err != nil {
			db.Close()
			return nil, fmt.Errorf("seeding database: %w", err)
		}
	}
	return r, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) seed(ctx context.Context, catalog domain.Catalog, stock domain.Stock) error {
	var seeded string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'seeded'`).Scan(&seeded)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	if err := r.SaveCatalog(ctx, catalog); err != nil {
		return err
	}
	if err := r.SaveStock(ctx, stock); err != nil {
		return err
	}
	if err := r.SaveStats(ctx, domain.Stats{}); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('seeded', '1')`); err != nil {
		return err
	}
	r.log.Info("first boot: seeded %d recipes", catalog.Len())
	return nil
}

// LoadCatalog reads the recipes ordered by slot.
func (r *SQLiteRepository) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, amount_0, amount_1, amount_2, amount_3 FROM recipes ORDER BY slot LIMIT ?`,
		domain.CatalogCapacity)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		var rec domain.Recipe
		a := &rec.Amounts
		if err := rows.Scan(&rec.Name, &a[0], &a[1], &a[2], &a[3]); err != nil {
			return domain.Catalog{}, fmt.Errorf("scanning recipe: %w", err)
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("iterating recipes: %w", err)
	}
	return domain.NewCatalog(recipes...)
}

// SaveCatalog replaces every stored recipe.
func (r *SQLiteRepository) SaveCatalog(ctx context.Context, catalog domain.Catalog) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipes`); err != nil {
			return err
		}
		for i, rec := range catalog.Recipes() {
			a := rec.Amounts
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recipes (slot, name, amount_0, amount_1, amount_2, amount_3) VALUES (?, ?, ?, ?, ?, ?)`,
				i, rec.Name, a[0], a[1], a[2], a[3]); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadStock reads the ingredient slots. Missing slots load as empty.
func (r *SQLiteRepository) LoadStock(ctx context.Context) (domain.Stock, error) {
	var stock domain.Stock
	rows, err := r.db.QueryContext(ctx, `SELECT slot, name, color, remaining FROM ingredients ORDER BY slot`)
	if err != nil {
		return stock, fmt.Errorf("querying ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			slot int
			ing  domain.Ingredient
		)
		if err := rows.Scan(&slot, &ing.Name, &ing.Color, &ing.Remaining); err != nil {
			return stock, fmt.Errorf("scanning ingredient: %w", err)
		}
		if slot < 0 || slot >= domain.IngredientCount {
			r.log.Warn("ignoring ingredient row with slot %d", slot)
			continue
		}
		stock[slot] = ing
	}
	if err := rows.Err(); err != nil {
		return stock, fmt.Errorf("iterating ingredients: %w", err)
	}
	return stock, nil
}

// SaveStock upserts every ingredient slot.
func (r *SQLiteRepository) SaveStock(ctx context.Context, stock domain.Stock) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for i, ing := range stock {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ingredients (slot, name, color, remaining) VALUES (?, ?, ?, ?)
				 ON CONFLICT(slot) DO UPDATE SET name = excluded.name, color = excluded.color, remaining = excluded.remaining`,
				i, ing.Name, ing.Color, ing.Remaining); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadStats reads the counters. A database without a stats row loads as
// all zeros.
func (r *SQLiteRepository) LoadStats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRowContext(ctx,
		`SELECT orders_completed, random_drink_orders, preset_drink_orders,
		        orders_timed_out, orders_cancelled, custom_drink_orders
		 FROM stats WHERE id = 1`).
		Scan(&s.OrdersCompleted, &s.RandomOrders, &s.PresetOrders,
			&s.OrdersTimedOut, &s.OrdersCancelled, &s.CustomOrders)
	if err != nil && err != sql.ErrNoRows {
		return s, fmt.Errorf("querying stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT slot, count FROM preset_counts`)
	if err != nil {
		return s, fmt.Errorf("querying preset counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var slot, count int
		if err := rows.Scan(&slot, &count); err != nil {
			return s, fmt.Errorf("scanning preset count: %w", err)
		}
		if slot >= 0 && slot < domain.CatalogCapacity {
			s.PresetCounts[slot] = count
		}
	}
	return s, rows.Err()
}

// SaveStats overwrites the counters.
func (r *SQLiteRepository) SaveStats(ctx context.Context, s domain.Stats) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stats (id, orders_completed, random_drink_orders, preset_drink_orders,
			                    orders_timed_out, orders_cancelled, custom_drink_orders)
			 VALUES (1, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   orders_completed = excluded.orders_completed,
			   random_drink_orders = excluded.random_drink_orders,
			   preset_drink_orders = excluded.preset_drink_orders,
			   orders_timed_out = excluded.orders_timed_out,
			   orders_cancelled = excluded.orders_cancelled,
			   custom_drink_orders = excluded.custom_drink_orders`,
			s.OrdersCompleted, s.RandomOrders, s.PresetOrders,
			s.OrdersTimedOut, s.OrdersCancelled, s.CustomOrders); err != nil {
			return err
		}
		for slot, count := range s.PresetCounts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO preset_counts (slot, count) VALUES (?, ?)
				 ON CONFLICT(slot) DO UPDATE SET count = excluded.count`,
				slot, count); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
