// Package store is the relational store behind carbonledger: products own
// batches, batches own invoices. Reads used by the aggregation engine go
// through two raw primitives, Query and QueryOne, and the list helpers load
// whole levels of the hierarchy with batched IN queries.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rshade/carbonledger/internal/engine/batch"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// maxInParams keeps IN lists under the sqlite bind-parameter ceiling.
const maxInParams = 500

// Store errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrEmptyDSN          = errors.New("store DSN cannot be empty")
)

// Options configures Open.
type Options struct {
	Driver string
	DSN    string
	Logger zerolog.Logger
}

// Store wraps a gorm connection.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the store described by opts.
func Open(opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, ErrEmptyDSN
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(opts.DSN)
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s store: %w", opts.Driver, err)
	}

	return New(db, opts.Logger), nil
}

// New wraps an existing gorm connection.
func New(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "store").Logger()}
}

// DB exposes the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the products, batches and invoices tables.
func (s *Store) Migrate(ctx context.Context) error {
	s.log.Info().Msg("migrating store tables")
	if err := s.db.WithContext(ctx).AutoMigrate(&Product{}, &Batch{}, &Invoice{}); err != nil {
		return fmt.Errorf("migrating tables: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Query runs a read query and scans every row into dest (a pointer to a slice).
func (s *Store) Query(ctx context.Context, dest any, sql string, args ...any) error {
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error; err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}

// QueryOne runs a read query expected to return at most one row and scans it
// into dest. It returns ErrNotFound when no row matches.
func (s *Store) QueryOne(ctx context.Context, dest any, sql string, args ...any) error {
	tx := s.db.WithContext(ctx).Raw(sql, args...).Scan(dest)
	if tx.Error != nil {
		return fmt.Errorf("query failed: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns every product.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := s.Query(ctx, &products, "SELECT * FROM products ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// GetProduct returns one product or ErrNotFound.
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := s.QueryOne(ctx, &p, "SELECT * FROM products WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListBatches returns every batch owned by one of productIDs.
func (s *Store) ListBatches(ctx context.Context, productIDs []string) ([]Batch, error) {
	batches, err := queryIn[Batch](ctx, s, "SELECT * FROM batches WHERE product_id IN ? ORDER BY created_at, id", productIDs)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	return batches, nil
}

// ListInvoices returns every invoice owned by one of batchIDs.
func (s *Store) ListInvoices(ctx context.Context, batchIDs []string) ([]Invoice, error) {
	invoices, err := queryIn[Invoice](ctx, s, "SELECT * FROM invoices WHERE batch_id IN ? ORDER BY created_at, id", batchIDs)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

// queryIn runs sql with ids bound to its single IN placeholder. Lists longer
// than maxInParams are split into sequential chunks.
func queryIn[T any](ctx context.Context, s *Store, sql string, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	if len(ids) <= maxInParams {
		var rows []T
		if err := s.Query(ctx, &rows, sql, ids); err != nil {
			return nil, err
		}
		return rows, nil
	}

	processor, err := batch.NewProcessor[string](maxInParams)
	if err != nil {
		return nil, err
	}

	var out []T
	err = processor.Process(ctx, ids, func(ctx context.Context, chunk []string, _ int) error {
		var rows []T
		if queryErr := s.Query(ctx, &rows, sql, chunk); queryErr != nil {
			return queryErr
		}
		out = append(out, rows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
