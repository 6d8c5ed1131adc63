package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/engine/batch"
	"github.com/rshade/carbonledger/internal/engine/cache"
	"github.com/rshade/carbonledger/internal/server"
	"github.com/rshade/carbonledger/internal/store"
	"github.com/rshade/carbonledger/internal/supplier"
)

//nolint:gochecknoglobals // One worker pool per process, shared by every aggregation.
var (
	poolOnce sync.Once
	pool     *batch.Pool
)

// processPool returns the process-wide worker pool, sized on first use.
func processPool(workers int) *batch.Pool {
	poolOnce.Do(func() {
		pool = batch.NewPool(workers)
	})
	return pool
}

// app is the engine wiring shared by the emissions, products and serve commands.
type app struct {
	store      *store.Store
	aggregator *engine.Aggregator
	cacheStore cache.Store

	// emissions is the cached aggregator when caching is enabled, else aggregator.
	emissions server.Emissions
}

// openStore connects to the configured store, creating the sqlite directory if needed.
func openStore(cfg *config.Config, log zerolog.Logger) (*store.Store, error) {
	if cfg.Store.Driver == store.DriverSQLite {
		if dir := filepath.Dir(cfg.Store.DSN); dir != "." && !isURIDSN(cfg.Store.DSN) {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("creating store directory: %w", err)
			}
		}
	}
	return store.Open(store.Options{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN, Logger: log})
}

func isURIDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "file:")
}

// openCache builds the configured cache backend.
func openCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	s, err := cache.Open(ctx, cache.Options{
		Backend:       cfg.Cache.Backend,
		Directory:     cfg.Cache.Directory,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.Cache.Backend, err)
	}
	return s, nil
}

// newApp opens the store and builds the aggregator. With useCache and caching
// enabled in cfg, emissions go through a CachedAggregator. A cache backend that
// cannot be opened is logged and skipped; emissions are then served uncached.
func newApp(ctx context.Context, cfg *config.Config, useCache bool) (*app, error) {
	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	fetcher := supplier.NewHTTPFetcher(
		supplier.WithTimeout(time.Duration(cfg.Supplier.TimeoutSeconds)*time.Second),
		supplier.WithLogger(logger),
	)
	agg := engine.NewAggregator(st, fetcher, processPool(cfg.Aggregation.Workers), engine.WithLogger(logger))

	a := &app{store: st, aggregator: agg, emissions: agg}
	if !useCache || !cfg.Cache.Enabled {
		return a, nil
	}

	cs, err := openCache(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("cache unavailable, aggregating without cache")
		return a, nil
	}
	a.cacheStore = cs
	a.emissions = cache.NewCachedAggregator(agg, cs, cache.TTLFromSeconds(cfg.Cache.TTLSeconds), logger)
	return a, nil
}

// Close releases the store and cache connections.
func (a *app) Close() error {
	var errs []error
	if c, ok := a.cacheStore.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
