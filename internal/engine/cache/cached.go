package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/logging"
)

// KeyEmissions is the single key under which the full emissions list is kept.
// The aggregation takes no parameters, so one key serves every caller.
const KeyEmissions = "emissions_all"

// Aggregation is the call being cached.
type Aggregation interface {
	AggregateAll(ctx context.Context) ([]engine.EmissionRecord, error)
}

// CachedAggregator serves AggregateAll from a Store while the entry is live.
// Concurrent misses share one underlying aggregation. Store failures are
// logged and fall through to a live aggregation.
type CachedAggregator struct {
	inner Aggregation
	store Store
	ttl   time.Duration
	log   zerolog.Logger
	group singleflight.Group
}

// NewCachedAggregator wraps inner. A non-positive ttl uses DefaultTTL.
func NewCachedAggregator(inner Aggregation, store Store, ttl time.Duration, log zerolog.Logger) *CachedAggregator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedAggregator{
		inner: inner,
		store: store,
		ttl:   ttl,
		log:   logging.ComponentLogger(log, "cache"),
	}
}

// AggregateAll returns the cached list, computing and storing it on a miss.
func (c *CachedAggregator) AggregateAll(ctx context.Context) ([]engine.EmissionRecord, error) {
	if records, ok := c.lookup(ctx); ok {
		return records, nil
	}

	// The shared computation must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(KeyEmissions, func() (any, error) {
		if records, ok := c.lookup(shared); ok {
			return records, nil
		}
		records, err := c.inner.AggregateAll(shared)
		if err != nil {
			return nil, err
		}
		c.save(shared, records)
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		records, _ := res.Val.([]engine.EmissionRecord)
		return cloneRecords(records), nil
	}
}

// Invalidate drops the cached list.
func (c *CachedAggregator) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx, KeyEmissions)
}

func (c *CachedAggregator) lookup(ctx context.Context) ([]engine.EmissionRecord, bool) {
	entry, err := c.store.Get(ctx, KeyEmissions)
	if err != nil {
		if !IsMiss(err) {
			c.log.Warn().Err(err).Msg("cache read failed")
		}
		return nil, false
	}

	var records []engine.EmissionRecord
	if unmarshalErr := json.Unmarshal(entry.Data, &records); unmarshalErr != nil {
		c.log.Warn().Err(unmarshalErr).Msg("cache entry unreadable")
		return nil, false
	}
	if records == nil {
		records = []engine.EmissionRecord{}
	}

	c.log.Debug().
		Int("records", len(records)).
		Str("remaining", FormatDuration(entry.Remaining(time.Now()))).
		Msg("cache hit")
	return records, true
}

func (c *CachedAggregator) save(ctx context.Context, records []engine.EmissionRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if setErr := c.store.Set(ctx, KeyEmissions, data, c.ttl); setErr != nil {
		c.log.Warn().Err(setErr).Msg("cache write failed")
		return
	}
	c.log.Debug().Int("records", len(records)).Str("ttl", FormatDuration(c.ttl)).Msg("cache stored")
}

func cloneRecords(records []engine.EmissionRecord) []engine.EmissionRecord {
	out := make([]engine.EmissionRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
