package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/carbonledger/internal/engine/batch"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/store"
	"github.com/rshade/carbonledger/internal/supplier"
)

// Aggregation errors.
var (
	// ErrStoreUnavailable wraps any failure to enumerate products, batches or
	// invoices. It aborts the whole call.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrProductNotFound is returned by SummarizeProduct for an unknown ID.
	ErrProductNotFound = errors.New("product not found")
)

// Source is the read-only view of the store the aggregator needs.
type Source interface {
	ListProducts(ctx context.Context) ([]store.Product, error)
	GetProduct(ctx context.Context, id string) (*store.Product, error)
	ListBatches(ctx context.Context, productIDs []string) ([]store.Batch, error)
	ListInvoices(ctx context.Context, batchIDs []string) ([]store.Invoice, error)
}

// Aggregator turns stored invoices into emission records by fetching live
// supplier metrics on a shared bounded pool.
type Aggregator struct {
	source  Source
	fetcher supplier.Fetcher
	pool    *batch.Pool
	now     func() time.Time
	log     zerolog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock overrides the time source used for defaulted dates.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the aggregator's logger.
func WithLogger(l zerolog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.log = logging.ComponentLogger(l, "aggregator") }
}

// NewAggregator creates an aggregator. pool is shared with every other
// aggregation in the process; a nil pool gets a private default-sized one.
func NewAggregator(source Source, fetcher supplier.Fetcher, pool *batch.Pool, opts ...AggregatorOption) *Aggregator {
	if pool == nil {
		pool = batch.NewPool(batch.DefaultWorkers)
	}
	a := &Aggregator{
		source:  source,
		fetcher: fetcher,
		pool:    pool,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AggregateAll derives the records of every invoice of every product. The
// result is never nil and its order is unspecified.
func (a *Aggregator) AggregateAll(ctx context.Context) ([]EmissionRecord, error) {
	ctx, log := a.begin(ctx, "aggregate_all")

	products, err := a.source.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	out, err := a.run(ctx, log, products)
	if err != nil {
		return nil, err
	}

	records := make([]EmissionRecord, 0, len(out.results))
	for _, r := range out.results {
		records = append(records, r.records...)
	}
	log.Info().Int("invoices", len(out.results)).Int("records", len(records)).Msg("aggregation complete")
	return records, nil
}

// unitResult is the contribution of one invoice.
type unitResult struct {
	invoice InvoiceContext
	records []EmissionRecord
	totals  greenops.Totals
}

// runOutput holds the batches a run loaded and the per-invoice contributions.
type runOutput struct {
	batches []store.Batch
	results []unitResult
}

// run is the shared pipeline: bulk-load batches and invoices for products,
// fan out one fetch+build unit per invoice with a supplier URL and collect
// the contributions. Failed units contribute nothing.
func (a *Aggregator) run(ctx context.Context, log zerolog.Logger, products []store.Product) (*runOutput, error) {
	out := &runOutput{batches: []store.Batch{}, results: []unitResult{}}
	if len(products) == 0 {
		log.Debug().Msg("no products")
		return out, nil
	}

	names := make(map[string]string, len(products))
	productIDs := make([]string, 0, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
		productIDs = append(productIDs, p.ID)
	}

	batches, err := a.source.ListBatches(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(batches) == 0 {
		return out, nil
	}
	out.batches = batches

	owner := make(map[string]string, len(batches))
	batchIDs := make([]string, 0, len(batches))
	for _, b := range batches {
		owner[b.ID] = b.ProductID
		batchIDs = append(batchIDs, b.ID)
	}

	invoices, err := a.source.ListInvoices(ctx, batchIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	units := make([]InvoiceContext, 0, len(invoices))
	for _, inv := range invoices {
		if !inv.HasSupplierURL() {
			continue
		}
		productID := owner[inv.BatchID]
		units = append(units, InvoiceContext{Invoice: inv, ProductID: productID, ProductName: names[productID]})
	}

	log.Debug().
		Int("products", len(products)).
		Int("batches", len(batches)).
		Int("invoices", len(invoices)).
		Int("units", len(units)).
		Msg("invoice set loaded")

	if len(units) == 0 {
		return out, nil
	}

	outcomes := batch.Run(ctx, a.pool, units, func(ctx context.Context, inv InvoiceContext) (unitResult, error) {
		return a.process(ctx, log, inv)
	}, func(s batch.ProgressSnapshot) {
		if s.IsComplete() {
			log.Debug().Int("succeeded", s.Succeeded()).Int("failed", s.Failed).
				Dur("elapsed", s.Elapsed).Msg("units finished")
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if o.Err != nil {
			inv := units[o.Index].Invoice
			log.Warn().Err(o.Err).
				Str("invoice_id", inv.ID).
				Str("supplier_url", inv.SupplierURL).
				Msg("invoice skipped")
			continue
		}
		out.results = append(out.results, o.Value)
	}
	return out, nil
}

// process fetches one invoice's supplier data and builds its records.
func (a *Aggregator) process(ctx context.Context, log zerolog.Logger, inv InvoiceContext) (unitResult, error) {
	data, err := a.fetcher.Fetch(ctx, inv.Invoice.SupplierURL)
	if err != nil {
		return unitResult{}, err
	}

	records, totals, buildErr := build(inv, data, a.now())
	if buildErr != nil {
		log.Warn().Err(buildErr).
			Str("invoice_id", inv.Invoice.ID).
			Msg("unit model rejected, metrics count as zero")
	}
	return unitResult{invoice: inv, records: records, totals: totals}, nil
}

// begin attaches a trace ID to ctx and returns a logger carrying it.
func (a *Aggregator) begin(ctx context.Context, op string) (context.Context, zerolog.Logger) {
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	log := a.log.With().Str(logging.FieldTraceID, traceID).Str("operation", op).Logger()
	return ctx, log
}
