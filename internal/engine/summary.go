package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/store"
)

// BatchSummary holds the normalized totals of one batch. Totals come from
// re-running the invoice pipeline over the batch's invoices; InformationURL is
// reported but never fetched.
type BatchSummary struct {
	ID                string    `json:"id"`
	InformationURL    string    `json:"information_url"`
	CreatedAt         time.Time `json:"created_at"`
	Invoices          int       `json:"invoices"`
	CarbonFootprint   float64   `json:"carbon_footprint"`
	WaterUsage        float64   `json:"water_usage"`
	EnergyConsumption float64   `json:"energy_consumption"`
}

// ProductSummary holds the per-batch totals of one product.
type ProductSummary struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Totals      greenops.Totals `json:"totals"`
	Batches     []BatchSummary  `json:"batches"`
}

// SummarizeProducts returns one summary per product in store order.
func (a *Aggregator) SummarizeProducts(ctx context.Context) ([]ProductSummary, error) {
	ctx, log := a.begin(ctx, "summarize_products")

	products, err := a.source.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	out, err := a.run(ctx, log, products)
	if err != nil {
		return nil, err
	}
	return summarize(products, out), nil
}

// SummarizeProduct returns the summary of one product, or ErrProductNotFound.
func (a *Aggregator) SummarizeProduct(ctx context.Context, id string) (*ProductSummary, error) {
	ctx, log := a.begin(ctx, "summarize_product")
	log = log.With().Str("product_id", id).Logger()

	p, err := a.source.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	products := []store.Product{*p}
	out, err := a.run(ctx, log, products)
	if err != nil {
		return nil, err
	}
	summaries := summarize(products, out)
	return &summaries[0], nil
}

func summarize(products []store.Product, out *runOutput) []ProductSummary {
	perBatch := make(map[string]*BatchSummary, len(out.batches))
	batchesOf := make(map[string][]string, len(products))
	for _, b := range out.batches {
		perBatch[b.ID] = &BatchSummary{ID: b.ID, InformationURL: b.InformationURL, CreatedAt: b.CreatedAt}
		batchesOf[b.ProductID] = append(batchesOf[b.ProductID], b.ID)
	}

	for _, r := range out.results {
		bs, ok := perBatch[r.invoice.Invoice.BatchID]
		if !ok {
			continue
		}
		bs.Invoices++
		bs.CarbonFootprint += r.totals.Carbon
		bs.WaterUsage += r.totals.Water
		bs.EnergyConsumption += r.totals.Energy
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		s := ProductSummary{ProductID: p.ID, ProductName: p.Name, Batches: []BatchSummary{}}
		for _, id := range batchesOf[p.ID] {
			bs := *perBatch[id]
			s.Batches = append(s.Batches, bs)
			s.Totals.Merge(greenops.Totals{
				Carbon: bs.CarbonFootprint,
				Water:  bs.WaterUsage,
				Energy: bs.EnergyConsumption,
			})
		}
		summaries = append(summaries, s)
	}
	return summaries
}
