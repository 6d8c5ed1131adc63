package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/store"
)

func TestSummarizeProducts(t *testing.T) {
	summaries, err := newTestAggregator(newSource(), &countingFetcher{}).SummarizeProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	oat := summaries[0]
	assert.Equal(t, "p1", oat.ProductID)
	assert.Equal(t, "Oat Milk", oat.ProductName)
	require.Len(t, oat.Batches, 1)
	assert.InDelta(t, 4.0, oat.Batches[0].CarbonFootprint, 1e-9)
	assert.Equal(t, 1, oat.Batches[0].Invoices)
	assert.InDelta(t, 4.0, oat.Totals.Carbon, 1e-9)

	rye := summaries[1]
	require.Len(t, rye.Batches, 2)
	assert.InDelta(t, 1.0, rye.Totals.Carbon, 1e-9)
	assert.InDelta(t, 3.0, rye.Totals.Water, 1e-9)
	assert.InDelta(t, 1.0, rye.Totals.Energy, 1e-9)
}

func TestSummarizeProducts_FailedInvoicesCountAsZero(t *testing.T) {
	f := &countingFetcher{fail: map[string]error{"mem://carbon": errors.New("timeout")}}
	summaries, err := newTestAggregator(newSource(), f).SummarizeProducts(context.Background())
	require.NoError(t, err)

	oat := summaries[0]
	require.Len(t, oat.Batches, 1)
	assert.Zero(t, oat.Batches[0].Invoices)
	assert.True(t, oat.Totals.IsZero())
}

func TestSummarizeProducts_Empty(t *testing.T) {
	summaries, err := newTestAggregator(&fakeSource{}, &countingFetcher{}).SummarizeProducts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestSummarizeProduct(t *testing.T) {
	src := newSource()
	f := &countingFetcher{}
	s, err := newTestAggregator(src, f).SummarizeProduct(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Rye Bread", s.ProductName)
	assert.Len(t, s.Batches, 2)
	assert.Equal(t, int32(2), f.total.Load(), "only the requested product's invoices are fetched")
}

func TestSummarizeProduct_NoBatches(t *testing.T) {
	src := newSource()
	src.products = append(src.products, store.Product{ID: "p3", Name: "Bare"})
	s, err := newTestAggregator(src, &countingFetcher{}).SummarizeProduct(context.Background(), "p3")
	require.NoError(t, err)
	assert.Empty(t, s.Batches)
	assert.True(t, s.Totals.IsZero())
}

func TestSummarizeProduct_Errors(t *testing.T) {
	_, err := newTestAggregator(newSource(), &countingFetcher{}).SummarizeProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = newTestAggregator(&fakeSource{err: errors.New("down")}, &countingFetcher{}).
		SummarizeProduct(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = newTestAggregator(&fakeSource{err: errors.New("down")}, &countingFetcher{}).
		SummarizeProducts(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
