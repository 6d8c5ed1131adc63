package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	records   []engine.EmissionRecord
	summaries []engine.ProductSummary
	err       error
}

func (f *fakeEngine) AggregateAll(_ context.Context) ([]engine.EmissionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeEngine) SummarizeProducts(_ context.Context) ([]engine.ProductSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summaries, nil
}

func (f *fakeEngine) SummarizeProduct(_ context.Context, id string) (*engine.ProductSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.summaries {
		if f.summaries[i].ProductID == id {
			return &f.summaries[i], nil
		}
	}
	return nil, engine.ErrProductNotFound
}

func newServer(f *fakeEngine, log zerolog.Logger) *server.Server {
	return server.New(server.Options{Emissions: f, Summaries: f, Logger: log})
}

func do(t *testing.T, s *server.Server, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newServer(&fakeEngine{}, zerolog.Nop()), "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestEmissions(t *testing.T) {
	f := &fakeEngine{records: []engine.EmissionRecord{
		{EmissionCategory: engine.CategoryCarbon, EmissionSource: "Electricity", CO2E: 12.5, CO2EUnit: "kg"},
	}}

	rec := do(t, newServer(f, zerolog.Nop()), "/emissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Electricity", got[0]["emissonSource"])
	assert.InDelta(t, 12.5, got[0]["CO2E"], 1e-9)
	assert.Equal(t, "kg", got[0]["CO2E_unit"])
}

func TestEmissionsEmptyListIsArray(t *testing.T) {
	f := &fakeEngine{records: []engine.EmissionRecord{}}

	rec := do(t, newServer(f, zerolog.Nop()), "/emissions", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStoreFailureHidesDetail(t *testing.T) {
	var buf bytes.Buffer
	f := &fakeEngine{err: errors.Join(engine.ErrStoreUnavailable, errors.New("dial tcp 10.0.0.5:5432"))}
	s := newServer(f, zerolog.New(&buf))

	for _, path := range []string{"/emissions", "/products", "/products/p1"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, s, path, nil)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		})
	}
	assert.Contains(t, buf.String(), "10.0.0.5")
}

func TestProducts(t *testing.T) {
	f := &fakeEngine{summaries: []engine.ProductSummary{
		{
			ProductID:   "p1",
			ProductName: "Oat Milk",
			Totals:      greenops.Totals{Carbon: 3},
			Batches:     []engine.BatchSummary{{ID: "b1", Invoices: 2, CarbonFootprint: 3}},
		},
	}}
	s := newServer(f, zerolog.Nop())

	t.Run("list", func(t *testing.T) {
		rec := do(t, s, "/products", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []engine.ProductSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Oat Milk", got[0].ProductName)
		assert.Equal(t, 2, got[0].Batches[0].Invoices)
	})

	t.Run("show", func(t *testing.T) {
		rec := do(t, s, "/products/p1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"productId":"p1"`)
	})

	t.Run("unknown", func(t *testing.T) {
		rec := do(t, s, "/products/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"product not found"}`, rec.Body.String())
	})
}

func TestProductsEmptyListIsArray(t *testing.T) {
	rec := do(t, newServer(&fakeEngine{}, zerolog.Nop()), "/products", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRequestLoggerTraceID(t *testing.T) {
	var buf bytes.Buffer
	s := newServer(&fakeEngine{}, zerolog.New(&buf))

	t.Run("generated", func(t *testing.T) {
		buf.Reset()
		rec := do(t, s, "/healthz", nil)

		id := rec.Header().Get(server.HeaderRequestID)
		require.NotEmpty(t, id)
		assert.Contains(t, buf.String(), `"trace_id":"`+id+`"`)
		assert.Contains(t, buf.String(), `"path":"/healthz"`)
		assert.Contains(t, buf.String(), `"status":200`)
	})

	t.Run("propagated", func(t *testing.T) {
		buf.Reset()
		h := http.Header{}
		h.Set(server.HeaderRequestID, "01HTRACE")
		rec := do(t, s, "/healthz", h)

		assert.Equal(t, "01HTRACE", rec.Header().Get(server.HeaderRequestID))
		assert.Contains(t, buf.String(), `"trace_id":"01HTRACE"`)
	})
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	s := newServer(&fakeEngine{}, zerolog.New(&buf))

	do(t, s, "/products/missing", nil)
	assert.Contains(t, buf.String(), `"level":"warn"`)

	buf.Reset()
	do(t, s, "/no/such/route", nil)
	assert.Contains(t, buf.String(), `"path":"/no/such/route"`)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestRunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := server.New(server.Options{Addr: addr, Emissions: &fakeEngine{}, Summaries: &fakeEngine{}, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, getErr := http.Get("http://" + addr + "/healthz")
		if getErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

// blockingEmissions holds AggregateAll open until release is closed.
type blockingEmissions struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingEmissions) AggregateAll(ctx context.Context) ([]engine.EmissionRecord, error) {
	close(b.started)
	<-b.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []engine.EmissionRecord{}, nil
}

func TestRunDrainsInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	em := &blockingEmissions{started: make(chan struct{}), release: make(chan struct{})}
	s := server.New(server.Options{Addr: addr, Emissions: em, Summaries: &fakeEngine{}, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, getErr := http.Get("http://" + addr + "/healthz")
		if getErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	status := make(chan int, 1)
	go func() {
		resp, getErr := http.Get("http://" + addr + "/emissions")
		if getErr != nil {
			status <- 0
			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-em.started
	cancel()
	close(em.release)

	select {
	case code := <-status:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request did not finish")
	}
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := server.New(server.Options{Addr: ln.Addr().String(), Emissions: &fakeEngine{}, Summaries: &fakeEngine{}, Logger: zerolog.Nop()})
	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serving on")
}
