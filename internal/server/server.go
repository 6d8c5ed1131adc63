// Package server exposes the aggregation engine over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/logging"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Emissions produces the full emissions list, usually through the cache.
type Emissions interface {
	AggregateAll(ctx context.Context) ([]engine.EmissionRecord, error)
}

// Summaries produces per-product batch totals.
type Summaries interface {
	SummarizeProducts(ctx context.Context) ([]engine.ProductSummary, error)
	SummarizeProduct(ctx context.Context, id string) (*engine.ProductSummary, error)
}

// Options wires the server's dependencies.
type Options struct {
	Addr      string
	Emissions Emissions
	Summaries Summaries
	Logger    zerolog.Logger
}

// Server is the carbonledger HTTP API.
type Server struct {
	addr   string
	router *gin.Engine
	log    zerolog.Logger
}

// New builds the router. It does not start listening.
func New(opts Options) *Server {
	log := logging.ComponentLogger(opts.Logger, "server")
	h := &handlers{emissions: opts.Emissions, summaries: opts.Summaries}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	r.GET("/healthz", h.health)
	r.GET("/emissions", h.listEmissions)
	r.GET("/products", h.listProducts)
	r.GET("/products/:id", h.getProduct)

	return &Server{addr: opts.Addr, router: r, log: log}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully. Requests
// already in flight when ctx is cancelled run to completion.
func (s *Server) Run(ctx context.Context) error {
	base := context.WithoutCancel(ctx)
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return base },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		s.log.Info().Msg("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", s.addr, err)
	}
}
