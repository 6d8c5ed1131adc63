package supplier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single supplier fetch.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a supplier reply is read.
const maxBodyBytes = 8 << 20

// Fetch errors.
var (
	ErrRequestFailed     = errors.New("supplier request failed")
	ErrUnexpectedStatus  = errors.New("unexpected supplier status")
	ErrMalformedResponse = errors.New("malformed supplier response")
)

// Fetcher retrieves the supplier document behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Data, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (*Data, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*Data, error) {
	return f(ctx, url)
}

// HTTPFetcher fetches supplier documents over HTTP without retries.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient uses c instead of the shared client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithTimeout sets the per-fetch timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(f *HTTPFetcher) { f.log = l }
}

// NewHTTPFetcher creates a fetcher on the shared client with DefaultTimeout.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{timeout: DefaultTimeout, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues one GET against url and decodes the JSON object it returns.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Data, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.client
	if client == nil {
		client = SharedClient()
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	f.log.Debug().
		Str("supplier_url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("supplier fetch")

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}
	return Parse(body)
}
