package supplier

import (
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// Connection pool defaults.
const (
	DefaultMaxIdleConns    = 100
	DefaultMaxConnsPerHost = 10
	defaultIdleTimeout     = 90 * time.Second
	defaultDialTimeout     = 5 * time.Second
)

// ClientOptions sizes the shared connection pool. The transport caps
// connections per host only; the total number of requests in flight is
// bounded by the aggregation worker pool.
type ClientOptions struct {
	// MaxIdleConns is the number of keep-alive connections retained across
	// all supplier hosts.
	MaxIdleConns int
	// MaxConnsPerHost caps dialing, active and idle connections per host.
	MaxConnsPerHost int
}

//nolint:gochecknoglobals // Process-wide pool with explicit lifecycle.
var (
	shared        atomic.Pointer[http.Client]
	sharedOptions atomic.Pointer[ClientOptions]
)

// Configure sets the pool limits used when the shared client is next created.
// It has no effect on a client that already exists.
func Configure(opts ClientOptions) {
	sharedOptions.Store(&opts)
}

// SharedClient returns the process-wide client, creating it on first use.
// Concurrent first calls race through CompareAndSwap and every caller ends up
// with the same client.
func SharedClient() *http.Client {
	if c := shared.Load(); c != nil {
		return c
	}

	opts := ClientOptions{}
	if o := sharedOptions.Load(); o != nil {
		opts = *o
	}

	c := newClient(opts)
	if shared.CompareAndSwap(nil, c) {
		return c
	}
	c.CloseIdleConnections()
	return shared.Load()
}

// Shutdown closes the shared client's idle connections and drops it. A later
// SharedClient call creates a fresh one.
func Shutdown() {
	if c := shared.Swap(nil); c != nil {
		c.CloseIdleConnections()
	}
}

func newClient(opts ClientOptions) *http.Client {
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = DefaultMaxIdleConns
	}
	if opts.MaxConnsPerHost <= 0 {
		opts.MaxConnsPerHost = DefaultMaxConnsPerHost
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: defaultDialTimeout}).DialContext,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxConnsPerHost:     opts.MaxConnsPerHost,
		MaxIdleConnsPerHost: opts.MaxConnsPerHost,
		IdleConnTimeout:     defaultIdleTimeout,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Transport: transport}
}
