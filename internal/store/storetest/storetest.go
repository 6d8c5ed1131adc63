// Package storetest opens isolated in-memory stores for tests.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/store"
)

var seq atomic.Int64

// Open returns a migrated in-memory sqlite store closed at test cleanup.
func Open(t *testing.T) *store.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	s, err := store.Open(store.Options{Driver: store.DriverSQLite, DSN: dsn, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// Seed opens a store and loads f into it.
func Seed(t *testing.T, f *store.Fixture) *store.Store {
	t.Helper()
	s := Open(t)
	_, err := s.Seed(context.Background(), f)
	require.NoError(t, err)
	return s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
