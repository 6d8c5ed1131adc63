package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source shared by the store tests.
type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func storeContract(t *testing.T, s Store, c *clock) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrCacheNotFound)
	assert.True(t, IsMiss(err))

	require.ErrorIs(t, s.Set(ctx, "", json.RawMessage(`1`), time.Minute), ErrInvalidCacheKey)
	_, err = s.Get(ctx, "")
	require.ErrorIs(t, err, ErrInvalidCacheKey)
	require.ErrorIs(t, s.Delete(ctx, ""), ErrInvalidCacheKey)

	require.NoError(t, s.Set(ctx, "k", json.RawMessage(`{"a":1}`), time.Minute))
	e, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(e.Data))
	assert.Equal(t, 60, e.TTLSeconds)

	c.advance(59 * time.Second)
	_, err = s.Get(ctx, "k")
	require.NoError(t, err)

	c.advance(time.Second)
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheExpired)
	assert.True(t, IsMiss(err))

	require.NoError(t, s.Set(ctx, "a", json.RawMessage(`1`), time.Minute))
	require.NoError(t, s.Set(ctx, "b", json.RawMessage(`2`), time.Minute))
	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrCacheNotFound)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx, "b")
	require.ErrorIs(t, err, ErrCacheNotFound)
}

func TestMemoryStore(t *testing.T) {
	c := newClock()
	s := NewMemoryStore()
	s.now = c.now
	storeContract(t, s, c)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	data := json.RawMessage(`[1]`)
	require.NoError(t, s.Set(context.Background(), "k", data, time.Minute))
	data[1] = '9'

	e, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	e.Data[1] = '7'

	again, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(again.Data))
}

func TestFileStore(t *testing.T) {
	c := newClock()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	s.now = c.now
	storeContract(t, s, c)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), "emissions:all", json.RawMessage(`[]`), time.Hour))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	e, err := second.Get(context.Background(), "emissions:all")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(e.Data))

	n, err := second.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(dir, "emissions_all.json"))
	assert.Equal(t, dir, second.Directory())
}

func TestFileStore_ExpiredFileIsRemoved(t *testing.T) {
	c := newClock()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	s.now = c.now

	require.NoError(t, s.Set(context.Background(), "k", json.RawMessage(`1`), time.Second))
	c.advance(time.Hour)
	_, err = s.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrCacheExpired)

	_, statErr := os.Stat(filepath.Join(dir, "k.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0600))

	_, err = s.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, IsMiss(err))
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Backend: BackendFile, Directory: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, Options{Backend: BackendRedis})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "memcached"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRedisOptionsCarryCredentials(t *testing.T) {
	got := redisOptions(Options{Backend: BackendRedis, RedisAddr: "cache:6379", RedisPassword: "s3cret", RedisDB: 3})
	assert.Equal(t, RedisOptions{Addr: "cache:6379", Password: "s3cret", DB: 3}, got)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CARBONLEDGER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CARBONLEDGER_TEST_REDIS_ADDR not set")
	}

	s, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, Prefix: "carbonledger:test:" + t.Name() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		_ = s.Close()
	})

	c := newClock()
	s.now = c.now
	storeContract(t, s, c)
}

func TestCacheEntry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 123, time.UTC)
	e := NewCacheEntry("k", json.RawMessage(`1`), 10*time.Second, now)

	assert.False(t, e.ExpiredAt(now))
	assert.True(t, e.ExpiredAt(now.Add(10*time.Second)))
	assert.Equal(t, 4*time.Second, e.Remaining(now.Add(6*time.Second)))
	assert.Zero(t, e.Remaining(now.Add(time.Hour)))
	assert.Equal(t, 3*time.Second, e.Age(now.Add(3*time.Second)))

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var back CacheEntry
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.ExpiresAt.Equal(e.ExpiresAt))

	assert.Error(t, json.Unmarshal([]byte(`{"created_at":"yesterday","expires_at":"x"}`), &back))
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"600", 10 * time.Minute, false},
		{"10m", 10 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"0", 0, true},
		{"999999999", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTTLFromSeconds(t *testing.T) {
	assert.Equal(t, DefaultTTL, TTLFromSeconds(0))
	assert.Equal(t, 10*time.Minute, DefaultTTL)
	assert.Equal(t, 30*time.Second, TTLFromSeconds(30))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "10m", FormatDuration(10*time.Minute))
	assert.Equal(t, "2h", FormatDuration(2*time.Hour))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
	assert.Equal(t, "2d", FormatDuration(48*time.Hour))
	assert.Equal(t, "2d3h", FormatDuration(51*time.Hour))
}
