package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	inner history.Source
	calls int32
	err   error
}

func (s *countingSource) Lookup(ctx context.Context, id string) (*history.Record, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.Lookup(ctx, id)
}

func (s *countingSource) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

type tierCounts struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	errs   map[string]int
}

func newTierCounts() *tierCounts {
	return &tierCounts{hits: map[string]int{}, misses: map[string]int{}, errs: map[string]int{}}
}

func (r *tierCounts) CacheHit(tier string)   { r.mu.Lock(); r.hits[tier]++; r.mu.Unlock() }
func (r *tierCounts) CacheMiss(tier string)  { r.mu.Lock(); r.misses[tier]++; r.mu.Unlock() }
func (r *tierCounts) CacheError(tier string) { r.mu.Lock(); r.errs[tier]++; r.mu.Unlock() }

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newSource() *countingSource {
	return &countingSource{inner: history.NewTableSource(history.DefaultTable())}
}

func TestCache_L1Hit(t *testing.T) {
	src := newSource()
	rec := newTierCounts()
	c := New(src, nil, DefaultConfig(), WithRecorder(rec))
	ctx := context.Background()

	first, err := c.Lookup(ctx, "installation")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.Lookup(ctx, "installation")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, 1, rec.hits[TierL1])
	assert.Equal(t, 1, c.Len())

	// callers get copies
	second.CommitURL = "mutated"
	third, _ := c.Lookup(ctx, "installation")
	assert.NotEqual(t, "mutated", third.CommitURL)
}

func TestCache_RedisTier(t *testing.T) {
	mr, client := setupRedis(t)
	src := newSource()
	ctx := context.Background()

	c := New(src, client, DefaultConfig())
	_, err := c.Lookup(ctx, "basic-usage")
	require.NoError(t, err)
	require.True(t, mr.Exists("history:section:basic-usage"))
	assert.Equal(t, 15*time.Minute, mr.TTL("history:section:basic-usage"))

	// A second replica with a cold L1 is served from Redis
	rec := newTierCounts()
	replica := New(src, client, DefaultConfig(), WithRecorder(rec))
	got, err := replica.Lookup(ctx, "basic-usage")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "basic-usage", got.SectionID)
	assert.Equal(t, time.Date(2025, 1, 13, 9, 20, 0, 0, time.UTC), got.LastModified)
	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, 1, rec.hits[TierRedis])
}

func TestCache_NegativeCaching(t *testing.T) {
	mr, client := setupRedis(t)
	src := newSource()
	cfg := DefaultConfig()
	cfg.NegativeTTL = 30 * time.Second
	c := New(src, client, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Lookup(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, 30*time.Second, mr.TTL("history:section:does-not-exist"))
}

func TestCache_SourceErrorNotCached(t *testing.T) {
	src := newSource()
	src.err = errors.New("upstream down")
	c := New(src, nil, DefaultConfig())

	_, err := c.Lookup(context.Background(), "installation")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	src.err = nil
	got, err := c.Lookup(context.Background(), "installation")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, 2, src.Calls())
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()

	rec := newTierCounts()
	c := New(newSource(), client, DefaultConfig(), WithRecorder(rec))

	got, err := c.Lookup(context.Background(), "api-reference")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.GreaterOrEqual(t, rec.errs[TierRedis], 1)
}

func TestCache_CorruptRedisEntry(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set("history:section:core-concepts", "{not json"))

	rec := newTierCounts()
	c := New(newSource(), client, DefaultConfig(), WithRecorder(rec))

	got, err := c.Lookup(context.Background(), "core-concepts")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, rec.errs[TierRedis])

	// repopulated with valid JSON
	val, err := mr.Get("history:section:core-concepts")
	require.NoError(t, err)
	assert.Contains(t, val, `"section_id":"core-concepts"`)
}

func TestCache_Warm(t *testing.T) {
	mr, client := setupRedis(t)
	src := newSource()
	c := New(src, client, DefaultConfig())

	ids := history.DefaultTable().Sections()
	require.NoError(t, c.Warm(context.Background(), ids))

	assert.Equal(t, len(ids), c.Len())
	assert.Equal(t, len(ids), src.Calls())
	for _, id := range ids {
		assert.True(t, mr.Exists(c.Key(id)), id)
	}
}

func TestCache_WarmReturnsError(t *testing.T) {
	src := newSource()
	src.err = errors.New("rate limited")
	c := New(src, nil, DefaultConfig())

	err := c.Warm(context.Background(), []string{"installation", "basic-usage"})
	require.Error(t, err)
	assert.ErrorIs(t, err, src.err)
}

func TestCache_Purge(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set("unrelated", "keep"))
	c := New(newSource(), client, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, c.Warm(ctx, []string{"installation", "basic-usage"}))
	require.NoError(t, c.Purge(ctx))

	assert.Equal(t, 0, c.Len())
	assert.False(t, mr.Exists(c.Key("installation")))
	assert.True(t, mr.Exists("unrelated"))
}

func TestNew_Defaults(t *testing.T) {
	c := New(newSource(), nil, nil)
	assert.Equal(t, "history:section:x", c.Key("x"))
	assert.NoError(t, c.Purge(context.Background()))
}
