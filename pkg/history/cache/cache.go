package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/noahsabaj/hearth-docs/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// Cache tiers reported to a Recorder
const (
	TierL1    = "l1"
	TierRedis = "redis"
)

// Recorder receives cache telemetry. observability.Metrics implements it.
type Recorder interface {
	CacheHit(tier string)
	CacheMiss(tier string)
	CacheError(tier string)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string)   {}
func (nopRecorder) CacheMiss(string)  {}
func (nopRecorder) CacheError(string) {}

// Config holds cache sizing and expiry
type Config struct {
	L1Size          int
	L1TTL           time.Duration
	RedisTTL        time.Duration
	NegativeTTL     time.Duration // TTL for unknown sections in Redis
	KeyPrefix       string
	WarmConcurrency int
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() *Config {
	return &Config{
		L1Size:          256,
		L1TTL:           time.Minute,
		RedisTTL:        15 * time.Minute,
		NegativeTTL:     time.Minute,
		KeyPrefix:       "history:",
		WarmConcurrency: 4,
	}
}

// entry is the cached form of a lookup; a nil Record caches an unknown section
type entry struct {
	Record *history.Record `json:"record"`
}

// Cache is a read-through history.Source
type Cache struct {
	source   history.Source
	redis    *redis.Client
	l1       *lru.LRU[string, entry]
	config   *Config
	recorder Recorder
	logger   *observability.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithRecorder sets the telemetry recorder
func WithRecorder(recorder Recorder) Option {
	return func(c *Cache) {
		if recorder != nil {
			c.recorder = recorder
		}
	}
}

// WithLogger sets the logger used for Redis failures
func WithLogger(logger *observability.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps source. redisClient may be nil to run with the in-process tier only.
func New(source history.Source, redisClient *redis.Client, config *Config, opts ...Option) *Cache {
	if config == nil {
		config = DefaultConfig()
	}
	size := config.L1Size
	if size <= 0 {
		size = DefaultConfig().L1Size
	}

	c := &Cache{
		source:   source,
		redis:    redisClient,
		l1:       lru.NewLRU[string, entry](size, nil, config.L1TTL),
		config:   config,
		recorder: nopRecorder{},
		logger:   observability.NewLogger(observability.InfoLevel, io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the Redis key for a section
func (c *Cache) Key(sectionID string) string {
	return fmt.Sprintf("%ssection:%s", c.config.KeyPrefix, sectionID)
}

// Lookup implements history.Source
func (c *Cache) Lookup(ctx context.Context, sectionID string) (*history.Record, error) {
	if e, ok := c.l1.Get(sectionID); ok {
		c.recorder.CacheHit(TierL1)
		return e.clone(), nil
	}
	c.recorder.CacheMiss(TierL1)

	if e, ok := c.getRedis(ctx, sectionID); ok {
		c.l1.Add(sectionID, e)
		return e.clone(), nil
	}

	rec, err := c.source.Lookup(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	e := entry{Record: rec}
	c.l1.Add(sectionID, e)
	c.setRedis(ctx, sectionID, e)
	return e.clone(), nil
}

func (e entry) clone() *history.Record {
	if e.Record == nil {
		return nil
	}
	rec := *e.Record
	return &rec
}

func (c *Cache) getRedis(ctx context.Context, sectionID string) (entry, bool) {
	if c.redis == nil {
		return entry{}, false
	}

	key := c.Key(sectionID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.recorder.CacheMiss(TierRedis)
		return entry{}, false
	}
	if err != nil {
		c.recorder.CacheError(TierRedis)
		c.logger.WithField("key", key).WithError(err).Warn("redis get failed")
		return entry{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Drop corrupt data so the next lookup repopulates it
		c.redis.Del(ctx, key)
		c.recorder.CacheError(TierRedis)
		c.logger.WithField("key", key).WithError(err).Warn("discarded corrupt cache entry")
		return entry{}, false
	}

	c.recorder.CacheHit(TierRedis)
	return e, true
}

func (c *Cache) setRedis(ctx context.Context, sectionID string, e entry) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		c.recorder.CacheError(TierRedis)
		return
	}

	ttl := c.config.RedisTTL
	if e.Record == nil {
		ttl = c.config.NegativeTTL
	}

	key := c.Key(sectionID)
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.recorder.CacheError(TierRedis)
		c.logger.WithField("key", key).WithError(err).Warn("redis set failed")
	}
}

// Warm resolves sectionIDs concurrently, filling both tiers.
// It returns the first source error.
func (c *Cache) Warm(ctx context.Context, sectionIDs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	if c.config.WarmConcurrency > 0 {
		g.SetLimit(c.config.WarmConcurrency)
	}

	for _, id := range sectionIDs {
		id := id
		g.Go(func() error {
			if _, err := c.Lookup(ctx, id); err != nil {
				return fmt.Errorf("warm %s: %w", id, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Purge empties the in-process tier and deletes this cache's Redis keys
func (c *Cache) Purge(ctx context.Context) error {
	c.l1.Purge()
	if c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"section:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Len returns the number of entries in the in-process tier
func (c *Cache) Len() int {
	return c.l1.Len()
}
