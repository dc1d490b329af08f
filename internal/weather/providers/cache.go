package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

// PlaceCache stores geocoding candidates by lookup key.
type PlaceCache interface {
	Get(ctx context.Context, key string) (weather.Place, bool)
	Put(ctx context.Context, key string, place weather.Place)
}

// CachedGeocoder wraps a Geocoder with a PlaceCache. Only successful lookups
// are cached, so "not found" and transport failures are retried next time.
type CachedGeocoder struct {
	inner   weather.Geocoder
	cache   PlaceCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner weather.Geocoder, cache PlaceCache, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}
}

func (c *CachedGeocoder) Search(ctx context.Context, name string) (weather.Place, error) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(name))
	if place, ok := c.cache.Get(ctx, key); ok {
		c.observe("forward", "hit")
		return place, nil
	}
	c.observe("forward", "miss")

	place, err := c.inner.Search(ctx, name)
	if err != nil {
		return place, err
	}
	c.cache.Put(ctx, key, place)
	return place, nil
}

func (c *CachedGeocoder) Reverse(ctx context.Context, coords weather.Coordinates) (weather.Place, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", coords.Latitude, coords.Longitude)
	if place, ok := c.cache.Get(ctx, key); ok {
		c.observe("reverse", "hit")
		return place, nil
	}
	c.observe("reverse", "miss")

	place, err := c.inner.Reverse(ctx, coords)
	if err != nil {
		return place, err
	}
	c.cache.Put(ctx, key, place)
	return place, nil
}

func (c *CachedGeocoder) observe(method, result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(method, result).Inc()
	}
}

// LRUCache is a thread-safe in-memory PlaceCache bounded by entry count.
type LRUCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value weather.Place
	prev  *entry
	next  *entry
}

func NewLRUCache(maxEntries int) *LRUCache {
	return &LRUCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *LRUCache) Get(_ context.Context, key string) (weather.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return weather.Place{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *LRUCache) Put(_ context.Context, key string, value weather.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

// Len returns the number of cached entries.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *LRUCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRUCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *LRUCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}

// RedisCache is a PlaceCache backed by Redis, shared across instances.
// Redis errors degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl, prefix: "weather-now:geocode:", logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (weather.Place, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", "key", key, "error", err)
		}
		return weather.Place{}, false
	}

	var place weather.Place
	if err := json.Unmarshal(raw, &place); err != nil {
		c.logger.Warn("redis entry undecodable", "key", key, "error", err)
		return weather.Place{}, false
	}
	return place, true
}

func (c *RedisCache) Put(ctx context.Context, key string, place weather.Place) {
	raw, err := json.Marshal(place)
	if err != nil {
		c.logger.Warn("redis entry unencodable", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", key, "error", err)
	}
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
