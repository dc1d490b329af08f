package providers

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

type countingGeocoder struct {
	searchCalls  int
	reverseCalls int
	place        weather.Place
	err          error
}

func (g *countingGeocoder) Search(_ context.Context, _ string) (weather.Place, error) {
	g.searchCalls++
	return g.place, g.err
}

func (g *countingGeocoder) Reverse(_ context.Context, _ weather.Coordinates) (weather.Place, error) {
	g.reverseCalls++
	return g.place, g.err
}

func TestCachedGeocoder_ForwardHit(t *testing.T) {
	inner := &countingGeocoder{place: weather.Place{Name: "Oslo", Country: "Norway"}}
	metrics := observability.NewMetricsForTesting()
	c := NewCachedGeocoder(inner, NewLRUCache(10), metrics)
	ctx := context.Background()

	first, err := c.Search(ctx, "Oslo")
	require.NoError(t, err)
	second, err := c.Search(ctx, "  oslo ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.searchCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "miss")))
}

func TestCachedGeocoder_ReverseHit(t *testing.T) {
	inner := &countingGeocoder{place: weather.Place{Name: "Springfield"}}
	c := NewCachedGeocoder(inner, NewLRUCache(10), nil)
	coords := weather.Coordinates{Latitude: 39.8, Longitude: -89.64}

	_, err := c.Reverse(context.Background(), coords)
	require.NoError(t, err)
	_, err = c.Reverse(context.Background(), coords)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.reverseCalls)
}

func TestCachedGeocoder_DoesNotCacheFailures(t *testing.T) {
	inner := &countingGeocoder{err: weather.ErrNotFound}
	c := NewCachedGeocoder(inner, NewLRUCache(10), nil)

	for i := 0; i < 2; i++ {
		_, err := c.Search(context.Background(), "Atlantis")
		require.ErrorIs(t, err, weather.ErrNotFound)
	}
	assert.Equal(t, 2, inner.searchCalls)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2)

	c.Put(ctx, "a", weather.Place{Name: "A"})
	c.Put(ctx, "b", weather.Place{Name: "B"})
	_, _ = c.Get(ctx, "a") // a is now most recent
	c.Put(ctx, "c", weather.Place{Name: "C"})

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok)
	got, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, 2, c.Len())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2)

	c.Put(ctx, "a", weather.Place{Name: "A"})
	c.Put(ctx, "a", weather.Place{Name: "A2"})

	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "A2", got.Name)
	assert.Equal(t, 1, c.Len())
}

// closedAddr returns a local address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rc, err := NewRedisCache(ctx, closedAddr(t), "", 0, time.Hour, observability.DiscardLogger())
	require.Error(t, err)
	assert.Nil(t, rc)
}

func TestRedisCache_ErrorsAreMisses(t *testing.T) {
	rc := &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: closedAddr(t), MaxRetries: -1}),
		ttl:    time.Hour,
		prefix: "test:",
		logger: observability.DiscardLogger(),
	}
	defer rc.Close()

	ctx := context.Background()
	rc.Put(ctx, "fwd:oslo", weather.Place{Name: "Oslo"})
	_, ok := rc.Get(ctx, "fwd:oslo")
	assert.False(t, ok)

	inner := &countingGeocoder{place: weather.Place{Name: "Oslo"}}
	cached := NewCachedGeocoder(inner, rc, observability.NewMetricsForTesting())
	for i := 0; i < 2; i++ {
		got, err := cached.Search(ctx, "Oslo")
		require.NoError(t, err)
		assert.Equal(t, "Oslo", got.Name)
	}
	assert.Equal(t, 2, inner.searchCalls)
}
