package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore("t", 10, time.Minute)

	s.Put("k", "v1")
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	s.Put("k", "v2")
	v, _ = s.Get("k")
	assert.Equal(t, "v2", v, "a write replaces the whole value")

	s.Invalidate("k")
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestStore_TTLExpiryTriggersReload(t *testing.T) {
	s := NewStore("t", 10, 20*time.Millisecond)

	var loads atomic.Int32
	load := func(ctx context.Context) (any, error) {
		loads.Add(1)
		return "loaded", nil
	}

	v, err := s.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, int32(1), loads.Load())

	// Served from cache before expiry.
	_, err = s.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load())

	time.Sleep(40 * time.Millisecond)

	// Expired: the next read is a miss and loads again.
	_, err = s.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestStore_GetOrLoadCoalescesConcurrentMisses(t *testing.T) {
	s := NewStore("t", 10, time.Minute)

	var loads atomic.Int32
	gate := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		loads.Add(1)
		<-gate
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.GetOrLoad(context.Background(), "k", load)
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
}

func TestStore_EvictionUnderCap(t *testing.T) {
	s := NewStore("t", 2, time.Minute)

	s.Put("a", 1)
	s.Put("b", 2)
	s.Put("c", 3)

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("a")
	assert.False(t, ok, "oldest entry evicted under the size cap")
}

func TestStore_Counters(t *testing.T) {
	var hits, misses int
	s := NewStore("t", 10, time.Minute, WithCounters(
		func(string) { hits++ },
		func(string) { misses++ },
	))

	s.Get("k")
	s.Put("k", "v")
	s.Get("k")

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestRegistry_NamedCacheContract(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{
		PatentSearch, TrademarkSearch, PatentDetail, TrademarkDetail,
		PatentTrends, TrademarkTrends, AggregateStats,
	} {
		s, err := r.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}

	_, err := r.Get("nonexistent")
	assert.Error(t, err)

	assert.Len(t, r.Names(), 7)
}
