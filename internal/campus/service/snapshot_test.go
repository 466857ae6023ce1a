package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"github.com/aussiebroadwan/campusbot/pkg/s21"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	err         error
	invalidated atomic.Int64
}

func (f *fakeTokens) Token(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token", nil
}

func (f *fakeTokens) Invalidate() { f.invalidated.Add(1) }

type fakeFetcher struct {
	calls atomic.Int64
	delay time.Duration
	seats map[string][]s21.Seat
	errs  map[string]error
	block bool
}

func (f *fakeFetcher) ClusterMap(ctx context.Context, _ string, clusterID string) ([]s21.Seat, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, &s21.FetchError{ClusterID: clusterID, Err: ctx.Err()}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, &s21.FetchError{ClusterID: clusterID, Err: ctx.Err()}
		}
	}
	if err := f.errs[clusterID]; err != nil {
		return nil, err
	}
	return f.seats[clusterID], nil
}

func newTestCache(fetcher *fakeFetcher, tokens *fakeTokens, clock *fakeClock) *SnapshotCache {
	c := NewSnapshotCache(tokens, fetcher, domain.DefaultClusters(), discard, SnapshotConfig{
		MinInterval:  30 * time.Second,
		MaxInterval:  5 * time.Minute,
		FetchTimeout: time.Second,
	})
	c.Now = clock.Now
	return c
}

func campusSeats() map[string][]s21.Seat {
	return map[string][]s21.Seat{
		"36621": {{Login: "abcdefgh", Row: "a", Number: "3"}, {Login: ""}},
		"36622": {{Login: "qwertyui", Row: "b", Number: "1"}},
		"36623": {},
		"36624": {{Login: "zxcvbnmm", Row: "c", Number: "7"}},
	}
}

func TestSnapshotCacheCoalescesConcurrentReaders(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{seats: campusSeats(), delay: 20 * time.Millisecond}
	cache := newTestCache(fetcher, &fakeTokens{}, newFakeClock())

	const readers = 20
	ids := make([]string, readers)

	var wg sync.WaitGroup
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := cache.Get(context.Background(), i%2 == 0)
			assert.NotNil(t, snap)
			ids[i] = snap.ID
		}()
	}
	wg.Wait()

	require.Equal(t, int64(4), fetcher.calls.Load(), "one fan-out over four clusters")
	require.Equal(t, int64(1), cache.Refreshes())
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestSnapshotCacheStaleness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	fetcher := &fakeFetcher{seats: campusSeats()}
	cache := newTestCache(fetcher, &fakeTokens{}, clock)

	first := cache.Get(ctx, false)
	require.False(t, first.IsZero())
	require.Equal(t, 3, first.Count())

	t.Run("forced read inside the minimum interval is served from cache", func(t *testing.T) {
		clock.Advance(10 * time.Second)
		require.Same(t, first, cache.Get(ctx, true))
		require.Equal(t, int64(1), cache.Refreshes())
	})

	t.Run("unforced read inside the maximum interval is served from cache", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		require.Same(t, first, cache.Get(ctx, false))
		require.Equal(t, int64(1), cache.Refreshes())
	})

	t.Run("forced read after the minimum interval refreshes", func(t *testing.T) {
		second := cache.Get(ctx, true)
		require.NotSame(t, first, second)
		require.Equal(t, int64(2), cache.Refreshes())
	})

	t.Run("unforced read after the maximum interval refreshes", func(t *testing.T) {
		clock.Advance(5*time.Minute + time.Second)
		cache.Get(ctx, false)
		require.Equal(t, int64(3), cache.Refreshes())
		require.Equal(t, int64(12), fetcher.calls.Load())
	})
}

func TestSnapshotCachePartialFailure(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		seats: campusSeats(),
		errs: map[string]error{
			"36622": &s21.FetchError{ClusterID: "36622", Err: &s21.APIError{StatusCode: 502}},
		},
	}
	cache := newTestCache(fetcher, &fakeTokens{}, newFakeClock())

	snap := cache.Get(context.Background(), true)
	require.Equal(t, []string{"36622"}, snap.Failed)
	require.Len(t, snap.Clusters, 3)
	require.True(t, snap.IsPresent("abcdefgh"))
	require.True(t, snap.IsPresent("zxcvbnmm"))
	require.False(t, snap.IsPresent("qwertyui"))

	seat, ok := snap.Locate("abcdefgh")
	require.True(t, ok)
	require.Equal(t, "ay-a3", seat.Seat())

	stats := cache.Stats()
	require.Equal(t, snap.ID, stats.SnapshotID)
	require.Equal(t, 2, stats.Present)
	require.Equal(t, []string{"36622"}, stats.FailedClusters)
	require.Equal(t, int64(1), stats.Refreshes)
}

func TestSnapshotCacheTotalFailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	fetcher := &fakeFetcher{seats: campusSeats()}
	cache := newTestCache(fetcher, &fakeTokens{}, clock)

	first := cache.Get(ctx, true)
	require.Equal(t, 3, first.Count())

	down := errors.New("upstream down")
	fetcher.errs = map[string]error{"36621": down, "36622": down, "36623": down, "36624": down}

	clock.Advance(time.Minute)
	require.Same(t, first, cache.Get(ctx, true))
	require.Equal(t, int64(1), cache.Refreshes())
}

func TestSnapshotCacheColdFailureReturnsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tokens := &fakeTokens{err: errors.New("auth down")}
	fetcher := &fakeFetcher{seats: campusSeats()}
	cache := newTestCache(fetcher, tokens, newFakeClock())

	snap := cache.Get(ctx, true)
	require.NotNil(t, snap)
	require.True(t, snap.IsZero())
	require.Zero(t, snap.Count())
	require.Nil(t, cache.Current())
	require.Zero(t, fetcher.calls.Load())

	tokens.err = nil
	require.True(t, cache.Get(ctx, true).IsZero(), "attempt inside the minimum interval is not repeated")
	require.Zero(t, fetcher.calls.Load())
}

func TestSnapshotCacheInvalidatesTokenOnUnauthorized(t *testing.T) {
	t.Parallel()

	tokens := &fakeTokens{}
	fetcher := &fakeFetcher{
		seats: campusSeats(),
		errs: map[string]error{
			"36623": &s21.FetchError{ClusterID: "36623", Err: &s21.APIError{StatusCode: 401}},
		},
	}
	cache := newTestCache(fetcher, tokens, newFakeClock())

	snap := cache.Get(context.Background(), true)
	require.Equal(t, []string{"36623"}, snap.Failed)
	require.Equal(t, int64(1), tokens.invalidated.Load())
}

func TestSnapshotCacheFetchTimeoutReleasesGate(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{block: true}
	cache := newTestCache(fetcher, &fakeTokens{}, newFakeClock())
	cache.Config.FetchTimeout = 50 * time.Millisecond

	done := make(chan *domain.CampusSnapshot, 1)
	go func() { done <- cache.Get(context.Background(), true) }()

	select {
	case snap := <-done:
		require.True(t, snap.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not honour the fetch timeout")
	}

	// the gate is free again
	require.NotNil(t, cache.Get(context.Background(), false))
}

func TestSnapshotCacheGateWaitHonoursContext(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{block: true}
	cache := newTestCache(fetcher, &fakeTokens{}, newFakeClock())
	cache.Config.FetchTimeout = time.Second

	go cache.Get(context.Background(), true)
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	snap := cache.Get(ctx, false)
	require.NotNil(t, snap)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSnapshotCacheRefreshOutlivesCaller(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	fetcher := &fakeFetcher{seats: campusSeats(), delay: 100 * time.Millisecond}
	cache := newTestCache(fetcher, &fakeTokens{}, clock)

	// the caller gives up long before the fan-out completes
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	snap := cache.Get(ctx, true)
	require.Equal(t, 3, snap.Count())
	require.Empty(t, snap.Failed)

	// the next forced read inside the minimum interval sees the full snapshot
	clock.Advance(5 * time.Second)
	next := cache.Get(context.Background(), true)
	require.Same(t, snap, next)
	require.False(t, next.IsZero())
	require.Equal(t, int64(4), fetcher.calls.Load())
	require.Equal(t, int64(1), cache.Refreshes())
}
