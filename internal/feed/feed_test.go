package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/polydebate/frontend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func market(id string) models.Market {
	return models.Market{ID: id, Question: "Question " + id, Category: "Politics"}
}

func page(hasMore bool, ids ...string) *models.MarketPage {
	p := &models.MarketPage{HasMore: hasMore}
	for _, id := range ids {
		p.Markets = append(p.Markets, market(id))
	}
	return p
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Market.ID
	}
	return out
}

func TestLoadMoreWhileInFlightSendsOneRequest(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	f := New(func(ctx context.Context, _ Filter, offset, limit int) (*models.MarketPage, error) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return page(true, "a", "b"), nil
	}, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loaded, err := f.LoadMore(context.Background())
		assert.NoError(t, err)
		assert.True(t, loaded)
	}()
	<-started

	for i := 0; i < 10; i++ {
		loaded, err := f.LoadMore(context.Background())
		require.NoError(t, err)
		assert.False(t, loaded)
	}
	assert.Equal(t, Loading{Initial: true}, f.Snapshot().State)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, Ready{}, f.Snapshot().State)
}

func TestPagesAreDeduplicatedAndOffsetAdvances(t *testing.T) {
	pages := []*models.MarketPage{
		page(true, "a", "b", "c"),
		page(true, "c", "d", "a"),
		page(false, "e"),
	}
	var offsets []int
	n := 0
	f := New(func(_ context.Context, _ Filter, offset, limit int) (*models.MarketPage, error) {
		offsets = append(offsets, offset)
		p := pages[n]
		n++
		return p, nil
	}, 3)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.LoadMore(ctx)
		require.NoError(t, err)
	}

	snap := f.Snapshot()
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(snap.Items))
	assert.Equal(t, []int{0, 3, 6}, offsets, "no request after has_more=false")
	assert.False(t, snap.HasMore)
}

func TestNewTagCoversOnlyLatestPage(t *testing.T) {
	pages := []*models.MarketPage{page(true, "a", "b"), page(true, "c")}
	n := 0
	f := New(func(context.Context, Filter, int, int) (*models.MarketPage, error) {
		p := pages[n]
		n++
		return p, nil
	}, 2)

	ctx := context.Background()
	_, _ = f.LoadMore(ctx)
	snap := f.Snapshot()
	assert.True(t, snap.Items[0].New)
	assert.True(t, snap.Items[1].New)

	_, _ = f.LoadMore(ctx)
	snap = f.Snapshot()
	assert.False(t, snap.Items[0].New)
	assert.False(t, snap.Items[1].New)
	assert.True(t, snap.Items[2].New)
}

func TestFilterChangeDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	f := New(func(_ context.Context, filter Filter, _, _ int) (*models.MarketPage, error) {
		if filter.Category == "politics" {
			started <- struct{}{}
			<-release
			return page(true, "stale-1", "stale-2"), nil
		}
		return page(false, "fresh"), nil
	}, 2)
	f.SetFilter(Filter{Category: "Politics"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		loaded, err := f.LoadMore(context.Background())
		assert.NoError(t, err)
		assert.False(t, loaded, "stale page must not be applied")
	}()
	<-started

	require.True(t, f.SetFilter(Filter{Category: "sports"}))
	snap := f.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, Idle{}, snap.State)

	loaded, err := f.LoadMore(context.Background())
	require.NoError(t, err)
	require.True(t, loaded)

	close(release)
	<-done

	snap = f.Snapshot()
	assert.Equal(t, []string{"fresh"}, ids(snap.Items))
	assert.Equal(t, Ready{}, snap.State)
}

func TestUnchangedFilterKeepsResults(t *testing.T) {
	f := New(func(context.Context, Filter, int, int) (*models.MarketPage, error) {
		return page(true, "a"), nil
	}, 1)
	f.SetFilter(Filter{Category: "crypto", Search: "btc"})
	_, err := f.LoadMore(context.Background())
	require.NoError(t, err)

	assert.False(t, f.SetFilter(Filter{Category: " Crypto ", Search: "btc "}))
	assert.Len(t, f.Snapshot().Items, 1)
}

func TestFailureIsTerminalUntilReset(t *testing.T) {
	var calls int32
	boom := errors.New("HTTP 500: Internal Server Error")
	f := New(func(context.Context, Filter, int, int) (*models.MarketPage, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, boom
		}
		return page(false, "a"), nil
	}, 5)

	ctx := context.Background()
	_, err := f.LoadMore(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, boom, f.Snapshot().Err())

	_, err = f.LoadMore(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "failed feed must not refetch")

	f.Reset()
	loaded, err := f.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Nil(t, f.Snapshot().Err())
}

func TestCancelledRequestDoesNotPoisonFeed(t *testing.T) {
	f := New(func(ctx context.Context, _ Filter, _, _ int) (*models.MarketPage, error) {
		return nil, fmt.Errorf("list markets: %w", context.Canceled)
	}, 5)

	_, err := f.LoadMore(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Idle{}, f.Snapshot().State)
}

func TestSearchOnPathCategoryFiltersLocally(t *testing.T) {
	f := New(func(_ context.Context, filter Filter, _, _ int) (*models.MarketPage, error) {
		return &models.MarketPage{Markets: []models.Market{
			{ID: "1", Question: "Will BTC hit 100k?", Category: "Crypto"},
			{ID: "2", Question: "Election winner", Category: "Politics"},
			{ID: "3", Question: "ETH flips BTC", Category: "crypto"},
		}}, nil
	}, 10)
	f.SetFilter(Filter{Category: "trending", Search: "btc"})
	require.NoError(t, f.EnsureLoaded(context.Background()))

	assert.Equal(t, []string{"1", "3"}, ids(f.Snapshot().Items))
}

func TestRegistryEvictResetsFeed(t *testing.T) {
	reg := NewRegistry(func() *Feed {
		return New(func(context.Context, Filter, int, int) (*models.MarketPage, error) {
			return page(false, "a"), nil
		}, 1)
	}, time.Hour)

	f := reg.Get("s1")
	assert.Same(t, f, reg.Get("s1"))
	require.NoError(t, f.EnsureLoaded(context.Background()))

	reg.Evict("s1")
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, f.Snapshot().Items)
	assert.NotSame(t, f, reg.Get("s1"))
}

func TestRegistrySweepsIdleFeeds(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry(func() *Feed {
		return New(func(context.Context, Filter, int, int) (*models.MarketPage, error) {
			return page(false, "a"), nil
		}, 1)
	}, time.Hour)
	reg.now = func() time.Time { return clock }

	for i := 0; i < 500; i++ {
		reg.Get(fmt.Sprintf("anon-%d", i))
	}
	stale := reg.Get("anon-0")
	require.NoError(t, stale.EnsureLoaded(context.Background()))
	assert.Equal(t, 500, reg.Len())

	clock = clock.Add(30 * time.Minute)
	reg.Get("active")
	assert.Equal(t, 501, reg.Len(), "nothing is idle yet")

	clock = clock.Add(45 * time.Minute)
	reg.Get("active")
	assert.Equal(t, 1, reg.Len(), "only the feed used within the idle window survives")
	assert.Empty(t, stale.Snapshot().Items)
	assert.NotSame(t, stale, reg.Get("anon-0"))
}

func TestRegistrySweepKeepsRecentlyUsedFeeds(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := NewRegistry(func() *Feed { return New(nil, 1) }, time.Hour)
	reg.now = func() time.Time { return clock }

	reg.Get("a")
	reg.Get("b")
	clock = clock.Add(50 * time.Minute)
	reg.Get("b")
	clock = clock.Add(20 * time.Minute)

	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}
