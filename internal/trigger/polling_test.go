package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedFetcher struct {
	mu    sync.Mutex
	ticks [][]Item
	idx   int
}

func (f *scriptedFetcher) FetchItems(_ context.Context, _ string) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.ticks) {
		return f.ticks[len(f.ticks)-1], nil
	}
	items := f.ticks[f.idx]
	f.idx++
	return items, nil
}

func items(ids ...string) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{ID: id}
	}
	return out
}

func TestSeenSetDiffAndInsertDedupsAcrossTicks(t *testing.T) {
	seen := NewSeenSet()
	seen.Seed("repo", []string{"1", "2", "3"})

	fresh := seen.DiffAndInsert("repo", []string{"1", "2", "3"})
	assert.Empty(t, fresh)

	fresh = seen.DiffAndInsert("repo", []string{"1", "2", "3", "4", "5"})
	assert.ElementsMatch(t, []string{"4", "5"}, fresh)

	fresh = seen.DiffAndInsert("repo", []string{"1", "4"})
	assert.Empty(t, fresh)
}

func TestPollingLoopDispatchesExactlyOncePerNewItem(t *testing.T) {
	fetcher := &scriptedFetcher{ticks: [][]Item{
		items("1", "2", "3"),       // seed
		items("1", "2", "3"),       // tick 1: nothing new
		items("1", "2", "3", "4", "5"), // tick 2: 4 and 5 new
		items("1", "4"),            // tick 3: nothing new
	}}

	var mu sync.Mutex
	var dispatched []string
	dispatch := func(_ context.Context, ctxVars map[string]string) {
		mu.Lock()
		defer mu.Unlock()
		dispatched = append(dispatched, ctxVars["item_id"])
	}

	seen := NewSeenSet()
	loop := &PollingLoop{
		Scopes:       []string{"repo"},
		Fetcher:      fetcher,
		PollInterval: 5 * time.Millisecond,
		Dispatch:     dispatch,
		Seen:         seen,
		Sleep:        func(context.Context, time.Duration) error { return nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()
	<-done
	time.Sleep(5 * time.Millisecond) // let the async dispatches land

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"4", "5"}, dispatched)
}

func TestPollingLoopExcludesScopeOnSeedExhaustion(t *testing.T) {
	calls := 0
	failingFetcher := fetcherFunc(func(context.Context, string) ([]Item, error) {
		calls++
		return nil, assertErr
	})

	dispatched := 0
	loop := &PollingLoop{
		Scopes:       []string{"bad-scope"},
		Fetcher:      failingFetcher,
		PollInterval: 5 * time.Millisecond,
		Dispatch:     func(context.Context, map[string]string) { dispatched++ },
		Seen:         NewSeenSet(),
		Sleep:        func(context.Context, time.Duration) error { return nil },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	require.Equal(t, seedMaxAttempts, calls)
	assert.Equal(t, 0, dispatched)
	assert.False(t, loop.Seen.Seeded("bad-scope"))
}

type fetcherFunc func(context.Context, string) ([]Item, error)

func (f fetcherFunc) FetchItems(ctx context.Context, scope string) ([]Item, error) {
	return f(ctx, scope)
}

var assertErr = assertError("fetch failed")

type assertError string

func (e assertError) Error() string { return string(e) }
