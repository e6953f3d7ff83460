package trigger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flowlayer/flowengine/internal/domain"
)

// Item is one element of a polling scope's current external item set: a
// stable identifier plus arbitrary payload the loop copies into the
// context of any run it dispatches for that item.
type Item struct {
	ID      string
	Payload map[string]string
}

// ItemFetcher is the external fetch capability consumed by a polling
// trigger loop: return the current set of items in scope.
type ItemFetcher interface {
	FetchItems(ctx context.Context, scope string) ([]Item, error)
}

// DispatchFunc submits one flow run with the given initial context. The
// polling loop does not wait for it; the run executes concurrently.
type DispatchFunc func(ctx context.Context, initialContext map[string]string)

const (
	seedMaxAttempts  = 10
	seedBackoffBase  = 2
	seedBackoffCapPw = 5 // backoff caps at base^5 seconds
)

// PollingLoop is one long-running trigger instance: it seeds a SeenSet
// per scope with bounded exponential backoff, then polls each seeded
// scope on an interval, dispatching exactly one run per newly observed
// item. Grounded 1:1 on the seed-then-poll shape and backoff constants of
// the original PR-watcher trigger this spec's polling trigger is modeled
// on (base 2, capped at 2^5 seconds, 10 attempts).
type PollingLoop struct {
	Scopes       []string
	Fetcher      ItemFetcher
	PollInterval time.Duration
	Dispatch     DispatchFunc
	Seen         *SeenSet

	// Sleep is overridable in tests to avoid real backoff delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run seeds every scope, then polls the successfully seeded scopes until
// ctx is canceled.
func (p *PollingLoop) Run(ctx context.Context) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	seeded := make([]string, 0, len(p.Scopes))
	for _, scope := range p.Scopes {
		if err := p.seed(ctx, scope, sleep); err != nil {
			log.Error().Err(err).Str("scope", scope).Msg("trigger seed exhausted, excluding scope from polling")
			continue
		}
		seeded = append(seeded, scope)
	}

	if len(seeded) == 0 {
		return
	}

	ticker := time.NewTicker(p.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, scope := range seeded {
				p.pollOnce(ctx, scope)
			}
		}
	}
}

// seed fetches scope's current item set with exponential backoff, up to
// seedMaxAttempts. On success it inserts the full set into the SeenSet
// and marks the scope seeded; on exhaustion it returns
// domain.ErrTriggerSeedExhausted and the scope is never polled.
func (p *PollingLoop) seed(ctx context.Context, scope string, sleep func(context.Context, time.Duration) error) error {
	var lastErr error
	for attempt := 0; attempt < seedMaxAttempts; attempt++ {
		items, err := p.Fetcher.FetchItems(ctx, scope)
		if err == nil {
			ids := make([]string, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			p.Seen.Seed(scope, ids)
			return nil
		}
		lastErr = err

		exp := attempt
		if exp > seedBackoffCapPw {
			exp = seedBackoffCapPw
		}
		backoff := time.Duration(math.Pow(seedBackoffBase, float64(exp))) * time.Second
		if sleepErr := sleep(ctx, backoff); sleepErr != nil {
			return sleepErr
		}
	}
	return domain.NewEngineError(domain.ErrTriggerSeedExhausted, fmt.Sprintf("scope %s: seeding exhausted after %d attempts", scope, seedMaxAttempts), lastErr)
}

// pollOnce fetches scope's current set, computes the new items under the
// SeenSet's single critical section (diff and insert together), and
// dispatches one run per new item in observation order. Transient fetch
// errors are logged and the scope is retried at the next tick.
func (p *PollingLoop) pollOnce(ctx context.Context, scope string) {
	items, err := p.Fetcher.FetchItems(ctx, scope)
	if err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("transient polling fetch error, retrying next tick")
		return
	}

	byID := make(map[string]Item, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		ids = append(ids, it.ID)
	}

	fresh := p.Seen.DiffAndInsert(scope, ids)
	for _, id := range fresh {
		item := byID[id]
		initialContext := map[string]string{"scope": scope, "item_id": id}
		for k, v := range item.Payload {
			initialContext[k] = v
		}
		go p.Dispatch(ctx, initialContext)
	}
}
