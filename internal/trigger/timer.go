package trigger

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TimerLoop fires Dispatch on every tick of a cron-like expression,
// passing a context that holds only the firing time under "now". Cron
// expression parsing is delegated to robfig/cron, pulled in for exactly
// this purpose by the wider pack this engine draws its dependency stack
// from.
type TimerLoop struct {
	Expression string
	Dispatch   DispatchFunc
}

// Run parses Expression and fires Dispatch at every scheduled time until
// ctx is canceled. A malformed expression is logged and the loop exits
// immediately rather than panicking the scheduler.
func (t *TimerLoop) Run(ctx context.Context) {
	schedule, err := cron.ParseStandard(t.Expression)
	if err != nil {
		log.Error().Err(err).Str("expression", t.Expression).Msg("invalid timer trigger expression")
		return
	}

	now := time.Now()
	next := schedule.Next(now)
	for {
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case fired := <-timer.C:
			t.Dispatch(ctx, map[string]string{"now": fired.UTC().Format(time.RFC3339)})
			next = schedule.Next(fired)
		}
	}
}
