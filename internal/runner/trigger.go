package runner

import (
	"context"
	"time"

	"github.com/flowlayer/flowengine/internal/domain"
)

// ManualTrigger produces Empty, or a Context built from its config's
// "context" map if present. It is the runner a manual trigger node uses —
// the caller has already decided to fire; this runner just shapes the
// initial payload for the rest of the flow.
type ManualTrigger struct{}

func (ManualTrigger) Run(_ context.Context, config map[string]any, _ domain.NodeOutput) (domain.NodeOutput, error) {
	if raw, ok := config["context"].(map[string]any); ok {
		vars := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				vars[k] = s
			}
		}
		return domain.NewContext(vars), nil
	}
	return domain.Empty, nil
}

// TimerTrigger produces a Context populated with "now" in RFC3339, for
// flows that want to key off the firing timestamp.
type TimerTrigger struct {
	Now func() time.Time
}

func (t TimerTrigger) Run(_ context.Context, _ map[string]any, _ domain.NodeOutput) (domain.NodeOutput, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return domain.NewContext(map[string]string{"now": now().UTC().Format(time.RFC3339)}), nil
}

// ItemTrigger passes its merged input straight through. It is the runner
// for trigger kinds whose managed loop (polling, webhook) has already
// built the run's initial context — the external item id/scope/payload —
// before dispatch; the node itself has nothing to add.
type ItemTrigger struct{}

func (ItemTrigger) Run(_ context.Context, _ map[string]any, input domain.NodeOutput) (domain.NodeOutput, error) {
	return input, nil
}
