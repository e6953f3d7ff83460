package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/engine"
	"github.com/flowlayer/flowengine/internal/recorder"
	"github.com/flowlayer/flowengine/internal/runner"
	"github.com/flowlayer/flowengine/internal/trigger"
)

type memStore struct {
	flows map[string]domain.Flow
}

func (m *memStore) ListFlows(context.Context) ([]domain.Flow, error) {
	out := make([]domain.Flow, 0, len(m.flows))
	for _, f := range m.flows {
		out = append(out, f)
	}
	return out, nil
}

func (m *memStore) GetFlow(_ context.Context, id string) (domain.Flow, error) {
	f, ok := m.flows[id]
	if !ok {
		return domain.Flow{}, assertNotFound(id)
	}
	return f, nil
}

type assertNotFound string

func (e assertNotFound) Error() string { return "flow not found: " + string(e) }

func testFlow(id string, enabled bool) domain.Flow {
	return domain.Flow{
		ID:      id,
		Enabled: enabled,
		Nodes:   []domain.Node{{ID: "t1", Type: domain.NodeTypeTrigger, Kind: "manual-trigger"}},
	}
}

func TestSchedulerStartAllStartsOneLoopPerEnabledFlow(t *testing.T) {
	reg := runner.NewRegistry()
	require.NoError(t, reg.Register("manual-trigger", runner.RunnerFunc(func(_ context.Context, _ map[string]any, _ domain.NodeOutput) (domain.NodeOutput, error) {
		return domain.Empty, nil
	})))
	r := engine.NewRunner(reg, recorder.NewMemoryRecorder())

	store := &memStore{flows: map[string]domain.Flow{
		"enabled":  testFlow("enabled", true),
		"disabled": testFlow("disabled", false),
	}}

	var started int32
	factory := func(flow domain.Flow, dispatch trigger.DispatchFunc) (trigger.Loop, error) {
		atomic.AddInt32(&started, 1)
		return trigger.LoopFunc(func(ctx context.Context) { <-ctx.Done() }), nil
	}

	s := New(store, r, factory)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.StartAll(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&started))
}

func TestSchedulerSubmitRunBypassesTriggerLoop(t *testing.T) {
	reg := runner.NewRegistry()
	require.NoError(t, reg.Register("manual-trigger", runner.RunnerFunc(func(_ context.Context, _ map[string]any, _ domain.NodeOutput) (domain.NodeOutput, error) {
		return domain.Empty, nil
	})))
	r := engine.NewRunner(reg, recorder.NewMemoryRecorder())
	store := &memStore{flows: map[string]domain.Flow{}}

	s := New(store, r, func(domain.Flow, trigger.DispatchFunc) (trigger.Loop, error) { return nil, nil })
	run, err := s.SubmitRun(context.Background(), testFlow("manual", true), map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSuccess, run.Status)
}

func TestSchedulerRestartFlowStopsOldLoopBeforeStartingNew(t *testing.T) {
	reg := runner.NewRegistry()
	require.NoError(t, reg.Register("manual-trigger", runner.RunnerFunc(func(_ context.Context, _ map[string]any, _ domain.NodeOutput) (domain.NodeOutput, error) {
		return domain.Empty, nil
	})))
	r := engine.NewRunner(reg, recorder.NewMemoryRecorder())
	store := &memStore{flows: map[string]domain.Flow{"f": testFlow("f", true)}}

	var generation, active, overlapped int32
	factory := func(flow domain.Flow, dispatch trigger.DispatchFunc) (trigger.Loop, error) {
		atomic.AddInt32(&generation, 1)
		return trigger.LoopFunc(func(ctx context.Context) {
			if atomic.AddInt32(&active, 1) > 1 {
				atomic.StoreInt32(&overlapped, 1)
			}
			<-ctx.Done()
			atomic.AddInt32(&active, -1)
		}), nil
	}

	s := New(store, r, factory)
	ctx := context.Background()
	require.NoError(t, s.startFlow(ctx, store.flows["f"]))
	require.NoError(t, s.RestartFlow(ctx, "f"))

	assert.Equal(t, int32(2), atomic.LoadInt32(&generation))
	s.StopFlow("f")
	assert.Equal(t, int32(0), atomic.LoadInt32(&overlapped), "old loop was still running when the new one started")
	time.Sleep(5 * time.Millisecond)
}
