// Package scheduler implements the flow scheduler (C6): it owns every
// enabled flow's trigger loop, reacting to enable/disable/update events
// by starting/stopping loops, and exposes a direct submit_run path that
// bypasses the trigger loop for manual invocations. Grounded on a
// mutex-guarded trigger-activation manager, restructured from per-trigger
// cooldown bookkeeping to per-flow loop lifecycle management.
package scheduler

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"

	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/engine"
	"github.com/flowlayer/flowengine/internal/recorder"
	"github.com/flowlayer/flowengine/internal/trigger"
)

// Store is the subset of the Store capability the scheduler needs to load
// flows at startup.
type Store interface {
	ListFlows(ctx context.Context) ([]domain.Flow, error)
	GetFlow(ctx context.Context, id string) (domain.Flow, error)
}

// LoopFactory builds the trigger.Loop(s) for one flow, wired to call
// dispatch when they want to submit a run. A flow with no triggers (or an
// unsupported trigger kind) may return nil, nil, meaning "no loop needed".
type LoopFactory func(flow domain.Flow, dispatch trigger.DispatchFunc) (trigger.Loop, error)

// loopHandle pairs a running loop with the cancel func that stops it.
type loopHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler holds the flow id -> trigger-loop-handle map. Its internal
// mapping is the only shared mutable structure and is backed by a
// lock-free concurrent map so reads under heavy trigger fan-out don't
// contend with each other; operations on it do no I/O while "under lock".
type Scheduler struct {
	store       Store
	runner      *engine.Runner
	loopFactory LoopFactory

	loops *xsync.MapOf[string, *loopHandle]
}

// New builds a Scheduler. store loads flow definitions, runner executes
// them, loopFactory builds the concrete trigger loop(s) for a flow's
// configured trigger nodes.
func New(store Store, runner *engine.Runner, loopFactory LoopFactory) *Scheduler {
	return &Scheduler{
		store:       store,
		runner:      runner,
		loopFactory: loopFactory,
		loops:       xsync.NewMapOf[string, *loopHandle](),
	}
}

// StartAll reads every enabled flow from the store and starts its loop.
func (s *Scheduler) StartAll(ctx context.Context) error {
	flows, err := s.store.ListFlows(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: list flows: %w", err)
	}
	for _, flow := range flows {
		if !flow.Enabled {
			continue
		}
		if err := s.startFlow(ctx, flow); err != nil {
			log.Error().Err(err).Str("flow_id", flow.ID).Msg("failed to start trigger loop")
		}
	}
	return nil
}

// RestartFlow stops the flow's existing loop, awaiting its termination,
// and — if the flow is still enabled — starts a fresh one. At most one
// loop per flow exists at any instant.
func (s *Scheduler) RestartFlow(ctx context.Context, flowID string) error {
	s.stopFlow(flowID)

	flow, err := s.store.GetFlow(ctx, flowID)
	if err != nil {
		return fmt.Errorf("scheduler: get flow %s: %w", flowID, err)
	}
	if !flow.Enabled {
		return nil
	}
	return s.startFlow(ctx, flow)
}

// StopFlow stops the flow's loop, if any, and forgets it.
func (s *Scheduler) StopFlow(flowID string) {
	s.stopFlow(flowID)
}

// CancelRun fires the cancellation token of an in-flight run, started via
// either a trigger loop or SubmitRun. Returns false if runID isn't
// currently running.
func (s *Scheduler) CancelRun(runID string) bool {
	return s.runner.CancelRun(runID)
}

// SubmitRun bypasses the trigger loop entirely and executes flow
// directly with initialContext — the path manual-trigger endpoints use.
func (s *Scheduler) SubmitRun(ctx context.Context, flow domain.Flow, initialContext map[string]string) (domain.Run, error) {
	return s.runner.Execute(ctx, flow, recorder.TriggerInfo{Kind: "manual"}, initialContext)
}

func (s *Scheduler) startFlow(ctx context.Context, flow domain.Flow) error {
	dispatch := func(dispatchCtx context.Context, initialContext map[string]string) {
		kind := "trigger"
		if len(flow.Nodes) > 0 {
			for _, n := range flow.Nodes {
				if n.Type == domain.NodeTypeTrigger {
					kind = n.Kind
					break
				}
			}
		}
		if _, err := s.runner.Execute(dispatchCtx, flow, recorder.TriggerInfo{Kind: kind}, initialContext); err != nil {
			log.Error().Err(err).Str("flow_id", flow.ID).Msg("triggered run rejected")
		}
	}

	loop, err := s.loopFactory(flow, dispatch)
	if err != nil {
		return fmt.Errorf("build trigger loop for flow %s: %w", flow.ID, err)
	}
	if loop == nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	handle := &loopHandle{cancel: cancel, done: make(chan struct{})}
	s.loops.Store(flow.ID, handle)

	go func() {
		defer close(handle.done)
		loop.Run(loopCtx)
	}()
	return nil
}

func (s *Scheduler) stopFlow(flowID string) {
	handle, ok := s.loops.LoadAndDelete(flowID)
	if !ok {
		return
	}
	handle.cancel()
	<-handle.done
}
