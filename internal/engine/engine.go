// Package engine implements the flow runner (C4): executing one flow
// instance level by level, nodes within a level in parallel, merging
// per-node outputs via the NodeOutput algebra and propagating failures.
// Grounded on the plan -> execute-waves -> execute-wave phased shape of a
// wave-based workflow engine, restructured around the simpler NodeOutput
// tagged union in place of a generic variable-bound execution state.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/graph"
	"github.com/flowlayer/flowengine/internal/observability"
	"github.com/flowlayer/flowengine/internal/recorder"
	"github.com/flowlayer/flowengine/internal/runner"
)

// DefaultMaxParallelPerLevel bounds how many node tasks run concurrently
// within a single level when a Runner's options don't override it.
const DefaultMaxParallelPerLevel = 8

// Runner executes flows against a shared node-runner registry and run
// recorder. It owns no per-flow state beyond the cancellation registry
// below; every Execute call is otherwise independent.
type Runner struct {
	Registry    *runner.Registry
	Recorder    recorder.Recorder
	MaxParallel int
	Tracer      observability.Tracer

	cancelMu sync.Mutex
	cancel   map[string]context.CancelFunc
}

// NewRunner builds a flow Runner with the given registry and recorder,
// using DefaultMaxParallelPerLevel and a no-op tracer.
func NewRunner(reg *runner.Registry, rec recorder.Recorder) *Runner {
	return &Runner{
		Registry:    reg,
		Recorder:    rec,
		MaxParallel: DefaultMaxParallelPerLevel,
		Tracer:      observability.NoopTracer{},
		cancel:      make(map[string]context.CancelFunc),
	}
}

// CancelRun fires the cancellation token of an in-flight run, honored at
// the next level boundary per the flow runner's cancellation contract.
// Returns false if runID isn't currently running.
func (r *Runner) CancelRun(runID string) bool {
	r.cancelMu.Lock()
	cancel, ok := r.cancel[runID]
	r.cancelMu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Execute validates flow, lays it out into levels, then runs each level's
// nodes concurrently with a hard barrier between levels, exactly per the
// flow runner's five-step algorithm. initialContext seeds the trigger
// node's merged input directly, since a trigger node has no parents to
// merge from.
func (r *Runner) Execute(ctx context.Context, flow domain.Flow, trigger recorder.TriggerInfo, initialContext map[string]string) (domain.Run, error) {
	sorted, err := graph.TopoSort(flow.Nodes, flow.Edges)
	if err != nil {
		return domain.Run{}, domain.NewEngineError(domain.ErrInvalidGraph, fmt.Sprintf("flow %s failed validation", flow.ID), err)
	}
	if len(flow.Nodes) == 0 {
		return domain.Run{}, domain.NewEngineError(domain.ErrInvalidGraph, fmt.Sprintf("flow %s has no nodes", flow.ID), nil)
	}
	present := make(map[string]bool, len(flow.Nodes))
	for _, n := range flow.Nodes {
		present[n.ID] = true
	}
	for _, e := range flow.Edges {
		if !present[e.From] || !present[e.To] {
			return domain.Run{}, domain.NewEngineError(domain.ErrInvalidGraph, fmt.Sprintf("flow %s: edge %s references a missing node", flow.ID, e.ID), nil)
		}
	}

	_, parents := graph.BuildAdjacency(flow.Nodes, flow.Edges)
	levels := graph.ComputeLevels(sorted, parents)

	runID, err := r.Recorder.BeginRun(ctx, flow.ID, trigger)
	if err != nil {
		return domain.Run{}, domain.NewEngineError(domain.ErrNodeRun, "recorder refused to begin run", err)
	}
	runSpan, ctx := r.Tracer.StartRun(ctx, flow.ID, runID)
	defer runSpan.End()

	ctx, cancel := context.WithCancel(ctx)
	r.cancelMu.Lock()
	r.cancel[runID] = cancel
	r.cancelMu.Unlock()
	defer func() {
		r.cancelMu.Lock()
		delete(r.cancel, runID)
		r.cancelMu.Unlock()
		cancel()
	}()

	outputs := make(map[string]domain.NodeOutput, len(flow.Nodes))
	nodesByID := make(map[string]domain.Node, len(flow.Nodes))
	for _, n := range flow.Nodes {
		nodesByID[n.ID] = n
	}

	maxParallel := r.MaxParallel
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallelPerLevel
	}

	var runErr error
	for _, level := range levels {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}
		r.executeLevel(ctx, runID, level, nodesByID, parents, outputs, initialContext, maxParallel)
	}

	status := r.terminalStatus(levels, nodesByID, parents, outputs)
	if runErr != nil {
		status = domain.RunStatusCanceled
	}
	if err := r.Recorder.FinishRun(ctx, runID, status); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("recorder failed to finish run")
	}

	return domain.Run{ID: runID, FlowID: flow.ID, Status: status}, nil
}

// executeLevel runs one concurrent task per node in level, gathering each
// node's parent outputs, merging them, and invoking the registered runner
// unless the merge short-circuits to Failed.
func (r *Runner) executeLevel(
	ctx context.Context,
	runID string,
	level []string,
	nodesByID map[string]domain.Node,
	parents map[string][]string,
	outputs map[string]domain.NodeOutput,
	initialContext map[string]string,
	maxParallel int,
) {
	if maxParallel > len(level) {
		maxParallel = len(level)
	}
	if maxParallel <= 0 {
		maxParallel = 1
	}
	sem := make(chan struct{}, maxParallel)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, nodeID := range level {
		wg.Add(1)
		go func(nodeID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			node := nodesByID[nodeID]
			mu.Lock()
			parentOutputs := make([]domain.NodeOutput, 0, len(parents[nodeID]))
			for _, p := range parents[nodeID] {
				parentOutputs = append(parentOutputs, outputs[p])
			}
			mu.Unlock()

			var merged domain.NodeOutput
			if len(parents[nodeID]) == 0 && node.Type == domain.NodeTypeTrigger {
				merged = domain.NewContext(initialContext)
			} else {
				merged = domain.Merge(parentOutputs)
			}

			out, status, errMsg := r.runNode(ctx, runID, node, merged)

			mu.Lock()
			outputs[nodeID] = out
			mu.Unlock()

			if err := r.Recorder.UpdateNode(ctx, runID, nodeID, status, errMsg, domain.AsText(out, nil)); err != nil {
				log.Error().Err(err).Str("run_id", runID).Str("node_id", nodeID).Msg("recorder failed to update node")
			}
		}(nodeID)
	}
	wg.Wait()
}

// runNode executes a single node against its merged input, implementing
// step 3.b/3.c of the flow runner algorithm: Failed input short-circuits
// to a skip, a runner error poisons the node's output, cancellation is
// recorded distinctly from a plain runner failure.
func (r *Runner) runNode(ctx context.Context, runID string, node domain.Node, merged domain.NodeOutput) (domain.NodeOutput, domain.NodeStatus, string) {
	if merged.Kind == domain.OutputFailed {
		return domain.Failed, domain.NodeStatusSkipped, ""
	}

	if err := r.Recorder.UpdateNode(ctx, runID, node.ID, domain.NodeStatusRunning, "", ""); err != nil {
		log.Error().Err(err).Str("run_id", runID).Str("node_id", node.ID).Msg("recorder failed to mark node running")
	}

	run, ok := r.Registry.Lookup(node.Kind)
	if !ok {
		msg := fmt.Sprintf("no runner registered for kind %q", node.Kind)
		return domain.Failed, domain.NodeStatusFailed, msg
	}

	nodeSpan, nodeCtx := r.Tracer.StartNode(ctx, runID, node.ID)
	out, err := run.Run(nodeCtx, node.Config, merged)
	nodeSpan.End()

	if err != nil {
		if ctx.Err() != nil {
			return domain.Failed, domain.NodeStatusCanceled, err.Error()
		}
		return domain.Failed, domain.NodeStatusFailed, err.Error()
	}
	return out, domain.NodeStatusSucceeded, ""
}

// terminalStatus computes the run's final status: failed if every leaf
// (a node with no children among flow nodes reached this run) is Failed,
// success if none failed or were skipped, partial otherwise.
func (r *Runner) terminalStatus(
	levels [][]string,
	nodesByID map[string]domain.Node,
	parents map[string][]string,
	outputs map[string]domain.NodeOutput,
) domain.RunStatus {
	hasChild := make(map[string]bool, len(nodesByID))
	for _, ps := range parents {
		for _, p := range ps {
			hasChild[p] = true
		}
	}

	var leaves []string
	for id := range nodesByID {
		if !hasChild[id] {
			leaves = append(leaves, id)
		}
	}

	anyFailedOrSkipped := false
	for _, out := range outputs {
		if out.Kind == domain.OutputFailed {
			anyFailedOrSkipped = true
			break
		}
	}
	if !anyFailedOrSkipped {
		return domain.RunStatusSuccess
	}

	allLeavesFailed := len(leaves) > 0
	for _, id := range leaves {
		if outputs[id].Kind != domain.OutputFailed {
			allLeavesFailed = false
			break
		}
	}
	if allLeavesFailed {
		return domain.RunStatusFailed
	}
	return domain.RunStatusPartial
}
