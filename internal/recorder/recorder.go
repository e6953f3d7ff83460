// Package recorder implements the Run recorder capability (C7): the
// abstract interface the flow runner calls to record run start/finish and
// per-node status, plus concrete in-memory and Postgres-backed
// implementations and a fan-out composer modeled on an observer-manager
// pattern for workflow execution monitoring.
package recorder

import (
	"context"

	"github.com/flowlayer/flowengine/internal/domain"
)

// TriggerInfo describes what caused a run to begin, recorded alongside it.
type TriggerInfo struct {
	Kind string // "manual" for SubmitRun, else the trigger node's kind (e.g. "timer-trigger", "polling-trigger", "webhook-trigger")
	Note string
}

// Recorder is the abstract capability the flow runner calls to persist
// run lifecycle events. BeginRun must return before the first node
// starts; FinishRun must be called exactly once per accepted run, even on
// panic (the caller is responsible for the scoped guarantee via defer).
type Recorder interface {
	BeginRun(ctx context.Context, flowID string, trigger TriggerInfo) (runID string, err error)
	UpdateNode(ctx context.Context, runID, nodeID string, status domain.NodeStatus, errMessage string, outputSummary string) error
	FinishRun(ctx context.Context, runID string, status domain.RunStatus) error
}

// ExecutionObserver is the richer, event-granular lifecycle interface
// fan-out recorders notify, one method per event kind, matching the
// observer pattern upstream workflow engines of this shape use to let
// logging/metrics/websocket backends react to execution without the
// engine core knowing about any of them.
type ExecutionObserver interface {
	OnRunStarted(flowID, runID string, trigger TriggerInfo)
	OnRunFinished(flowID, runID string, status domain.RunStatus)
	OnNodeStarted(runID, nodeID string)
	OnNodeFinished(runID, nodeID string, status domain.NodeStatus, errMessage string)
}
