package recorder

import (
	"context"
	"sync"

	"github.com/flowlayer/flowengine/internal/domain"
)

// FanOut is a Recorder that persists through a primary Recorder and also
// notifies any number of ExecutionObservers of the same events — the
// observer-manager pattern this engine's execution monitoring is modeled
// on, narrowed to the four lifecycle events the flow runner actually
// emits.
type FanOut struct {
	primary   Recorder
	mu        sync.RWMutex
	observers []ExecutionObserver

	// flowOf remembers each run's flow id so OnRunFinished can report it
	// without threading an extra parameter through FinishRun's signature.
	flowMu sync.Mutex
	flowOf map[string]string
}

// NewFanOut wraps primary, notifying observers on every call.
func NewFanOut(primary Recorder, observers ...ExecutionObserver) *FanOut {
	return &FanOut{primary: primary, observers: observers, flowOf: make(map[string]string)}
}

// AddObserver registers an additional observer at runtime.
func (f *FanOut) AddObserver(o ExecutionObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

func (f *FanOut) BeginRun(ctx context.Context, flowID string, trigger TriggerInfo) (string, error) {
	runID, err := f.primary.BeginRun(ctx, flowID, trigger)
	if err != nil {
		return "", err
	}
	f.flowMu.Lock()
	f.flowOf[runID] = flowID
	f.flowMu.Unlock()

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, o := range f.observers {
		o.OnRunStarted(flowID, runID, trigger)
	}
	return runID, nil
}

func (f *FanOut) UpdateNode(ctx context.Context, runID, nodeID string, status domain.NodeStatus, errMessage, outputSummary string) error {
	if err := f.primary.UpdateNode(ctx, runID, nodeID, status, errMessage, outputSummary); err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, o := range f.observers {
		if status == domain.NodeStatusRunning {
			o.OnNodeStarted(runID, nodeID)
		} else {
			o.OnNodeFinished(runID, nodeID, status, errMessage)
		}
	}
	return nil
}

func (f *FanOut) FinishRun(ctx context.Context, runID string, status domain.RunStatus) error {
	if err := f.primary.FinishRun(ctx, runID, status); err != nil {
		return err
	}
	f.flowMu.Lock()
	flowID := f.flowOf[runID]
	delete(f.flowOf, runID)
	f.flowMu.Unlock()

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, o := range f.observers {
		o.OnRunFinished(flowID, runID, status)
	}
	return nil
}
