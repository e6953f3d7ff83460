package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowlayer/flowengine/internal/domain"
)

// MemoryRecorder is the default Recorder: an in-process, mutex-guarded
// map of run records. Grounded on the mutex-guarded id-keyed map pattern
// used for the in-memory workflow/execution store upstream.
type MemoryRecorder struct {
	mu   sync.Mutex
	runs map[string]*domain.Run
}

// NewMemoryRecorder returns an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{runs: make(map[string]*domain.Run)}
}

func (m *MemoryRecorder) BeginRun(_ context.Context, flowID string, _ TriggerInfo) (string, error) {
	runID := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID] = &domain.Run{
		ID:        runID,
		FlowID:    flowID,
		StartedAt: time.Now(),
		Status:    domain.RunStatusRunning,
		Nodes:     make(map[string]domain.NodeRecord),
	}
	return runID, nil
}

func (m *MemoryRecorder) UpdateNode(_ context.Context, runID, nodeID string, status domain.NodeStatus, errMessage, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("unknown run %s", runID)
	}
	rec := run.Nodes[nodeID]
	if rec.Status == "" {
		rec.StartedAt = time.Now()
	}
	rec.Status = status
	rec.ErrorMessage = errMessage
	if status != domain.NodeStatusRunning {
		rec.FinishedAt = time.Now()
	}
	run.Nodes[nodeID] = rec
	return nil
}

func (m *MemoryRecorder) FinishRun(_ context.Context, runID string, status domain.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("unknown run %s", runID)
	}
	run.Status = status
	run.FinishedAt = time.Now()
	return nil
}

// Get returns a copy of the run record, for tests and status queries.
func (m *MemoryRecorder) Get(runID string) (domain.Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return domain.Run{}, false
	}
	return *run, true
}
