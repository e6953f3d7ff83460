package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowlayer/flowengine/internal/domain"
)

// MemoryStore is the default Store: mutex-guarded, process-lifetime
// maps. Grounded on the id-keyed map store upstream workflow persistence
// uses for its in-memory backend.
type MemoryStore struct {
	mu    sync.RWMutex
	flows map[string]domain.Flow
	runs  map[string][]domain.Run
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flows: make(map[string]domain.Flow),
		runs:  make(map[string][]domain.Run),
	}
}

func (s *MemoryStore) ListFlows(context.Context) ([]domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		out = append(out, f)
	}
	return out, nil
}

func (s *MemoryStore) GetFlow(_ context.Context, id string) (domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flows[id]
	if !ok {
		return domain.Flow{}, fmt.Errorf("flow not found: %s", id)
	}
	return f, nil
}

func (s *MemoryStore) SaveFlow(_ context.Context, flow domain.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.ID] = flow
	return nil
}

func (s *MemoryStore) ListRuns(_ context.Context, flowID string) ([]domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Run, len(s.runs[flowID]))
	copy(out, s.runs[flowID])
	return out, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.FlowID] = append(s.runs[run.FlowID], run)
	return nil
}
