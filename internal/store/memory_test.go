package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlayer/flowengine/internal/domain"
)

func TestMemoryStoreSaveAndGetFlow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	flow := domain.Flow{ID: "f1", Name: "demo", Enabled: true}
	require.NoError(t, s.SaveFlow(ctx, flow))

	got, err := s.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, flow, got)

	_, err = s.GetFlow(ctx, "missing")
	assert.Error(t, err)
}

func TestMemoryStoreListFlowsAndRuns(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveFlow(ctx, domain.Flow{ID: "a"}))
	require.NoError(t, s.SaveFlow(ctx, domain.Flow{ID: "b"}))
	flows, err := s.ListFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 2)

	require.NoError(t, s.SaveRun(ctx, domain.Run{ID: "r1", FlowID: "a"}))
	require.NoError(t, s.SaveRun(ctx, domain.Run{ID: "r2", FlowID: "a"}))
	runs, err := s.ListRuns(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
