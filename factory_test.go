package flowengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/runner"
	"github.com/flowlayer/flowengine/internal/trigger"
)

func noopDispatch(context.Context, map[string]string) {}

func TestLoopFactoryBuildsPollingLoopFromConfig(t *testing.T) {
	flow := domain.Flow{
		ID: "f1",
		Nodes: []domain.Node{
			{
				ID:   "t1",
				Type: domain.NodeTypeTrigger,
				Kind: runner.KindPollingTrigger,
				Config: map[string]any{
					"url":           "http://example.invalid/{scope}",
					"scopes":        []any{"repo-a", "repo-b"},
					"poll_interval": "5s",
				},
			},
		},
	}

	factory := NewLoopFactory(30 * time.Second)
	loop, err := factory(flow, noopDispatch)
	require.NoError(t, err)
	require.NotNil(t, loop)

	pl, ok := loop.(*trigger.PollingLoop)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, pl.PollInterval)
	assert.Equal(t, []string{"repo-a", "repo-b"}, pl.Scopes)
}

func TestLoopFactoryPollingTriggerUsesDefaultInterval(t *testing.T) {
	flow := domain.Flow{
		ID: "f1",
		Nodes: []domain.Node{
			{ID: "t1", Type: domain.NodeTypeTrigger, Kind: runner.KindPollingTrigger, Config: map[string]any{"url": "http://example.invalid"}},
		},
	}

	factory := NewLoopFactory(7 * time.Second)
	loop, err := factory(flow, noopDispatch)
	require.NoError(t, err)
	require.NotNil(t, loop)

	pl, ok := loop.(*trigger.PollingLoop)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, pl.PollInterval)
	assert.Equal(t, []string{"default"}, pl.Scopes)
}

func TestLoopFactoryWebhookTriggerHasNoManagedLoop(t *testing.T) {
	flow := domain.Flow{
		ID: "f1",
		Nodes: []domain.Node{
			{ID: "t1", Type: domain.NodeTypeTrigger, Kind: runner.KindWebhookTrigger, Config: map[string]any{"path": "/hooks/demo"}},
		},
	}

	factory := NewLoopFactory(30 * time.Second)
	loop, err := factory(flow, noopDispatch)
	require.NoError(t, err)
	assert.Nil(t, loop)
}
