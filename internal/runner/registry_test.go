package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlayer/flowengine/internal/domain"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("noop", RunnerFunc(func(_ context.Context, _ map[string]any, in domain.NodeOutput) (domain.NodeOutput, error) {
		return in, nil
	}))
	require.NoError(t, err)

	r, ok := reg.Lookup("noop")
	require.True(t, ok)
	out, err := r.Run(context.Background(), nil, domain.NewText("x", nil))
	require.NoError(t, err)
	assert.Equal(t, "x", out.Text)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicateKind(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("k", RunnerFunc(func(ctx context.Context, c map[string]any, i domain.NodeOutput) (domain.NodeOutput, error) {
		return domain.Empty, nil
	})))
	err := reg.Register("k", RunnerFunc(func(ctx context.Context, c map[string]any, i domain.NodeOutput) (domain.NodeOutput, error) {
		return domain.Empty, nil
	}))
	assert.Error(t, err)
}

func TestExprFilterKeepsMatchingItems(t *testing.T) {
	f := ExprFilter{}
	input := domain.NewItems([]domain.ContentItem{
		{Title: "release v1"},
		{Title: "draft"},
	})
	out, err := f.Run(context.Background(), map[string]any{"condition": `title startsWith "release"`}, input)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "release v1", out.Items[0].Title)
}

func TestExprFilterPassthroughWhenNoCondition(t *testing.T) {
	f := ExprFilter{}
	input := domain.NewItems([]domain.ContentItem{{Title: "a"}})
	out, err := f.Run(context.Background(), nil, input)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestRegisterDefaultsWiresAllBuiltinKinds(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterDefaults(reg))
	for _, kind := range []string{
		KindManualTrigger, KindTimerTrigger, KindPollingTrigger, KindWebhookTrigger,
		KindHTTPPoll, KindExprFilter,
		KindAssistantCLI, KindOpenAIChat, KindStdoutSink, KindWebhookSink,
	} {
		_, ok := reg.Lookup(kind)
		assert.True(t, ok, "kind %s should be registered", kind)
	}
}
