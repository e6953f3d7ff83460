package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlayer/flowengine/internal/domain"
)

// The assistant CLI's stream-json output is a flat object per line: type,
// result, total_cost_usd and num_turns all sit on the same top-level
// envelope. This drives a shell that echoes that exact shape rather than
// spawning a real assistant process.
func TestAssistantCLIExecutorParsesFlatResultEnvelope(t *testing.T) {
	script := `printf '%s\n' ` +
		`'{"type":"system"}' ` +
		`'{"type":"assistant","result":"partial, ignored"}' ` +
		`'{"type":"result","result":"the answer","total_cost_usd":0.042,"num_turns":3,"duration_ms":1500}'`

	e := AssistantCLIExecutor{Command: "sh", Args: []string{"-c", script}}
	out, err := e.Run(context.Background(), map[string]any{"prompt": "ignored, no prompt templating in this path"}, domain.Empty)
	require.NoError(t, err)

	assert.Equal(t, "the answer", out.Text)
	require.NotNil(t, out.Result)
	assert.Equal(t, 0.042, out.Result.Cost)
	assert.Equal(t, 3, out.Result.Turns)
	assert.Equal(t, 1.5, out.Result.Duration)
}

func TestAssistantCLIExecutorReturnsEmptyTextWithNoResultLine(t *testing.T) {
	e := AssistantCLIExecutor{Command: "sh", Args: []string{"-c", `printf '%s\n' '{"type":"system"}'`}}
	out, err := e.Run(context.Background(), nil, domain.Empty)
	require.NoError(t, err)
	assert.Equal(t, "", out.Text)
	assert.Nil(t, out.Result)
}

func TestAssistantCLIExecutorWrapsNonZeroExit(t *testing.T) {
	e := AssistantCLIExecutor{Command: "sh", Args: []string{"-c", "exit 1"}}
	_, err := e.Run(context.Background(), nil, domain.Empty)
	require.Error(t, err)
	var engErr *domain.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, domain.ErrNodeRun, engErr.Code)
}
