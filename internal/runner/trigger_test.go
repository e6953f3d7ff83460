package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowlayer/flowengine/internal/domain"
)

func TestItemTriggerPassesInputThrough(t *testing.T) {
	in := domain.NewContext(map[string]string{"item_id": "42", "scope": "repo"})
	out, err := ItemTrigger{}.Run(context.Background(), map[string]any{"path": "/hooks/demo"}, in)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}
