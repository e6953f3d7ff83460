package trigger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookTriggerDispatchesDecodedPayload(t *testing.T) {
	var mu sync.Mutex
	var got map[string]string
	dispatched := make(chan struct{})

	wh := WebhookTrigger{
		Path: "/hooks/demo",
		Dispatch: func(_ context.Context, initialContext map[string]string) {
			mu.Lock()
			got = initialContext
			mu.Unlock()
			close(dispatched)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/hooks/demo", strings.NewReader(`{"item_id":"42"}`))
	rec := httptest.NewRecorder()
	wh.Handler()(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-dispatched:
	case <-time.After(time.Second):
		t.Fatal("dispatch was not called")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "42", got["item_id"])
}

func TestWebhookTriggerRejectsWrongMethod(t *testing.T) {
	wh := WebhookTrigger{Path: "/hooks/demo", Dispatch: func(context.Context, map[string]string) {}}

	req := httptest.NewRequest(http.MethodGet, "/hooks/demo", nil)
	rec := httptest.NewRecorder()
	wh.Handler()(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookTriggerRejectsMalformedBody(t *testing.T) {
	wh := WebhookTrigger{Path: "/hooks/demo", Dispatch: func(context.Context, map[string]string) {}}

	req := httptest.NewRequest(http.MethodPost, "/hooks/demo", strings.NewReader(`{"nested": {"not": "flat"}}`))
	rec := httptest.NewRecorder()
	wh.Handler()(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
