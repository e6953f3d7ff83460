package trigger

import (
	"context"
	"encoding/json"
	"net/http"
)

// WebhookTrigger registers a URL path with the external HTTP surface;
// each inbound request is converted to a context and submitted as a run.
// Deduplication, if any, is the responsibility of the concrete webhook
// handler, not the trigger loop. Grounded on the HTTPConfig{Path,Method}
// + Handler(fn) shape of a prior HTTP-trigger adapter.
type WebhookTrigger struct {
	Path     string
	Method   string
	Dispatch DispatchFunc
}

// Handler returns an http.HandlerFunc that decodes the request body as a
// flat string-keyed JSON object, submits it as the initial context of one
// run, and responds 202 Accepted. A method mismatch yields 405; a body
// that isn't a flat string map yields 400.
func (w WebhookTrigger) Handler() http.HandlerFunc {
	method := w.Method
	if method == "" {
		method = http.MethodPost
	}
	return func(rw http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload map[string]string
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			http.Error(rw, "invalid webhook payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		// req.Context() is canceled the instant this handler returns, which
		// happens right after WriteHeader below — detach so the dispatched
		// run's cancellation is governed only by cancel_run, not by this
		// request's lifetime.
		go w.Dispatch(context.WithoutCancel(req.Context()), payload)
		rw.WriteHeader(http.StatusAccepted)
	}
}
