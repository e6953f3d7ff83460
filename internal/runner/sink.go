package runner

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flowlayer/flowengine/internal/domain"
)

// StdoutSink writes the richest projection of its input to the process
// log at info level and returns Empty. Useful as a default/demo sink and
// in tests that don't want a network dependency.
type StdoutSink struct {
	Formatter domain.ItemFormatter
}

func (s StdoutSink) Run(_ context.Context, _ map[string]any, input domain.NodeOutput) (domain.NodeOutput, error) {
	log.Info().Str("sink", "stdout").Msg(domain.AsText(input, s.Formatter))
	return domain.Empty, nil
}

// WebhookSink delivers the text projection of its input as the body of a
// POST to config["url"]. Delivery is at-least-once; sinks are not
// expected to deduplicate.
type WebhookSink struct {
	Client    *http.Client
	Formatter domain.ItemFormatter
}

func (s WebhookSink) Run(ctx context.Context, config map[string]any, input domain.NodeOutput) (domain.NodeOutput, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return domain.Empty, fmt.Errorf("webhook-sink requires config[\"url\"]")
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	body := domain.AsText(input, s.Formatter)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return domain.Empty, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := client.Do(req)
	if err != nil {
		return domain.Empty, fmt.Errorf("deliver to %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.Empty, fmt.Errorf("deliver to %s: status %d", url, resp.StatusCode)
	}
	return domain.Empty, nil
}
