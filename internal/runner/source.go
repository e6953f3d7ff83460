package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flowlayer/flowengine/internal/domain"
)

// HTTPPollSource is a reference source adapter: it GETs a JSON array of
// items from config["url"], honoring "since"/"limit" keys copied from the
// merged Context input, and returns them as Items. Concrete production
// sources (RSS, scraping, third-party APIs) are external collaborators
// the engine only consumes through the Runner interface; this is a
// minimal, real implementation of that interface for end-to-end use.
type HTTPPollSource struct {
	Client *http.Client
}

type httpSourceItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Summary   string `json:"summary"`
	Timestamp *int64 `json:"timestamp"`
	Image     string `json:"image"`
}

func (s HTTPPollSource) Run(ctx context.Context, config map[string]any, input domain.NodeOutput) (domain.NodeOutput, error) {
	url, _ := config["url"].(string)
	if url == "" {
		return domain.Empty, fmt.Errorf("http-poll source requires config[\"url\"]")
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	vars := domain.AsContext(input)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Empty, err
	}
	q := req.URL.Query()
	if since, ok := vars["since"]; ok {
		q.Set("since", since)
	}
	if limit, ok := vars["limit"]; ok {
		q.Set("limit", limit)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := client.Do(req)
	if err != nil {
		return domain.Empty, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.Empty, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	var raw []httpSourceItem
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Empty, fmt.Errorf("decode response from %s: %w", url, err)
	}

	items := make([]domain.ContentItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, domain.ContentItem{
			Title:     r.Title,
			URL:       r.URL,
			Summary:   r.Summary,
			Timestamp: r.Timestamp,
			Image:     r.Image,
		})
	}
	return domain.NewItems(items), nil
}
