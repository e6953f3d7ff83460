package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPItemFetcher is a reference ItemFetcher: it GETs a JSON array of
// {id, payload} objects from URL, substituting "{scope}" with the scope
// being polled. Concrete production fetchers (a specific third-party
// API's pagination/auth) are external collaborators the loop only
// consumes through the ItemFetcher interface; this is a minimal, real
// implementation of that interface for end-to-end use — mirroring the
// shape of this module's own runner.HTTPPollSource source adapter.
type HTTPItemFetcher struct {
	Client *http.Client
	URL    string
}

type httpFetchedItem struct {
	ID      string            `json:"id"`
	Payload map[string]string `json:"payload"`
}

func (f HTTPItemFetcher) FetchItems(ctx context.Context, scope string) ([]Item, error) {
	if f.URL == "" {
		return nil, fmt.Errorf("http item fetcher requires a URL")
	}
	url := strings.ReplaceAll(f.URL, "{scope}", scope)

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	var raw []httpFetchedItem
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", url, err)
	}

	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, Item{ID: r.ID, Payload: r.Payload})
	}
	return items, nil
}
