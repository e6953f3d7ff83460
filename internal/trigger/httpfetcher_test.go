package trigger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPItemFetcherDecodesItemsAndSubstitutesScope(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","payload":{"title":"A"}},{"id":"2"}]`))
	}))
	defer server.Close()

	fetcher := HTTPItemFetcher{URL: server.URL + "/{scope}/items"}
	items, err := fetcher.FetchItems(context.Background(), "repo-a")
	require.NoError(t, err)

	assert.Equal(t, "/repo-a/items", gotPath)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "A", items[0].Payload["title"])
	assert.Equal(t, "2", items[1].ID)
}

func TestHTTPItemFetcherRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := HTTPItemFetcher{URL: server.URL}
	_, err := fetcher.FetchItems(context.Background(), "repo-a")
	assert.Error(t, err)
}

func TestHTTPItemFetcherRequiresURL(t *testing.T) {
	fetcher := HTTPItemFetcher{}
	_, err := fetcher.FetchItems(context.Background(), "repo-a")
	assert.Error(t, err)
}
