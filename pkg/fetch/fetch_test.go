package fetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ksenzov/askbase/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(title, body, links string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body><main>%s</main>%s</body></html>`, title, body, links)
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page("Home", "Welcome to the docs.",
			`<a href="/guide">guide</a><a href="/private/secret">secret</a><a href="https://elsewhere.example/x">external</a>`))
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page("Guide", "How to configure the product.", `<a href="/guide#section">anchor</a>`))
	})
	mux.HandleFunc("/private/secret", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page("Secret", "Should never be fetched.", ""))
	})

	return server
}

func TestFetcher_Crawl(t *testing.T) {
	server := newSite(t)

	fetcher, err := fetch.NewWithConfig(fetch.FetcherConfig{
		BaseURL:        server.URL,
		MaxDepth:       2,
		RateLimit:      100,
		IgnorePatterns: []string{"/private/"},
	})
	require.NoError(t, err)

	pages, err := fetcher.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	byTitle := make(map[string]fetch.Page)
	for _, p := range pages {
		byTitle[p.Title] = p
	}

	assert.Contains(t, byTitle, "Home")
	assert.Contains(t, byTitle, "Guide")
	assert.NotContains(t, byTitle, "Secret")
	assert.Contains(t, byTitle["Guide"].Content, "How to configure the product.")
}

func TestFetcher_Crawl_StaysOnHost(t *testing.T) {
	server := newSite(t)

	var visited []string
	fetcher, err := fetch.NewWithConfig(fetch.FetcherConfig{
		BaseURL:   server.URL,
		MaxDepth:  3,
		RateLimit: 100,
		OnProgress: func(url string) {
			visited = append(visited, url)
		},
	})
	require.NoError(t, err)

	_, err = fetcher.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)

	for _, url := range visited {
		assert.NotContains(t, url, "elsewhere.example")
	}
}

func TestFetcher_Crawl_RespectsMaxDepth(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	// A chain: /0 -> /1 -> /2 -> /3 ...
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var depth int
		fmt.Sscanf(r.URL.Path, "/%d", &depth)
		fmt.Fprint(w, page(r.URL.Path, "content", fmt.Sprintf(`<a href="/%d">next</a>`, depth+1)))
	})

	fetcher, err := fetch.NewWithConfig(fetch.FetcherConfig{
		BaseURL:   server.URL,
		MaxDepth:  2,
		RateLimit: 100,
	})
	require.NoError(t, err)

	pages, err := fetcher.Crawl(context.Background(), server.URL+"/0")
	require.NoError(t, err)

	// Depths 0, 1 and 2 are visited; depth 3 is past the limit.
	assert.Len(t, pages, 3)
}

func TestFetcher_Crawl_RootFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher, err := fetch.NewWithConfig(fetch.FetcherConfig{
		BaseURL:   server.URL,
		RateLimit: 100,
	})
	require.NoError(t, err)

	_, err = fetcher.Crawl(context.Background(), server.URL+"/")
	assert.Error(t, err)
}
