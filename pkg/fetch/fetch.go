package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Page is one fetched HTML page, reduced to its readable text.
type Page struct {
	URL     string
	Title   string
	Content string
}

// FetcherConfig represents the configuration for the page fetcher.
type FetcherConfig struct {
	BaseURL        string
	MaxDepth       int
	RateLimit      float64 // requests per second
	IgnorePatterns []string
	Timeout        time.Duration
	OnProgress     func(url string)
}

// Fetcher crawls a documentation site, staying on the starting host
// and within the configured depth, and extracts the main content of
// each page for ingestion.
type Fetcher struct {
	config   FetcherConfig
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
}

func NewWithConfig(config FetcherConfig) (*Fetcher, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	parsedURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: parsedURL.Host,
	}, nil
}

// Crawl walks the site starting at startURL and returns the pages it
// collected. Individual page failures are skipped, not fatal.
func (f *Fetcher) Crawl(ctx context.Context, startURL string) ([]Page, error) {
	var pages []Page
	if err := f.crawl(ctx, startURL, 0, &pages); err != nil {
		return pages, err
	}
	return pages, nil
}

func (f *Fetcher) crawl(ctx context.Context, pageURL string, depth int, pages *[]Page) error {
	if depth > f.config.MaxDepth || f.visited[pageURL] {
		return nil
	}
	if !f.shouldVisit(pageURL) {
		return nil
	}

	f.visited[pageURL] = true
	if f.config.OnProgress != nil {
		f.config.OnProgress(pageURL)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	*pages = append(*pages, Page{
		URL:     pageURL,
		Title:   strings.TrimSpace(doc.Find("title").Text()),
		Content: extractMainContent(doc),
	})

	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		link, err := url.Parse(href)
		if err != nil {
			return
		}
		if !link.IsAbs() {
			base, err := url.Parse(pageURL)
			if err != nil {
				return
			}
			link = base.ResolveReference(link)
		}
		link.Fragment = ""

		// Page failures below the root are skipped, not propagated.
		_ = f.crawl(ctx, link.String(), depth+1, pages)
	})

	return nil
}

func (f *Fetcher) shouldVisit(pageURL string) bool {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false
	}
	if parsedURL.Host != f.baseHost {
		return false
	}

	for _, pattern := range f.config.IgnorePatterns {
		if strings.Contains(pageURL, pattern) {
			return false
		}
	}
	return true
}

func extractMainContent(doc *goquery.Document) string {
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}
	if content == "" {
		content = doc.Find("body").Text()
	}

	return strings.TrimSpace(strings.Join(strings.Fields(content), " "))
}
