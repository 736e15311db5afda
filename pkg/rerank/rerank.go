package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ClientConfig represents the configuration for the reranker client.
type ClientConfig struct {
	URL     string // scoring endpoint, e.g. http://localhost:9000/rerank
	Timeout time.Duration
}

// Client calls a cross-encoder scoring service over HTTP. The model
// jointly considers the query and each passage, which is typically
// more accurate than the pure vector-similarity ranking it refines.
type Client struct {
	config ClientConfig
	http   *http.Client
}

type scoreRequest struct {
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// NewClient creates a reranker client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("reranker URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		http: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Score returns one relevance score per passage. The response length
// is expected to match len(passages); mismatches are returned as-is
// and handled leniently by the caller.
func (c *Client) Score(ctx context.Context, question string, passages []string) ([]float64, error) {
	body, err := json.Marshal(scoreRequest{Query: question, Passages: passages})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}

	var result scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	return result.Scores, nil
}
