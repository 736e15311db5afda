package rerank_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ksenzov/askbase/pkg/rerank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Score(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Query    string   `json:"query"`
			Passages []string `json:"passages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is the refund policy?", req.Query)
		assert.Equal(t, []string{"passage one", "passage two"}, req.Passages)

		json.NewEncoder(w).Encode(map[string]any{"scores": []float64{0.12, 0.87}})
	}))
	defer server.Close()

	client, err := rerank.NewClient(rerank.ClientConfig{URL: server.URL})
	require.NoError(t, err)

	scores, err := client.Score(context.Background(), "what is the refund policy?", []string{"passage one", "passage two"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.12, 0.87}, scores)
}

func TestClient_Score_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := rerank.NewClient(rerank.ClientConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), "q", []string{"p"})
	assert.Error(t, err)
}

func TestClient_Score_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := rerank.NewClient(rerank.ClientConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), "q", []string{"p"})
	assert.Error(t, err)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := rerank.NewClient(rerank.ClientConfig{})
	assert.Error(t, err)
}
