package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "LLM base URL is required",
		})
	} else if !isValidURL(c.LLM.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid LLM base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Embedding.BaseURL != "" && !isValidURL(c.Embedding.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "embedding.base_url",
			Message: "invalid embedding base URL",
		})
	}

	if c.Reranker.URL != "" && !isValidURL(c.Reranker.URL) {
		errors = append(errors, ValidationError{
			Field:   "reranker.url",
			Message: "invalid reranker URL",
		})
	}

	if c.Qdrant.VectorDim <= 0 {
		errors = append(errors, ValidationError{
			Field:   "qdrant.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Qdrant.TopK <= 0 {
		errors = append(errors, ValidationError{
			Field:   "qdrant.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Qdrant.ScoreThreshold < 0 || c.Qdrant.ScoreThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "qdrant.score_threshold",
			Message: "score_threshold must be between 0 and 1",
		})
	}

	if c.Mongo.URI != "" && !strings.HasPrefix(c.Mongo.URI, "mongodb://") &&
		!strings.HasPrefix(c.Mongo.URI, "mongodb+srv://") {
		errors = append(errors, ValidationError{
			Field:   "mongo.uri",
			Message: "invalid MongoDB URI",
		})
	}

	if c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be smaller than chunk_size",
		})
	}

	return errors
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
