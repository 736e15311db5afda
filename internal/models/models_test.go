package models_test

import (
	"testing"

	"github.com/ksenzov/askbase/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := models.Metrics{
		"user_id":                 int64(42),
		"classified_category":     "Lookup",
		"relevance_scores":        []float64{0.7, 0.3},
		"context_tokens":          120,
		"used_chunks":             2,
		"generation_time":         1.25,
		"answer_tokens":           40,
		"average_relevance_score": 0.5,
		"context_chunks":          []string{"a", "b"},
		"qdrant_filters":          []string{"handbook.pdf"},
	}

	r := m.Record()

	assert.Equal(t, []float64{0.7, 0.3}, r.RelevanceScores)
	assert.Equal(t, 120, r.ContextTokens)
	assert.Equal(t, 2, r.UsedChunks)
	assert.Equal(t, 1.25, r.GenerationTime)
	assert.Equal(t, 40, r.AnswerTokens)
	assert.Equal(t, 0.5, r.AverageRelevanceScore)
	assert.Equal(t, []string{"a", "b"}, r.ContextChunks)
	assert.Equal(t, []string{"handbook.pdf"}, r.QdrantFilters)
}

func TestMetrics_Record_MissingKeysZeroValued(t *testing.T) {
	// An embedding failure leaves only the pre-retrieval keys.
	m := models.Metrics{
		"user_id":             int64(7),
		"classified_category": "Calculation",
	}

	r := m.Record()

	assert.Zero(t, r.UsedChunks)
	assert.Zero(t, r.GenerationTime)
	assert.Nil(t, r.ContextChunks)
	assert.Nil(t, r.RelevanceScores)
}
