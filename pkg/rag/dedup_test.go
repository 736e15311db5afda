package rag_test

import (
	"testing"

	"github.com/ksenzov/askbase/internal/models"
	"github.com/ksenzov/askbase/pkg/rag"
	"github.com/stretchr/testify/assert"
)

func TestFilterDuplicateChunks(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "A", Score: 0.9},
		{Text: "B", Score: 0.8},
		{Text: "A", Score: 0.7},
		{Text: "C", Score: 0.6},
	}

	got := rag.FilterDuplicateChunks(chunks)

	assert.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Text)
	assert.Equal(t, "B", got[1].Text)
	assert.Equal(t, "C", got[2].Text)
	// First occurrence wins, so the 0.9-scored "A" survives.
	assert.Equal(t, 0.9, got[0].Score)
}

func TestFilterDuplicateChunks_CaseAndWhitespaceDistinct(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "alpha"},
		{Text: "Alpha"},
		{Text: "alpha "},
	}

	got := rag.FilterDuplicateChunks(chunks)
	assert.Len(t, got, 3)
}

func TestFilterDuplicateChunks_Idempotent(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "x"},
		{Text: "y"},
		{Text: "x"},
	}

	once := rag.FilterDuplicateChunks(chunks)
	twice := rag.FilterDuplicateChunks(once)
	assert.Equal(t, once, twice)
}

func TestFilterDuplicateChunks_Empty(t *testing.T) {
	assert.Empty(t, rag.FilterDuplicateChunks(nil))
}
