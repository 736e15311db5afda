package rag

import "github.com/ksenzov/askbase/internal/models"

// FilterDuplicateChunks removes chunks whose exact text has already
// been seen, keeping the first (highest-ranked) occurrence in its
// original position. Comparison is exact on purpose: no case or
// whitespace normalization, so near-duplicates are not merged.
func FilterDuplicateChunks(chunks []models.Chunk) []models.Chunk {
	seen := make(map[string]bool, len(chunks))
	unique := make([]models.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		if seen[chunk.Text] {
			continue
		}
		seen[chunk.Text] = true
		unique = append(unique, chunk)
	}

	return unique
}
