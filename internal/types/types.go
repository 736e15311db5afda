package types

import (
	"context"

	"github.com/ksenzov/askbase/internal/models"
)

// Core provider interfaces. Every remote collaborator the pipeline
// touches sits behind one of these, so requests can be answered with
// fakes in tests and implementations can be swapped without touching
// the orchestration.

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores (question, passage) pairs. The returned slice is
// expected to match passages in length; callers handle mismatches
// leniently.
type Reranker interface {
	Score(ctx context.Context, question string, passages []string) ([]float64, error)
}

// VectorIndex is nearest-neighbor search plus the write operations the
// ingestion path needs. Filters are should-clauses on the payload
// filename field.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, limit int, filters []string) ([]models.Chunk, error)
	Upsert(ctx context.Context, points []models.Point) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Completer is a single synchronous call to a text-completion backend.
// Any transport error, malformed body, or empty content is a failure;
// callers treat the outcome as binary.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64, stop []string) (string, error)
}

// Classifier assigns a closed-set intent category. It never fails:
// anything unexpected becomes the default category.
type Classifier interface {
	Classify(ctx context.Context, question string) models.Category
}

// Enricher rewrites a question into a search query, falling back to
// the original on degenerate output. It never fails.
type Enricher interface {
	Enrich(ctx context.Context, question string) string
}

// Generator produces the final answer from question plus assembled
// context.
type Generator interface {
	Generate(ctx context.Context, question, contextBlock string) (string, error)
}

// Answerer is the pipeline contract consumed by the API surface.
type Answerer interface {
	Answer(ctx context.Context, userID int64, question string) (string, models.Metrics)
}

// HistoryStore is the persistence collaborator: documents, messages
// and per-message metrics.
type HistoryStore interface {
	SaveDocument(ctx context.Context, doc models.StoredDocument) error
	MarkDocumentDeleted(ctx context.Context, documentID string) error
	ListDocuments(ctx context.Context) ([]models.StoredDocument, error)
	SaveMessage(ctx context.Context, msg models.Message) error
	SaveMetrics(ctx context.Context, messageID string, metrics models.Metrics) error
	ClearHistory(ctx context.Context, userID int64) (int64, error)
	ChatHistory(ctx context.Context) ([]models.UserChat, error)
}
