package models

import "time"

// Chunk is a retrieved span of a source document. The vector index
// produces it with the similarity score; the reranker overwrites Score
// in place; later stages never mutate it.
type Chunk struct {
	Text       string
	Score      float64
	DocumentID string
	Filename   string
	ChunkIndex int
}

// Point is a chunk prepared for insertion into the vector index.
type Point struct {
	ID         string
	Vector     []float32
	Text       string
	DocumentID string
	Filename   string
	ChunkIndex int
}

// Metrics is the flat per-request metric mapping assembled by the
// pipeline. It is a map on purpose: keys exist only for stages that
// actually ran, and callers serialize it as-is.
type Metrics map[string]any

// RAGMetrics is the persisted metric record attached to an assistant
// message, keyed by message id.
type RAGMetrics struct {
	RelevanceScores       []float64 `bson:"relevance_scores" json:"relevance_scores"`
	ContextTokens         int       `bson:"context_tokens" json:"context_tokens"`
	UsedChunks            int       `bson:"used_chunks" json:"used_chunks"`
	GenerationTime        float64   `bson:"generation_time" json:"generation_time"`
	AnswerTokens          int       `bson:"answer_tokens" json:"answer_tokens"`
	AverageRelevanceScore float64   `bson:"average_relevance_score" json:"average_relevance_score"`
	ContextChunks         []string  `bson:"context_chunks" json:"context_chunks"`
	QdrantFilters         []string  `bson:"qdrant_filters" json:"qdrant_filters"`
}

// Record extracts the typed persisted metric record from the flat
// per-request mapping. Missing keys (stages that never ran) become
// zero values.
func (m Metrics) Record() RAGMetrics {
	var r RAGMetrics
	if v, ok := m["relevance_scores"].([]float64); ok {
		r.RelevanceScores = v
	}
	if v, ok := m["context_tokens"].(int); ok {
		r.ContextTokens = v
	}
	if v, ok := m["used_chunks"].(int); ok {
		r.UsedChunks = v
	}
	if v, ok := m["generation_time"].(float64); ok {
		r.GenerationTime = v
	}
	if v, ok := m["answer_tokens"].(int); ok {
		r.AnswerTokens = v
	}
	if v, ok := m["average_relevance_score"].(float64); ok {
		r.AverageRelevanceScore = v
	}
	if v, ok := m["context_chunks"].([]string); ok {
		r.ContextChunks = v
	}
	if v, ok := m["qdrant_filters"].([]string); ok {
		r.QdrantFilters = v
	}
	return r
}

// Document statuses in the knowledge base.
const (
	DocumentStatusActive  = "active"
	DocumentStatusDeleted = "deleted"
)

// StoredDocument describes an ingested file.
type StoredDocument struct {
	ID         string    `bson:"_id" json:"id"`
	Filename   string    `bson:"filename" json:"filename"`
	UploadTime time.Time `bson:"upload_time" json:"upload_time"`
	ChunkCount int       `bson:"chunk_count" json:"chunk_count"`
	Status     string    `bson:"status" json:"status"`
}

// Message is one chat history entry.
type Message struct {
	ID        string      `bson:"_id" json:"id"`
	UserID    int64       `bson:"user_id" json:"user_id"`
	Role      string      `bson:"role" json:"role"`
	Content   string      `bson:"content" json:"content"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Metrics   *RAGMetrics `bson:"-" json:"metrics,omitempty"`
}

// UserChat groups one user's history for the admin history view.
type UserChat struct {
	UserID           int64     `json:"user_id"`
	Messages         []Message `json:"messages"`
	TotalMessages    int       `json:"total_messages"`
	FirstMessageTime time.Time `json:"first_message_time"`
	LastMessageTime  time.Time `json:"last_message_time"`
}
