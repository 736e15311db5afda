package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ksenzov/askbase/internal/models"
	"github.com/ksenzov/askbase/internal/types"
	"github.com/ksenzov/askbase/pkg/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClassifier struct {
	category models.Category
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) models.Category {
	return f.category
}

type fakeEnricher struct {
	enriched string
}

func (f *fakeEnricher) Enrich(_ context.Context, question string) string {
	if f.enriched != "" {
		return f.enriched
	}
	return question
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

type fakeIndex struct {
	chunks    []models.Chunk
	err       error
	gotLimit  int
	gotFilter []string
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, limit int, filters []string) ([]models.Chunk, error) {
	f.gotLimit = limit
	f.gotFilter = filters
	return f.chunks, f.err
}

func (f *fakeIndex) Upsert(_ context.Context, _ []models.Point) error { return nil }

func (f *fakeIndex) DeleteByDocument(_ context.Context, _ string) error { return nil }

type fakeReranker struct {
	scores []float64
	err    error
	called bool
}

func (f *fakeReranker) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	if f.scores != nil {
		return f.scores, nil
	}
	return make([]float64, len(passages)), nil
}

type fakeGenerator struct {
	answer     string
	err        error
	gotContext string
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, contextBlock string) (string, error) {
	f.gotContext = contextBlock
	return f.answer, f.err
}

func chunk(text string, score float64) models.Chunk {
	return models.Chunk{Text: text, Score: score}
}

func newPipeline(index *fakeIndex, reranker *fakeReranker, generator *fakeGenerator, config rag.PipelineConfig) *rag.Pipeline {
	var r types.Reranker
	if reranker != nil {
		r = reranker
	}
	return rag.New(
		&fakeClassifier{category: models.CategoryLookup},
		&fakeEnricher{},
		&fakeEmbedder{vector: []float32{0.1, 0.2}},
		index,
		r,
		generator,
		config,
		zap.NewNop(),
	)
}

func TestPipeline_Answer_Success(t *testing.T) {
	index := &fakeIndex{chunks: []models.Chunk{
		chunk("alpha", 0.9),
		chunk("beta", 0.8),
	}}
	reranker := &fakeReranker{scores: []float64{0.3, 0.7}}
	generator := &fakeGenerator{answer: "the answer"}

	p := newPipeline(index, reranker, generator, rag.PipelineConfig{TopK: 5})
	answer, metrics := p.Answer(context.Background(), 42, "what is alpha?")

	assert.Equal(t, "the answer", answer)
	assert.Equal(t, int64(42), metrics["user_id"])
	assert.Equal(t, "Lookup", metrics["classified_category"])
	assert.Equal(t, 2, metrics["used_chunks"])
	assert.Equal(t, 10, index.gotLimit) // 2×TopK

	// Reranking reordered by cross-encoder score, descending.
	assert.Equal(t, []string{"beta", "alpha"}, metrics["context_chunks"])
	assert.Equal(t, []float64{0.7, 0.3}, metrics["relevance_scores"])
	assert.InDelta(t, 0.5, metrics["average_relevance_score"].(float64), 1e-9)
	assert.Equal(t, "beta\n---\nalpha", generator.gotContext)
	assert.NotNil(t, metrics["generation_time"])
}

func TestPipeline_Answer_EmbeddingFailureAborts(t *testing.T) {
	p := rag.New(
		&fakeClassifier{category: models.CategoryCalculation},
		&fakeEnricher{},
		&fakeEmbedder{err: errors.New("model not loaded")},
		&fakeIndex{},
		nil,
		&fakeGenerator{answer: "unused"},
		rag.PipelineConfig{},
		zap.NewNop(),
	)

	answer, metrics := p.Answer(context.Background(), 7, "2+2?")

	assert.Equal(t, rag.EmbeddingErrorAnswer, answer)
	assert.Equal(t, int64(7), metrics["user_id"])
	assert.Equal(t, "Calculation", metrics["classified_category"])

	// Nothing past embedding ran, so no retrieval or generation keys.
	_, ok := metrics["context_chunks"]
	assert.False(t, ok)
	_, ok = metrics["generation_time"]
	assert.False(t, ok)
}

func TestPipeline_Answer_EmptyRetrievalStillAnswers(t *testing.T) {
	index := &fakeIndex{chunks: nil}
	generator := &fakeGenerator{answer: "I could not find anything about that."}

	p := newPipeline(index, nil, generator, rag.PipelineConfig{TopK: 3})
	answer, metrics := p.Answer(context.Background(), 1, "unknown topic")

	assert.Equal(t, "I could not find anything about that.", answer)
	assert.Equal(t, 0, metrics["used_chunks"])
	assert.Equal(t, 0, metrics["context_tokens"])
	assert.Empty(t, metrics["relevance_scores"])
	assert.Equal(t, "", generator.gotContext)
}

func TestPipeline_Answer_RetrievalFailureDegradesToEmpty(t *testing.T) {
	index := &fakeIndex{err: errors.New("qdrant unavailable")}
	generator := &fakeGenerator{answer: "no context answer"}

	p := newPipeline(index, nil, generator, rag.PipelineConfig{})
	answer, metrics := p.Answer(context.Background(), 1, "anything")

	assert.Equal(t, "no context answer", answer)
	assert.Equal(t, 0, metrics["used_chunks"])
}

func TestPipeline_Answer_RerankerFailureKeepsRetrievalOrder(t *testing.T) {
	index := &fakeIndex{chunks: []models.Chunk{
		chunk("first", 0.9),
		chunk("second", 0.8),
	}}
	reranker := &fakeReranker{err: errors.New("reranker down")}
	generator := &fakeGenerator{answer: "ok"}

	p := newPipeline(index, reranker, generator, rag.PipelineConfig{TopK: 5})
	_, metrics := p.Answer(context.Background(), 1, "q")

	assert.True(t, reranker.called)
	assert.Equal(t, []string{"first", "second"}, metrics["context_chunks"])
	assert.Equal(t, []float64{0.9, 0.8}, metrics["relevance_scores"])
}

func TestPipeline_Answer_TruncatesToTopK(t *testing.T) {
	index := &fakeIndex{chunks: []models.Chunk{
		chunk("a", 0.9), chunk("b", 0.8), chunk("c", 0.7), chunk("d", 0.6),
	}}
	generator := &fakeGenerator{answer: "ok"}

	p := newPipeline(index, nil, generator, rag.PipelineConfig{TopK: 2})
	_, metrics := p.Answer(context.Background(), 1, "q")

	assert.Equal(t, 2, metrics["used_chunks"])
	assert.Equal(t, []string{"a", "b"}, metrics["context_chunks"])
}

func TestPipeline_Answer_DeduplicatesChunks(t *testing.T) {
	index := &fakeIndex{chunks: []models.Chunk{
		chunk("same text", 0.9),
		chunk("same text", 0.8),
		chunk("other", 0.7),
	}}
	generator := &fakeGenerator{answer: "ok"}

	p := newPipeline(index, nil, generator, rag.PipelineConfig{TopK: 5})
	_, metrics := p.Answer(context.Background(), 1, "q")

	assert.Equal(t, []string{"same text", "other"}, metrics["context_chunks"])
	assert.Equal(t, 2, metrics["used_chunks"])
}

func TestPipeline_Answer_GenerationFailureUsesFallbackSentence(t *testing.T) {
	index := &fakeIndex{chunks: []models.Chunk{chunk("ctx", 0.9)}}
	generator := &fakeGenerator{err: errors.New("timeout")}

	p := newPipeline(index, nil, generator, rag.PipelineConfig{})
	answer, metrics := p.Answer(context.Background(), 1, "q")

	assert.Equal(t, rag.GenerationErrorAnswer, answer)
	// Context metrics survive the generation failure.
	assert.Equal(t, 1, metrics["used_chunks"])
	assert.NotNil(t, metrics["generation_time"])
}

func TestPipeline_Answer_ScoreCountMismatchDropsExtraPassages(t *testing.T) {
	index := &fakeIndex{chunks: []models.Chunk{
		chunk("a", 0.9), chunk("b", 0.8), chunk("c", 0.7),
	}}
	reranker := &fakeReranker{scores: []float64{0.1, 0.9}}
	generator := &fakeGenerator{answer: "ok"}

	p := newPipeline(index, reranker, generator, rag.PipelineConfig{TopK: 5})
	_, metrics := p.Answer(context.Background(), 1, "q")

	require.Equal(t, 2, metrics["used_chunks"])
	assert.Equal(t, []string{"b", "a"}, metrics["context_chunks"])
}

func TestPipeline_Answer_FiltersRecordedInMetrics(t *testing.T) {
	index := &fakeIndex{}
	generator := &fakeGenerator{answer: "ok"}

	p := newPipeline(index, nil, generator, rag.PipelineConfig{
		TopK:    3,
		Filters: []string{"handbook.pdf"},
	})
	_, metrics := p.Answer(context.Background(), 1, "q")

	assert.Equal(t, []string{"handbook.pdf"}, metrics["qdrant_filters"])
	assert.Equal(t, []string{"handbook.pdf"}, index.gotFilter)
}
