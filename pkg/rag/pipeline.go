package rag

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ksenzov/askbase/internal/models"
	"github.com/ksenzov/askbase/internal/types"
	"go.uber.org/zap"
)

// User-visible fallback answers. Always a plain sentence, never an
// error code or stack trace.
const (
	EmbeddingErrorAnswer  = "Failed to generate an embedding for the question."
	GenerationErrorAnswer = "Could not get an answer from the language model."
)

// ContextSeparator visually separates passages inside the assembled
// context block so the model can tell where one ends and the next
// begins.
const ContextSeparator = "\n---\n"

// PipelineConfig represents the configuration for the answer pipeline.
type PipelineConfig struct {
	// TopK is the final desired chunk count; retrieval fetches 2×TopK
	// so reranking and deduplication have headroom to discard.
	TopK int
	// Filters restricts retrieval to the named files; empty means the
	// whole collection. Recorded in metrics either way.
	Filters []string
}

// Pipeline is the retrieval-augmented orchestrator. Answer never
// returns an error: every internal failure degrades to a documented
// fallback, so the caller always receives a well-formed answer/metrics
// pair. Only an embedding failure aborts the request, since retrieval
// is meaningless without a query vector.
type Pipeline struct {
	classifier types.Classifier
	enricher   types.Enricher
	embedder   types.Embedder
	index      types.VectorIndex
	reranker   types.Reranker
	generator  types.Generator
	config     PipelineConfig
	log        *zap.Logger
}

// New wires the pipeline from its providers. A nil reranker disables
// reranking; retrieval order is kept in that case.
func New(
	classifier types.Classifier,
	enricher types.Enricher,
	embedder types.Embedder,
	index types.VectorIndex,
	reranker types.Reranker,
	generator types.Generator,
	config PipelineConfig,
	log *zap.Logger,
) *Pipeline {
	if config.TopK == 0 {
		config.TopK = 5
	}
	return &Pipeline{
		classifier: classifier,
		enricher:   enricher,
		embedder:   embedder,
		index:      index,
		reranker:   reranker,
		generator:  generator,
		config:     config,
		log:        log,
	}
}

// Answer runs the full request lifecycle for one question.
func (p *Pipeline) Answer(ctx context.Context, userID int64, question string) (string, models.Metrics) {
	start := time.Now()
	metrics := models.Metrics{"user_id": userID}

	category := p.classifier.Classify(ctx, question)
	metrics["classified_category"] = category.String()

	enriched := p.enricher.Enrich(ctx, question)

	vector, err := p.embedder.Embed(ctx, enriched)
	if err != nil {
		p.log.Warn("embedding failed, aborting request",
			zap.Int64("user_id", userID), zap.Error(err))
		return EmbeddingErrorAnswer, metrics
	}

	candidates := p.retrieve(ctx, vector)
	candidates = p.rerank(ctx, question, candidates)
	if len(candidates) > p.config.TopK {
		candidates = candidates[:p.config.TopK]
	}
	candidates = FilterDuplicateChunks(candidates)

	texts := make([]string, 0, len(candidates))
	scores := make([]float64, 0, len(candidates))
	for _, chunk := range candidates {
		texts = append(texts, chunk.Text)
		scores = append(scores, chunk.Score)
	}
	contextBlock := strings.Join(texts, ContextSeparator)

	metrics["context_chunks"] = texts
	metrics["used_chunks"] = len(texts)
	metrics["context_tokens"] = EstimateTokens(contextBlock)
	metrics["relevance_scores"] = scores
	metrics["average_relevance_score"] = averageScore(scores)
	metrics["qdrant_filters"] = p.filters()

	// Empty context still generates: the model gets to say that no
	// information was found, keeping a single code path for both
	// outcomes.
	answer, err := p.generator.Generate(ctx, question, contextBlock)
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			p.log.Warn("generation failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		answer = GenerationErrorAnswer
	}

	metrics["answer_tokens"] = EstimateTokens(answer)
	metrics["generation_time"] = roundTwo(time.Since(start).Seconds())

	return answer, metrics
}

// retrieve fetches an oversized candidate set. Retrieval failure is
// absorbed into an empty set; the pipeline continues.
func (p *Pipeline) retrieve(ctx context.Context, vector []float32) []models.Chunk {
	chunks, err := p.index.Search(ctx, vector, 2*p.config.TopK, p.config.Filters)
	if err != nil {
		p.log.Warn("vector search failed, continuing with no candidates", zap.Error(err))
		return nil
	}
	return chunks
}

// rerank rescores candidates with the cross-encoder and sorts them by
// the new score, descending. When the reranker is unavailable or the
// candidate set is empty, the retrieval order and scores are kept:
// vector similarity is a weaker relevance signal, but still a valid
// one, and results are never dropped just because reranking failed.
func (p *Pipeline) rerank(ctx context.Context, question string, chunks []models.Chunk) []models.Chunk {
	if len(chunks) == 0 || p.reranker == nil {
		return chunks
	}

	passages := make([]string, 0, len(chunks))
	valid := make([]models.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Text != "" {
			passages = append(passages, chunk.Text)
			valid = append(valid, chunk)
		}
	}
	if len(passages) == 0 {
		return chunks
	}

	scores, err := p.reranker.Score(ctx, question, passages)
	if err != nil {
		p.log.Warn("reranking failed, keeping retrieval order", zap.Error(err))
		return chunks
	}
	if len(scores) != len(passages) {
		// Lenient on mismatch: extra scores are ignored, passages
		// beyond the score list are dropped.
		p.log.Warn("reranker score count mismatch",
			zap.Int("passages", len(passages)), zap.Int("scores", len(scores)))
	}

	reranked := make([]models.Chunk, 0, len(valid))
	for i := range valid {
		if i >= len(scores) {
			break
		}
		valid[i].Score = scores[i]
		reranked = append(reranked, valid[i])
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	return reranked
}

func (p *Pipeline) filters() []string {
	filters := make([]string, len(p.config.Filters))
	copy(filters, p.config.Filters)
	return filters
}

func averageScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func roundTwo(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}
