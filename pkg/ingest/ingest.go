package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ksenzov/askbase/internal/models"
	"github.com/ksenzov/askbase/internal/types"
	"github.com/ksenzov/askbase/pkg/processor"
	"go.uber.org/zap"
)

// Ingestor feeds documents into the knowledge base: extract, chunk,
// embed, upsert into the vector index, then record the document so it
// shows up in listings and can be deleted later.
type Ingestor struct {
	processor processor.Processor
	embedder  types.Embedder
	index     types.VectorIndex
	store     types.HistoryStore
	log       *zap.Logger
}

func New(p processor.Processor, embedder types.Embedder, index types.VectorIndex, store types.HistoryStore, log *zap.Logger) *Ingestor {
	return &Ingestor{
		processor: p,
		embedder:  embedder,
		index:     index,
		store:     store,
		log:       log,
	}
}

// IngestFile processes one staged upload and returns the number of
// chunks stored. The original filename decides the extraction method
// and becomes the document's display name.
func (i *Ingestor) IngestFile(ctx context.Context, path, originalFilename string) (int, error) {
	chunks, err := i.processor.Process(path, originalFilename)
	if err != nil {
		return 0, err
	}
	return i.ingestChunks(ctx, originalFilename, chunks)
}

// IngestText chunks and stores raw text under the given name, used by
// the crawler path where there is no file on disk.
func (i *Ingestor) IngestText(ctx context.Context, name, text string) (int, error) {
	chunks := i.processor.SplitIntoChunks(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no text to ingest for %s", name)
	}
	return i.ingestChunks(ctx, name, chunks)
}

func (i *Ingestor) ingestChunks(ctx context.Context, filename string, chunks []string) (int, error) {
	documentID := uuid.NewString()

	points := make([]models.Point, 0, len(chunks))
	for idx, chunk := range chunks {
		vector, err := i.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", idx, filename, err)
		}
		points = append(points, models.Point{
			ID:         uuid.NewString(),
			Vector:     vector,
			Text:       chunk,
			DocumentID: documentID,
			Filename:   filename,
			ChunkIndex: idx,
		})
	}

	if err := i.index.Upsert(ctx, points); err != nil {
		return 0, err
	}

	doc := models.StoredDocument{
		ID:         documentID,
		Filename:   filename,
		UploadTime: time.Now().UTC(),
		ChunkCount: len(chunks),
		Status:     models.DocumentStatusActive,
	}
	if err := i.store.SaveDocument(ctx, doc); err != nil {
		return 0, err
	}

	i.log.Info("document ingested",
		zap.String("document_id", documentID),
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)))

	return len(chunks), nil
}

// DeleteDocument removes a document's vectors from the index and
// marks its record deleted.
func (i *Ingestor) DeleteDocument(ctx context.Context, documentID string) error {
	if err := i.index.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if err := i.store.MarkDocumentDeleted(ctx, documentID); err != nil {
		return err
	}

	i.log.Info("document deleted", zap.String("document_id", documentID))
	return nil
}
