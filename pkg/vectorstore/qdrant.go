package vectorstore

import (
	"context"
	"fmt"

	"github.com/ksenzov/askbase/internal/models"
	"github.com/qdrant/go-client/qdrant"
)

// StoreConfig represents the configuration for the Qdrant index.
type StoreConfig struct {
	Host           string
	Port           int
	Collection     string
	VectorDim      int
	ScoreThreshold float64
}

// Store is the vector index client. Similarity search, indexing and
// storage all live on the Qdrant side; this client only shapes
// requests and payloads.
type Store struct {
	config StoreConfig
	client *qdrant.Client
}

// NewStore connects to Qdrant and ensures the collection exists.
func NewStore(config StoreConfig) (*Store, error) {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 6334
	}
	if config.Collection == "" {
		config.Collection = "knowledge_base"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.ScoreThreshold == 0 {
		config.ScoreThreshold = 0.5
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: config.Host,
		Port: config.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	s := &Store{
		config: config,
		client: client,
	}

	if err := s.ensureCollection(context.Background()); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.config.Collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.config.VectorDim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Search returns up to limit chunks above the configured score
// threshold. Filters are should-clauses matched against the payload
// filename field, so an empty list means the whole collection.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, filters []string) ([]models.Chunk, error) {
	var filter *qdrant.Filter
	if len(filters) > 0 {
		conditions := make([]*qdrant.Condition, 0, len(filters))
		for _, f := range filters {
			conditions = append(conditions, qdrant.NewMatch("filename", f))
		}
		filter = &qdrant.Filter{Should: conditions}
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(float32(s.config.ScoreThreshold)),
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(points))
	for _, point := range points {
		chunk := models.Chunk{
			Score: float64(point.GetScore()),
		}
		payload := point.GetPayload()
		if v, ok := payload["text"]; ok {
			chunk.Text = v.GetStringValue()
		}
		if v, ok := payload["document_id"]; ok {
			chunk.DocumentID = v.GetStringValue()
		}
		if v, ok := payload["filename"]; ok {
			chunk.Filename = v.GetStringValue()
		}
		if v, ok := payload["chunk_index"]; ok {
			chunk.ChunkIndex = int(v.GetIntegerValue())
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Upsert writes embedded chunks with their payloads.
func (s *Store) Upsert(ctx context.Context, points []models.Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":        p.Text,
				"document_id": p.DocumentID,
				"filename":    p.Filename,
				"chunk_index": p.ChunkIndex,
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.config.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// DeleteByDocument removes every vector belonging to one document.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.config.Collection,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document vectors: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
