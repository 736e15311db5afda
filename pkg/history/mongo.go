package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ksenzov/askbase/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoreConfig represents the configuration for the persistence store.
type StoreConfig struct {
	URI      string
	Database string
}

// Store is the persistence collaborator: knowledge-base documents,
// chat messages and per-message metric records in MongoDB.
type Store struct {
	client    *mongo.Client
	documents *mongo.Collection
	messages  *mongo.Collection
	metrics   *mongo.Collection
}

type metricsRecord struct {
	MessageID string            `bson:"message_id"`
	UserID    int64             `bson:"user_id"`
	Metrics   models.RAGMetrics `bson:"metrics"`
	CreatedAt time.Time         `bson:"created_at"`
}

// NewStore connects, pings and creates the collection indexes.
func NewStore(ctx context.Context, config StoreConfig) (*Store, error) {
	if config.Database == "" {
		config.Database = "askbase"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	db := client.Database(config.Database)
	s := &Store{
		client:    client,
		documents: db.Collection("documents"),
		messages:  db.Collection("messages"),
		metrics:   db.Collection("rag_metrics"),
	}

	if err := s.createIndexes(connectCtx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	_, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = s.documents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "upload_time", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = s.metrics.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

func (s *Store) SaveDocument(ctx context.Context, doc models.StoredDocument) error {
	_, err := s.documents.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save document: %v", err)
	}
	return nil
}

func (s *Store) MarkDocumentDeleted(ctx context.Context, documentID string) error {
	result, err := s.documents.UpdateOne(ctx,
		bson.M{"_id": documentID},
		bson.M{"$set": bson.M{"status": models.DocumentStatusDeleted}})
	if err != nil {
		return fmt.Errorf("failed to mark document deleted: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("document %s not found", documentID)
	}
	return nil
}

// ListDocuments returns active documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]models.StoredDocument, error) {
	cursor, err := s.documents.Find(ctx,
		bson.M{"status": models.DocumentStatusActive},
		options.Find().SetSort(bson.D{{Key: "upload_time", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %v", err)
	}
	defer cursor.Close(ctx)

	var docs []models.StoredDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %v", err)
	}
	return docs, nil
}

func (s *Store) SaveMessage(ctx context.Context, msg models.Message) error {
	_, err := s.messages.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}
	return nil
}

func (s *Store) SaveMetrics(ctx context.Context, messageID string, metrics models.Metrics) error {
	userID, _ := metrics["user_id"].(int64)
	record := metricsRecord{
		MessageID: messageID,
		UserID:    userID,
		Metrics:   metrics.Record(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.metrics.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to save metrics: %v", err)
	}
	return nil
}

// ClearHistory deletes all of a user's messages and returns how many
// were removed.
func (s *Store) ClearHistory(ctx context.Context, userID int64) (int64, error) {
	result, err := s.messages.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %v", err)
	}
	return result.DeletedCount, nil
}

// ChatHistory returns every user's conversation, assistant messages
// annotated with their metric records, most recently active user
// first.
func (s *Store) ChatHistory(ctx context.Context) ([]models.UserChat, error) {
	cursor, err := s.messages.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %v", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %v", err)
	}

	metricsCursor, err := s.metrics.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %v", err)
	}
	defer metricsCursor.Close(ctx)

	var records []metricsRecord
	if err := metricsCursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %v", err)
	}

	byMessage := make(map[string]models.RAGMetrics, len(records))
	for _, r := range records {
		byMessage[r.MessageID] = r.Metrics
	}

	chats := make(map[int64]*models.UserChat)
	var order []int64
	for _, msg := range messages {
		chat, ok := chats[msg.UserID]
		if !ok {
			chat = &models.UserChat{
				UserID:           msg.UserID,
				FirstMessageTime: msg.Timestamp,
			}
			chats[msg.UserID] = chat
			order = append(order, msg.UserID)
		}

		if msg.Role == "assistant" {
			if m, ok := byMessage[msg.ID]; ok {
				msg.Metrics = &m
			}
		}

		chat.Messages = append(chat.Messages, msg)
		chat.TotalMessages++
		chat.LastMessageTime = msg.Timestamp
	}

	result := make([]models.UserChat, 0, len(order))
	for _, userID := range order {
		result = append(result, *chats[userID])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageTime.After(result[j].LastMessageTime)
	})
	return result, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
