package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ksenzov/askbase/internal/models"
	"github.com/ksenzov/askbase/internal/types"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Ingest is the slice of the ingestion service the API needs.
type Ingest interface {
	IngestFile(ctx context.Context, path, originalFilename string) (int, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

// Config represents the configuration for the API server.
type Config struct {
	Port        string
	CORSOrigins []string
}

// Server is the HTTP surface the chat front end consumes.
type Server struct {
	config   Config
	pipeline types.Answerer
	ingestor Ingest
	store    types.HistoryStore
	log      *zap.Logger
	router   *gin.Engine
}

type askRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Question string `json:"question" binding:"required"`
}

type askResponse struct {
	Answer  string         `json:"answer"`
	Metrics models.Metrics `json:"metrics"`
}

type wsMessage struct {
	Type    string `json:"type"`
	UserID  int64  `json:"user_id,omitempty"`
	Content string `json:"content"`
	Data    any    `json:"data,omitempty"`
}

func New(config Config, pipeline types.Answerer, ingestor Ingest, store types.HistoryStore, log *zap.Logger) *Server {
	s := &Server{
		config:   config,
		pipeline: pipeline,
		ingestor: ingestor,
		store:    store,
		log:      log,
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(config.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = config.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.POST("/ask", s.handleAsk)
	router.POST("/upload", s.handleUpload)
	router.GET("/documents", s.handleListDocuments)
	router.DELETE("/documents/:id", s.handleDeleteDocument)
	router.GET("/history", s.handleHistory)
	router.DELETE("/history/:user_id", s.handleClearHistory)
	router.GET("/ws", s.handleWebSocket)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router = router
	return s
}

// Handler exposes the router for an http.Server or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and question are required"})
		return
	}

	answer, metrics := s.pipeline.Answer(c.Request.Context(), req.UserID, req.Question)
	s.saveExchange(c.Request.Context(), req.UserID, req.Question, answer, metrics)

	c.JSON(http.StatusOK, askResponse{Answer: answer, Metrics: metrics})
}

// saveExchange persists the question/answer pair and the metric record
// keyed by the assistant message id. Persistence failure never fails
// the request.
func (s *Server) saveExchange(ctx context.Context, userID int64, question, answer string, metrics models.Metrics) {
	now := time.Now().UTC()

	userMsg := models.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      "user",
		Content:   question,
		Timestamp: now,
	}
	if err := s.store.SaveMessage(ctx, userMsg); err != nil {
		s.log.Warn("failed to save user message", zap.Error(err))
		return
	}

	assistantMsg := models.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      "assistant",
		Content:   answer,
		Timestamp: now,
	}
	if err := s.store.SaveMessage(ctx, assistantMsg); err != nil {
		s.log.Warn("failed to save assistant message", zap.Error(err))
		return
	}

	if err := s.store.SaveMetrics(ctx, assistantMsg.ID, metrics); err != nil {
		s.log.Warn("failed to save metrics", zap.Error(err))
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	stagePath := filepath.Join(os.TempDir(), uuid.NewString()+"_"+filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, stagePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer os.Remove(stagePath)

	chunks, err := s.ingestor.IngestFile(c.Request.Context(), stagePath, file.Filename)
	if err != nil {
		s.log.Warn("upload failed", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to process file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "chunks": chunks})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.store.ListDocuments(c.Request.Context())
	if err != nil {
		s.log.Warn("failed to list documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	if docs == nil {
		docs = []models.StoredDocument{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	documentID := c.Param("id")
	if err := s.ingestor.DeleteDocument(c.Request.Context(), documentID); err != nil {
		s.log.Warn("failed to delete document", zap.String("document_id", documentID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "failed to delete document"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "document deleted"})
}

func (s *Server) handleHistory(c *gin.Context) {
	chats, err := s.store.ChatHistory(c.Request.Context())
	if err != nil {
		s.log.Warn("failed to load chat history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	if chats == nil {
		chats = []models.UserChat{}
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	var userID int64
	if err := bindUserID(c.Param("user_id"), &userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	deleted, err := s.store.ClearHistory(c.Request.Context(), userID)
	if err != nil {
		s.log.Warn("failed to clear history", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "failed to clear history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Message history (%d messages) has been cleared.", deleted),
	})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "question" || msg.Content == "" {
			s.sendWS(conn, wsMessage{Type: "error", Content: "expected a question message"})
			continue
		}

		answer, metrics := s.pipeline.Answer(c.Request.Context(), msg.UserID, msg.Content)
		s.saveExchange(c.Request.Context(), msg.UserID, msg.Content, answer, metrics)
		s.sendWS(conn, wsMessage{Type: "answer", Content: answer, Data: metrics})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn("failed to send WebSocket message", zap.Error(err))
	}
}

func bindUserID(raw string, out *int64) error {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	*out = id
	return nil
}
