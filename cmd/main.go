package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ksenzov/askbase/internal/types"
	"github.com/ksenzov/askbase/pkg/config"
	"github.com/ksenzov/askbase/pkg/history"
	"github.com/ksenzov/askbase/pkg/ingest"
	"github.com/ksenzov/askbase/pkg/llm"
	"github.com/ksenzov/askbase/pkg/processor"
	"github.com/ksenzov/askbase/pkg/rag"
	"github.com/ksenzov/askbase/pkg/rerank"
	"github.com/ksenzov/askbase/pkg/vectorstore"
	"github.com/ksenzov/askbase/server"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "invalid config: %s: %s\n", e.Field, e.Message)
		}
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := history.NewStore(ctx, history.StoreConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	cancel()
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer store.Close(context.Background())

	index, err := vectorstore.NewStore(vectorstore.StoreConfig{
		Host:           cfg.Qdrant.Host,
		Port:           cfg.Qdrant.Port,
		Collection:     cfg.Qdrant.Collection,
		VectorDim:      cfg.Qdrant.VectorDim,
		ScoreThreshold: cfg.Qdrant.ScoreThreshold,
	})
	if err != nil {
		log.Fatal("failed to connect to Qdrant", zap.Error(err))
	}
	defer index.Close()

	gateway, err := llm.NewGateway(llm.GatewayConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		Timeout:   time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		RateLimit: cfg.LLM.RateLimit,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize LLM gateway", zap.Error(err))
	}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
	})
	if err != nil {
		log.Fatal("failed to initialize embedder", zap.Error(err))
	}

	var reranker types.Reranker
	if cfg.Reranker.URL != "" {
		client, err := rerank.NewClient(rerank.ClientConfig{
			URL:     cfg.Reranker.URL,
			Timeout: time.Duration(cfg.Reranker.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Fatal("failed to initialize reranker client", zap.Error(err))
		}
		reranker = client
	} else {
		log.Info("reranker URL not set, reranking disabled")
	}

	pipeline := rag.New(
		llm.NewClassifier(gateway, log),
		llm.NewEnricher(gateway, cfg.LLM.SearchLanguage, log),
		embedder,
		index,
		reranker,
		llm.NewGenerator(gateway, llm.GeneratorConfig{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		}),
		rag.PipelineConfig{
			TopK:    cfg.Qdrant.TopK,
			Filters: cfg.Qdrant.Filters,
		},
		log,
	)

	ingestor := ingest.New(
		processor.NewWithConfig(processor.ProcessorConfig{
			ChunkSize:    cfg.Processor.ChunkSize,
			ChunkOverlap: cfg.Processor.ChunkOverlap,
		}),
		embedder,
		index,
		store,
		log,
	)

	api := server.New(server.Config{
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, pipeline, ingestor, store, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.Handler(),
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
