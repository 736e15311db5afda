package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/ksenzov/askbase/pkg/config"
	"github.com/ksenzov/askbase/pkg/fetch"
	"github.com/ksenzov/askbase/pkg/history"
	"github.com/ksenzov/askbase/pkg/ingest"
	"github.com/ksenzov/askbase/pkg/llm"
	"github.com/ksenzov/askbase/pkg/processor"
	"github.com/ksenzov/askbase/pkg/vectorstore"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type Options struct {
	ConfigPath     string
	DocsURL        string
	MaxDepth       int
	RateLimit      float64
	IgnorePatterns string
}

func main() {
	opts := parseFlags()

	if err := run(opts, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Options {
	var opts Options

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&opts.DocsURL, "url", "", "Documentation URL to crawl and ingest")
	flag.IntVar(&opts.MaxDepth, "max-depth", 3, "Maximum depth for crawling")
	flag.Float64Var(&opts.RateLimit, "rate-limit", 2.0, "Rate limit for crawling (requests per second)")
	flag.StringVar(&opts.IgnorePatterns, "ignore", "", "Comma-separated URL substrings to skip while crawling")
	flag.Parse()

	return opts
}

func run(opts Options, files []string) error {
	if opts.DocsURL == "" && len(files) == 0 {
		return fmt.Errorf("nothing to ingest: pass file paths or -url (usage: ingest [flags] [file ...])")
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "invalid config: %s: %s\n", e.Field, e.Message)
		}
		return fmt.Errorf("invalid configuration")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	store, err := history.NewStore(ctx, history.StoreConfig{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer store.Close(ctx)

	index, err := vectorstore.NewStore(vectorstore.StoreConfig{
		Host:           cfg.Qdrant.Host,
		Port:           cfg.Qdrant.Port,
		Collection:     cfg.Qdrant.Collection,
		VectorDim:      cfg.Qdrant.VectorDim,
		ScoreThreshold: cfg.Qdrant.ScoreThreshold,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer index.Close()

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	ingestor := ingest.New(
		processor.NewWithConfig(processor.ProcessorConfig{
			ChunkSize:    cfg.Processor.ChunkSize,
			ChunkOverlap: cfg.Processor.ChunkOverlap,
		}),
		embedder,
		index,
		store,
		logger,
	)

	if len(files) > 0 {
		if err := ingestFiles(ctx, ingestor, files); err != nil {
			return err
		}
	}
	if opts.DocsURL != "" {
		if err := ingestDocs(ctx, ingestor, opts); err != nil {
			return err
		}
	}

	color.Green("\nDone.")
	return nil
}

func ingestFiles(ctx context.Context, ingestor *ingest.Ingestor, files []string) error {
	bar := getProgressBar(len(files), "Ingesting files...")

	for _, path := range files {
		if !processor.AllowedFile(path) {
			color.Yellow("skipping %s: unsupported file type", path)
			bar.Add(1)
			continue
		}

		chunks, err := ingestor.IngestFile(ctx, path, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		bar.Add(1)
		color.Green("\n%s: %d chunks", filepath.Base(path), chunks)
	}

	return bar.Finish()
}

func ingestDocs(ctx context.Context, ingestor *ingest.Ingestor, opts Options) error {
	spinner := getSpinner("Crawling documentation...")

	var ignore []string
	if opts.IgnorePatterns != "" {
		ignore = strings.Split(opts.IgnorePatterns, ",")
	}

	fetcher, err := fetch.NewWithConfig(fetch.FetcherConfig{
		BaseURL:        opts.DocsURL,
		MaxDepth:       opts.MaxDepth,
		RateLimit:      opts.RateLimit,
		IgnorePatterns: ignore,
		OnProgress: func(url string) {
			spinner.Describe(color.CyanString("Crawling %s", url))
			spinner.Add(1)
		},
	})
	if err != nil {
		return err
	}

	pages, err := fetcher.Crawl(ctx, opts.DocsURL)
	spinner.Finish()
	if err != nil && len(pages) == 0 {
		return fmt.Errorf("failed to crawl %s: %w", opts.DocsURL, err)
	}

	bar := getProgressBar(len(pages), "Ingesting pages...")
	for _, page := range pages {
		if page.Content == "" {
			bar.Add(1)
			continue
		}

		name := page.Title
		if name == "" {
			name = page.URL
		}
		if _, err := ingestor.IngestText(ctx, name, page.Content); err != nil {
			color.Yellow("skipping %s: %v", page.URL, err)
		}
		bar.Add(1)
	}

	return bar.Finish()
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
	)
}
