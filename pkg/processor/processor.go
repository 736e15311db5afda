package processor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ProcessorConfig represents the configuration for document processing.
type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Processor turns uploaded files into retrieval-sized text chunks.
type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 5
	}

	return Processor{
		config: config,
	}
}

// AllowedFile reports whether the filename has a supported extension.
func AllowedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

// Process extracts text from the file and splits it into chunks.
func (p *Processor) Process(path, originalFilename string) ([]string, error) {
	if !AllowedFile(originalFilename) {
		return nil, fmt.Errorf("unsupported file type: %s", originalFilename)
	}

	text, err := p.ExtractText(path, originalFilename)
	if err != nil {
		return nil, err
	}

	chunks := p.SplitIntoChunks(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", originalFilename)
	}
	return chunks, nil
}

// ExtractText reads the file's plain text. The extension of the
// original filename decides the extraction method, since upload
// handlers stage files under temporary names.
func (p *Processor) ExtractText(path, originalFilename string) (string, error) {
	switch strings.ToLower(filepath.Ext(originalFilename)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	case ".pdf":
		return extractPDF(path)
	}
	return "", fmt.Errorf("unsupported file type: %s", originalFilename)
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

// SplitIntoChunks cuts text into fixed-size overlapping windows.
// Chunks are trimmed and empty ones dropped.
func (p *Processor) SplitIntoChunks(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := p.config.ChunkSize - p.config.ChunkOverlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + p.config.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}
