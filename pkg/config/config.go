package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL        string  `yaml:"base_url"`
		APIKey         string  `yaml:"api_key"`
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		SearchLanguage string  `yaml:"search_language"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit"`
	} `yaml:"llm"`

	Embedding struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"embedding"`

	Reranker struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"reranker"`

	Qdrant struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		Collection     string   `yaml:"collection"`
		VectorDim      int      `yaml:"vector_dim"`
		ScoreThreshold float64  `yaml:"score_threshold"`
		TopK           int      `yaml:"top_k"`
		Filters        []string `yaml:"filters"`
	} `yaml:"qdrant"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Processor struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processor"`
}

func LoadConfig(path string) (*Config, error) {
	// A .env next to the binary is optional; real env always wins.
	_ = godotenv.Load()

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/askbase/config.yaml"),
			"/etc/askbase/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:8000/v1"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-4o-mini"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 512
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.1
	}
	if config.LLM.SearchLanguage == "" {
		config.LLM.SearchLanguage = "English"
	}
	if config.LLM.TimeoutSeconds == 0 {
		config.LLM.TimeoutSeconds = 180
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 2.0
	}

	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "http://localhost:11434"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text:latest"
	}

	if config.Reranker.TimeoutSeconds == 0 {
		config.Reranker.TimeoutSeconds = 30
	}

	if config.Qdrant.Host == "" {
		config.Qdrant.Host = "localhost"
	}
	if config.Qdrant.Port == 0 {
		config.Qdrant.Port = 6334
	}
	if config.Qdrant.Collection == "" {
		config.Qdrant.Collection = "knowledge_base"
	}
	if config.Qdrant.VectorDim == 0 {
		config.Qdrant.VectorDim = 768
	}
	if config.Qdrant.ScoreThreshold == 0 {
		config.Qdrant.ScoreThreshold = 0.5
	}
	if config.Qdrant.TopK == 0 {
		config.Qdrant.TopK = 5
	}

	if config.Mongo.URI == "" {
		config.Mongo.URI = "mongodb://localhost:27017"
	}
	if config.Mongo.Database == "" {
		config.Mongo.Database = "askbase"
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 200
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OPENAI_API_BASE"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}
	if ollamaURL := os.Getenv("OLLAMA_BASE_URL"); ollamaURL != "" {
		config.Embedding.BaseURL = ollamaURL
	}
	if rerankerURL := os.Getenv("RERANKER_URL"); rerankerURL != "" {
		config.Reranker.URL = rerankerURL
	}
	if host := os.Getenv("QDRANT_HOST"); host != "" {
		config.Qdrant.Host = host
	}
	if port := os.Getenv("QDRANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Qdrant.Port = p
		}
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}
