package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// GatewayConfig represents the configuration for the completion gateway.
type GatewayConfig struct {
	BaseURL   string // OpenAI-compatible server URL
	APIKey    string
	Model     string
	Timeout   time.Duration
	RateLimit float64 // requests per second
}

// Gateway wraps a single synchronous chat-completion call. Transport
// errors, malformed responses and empty content are all one failure
// mode: callers only see succeed or fail, never why.
type Gateway struct {
	config  GatewayConfig
	model   llms.Model
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewGateway creates a Gateway with the given configuration.
func NewGateway(config GatewayConfig, log *zap.Logger) (*Gateway, error) {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000/v1"
	}
	if config.Timeout == 0 {
		// Generation latency dominates; minutes, not seconds.
		config.Timeout = 180 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	model, err := openai.New(
		openai.WithModel(config.Model),
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(config.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-gateway",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Gateway{
		config:  config,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker: breaker,
		log:     log,
	}, nil
}

// Complete sends one prompt and returns the generated text. There are
// no retries: a failed call is a failed call, and the caller applies
// its own fallback.
func (g *Gateway) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64, stop []string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	opts := []llms.CallOption{
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	}
	if len(stop) > 0 {
		opts = append(opts, llms.WithStopWords(stop))
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.model.GenerateContent(callCtx, content, opts...)
	})
	if err != nil {
		g.log.Warn("LLM request failed", zap.Error(err))
		return "", fmt.Errorf("LLM request: %w", err)
	}

	response, ok := result.(*llms.ContentResponse)
	if !ok || response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("LLM returned empty content")
	}

	return text, nil
}
