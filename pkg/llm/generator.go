package llm

import (
	"context"
	"fmt"

	"github.com/ksenzov/askbase/internal/types"
)

// GeneratorConfig bounds answer generation. Temperature stays low on
// purpose: this is fact lookup, not creative writing.
type GeneratorConfig struct {
	MaxTokens   int
	Temperature float64
}

// Generator produces the final answer from the question and the
// assembled context block.
type Generator struct {
	completer types.Completer
	config    GeneratorConfig
}

func NewGenerator(completer types.Completer, config GeneratorConfig) *Generator {
	if config.MaxTokens == 0 {
		config.MaxTokens = 512
	}
	if config.Temperature == 0 {
		config.Temperature = 0.1
	}
	return &Generator{completer: completer, config: config}
}

// Generate is invoked even with an empty context block, so the model
// can say that no information was found instead of the service
// short-circuiting with a canned message.
func (g *Generator) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	prompt := fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nAnswer:", question, contextBlock)
	return g.completer.Complete(ctx, prompt, g.config.MaxTokens, g.config.Temperature, nil)
}
