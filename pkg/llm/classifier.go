package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ksenzov/askbase/internal/models"
	"github.com/ksenzov/askbase/internal/types"
	"go.uber.org/zap"
)

const classifyPrompt = `You are an expert in question classification. Determine the most appropriate category for the following employee question. Choose ONLY ONE category from the list below and write ONLY ITS NAME in your response. DO NOT ADD any other words or explanations.

Categories and their descriptions:
1. Lookup: Searching for specific information.
2. Calculation: Performing calculations.

Employee question: %q
Category:`

// Classifier assigns one label from the closed category set. It never
// returns an error: any call or parse failure becomes the default
// category.
type Classifier struct {
	completer types.Completer
	log       *zap.Logger
}

func NewClassifier(completer types.Completer, log *zap.Logger) *Classifier {
	return &Classifier{completer: completer, log: log}
}

func (c *Classifier) Classify(ctx context.Context, question string) models.Category {
	prompt := fmt.Sprintf(classifyPrompt, question)

	result, err := c.completer.Complete(ctx, prompt, 20, 0.0, []string{"\n", "."})
	if err != nil {
		c.log.Debug("classification failed, using default", zap.Error(err))
		return models.CategoryDefault
	}

	if category, ok := models.ParseCategory(cleanLabel(result)); ok {
		return category
	}
	return models.CategoryDefault
}

// cleanLabel strips quoting, markdown emphasis and trailing punctuation
// the model may have wrapped the label in, and keeps only the first
// line.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s, _, _ = strings.Cut(s, "\n")
	s = strings.NewReplacer(`"`, "", "'", "", "*", "", ".", "").Replace(s)
	return strings.TrimSpace(s)
}
