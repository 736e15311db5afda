package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ksenzov/askbase/internal/types"
	"go.uber.org/zap"
)

const enrichPrompt = `You are an expert in information search. Transform the user's question into an effective search query. Provide the response in %s.
User question: %q
Effective search query:`

// Enricher rewrites a question into a retrieval-friendly search query.
// Enrichment must never silently replace intent: degenerate output
// (near-empty, or case-insensitively identical to the input) falls
// back to the original question, as does any call failure.
type Enricher struct {
	completer types.Completer
	language  string
	log       *zap.Logger
}

func NewEnricher(completer types.Completer, language string, log *zap.Logger) *Enricher {
	if language == "" {
		language = "English"
	}
	return &Enricher{completer: completer, language: language, log: log}
}

func (e *Enricher) Enrich(ctx context.Context, question string) string {
	prompt := fmt.Sprintf(enrichPrompt, e.language, question)

	enriched, err := e.completer.Complete(ctx, prompt, 60, 0.0, []string{"\n"})
	if err != nil {
		e.log.Debug("enrichment failed, using original question", zap.Error(err))
		return question
	}

	cleaned := cleanQuery(enriched)
	if len(cleaned) <= 3 {
		return question
	}
	if strings.EqualFold(cleaned, question) {
		return question
	}
	return cleaned
}

// cleanQuery trims quoting and labels the model tends to echo back in
// front of the actual query.
func cleanQuery(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(`"`, "", "'", "").Replace(s)

	for _, label := range []string{"Effective search query:", "Improved query:", "Search query:", "Query:", "query:"} {
		if rest, ok := strings.CutPrefix(s, label); ok {
			s = rest
			break
		}
	}
	return strings.TrimSpace(s)
}
