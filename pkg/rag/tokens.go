package rag

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens approximates the token count of text as the larger of
// its word count and a quarter of its character count. Good enough for
// metric capture; not a tokenizer.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	chars := utf8.RuneCountInString(text)
	if words > chars/4 {
		return words
	}
	return chars / 4
}
