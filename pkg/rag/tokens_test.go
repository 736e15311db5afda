package rag_test

import (
	"strings"
	"testing"

	"github.com/ksenzov/askbase/pkg/rag"
	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single word", "hello", 1},
		{"words dominate", "a b c d e", 5},
		{"characters dominate", strings.Repeat("x", 40), 10},
		{"unicode counts runes", strings.Repeat("ё", 40), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rag.EstimateTokens(tt.text))
		})
	}
}

func TestEstimateTokens_NeverNegative(t *testing.T) {
	assert.GreaterOrEqual(t, rag.EstimateTokens("   "), 0)
}
