package analysis

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Fatalf("empty text = %d tokens", got)
	}
	if got := EstimateTokens("abcdefg"); got != 2 {
		t.Fatalf("7 chars = %d tokens, want 2", got)
	}
	if got := EstimateTokens(strings.Repeat("a", 35)); got != 10 {
		t.Fatalf("35 chars = %d tokens, want 10", got)
	}
}

func TestEstimateCharBudget(t *testing.T) {
	if got := EstimateCharBudget(10); got != 35 {
		t.Fatalf("10 tokens = %d chars, want 35", got)
	}
	if got := EstimateCharBudget(0); got != 0 {
		t.Fatalf("0 tokens = %d chars", got)
	}
}
