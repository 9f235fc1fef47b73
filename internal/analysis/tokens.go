package analysis

// EstimateTokens approximates the LLM token count of a text as one token per
// 3.5 characters. It overestimates slightly on English prose, which keeps
// batched contexts safely inside model limits.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(float64(len(text))/3.5 + 0.999)
}

// EstimateCharBudget inverts the token estimate: the number of characters that
// fit inside a token budget.
func EstimateCharBudget(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return int(float64(tokens) * 3.5)
}
