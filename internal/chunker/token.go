package chunker

import "unicode/utf8"

// charsPerToken is the approximation used throughout the packer: ~4
// characters per token. Chunk budgets are estimates, not exact tokenizer
// counts.
const charsPerToken = 4

// EstimateTokens returns floor(chars / 4) for the given text.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}
