// Package budget provides token estimation for docqa. Because the LLM stage
// supports several backends with different tokenizers, this package uses a
// character heuristic: 1 token ≈ 4 characters of English prose. It backs the
// text splitter's token budget and the LLM stage's prompt-size warning.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// DefaultMaxContextTokens is the prompt budget the LLM stage warns above.
	// It fits 4k-context models such as gpt-3.5-turbo with room for output.
	DefaultMaxContextTokens = 3000

	// messageOverhead is the per-message token cost charged by chat APIs.
	messageOverhead = 4
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += messageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Heuristic is a tokenizer counting tokens with [Estimate]. The zero value
// is ready to use.
type Heuristic struct{}

// Count returns the estimated token count of text.
func (Heuristic) Count(text string) int {
	return Estimate(text)
}
