// Package split breaks documents into chunks bounded by a token budget.
// Chunks are cut on sentence and paragraph boundaries; concatenating the
// chunks of a document reproduces its content exactly.
package split

import (
	"context"
	"regexp"
	"strings"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
)

// Tokenizer counts the tokens of a text. Implementations must be
// deterministic and safe for concurrent use.
type Tokenizer interface {
	// Count returns the number of tokens in text.
	Count(text string) int
}

// boundary matches the separator that closes a sentence or a paragraph.
// The separator belongs to the unit it closes.
var boundary = regexp.MustCompile(`[.!?]+[ \t\r\n]+|\n[ \t]*\n[ \t\r\n]*`)

// Splitter cuts documents into token-bounded chunks.
type Splitter struct {
	// tokenizer counts tokens for the budget check.
	tokenizer Tokenizer

	// maxTokens is the advisory per-chunk budget.
	maxTokens int
}

// New returns a Splitter enforcing maxTokens per chunk with tokenizer.
// maxTokens must be positive.
func New(tokenizer Tokenizer, maxTokens int) (*Splitter, error) {
	if tokenizer == nil {
		return nil, chain.Invalidf("split: tokenizer must not be nil")
	}
	if maxTokens <= 0 {
		return nil, chain.Invalidf("split: max tokens must be positive, got %d", maxTokens)
	}
	return &Splitter{tokenizer: tokenizer, maxTokens: maxTokens}, nil
}

// Split returns doc unchanged when its content fits the budget. Otherwise it
// accumulates sentence/paragraph units greedily and starts a new chunk when
// the next unit would push the current one over budget. A single unit larger
// than the budget becomes its own oversized chunk. Every chunk carries a copy
// of doc's metadata.
func (s *Splitter) Split(doc document.Document) []document.Document {
	if s.tokenizer.Count(doc.Content) <= s.maxTokens {
		return []document.Document{doc}
	}

	var chunks []document.Document
	var current strings.Builder
	for _, unit := range units(doc.Content) {
		if current.Len() > 0 && s.tokenizer.Count(current.String()+unit) > s.maxTokens {
			chunks = append(chunks, doc.WithContent(current.String()))
			current.Reset()
		}
		current.WriteString(unit)
	}
	if current.Len() > 0 {
		chunks = append(chunks, doc.WithContent(current.String()))
	}
	return chunks
}

// Chain returns a link splitting every input document in order.
func (s *Splitter) Chain() chain.Chain[[]document.Document, []document.Document] {
	return chain.Func[[]document.Document, []document.Document](
		func(_ context.Context, docs []document.Document) ([]document.Document, error) {
			out := make([]document.Document, 0, len(docs))
			for _, d := range docs {
				out = append(out, s.Split(d)...)
			}
			return out, nil
		})
}

// units splits text into consecutive sentence/paragraph units whose
// concatenation equals text.
func units(text string) []string {
	var out []string
	prev := 0
	for _, loc := range boundary.FindAllStringIndex(text, -1) {
		out = append(out, text[prev:loc[1]])
		prev = loc[1]
	}
	if prev < len(text) {
		out = append(out, text[prev:])
	}
	return out
}
