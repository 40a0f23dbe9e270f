package qa

import (
	"context"
	"regexp"
	"strings"

	"github.com/54b3r/docqa-go/internal/chain"
)

// AnswerWithSources is an LLM answer split from its trailing citations.
type AnswerWithSources struct {
	// Answer is the trimmed text before the sources header.
	Answer string `json:"answer"`

	// Sources are the cited identifiers in the order given. Duplicates are
	// kept. Never nil.
	Sources []string `json:"sources"`
}

// sourcesHeader finds the first "Source:" or "Sources:" header, in any
// case, optionally on its own line. Group 1 is the answer, group 2 the
// comma-separated list.
var sourcesHeader = regexp.MustCompile(`(?is)^(.*?)\r?\n?[ \t]*\bsources?:(.*)$`)

// ExtractAnswer parses text into an answer and its sources. Without a
// header the whole trimmed text is the answer and there are no sources.
// Empty list items are dropped.
func ExtractAnswer(text string) AnswerWithSources {
	m := sourcesHeader.FindStringSubmatch(text)
	if m == nil {
		return AnswerWithSources{Answer: strings.TrimSpace(text), Sources: []string{}}
	}

	sources := []string{}
	for _, item := range strings.Split(m[2], ",") {
		if s := strings.TrimSpace(item); s != "" {
			sources = append(sources, s)
		}
	}
	return AnswerWithSources{Answer: strings.TrimSpace(m[1]), Sources: sources}
}

// Extractor returns the answer-with-sources link. It never fails.
func Extractor() chain.Chain[string, AnswerWithSources] {
	return chain.Func[string, AnswerWithSources](func(_ context.Context, text string) (AnswerWithSources, error) {
		return ExtractAnswer(text), nil
	})
}
