package qa

import (
	"context"
	"strings"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
)

// separator fences the question and the document blocks in a combined prompt.
const separator = "========="

// unknownSource labels documents that carry no source metadata.
const unknownSource = "unknown"

// CombineDocuments merges docs into one prompt-ready block:
//
//	QUESTION: <question>
//	=========
//	Content: <content of doc 1>
//	Source: <source of doc 1>
//
//	Content: <content of doc 2>
//	Source: <source of doc 2>
//	=========
//
// The question header is written only when the first document carries
// document.QuestionKey. No documents yield "".
func CombineDocuments(docs []document.Document) string {
	if len(docs) == 0 {
		return ""
	}

	var b strings.Builder
	if q, ok := docs[0].Get(document.QuestionKey); ok && q != "" {
		b.WriteString("QUESTION: ")
		b.WriteString(q)
		b.WriteString("\n" + separator + "\n")
	}
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		source := d.Source()
		if source == "" {
			source = unknownSource
		}
		b.WriteString("Content: ")
		b.WriteString(d.Content)
		b.WriteString("\nSource: ")
		b.WriteString(source)
	}
	b.WriteString("\n" + separator)
	return b.String()
}

// Combiner returns the combining link.
func Combiner() chain.Chain[[]document.Document, string] {
	return chain.Func[[]document.Document, string](func(_ context.Context, docs []document.Document) (string, error) {
		return CombineDocuments(docs), nil
	})
}
