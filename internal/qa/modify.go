package qa

import (
	"context"
	"fmt"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
)

// ModifyContent returns a link replacing each document's content with the
// output of transform, keeping order, count and metadata. The first failure
// fails the whole batch and no documents are returned.
func ModifyContent(transform chain.Chain[document.Document, string]) chain.Chain[[]document.Document, []document.Document] {
	return chain.Func[[]document.Document, []document.Document](func(ctx context.Context, docs []document.Document) ([]document.Document, error) {
		out := make([]document.Document, len(docs))
		for i, d := range docs {
			content, err := transform.Run(ctx, d)
			if err != nil {
				return nil, fmt.Errorf("qa: modify document %d (%s): %w", i, d.Source(), err)
			}
			out[i] = d.WithContent(content)
		}
		return out, nil
	})
}

// OnContent lifts a text transformer to one taking documents.
func OnContent(text chain.Chain[string, string]) chain.Chain[document.Document, string] {
	return chain.Func[document.Document, string](func(ctx context.Context, d document.Document) (string, error) {
		return text.Run(ctx, d.Content)
	})
}
