package index

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
	"github.com/54b3r/docqa-go/internal/logging"
)

// RetrieverOption customises a Retriever.
type RetrieverOption func(*Retriever)

// WithQuestion stamps the query into every retrieved document's metadata
// under document.QuestionKey, so later per-document prompts can use it.
func WithQuestion() RetrieverOption {
	return func(r *Retriever) {
		r.annotate = true
	}
}

// Retriever is the retrieval link: it maps a query to the top-k documents of
// a borrowed index handle. It owns only its prepared statement; Close
// releases that and leaves the handle open.
type Retriever struct {
	// handle is borrowed from its owner.
	handle *Handle

	// stmt is the prepared ranking query.
	stmt *sql.Stmt

	// k is the maximum number of documents returned per query.
	k int

	// annotate adds the question to each result's metadata.
	annotate bool
}

// NewRetriever prepares a Retriever returning at most k documents from h.
// k must be positive.
func NewRetriever(ctx context.Context, h *Handle, k int, opts ...RetrieverOption) (*Retriever, error) {
	if h == nil {
		return nil, chain.Invalidf("index: handle must not be nil")
	}
	if k <= 0 {
		return nil, chain.Invalidf("index: result limit must be positive, got %d", k)
	}
	if h.closed.Load() {
		return nil, chain.ErrHandleClosed
	}
	stmt, err := h.db.PrepareContext(ctx, searchSQL)
	if err != nil {
		return nil, accessErr("prepare search", err)
	}
	r := &Retriever{handle: h, stmt: stmt, k: k}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run returns the documents best matching query, best first.
func (r *Retriever) Run(ctx context.Context, query string) ([]document.Document, error) {
	if r.handle.closed.Load() {
		return nil, chain.ErrHandleClosed
	}

	docs := []document.Document{}
	if match := MatchExpression(query); match != "" {
		rows, err := r.stmt.QueryContext(ctx, match, r.k)
		if err != nil {
			return nil, accessErr("search", err)
		}
		docs, err = scanDocuments(rows)
		if err != nil {
			return nil, err
		}
	}

	if r.annotate {
		for i := range docs {
			docs[i] = docs[i].WithMetadata(document.QuestionKey, query)
		}
	}

	logging.FromContext(ctx).Debug("index: retrieved documents",
		slog.Int("k", r.k),
		slog.Int("results", len(docs)),
	)
	return docs, nil
}

// Close releases the prepared statement. The borrowed handle stays open.
func (r *Retriever) Close() error {
	if err := r.stmt.Close(); err != nil {
		return accessErr("close retriever", err)
	}
	return nil
}
