// Package index provides the full-text document index used for retrieval.
// It is a SQLite database holding an FTS5 table; ranking uses the FTS5
// bm25() function over the content column, with ties broken by insertion
// order.
//
// A [Handle] is a scoped resource. Whoever creates or opens it owns it and
// must Close it exactly once; every other user (such as a [Retriever])
// borrows it. Concurrent searches on one handle are safe once writing has
// finished. Writing while searching is not supported.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"unicode"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
)

// schema is the DDL creating an empty index.
const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS chunks USING fts5(
    content,
    source,
    metadata UNINDEXED,
    tokenize = 'porter unicode61'
);
`

// searchSQL ranks by BM25 over content only (source weight 0). bm25() is
// negative with better matches lower, so ascending order is best-first.
const searchSQL = `
SELECT content, metadata
FROM   chunks
WHERE  chunks MATCH ?
ORDER  BY bm25(chunks, 1.0, 0.0) ASC, rowid ASC
LIMIT  ?`

// Handle is an open index.
type Handle struct {
	// db is the underlying connection pool.
	db *sql.DB

	// path is the database file location.
	path string

	// closed is set once Close has been called.
	closed atomic.Bool
}

// Open opens the existing index at path for searching and appending.
func Open(ctx context.Context, path string) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, accessErr("open "+path, err)
	}
	h, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	var n int
	row := h.db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'chunks'`)
	if err := row.Scan(&n); err != nil {
		_ = h.db.Close()
		return nil, accessErr("open "+path, err)
	}
	if n == 0 {
		_ = h.db.Close()
		return nil, accessErr("open "+path, errors.New("not a docqa index"))
	}
	return h, nil
}

// openDB opens path and creates the schema if missing.
func openDB(ctx context.Context, path string) (*Handle, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, accessErr("open "+path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, accessErr("open "+path, err)
	}
	return &Handle{db: db, path: path}, nil
}

// migrate creates the schema if it does not already exist.
func (h *Handle) migrate(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, schema); err != nil {
		return accessErr("migrate", err)
	}
	return nil
}

// Path returns the location of the index file.
func (h *Handle) Path() string {
	return h.path
}

// Write appends docs to the index in a single transaction. Either every
// document is committed or none is.
func (h *Handle) Write(ctx context.Context, docs []document.Document) error {
	if h.closed.Load() {
		return chain.ErrHandleClosed
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return accessErr("write: begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (content, source, metadata) VALUES (?, ?, ?)`)
	if err != nil {
		return accessErr("write: prepare", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		md, err := json.Marshal(d.Metadata)
		if err != nil {
			return accessErr(fmt.Sprintf("write: encode metadata of document %d", i), err)
		}
		if _, err := stmt.ExecContext(ctx, d.Content, d.Source(), string(md)); err != nil {
			return accessErr(fmt.Sprintf("write: insert document %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return accessErr("write: commit", err)
	}
	return nil
}

// Search returns at most k documents ranked by BM25 relevance to query.
// An index with no matching documents yields an empty slice.
func (h *Handle) Search(ctx context.Context, query string, k int) ([]document.Document, error) {
	if k <= 0 {
		return nil, chain.Invalidf("index: result limit must be positive, got %d", k)
	}
	if h.closed.Load() {
		return nil, chain.ErrHandleClosed
	}
	match := MatchExpression(query)
	if match == "" {
		return []document.Document{}, nil
	}
	rows, err := h.db.QueryContext(ctx, searchSQL, match, k)
	if err != nil {
		return nil, accessErr("search", err)
	}
	return scanDocuments(rows)
}

// Count returns the number of indexed documents.
func (h *Handle) Count(ctx context.Context) (int, error) {
	if h.closed.Load() {
		return 0, chain.ErrHandleClosed
	}
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, accessErr("count", err)
	}
	return n, nil
}

// Close releases the index. Calling Close more than once returns
// chain.ErrHandleClosed.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return chain.ErrHandleClosed
	}
	if err := h.db.Close(); err != nil {
		return accessErr("close", err)
	}
	return nil
}

// MatchExpression converts free text into an FTS5 query matching any of its
// words in the content column. Words are quoted so FTS5 operators in the
// input are treated as plain terms. It returns "" when text has no words.
func MatchExpression(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `content : "`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}

// scanDocuments reads (content, metadata) rows and closes them.
func scanDocuments(rows *sql.Rows) ([]document.Document, error) {
	defer rows.Close()

	docs := []document.Document{}
	for rows.Next() {
		var content, raw string
		if err := rows.Scan(&content, &raw); err != nil {
			return nil, accessErr("search: scan", err)
		}
		md := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &md); err != nil {
			return nil, accessErr("search: decode metadata", err)
		}
		docs = append(docs, document.Document{Content: content, Metadata: md})
	}
	if err := rows.Err(); err != nil {
		return nil, accessErr("search: rows", err)
	}
	return docs, nil
}

// accessErr wraps err as an index access failure for op.
func accessErr(op string, err error) error {
	return fmt.Errorf("index: %s: %w: %w", op, chain.ErrIndexAccess, err)
}
