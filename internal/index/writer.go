package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
	"github.com/54b3r/docqa-go/internal/logging"
)

// WriteDocuments stores docs in the index at path and returns an open handle
// to it, owned by the caller.
//
// If path already holds an index the documents are appended in one
// transaction. Otherwise the index is built in a temporary file next to path
// and renamed into place only after the batch committed, so a failed write
// never leaves a new index behind.
func WriteDocuments(ctx context.Context, path string, docs []document.Document) (*Handle, error) {
	log := logging.FromContext(ctx)

	if _, err := os.Stat(path); err == nil {
		h, err := Open(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := h.Write(ctx, docs); err != nil {
			_ = h.Close()
			return nil, err
		}
		log.Info("index: documents appended", slog.String("path", path), slog.Int("documents", len(docs)))
		return h, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, accessErr("stat "+path, err)
	}

	tmp := fmt.Sprintf("%s.tmp-%s", path, uuid.NewString())
	if err := build(ctx, tmp, docs); err != nil {
		removeDatabase(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		removeDatabase(tmp)
		return nil, accessErr("publish "+path, err)
	}
	log.Info("index: created", slog.String("path", path), slog.Int("documents", len(docs)))

	return Open(ctx, path)
}

// build creates a fresh index at path holding docs and closes it.
func build(ctx context.Context, path string, docs []document.Document) error {
	h, err := openDB(ctx, path)
	if err != nil {
		return err
	}
	if err := h.migrate(ctx); err != nil {
		_ = h.Close()
		return err
	}
	if err := h.Write(ctx, docs); err != nil {
		_ = h.Close()
		return err
	}
	return h.Close()
}

// removeDatabase deletes a database file and its rollback journal.
func removeDatabase(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + "-journal")
}

// NewWriter returns a link writing its input documents to the index at path.
// The handle it produces is owned by the caller of Run.
func NewWriter(path string) chain.Chain[[]document.Document, *Handle] {
	return chain.Func[[]document.Document, *Handle](func(ctx context.Context, docs []document.Document) (*Handle, error) {
		return WriteDocuments(ctx, path, docs)
	})
}
