package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
)

func doc(content, source string) document.Document {
	return document.New(content, map[string]string{document.SourceKey: source})
}

// newIndex writes docs to a fresh index and registers its cleanup.
func newIndex(t *testing.T, docs ...document.Document) *Handle {
	t.Helper()
	h, err := WriteDocuments(t.Context(), filepath.Join(t.TempDir(), "docs.db"), docs)
	if err != nil {
		t.Fatalf("WriteDocuments() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestMatchExpression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"punctuation only", "?!  ...", ""},
		{"single word", "Hello", `content : "hello"`},
		{"dedup and order", "red blue RED", `content : "red" OR content : "blue"`},
		{"operators neutralised", `a AND "b" NEAR(c)`, `content : "a" OR content : "and" OR content : "b" OR content : "near" OR content : "c"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := MatchExpression(tc.in); got != tc.want {
				t.Errorf("MatchExpression(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWriteAndSearch(t *testing.T) {
	t.Parallel()

	h := newIndex(t,
		doc("The quick brown fox jumps over the lazy dog.", "fox.txt"),
		doc("Terraform modules describe infrastructure.", "tf.txt"),
		doc("Gardening tips for tomatoes.", "garden.txt"),
	)

	got, err := h.Search(t.Context(), "Terraform modules describe infrastructure.", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) == 0 || got[0].Source() != "tf.txt" {
		t.Fatalf("Search() first result = %+v, want tf.txt", got)
	}
	if got[0].Content != "Terraform modules describe infrastructure." {
		t.Errorf("content = %q", got[0].Content)
	}
}

func TestSearch_LimitsResults(t *testing.T) {
	t.Parallel()

	h := newIndex(t,
		doc("apple one", "1"),
		doc("apple two", "2"),
		doc("apple three", "3"),
	)
	got, err := h.Search(t.Context(), "apple", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Search() returned %d documents, want 2", len(got))
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	h := newIndex(t,
		doc("same words here", "first"),
		doc("same words here", "second"),
		doc("same words here", "third"),
	)
	got, err := h.Search(t.Context(), "same words", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Source() != want {
			t.Errorf("result %d source = %q, want %q", i, got[i].Source(), want)
		}
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	t.Parallel()

	h := newIndex(t)
	got, err := h.Search(t.Context(), "anything", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Search() = %#v, want empty non-nil slice", got)
	}
	n, err := h.Count(t.Context())
	if err != nil || n != 0 {
		t.Errorf("Count() = %d, %v, want 0, nil", n, err)
	}
}

func TestSearch_InvalidLimit(t *testing.T) {
	t.Parallel()

	h := newIndex(t, doc("x", "x"))
	for _, k := range []int{0, -1} {
		if _, err := h.Search(t.Context(), "x", k); !errors.Is(err, chain.ErrInvalidArgument) {
			t.Errorf("Search(k=%d) error = %v, want ErrInvalidArgument", k, err)
		}
	}
}

func TestHandle_Close(t *testing.T) {
	t.Parallel()

	h, err := WriteDocuments(t.Context(), filepath.Join(t.TempDir(), "docs.db"), []document.Document{doc("x", "x")})
	if err != nil {
		t.Fatalf("WriteDocuments() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := h.Search(t.Context(), "x", 1); !errors.Is(err, chain.ErrHandleClosed) {
		t.Errorf("Search() after Close error = %v, want ErrHandleClosed", err)
	}
	if err := h.Write(t.Context(), nil); !errors.Is(err, chain.ErrHandleClosed) {
		t.Errorf("Write() after Close error = %v, want ErrHandleClosed", err)
	}
	if err := h.Close(); !errors.Is(err, chain.ErrHandleClosed) {
		t.Errorf("second Close() error = %v, want ErrHandleClosed", err)
	}
}

func TestWriteDocuments_AppendsToExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docs.db")
	h, err := WriteDocuments(t.Context(), path, []document.Document{doc("first batch", "a")})
	if err != nil {
		t.Fatalf("first write error = %v", err)
	}
	_ = h.Close()

	h, err = WriteDocuments(t.Context(), path, []document.Document{doc("second batch", "b")})
	if err != nil {
		t.Fatalf("second write error = %v", err)
	}
	defer h.Close()

	n, err := h.Count(t.Context())
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v, want 2, nil", n, err)
	}
}

func TestWriteDocuments_FailureLeavesNoIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "docs.db")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := WriteDocuments(ctx, path, []document.Document{doc("x", "x")}); err == nil {
		t.Fatal("WriteDocuments() with cancelled context succeeded")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("index file exists after failed write: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("leftover files after failed write: %v", entries)
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Open(t.Context(), filepath.Join(dir, "missing.db")); !errors.Is(err, chain.ErrIndexAccess) {
		t.Errorf("Open(missing) error = %v, want ErrIndexAccess", err)
	}

	plain := filepath.Join(dir, "plain.db")
	if err := os.WriteFile(plain, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(t.Context(), plain); !errors.Is(err, chain.ErrIndexAccess) {
		t.Errorf("Open(non-index) error = %v, want ErrIndexAccess", err)
	}
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docs.db")
	h, err := NewWriter(path).Run(t.Context(), []document.Document{doc("hello world", "h")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer h.Close()
	if h.Path() != path {
		t.Errorf("Path() = %q, want %q", h.Path(), path)
	}
}

func TestRetriever(t *testing.T) {
	t.Parallel()

	h := newIndex(t,
		document.New("Paris is the capital of France.", map[string]string{document.SourceKey: "fr", "lang": "en"}),
		doc("Berlin is the capital of Germany.", "de"),
	)

	r, err := NewRetriever(t.Context(), h, 1, WithQuestion())
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	got, err := r.Run(t.Context(), "capital of France")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 1 || got[0].Source() != "fr" {
		t.Fatalf("Run() = %+v, want the fr document", got)
	}
	if q, _ := got[0].Get(document.QuestionKey); q != "capital of France" {
		t.Errorf("question metadata = %q", q)
	}
	if lang, _ := got[0].Get("lang"); lang != "en" {
		t.Errorf("stored metadata lost: lang = %q", lang)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Retriever.Close() error = %v", err)
	}
	if _, err := h.Count(t.Context()); err != nil {
		t.Errorf("handle unusable after retriever Close: %v", err)
	}
}

func TestRetriever_Errors(t *testing.T) {
	t.Parallel()

	h := newIndex(t, doc("x", "x"))
	if _, err := NewRetriever(t.Context(), h, 0); !errors.Is(err, chain.ErrInvalidArgument) {
		t.Errorf("NewRetriever(k=0) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewRetriever(t.Context(), nil, 1); !errors.Is(err, chain.ErrInvalidArgument) {
		t.Errorf("NewRetriever(nil) error = %v, want ErrInvalidArgument", err)
	}

	path := filepath.Join(t.TempDir(), "closed.db")
	closed, err := WriteDocuments(t.Context(), path, []document.Document{doc("x", "x")})
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRetriever(t.Context(), closed, 1)
	if err != nil {
		t.Fatal(err)
	}
	_ = closed.Close()
	if _, err := r.Run(t.Context(), "x"); !errors.Is(err, chain.ErrHandleClosed) {
		t.Errorf("Run() on closed handle error = %v, want ErrHandleClosed", err)
	}
}
