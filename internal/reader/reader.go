// Package reader turns a directory of source files into documents, one per
// file. PDF text is extracted by running pdftotext through a [CommandRunner];
// plain text and markdown files are read directly.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
	"github.com/54b3r/docqa-go/internal/logging"
)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args, returning stdout. Stderr is included in the
// error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Config holds the options of a directory reader.
type Config struct {
	// Runner executes pdftotext. Defaults to ExecRunner.
	Runner CommandRunner

	// PDFToText is the pdftotext binary name or path. Defaults to "pdftotext".
	PDFToText string

	// Recursive descends into subdirectories when true.
	Recursive bool
}

// Directory reads every supported file of a directory.
type Directory struct {
	cfg Config
}

// NewDirectory returns a Directory reader with defaults applied to cfg.
func NewDirectory(cfg Config) *Directory {
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.PDFToText == "" {
		cfg.PDFToText = "pdftotext"
	}
	return &Directory{cfg: cfg}
}

// Run reads the directory at dir. Files are visited in lexical path order.
// Unsupported extensions are skipped; any supported file that cannot be read
// fails the whole run.
func (r *Directory) Run(ctx context.Context, dir string) ([]document.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reader: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, chain.Invalidf("reader: %s is not a directory", dir)
	}

	paths, err := r.collect(dir)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	docs := make([]document.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := r.ReadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		log.Debug("reader: document loaded",
			slog.String("path", path),
			slog.Int("chars", len(doc.Content)),
		)
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadFile reads a single supported file into a Document.
func (r *Directory) ReadFile(ctx context.Context, path string) (document.Document, error) {
	md := InferMetadata(path)

	var content string
	switch md.Format {
	case FormatPDF:
		out, err := r.cfg.Runner.Run(ctx, r.cfg.PDFToText, "-layout", "-enc", "UTF-8", path, "-")
		if err != nil {
			return document.Document{}, fmt.Errorf("reader: extract text from %s: %w", path, err)
		}
		content = string(out)
	case FormatText, FormatMarkdown:
		data, err := os.ReadFile(path)
		if err != nil {
			return document.Document{}, fmt.Errorf("reader: read %s: %w", path, err)
		}
		content = string(data)
	default:
		return document.Document{}, chain.Invalidf("reader: unsupported file type %q", filepath.Ext(path))
	}

	return document.New(content, md.Map()), nil
}

// collect returns the supported files under dir in lexical order.
func (r *Directory) collect(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !r.cfg.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if InferMetadata(path).Format != "" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reader: walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
