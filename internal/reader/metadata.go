package reader

import (
	"path/filepath"
	"strings"

	"github.com/54b3r/docqa-go/internal/document"
)

// Supported source formats.
const (
	FormatPDF      = "pdf"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// formatsByExt maps lower-cased file extensions to a source format.
var formatsByExt = map[string]string{
	".pdf":      FormatPDF,
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// InferredMetadata holds what can be derived from a file path alone.
type InferredMetadata struct {
	// Source is the file name, used as the citation identifier.
	Source string
	// Path is the path the file was read from.
	Path string
	// Title is the file name without extension, with separators turned into spaces.
	Title string
	// Format is one of the Format constants, or "" for unsupported files.
	Format string
}

// InferMetadata inspects path and returns best-effort metadata.
//
//	docs/john-doe_cv.pdf -> source "john-doe_cv.pdf", title "john doe cv", format "pdf"
func InferMetadata(path string) InferredMetadata {
	base := filepath.Base(path)
	ext := filepath.Ext(base)

	title := strings.TrimSuffix(base, ext)
	title = strings.NewReplacer("_", " ", "-", " ").Replace(title)
	title = strings.Join(strings.Fields(title), " ")

	return InferredMetadata{
		Source: base,
		Path:   path,
		Title:  title,
		Format: formatsByExt[strings.ToLower(ext)],
	}
}

// Map returns the metadata as document metadata keys.
func (m InferredMetadata) Map() map[string]string {
	return map[string]string{
		document.SourceKey: m.Source,
		document.PathKey:   m.Path,
		document.TitleKey:  m.Title,
		document.FormatKey: m.Format,
	}
}
