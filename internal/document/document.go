// Package document defines the unit of text that flows through docqa chains:
// content plus free-form string metadata. A Document is treated as immutable
// once constructed; transforming stages produce new Documents and never
// mutate a metadata map they did not allocate.
package document

import (
	"maps"
)

// Well-known metadata keys.
const (
	// SourceKey identifies where the content came from. It is the value
	// cited back to the user in answers.
	SourceKey = "source"

	// PathKey is the filesystem path of the originating file.
	PathKey = "path"

	// TitleKey is a human-readable title derived from the source.
	TitleKey = "title"

	// FormatKey is the format the content was extracted from (pdf, text, markdown).
	FormatKey = "format"

	// QuestionKey carries the user question on retrieved documents so
	// per-document prompts can reference it.
	QuestionKey = "question"
)

// Document is a piece of text content with its metadata.
type Document struct {
	// Content is the text of the document or chunk.
	Content string

	// Metadata holds provenance and other attributes. Keys are unique.
	Metadata map[string]string
}

// New returns a Document holding content and a private copy of metadata.
func New(content string, metadata map[string]string) Document {
	return Document{Content: content, Metadata: cloneMetadata(metadata)}
}

// WithContent returns a new Document with content replaced and a copy of
// d's metadata.
func (d Document) WithContent(content string) Document {
	return Document{Content: content, Metadata: cloneMetadata(d.Metadata)}
}

// WithMetadata returns a new Document with key set to value, leaving d untouched.
func (d Document) WithMetadata(key, value string) Document {
	md := cloneMetadata(d.Metadata)
	md[key] = value
	return Document{Content: d.Content, Metadata: md}
}

// Source returns the source identifier, or "" when none is set.
func (d Document) Source() string {
	return d.Metadata[SourceKey]
}

// Get returns the metadata value for key and whether it was present.
func (d Document) Get(key string) (string, bool) {
	v, ok := d.Metadata[key]
	return v, ok
}

func cloneMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	maps.Copy(out, md)
	return out
}
