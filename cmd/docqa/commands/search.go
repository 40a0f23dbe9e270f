package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/document"
	"github.com/54b3r/docqa-go/internal/index"
)

// snippetRunes bounds the content preview printed per search hit.
const snippetRunes = 120

// NewSearchCmd constructs the `docqa search` command, which prints the
// documents the index ranks highest for a query without calling an LLM.
func NewSearchCmd(flags *rootFlags) *cobra.Command {
	var (
		indexPath string
		topK      int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Show the indexed chunks that best match a query",
		Long: `Search the index and print the best matching chunks in rank order.

Useful for checking what 'docqa ask' will retrieve for a question.

Examples:
  docqa search "vacation policy"
  docqa search -k 10 --json "quarterly revenue"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			s := startSession(cmd, flags, slog.Int("query_chars", len(query)))
			if cmd.Flags().Changed("index") {
				s.settings.IndexPath = indexPath
			}
			if cmd.Flags().Changed("top-k") {
				s.settings.TopK = topK
			}
			return s.finish(runSearch(cmd, s, query, asJSON))
		},
	}

	cmd.Flags().StringVarP(&indexPath, "index", "i", "", "Index database file (default: $DOCQA_INDEX_PATH or docqa.db)")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to return (default: $DOCQA_TOP_K or 4)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

// searchHit is the JSON form of one search result.
type searchHit struct {
	Rank     int               `json:"rank"`
	Source   string            `json:"source"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func runSearch(cmd *cobra.Command, s *session, query string, asJSON bool) error {
	h, err := index.Open(s.ctx, s.settings.IndexPath)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	defer h.Close()

	docs, err := h.Search(s.ctx, query, s.settings.TopK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		hits := make([]searchHit, 0, len(docs))
		for i, d := range docs {
			hits = append(hits, searchHit{Rank: i + 1, Source: d.Source(), Content: d.Content, Metadata: d.Metadata})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(docs) == 0 {
		fmt.Fprintln(out, "No matching documents.")
		return nil
	}
	for i, d := range docs {
		fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, sourceLabel(d), snippet(d.Content))
	}
	return nil
}

func sourceLabel(d document.Document) string {
	if src := d.Source(); src != "" {
		return src
	}
	return "(no source)"
}

// snippet flattens whitespace and truncates s to snippetRunes.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > snippetRunes {
		return string(r[:snippetRunes]) + "..."
	}
	return s
}
