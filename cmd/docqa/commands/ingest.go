package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/budget"
	"github.com/54b3r/docqa-go/internal/qa"
	"github.com/54b3r/docqa-go/internal/reader"
)

// NewIngestCmd constructs the `docqa ingest` command, which reads a
// directory of documents, splits them into chunks and writes them to the
// index.
func NewIngestCmd(flags *rootFlags) *cobra.Command {
	var (
		indexPath   string
		chunkTokens int
		recursive   bool
		pdfToText   string
	)

	cmd := &cobra.Command{
		Use:   "ingest [directory]",
		Short: "Index a directory of documents",
		Long: `Read every .txt, .md and .pdf file in a directory and add it to the index.

PDF files are converted with pdftotext (poppler-utils). Documents are split
into chunks of roughly --chunk-tokens tokens. If the index already exists the
new chunks are appended; otherwise it is created.

Examples:
  docqa ingest ./docs
  docqa ingest --recursive --index ./handbook.db ./handbook
  docqa ingest --chunk-tokens 500 ./papers`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			s := startSession(cmd, flags, slog.String("dir", dir))

			if cmd.Flags().Changed("index") {
				s.settings.IndexPath = indexPath
			}
			if cmd.Flags().Changed("chunk-tokens") {
				s.settings.ChunkTokens = chunkTokens
			}
			if cmd.Flags().Changed("recursive") {
				s.settings.Recursive = recursive
			}
			if cmd.Flags().Changed("pdftotext") {
				s.settings.PDFToText = pdfToText
			}

			return s.finish(runIngest(cmd, s, dir))
		},
	}

	cmd.Flags().StringVarP(&indexPath, "index", "i", "", "Index database file (default: $DOCQA_INDEX_PATH or docqa.db)")
	cmd.Flags().IntVar(&chunkTokens, "chunk-tokens", 0, "Advisory token budget per chunk (default: $DOCQA_CHUNK_TOKENS or 1000)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().StringVar(&pdfToText, "pdftotext", "", "pdftotext binary (default: $DOCQA_PDFTOTEXT or pdftotext)")

	return cmd
}

func runIngest(cmd *cobra.Command, s *session, dir string) error {
	pipeline, err := qa.NewIngestion(qa.IngestionConfig{
		Reader: reader.Config{
			PDFToText: s.settings.PDFToText,
			Recursive: s.settings.Recursive,
		},
		Tokenizer:   budget.Heuristic{},
		ChunkTokens: s.settings.ChunkTokens,
		IndexPath:   s.settings.IndexPath,
		Observer:    s.metrics,
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	defer pipeline.Close()

	s.log.Info("starting ingestion",
		slog.String("dir", dir),
		slog.String("index", s.settings.IndexPath),
		slog.Int("chunk_tokens", s.settings.ChunkTokens),
	)

	h, err := pipeline.Run(s.ctx, dir)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	defer h.Close()

	total, err := h.Count(s.ctx)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	s.metrics.SetIndexDocuments(total)

	s.log.Info("ingestion complete", slog.String("index", h.Path()), slog.Int("documents", total))
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s into %s (%d chunks total)\n", dir, h.Path(), total)
	return nil
}
