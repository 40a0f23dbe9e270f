package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/index"
	"github.com/54b3r/docqa-go/internal/provider"
	"github.com/54b3r/docqa-go/internal/qa"
	"github.com/54b3r/docqa-go/internal/tracing"
)

// askOptions holds the flag values of `docqa ask`.
type askOptions struct {
	indexPath   string
	topK        int
	noSummarize bool
	allowEmpty  bool
	asJSON      bool
}

// NewAskCmd constructs the `docqa ask` command, which answers a question
// from the indexed documents and prints the answer with its sources.
func NewAskCmd(flags *rootFlags) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the indexed documents",
		Long: `Answer a natural language question using the documents in the index.

The top -k chunks matching the question are retrieved, each is summarised
against the question (skip with --no-summarize), and the summaries are sent to
the model, which answers and lists the sources it used.

Examples:
  docqa ask "what is the vacation policy for contractors?"
  docqa ask -k 8 --index ./handbook.db "who approves expense reports?"
  docqa ask --json --no-summarize "when was the project started?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			s := startSession(cmd, flags, slog.Int("question_chars", len(question)))
			if cmd.Flags().Changed("index") {
				s.settings.IndexPath = opts.indexPath
			}
			if cmd.Flags().Changed("top-k") {
				s.settings.TopK = opts.topK
			}
			return s.finish(runAsk(cmd, s, question, opts))
		},
	}

	cmd.Flags().StringVarP(&opts.indexPath, "index", "i", "", "Index database file (default: $DOCQA_INDEX_PATH or docqa.db)")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Number of chunks to retrieve (default: $DOCQA_TOP_K or 4)")
	cmd.Flags().BoolVar(&opts.noSummarize, "no-summarize", false, "Send retrieved chunks to the model without summarising them first")
	cmd.Flags().BoolVar(&opts.allowEmpty, "allow-empty", false, "Ask the model even when no documents match")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the answer and sources as JSON")

	return cmd
}

func runAsk(cmd *cobra.Command, s *session, question string, opts *askOptions) error {
	ctx := s.ctx

	// Langfuse tracing is opt-in, no-op if keys are absent.
	var providerOpts []provider.Option
	tcfg := tracing.ConfigFromEnv()
	tcfg.SessionID = s.runID
	if handler, flush, ok := tracing.Setup(tcfg); ok {
		providerOpts = append(providerOpts, provider.WithCallbacks(handler))
		defer flush()
		s.log.Info("langfuse tracing enabled", slog.String("host", tcfg.Host))
	} else {
		s.log.Debug("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
	}

	completer, pcfg, err := provider.NewFromEnv(ctx, providerOpts...)
	if err != nil {
		return fmt.Errorf("ask: failed to initialise model provider: %w", err)
	}
	s.log.Info("model provider ready",
		slog.String("provider", string(pcfg.Backend)),
		slog.String("model", pcfg.ModelName()),
	)

	h, err := index.Open(ctx, s.settings.IndexPath)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	defer h.Close()

	pipeline, err := qa.NewRetrievalQA(ctx, qa.RetrievalConfig{
		Index:             h,
		TopK:              s.settings.TopK,
		Completer:         completer,
		Params:            pcfg.Params(),
		SkipSummarize:     opts.noSummarize,
		AllowEmptyContext: opts.allowEmpty,
		Observer:          s.metrics,
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	defer pipeline.Close()

	result, err := pipeline.Run(ctx, question)
	if err != nil {
		if qa.IsNoContext(err) {
			return fmt.Errorf("ask: no documents in %s match the question (use --allow-empty to ask anyway): %w", h.Path(), err)
		}
		return fmt.Errorf("ask: %w", err)
	}
	s.metrics.ObserveAnswer(len(result.Sources))

	return printAnswer(cmd, result, opts.asJSON)
}

func printAnswer(cmd *cobra.Command, result qa.AnswerWithSources, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, result.Answer)
	if len(result.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for _, src := range result.Sources {
		fmt.Fprintf(out, "  - %s\n", src)
	}
	return nil
}
