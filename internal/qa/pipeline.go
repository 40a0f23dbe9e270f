// Package qa assembles docqa's retrieval-augmented question answering from
// the chain links of the other packages, and provides the QA-specific links:
// content modification, document combination and answer-with-sources
// extraction.
//
// Query pipeline:
//
//	question -> retrieve -> summarize -> combine -> answer -> extract -> AnswerWithSources
//
// Ingestion pipeline:
//
//	directory -> read -> split -> write -> *index.Handle
package qa

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"

	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
	"github.com/54b3r/docqa-go/internal/index"
	"github.com/54b3r/docqa-go/internal/llm"
	"github.com/54b3r/docqa-go/internal/reader"
	"github.com/54b3r/docqa-go/internal/split"
)

// Stage names reported in errors, logs and metrics.
const (
	StageRead      = "read"
	StageSplit     = "split"
	StageWrite     = "write"
	StageRetrieve  = "retrieve"
	StageSummarize = "summarize"
	StageCombine   = "combine"
	StageAnswer    = "answer"
	StageExtract   = "extract"
)

// ErrNoContext is returned by the answer stage when retrieval found nothing
// and RetrievalConfig.AllowEmptyContext is false.
var ErrNoContext = fmt.Errorf("%w: no relevant documents found", chain.ErrInvalidArgument)

// RetrievalConfig configures [NewRetrievalQA].
type RetrievalConfig struct {
	// Index is borrowed; the pipeline never closes it.
	Index *index.Handle

	// TopK is the number of documents retrieved per question.
	TopK int

	// Completer serves both LLM stages.
	Completer llm.Completer

	// Params are sent with every LLM request.
	Params llm.Params

	// SummarizePrompt and CombinePrompt default to DefaultSummarizePrompt
	// and DefaultCombinePrompt.
	SummarizePrompt prompt.ChatTemplate
	CombinePrompt   prompt.ChatTemplate

	// SkipSummarize passes retrieved documents to the combiner unchanged,
	// saving one LLM call per document.
	SkipSummarize bool

	// AllowEmptyContext sends the answer prompt even when nothing was retrieved.
	AllowEmptyContext bool

	// Observer, if set, is attached to every stage.
	Observer chain.Observer
}

// NewRetrievalQA builds the question answering chain. Closing the returned
// chain releases the retrieval statement; the index handle stays open.
func NewRetrievalQA(ctx context.Context, cfg RetrievalConfig) (*chain.Composed[string, AnswerWithSources], error) {
	if cfg.Completer == nil {
		return nil, chain.Invalidf("qa: completer is required")
	}
	if cfg.SummarizePrompt == nil {
		cfg.SummarizePrompt = DefaultSummarizePrompt()
	}
	if cfg.CombinePrompt == nil {
		cfg.CombinePrompt = DefaultCombinePrompt()
	}
	opts := stageOptions(cfg.Observer)

	summarizer, err := llm.NewLink(cfg.SummarizePrompt, cfg.Completer, cfg.Params, llm.BindDocument)
	if err != nil {
		return nil, err
	}
	answerer, err := llm.NewLink(cfg.CombinePrompt, cfg.Completer, cfg.Params, llm.BindContent)
	if err != nil {
		return nil, err
	}
	retriever, err := index.NewRetriever(ctx, cfg.Index, cfg.TopK, index.WithQuestion())
	if err != nil {
		return nil, err
	}

	var docs chain.Chain[string, []document.Document] = chain.Stage(StageRetrieve, chain.Chain[string, []document.Document](retriever), opts...)
	if !cfg.SkipSummarize {
		docs = chain.Then(docs, chain.Stage(StageSummarize, ModifyContent(summarizer), opts...))
	}
	combined := chain.Then(docs, chain.Stage(StageCombine, Combiner(), opts...))

	var answer chain.Chain[string, string] = answerer
	if !cfg.AllowEmptyContext {
		answer = requireContext(answerer)
	}
	answered := chain.Then[string, string, string](combined, chain.Stage(StageAnswer, answer, opts...))

	return chain.Then(chain.Chain[string, string](answered), chain.Stage(StageExtract, Extractor(), opts...)), nil
}

// requireContext fails with ErrNoContext on empty input instead of calling next.
func requireContext(next chain.Chain[string, string]) chain.Chain[string, string] {
	return chain.Func[string, string](func(ctx context.Context, in string) (string, error) {
		if in == "" {
			return "", ErrNoContext
		}
		return next.Run(ctx, in)
	})
}

// IngestionConfig configures [NewIngestion].
type IngestionConfig struct {
	// Reader configures the directory reader.
	Reader reader.Config

	// Tokenizer counts tokens for splitting.
	Tokenizer split.Tokenizer

	// ChunkTokens is the advisory chunk budget.
	ChunkTokens int

	// IndexPath is where the index is created or appended to.
	IndexPath string

	// Observer, if set, is attached to every stage.
	Observer chain.Observer
}

// NewIngestion builds the chain reading a directory into the index at
// cfg.IndexPath. The handle it returns is owned by the caller.
func NewIngestion(cfg IngestionConfig) (*chain.Composed[string, *index.Handle], error) {
	if cfg.IndexPath == "" {
		return nil, chain.Invalidf("qa: index path is required")
	}
	splitter, err := split.New(cfg.Tokenizer, cfg.ChunkTokens)
	if err != nil {
		return nil, err
	}
	opts := stageOptions(cfg.Observer)

	read := chain.Stage(StageRead, chain.Chain[string, []document.Document](reader.NewDirectory(cfg.Reader)), opts...)
	chunks := chain.Then(read, chain.Stage(StageSplit, splitter.Chain(), opts...))
	return chain.Then[string, []document.Document, *index.Handle](chunks, chain.Stage(StageWrite, index.NewWriter(cfg.IndexPath), opts...)), nil
}

func stageOptions(obs chain.Observer) []chain.StageOption {
	if obs == nil {
		return nil
	}
	return []chain.StageOption{chain.WithObserver(obs)}
}

// IsNoContext reports whether err is an [ErrNoContext] failure.
func IsNoContext(err error) bool {
	return errors.Is(err, ErrNoContext)
}
