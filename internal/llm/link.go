package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/docqa-go/internal/budget"
	"github.com/54b3r/docqa-go/internal/chain"
	"github.com/54b3r/docqa-go/internal/document"
	"github.com/54b3r/docqa-go/internal/logging"
)

// ContentVar is the template variable receiving a link's text input.
const ContentVar = "content"

// Binder maps a link input onto template variables.
type Binder[I any] func(I) map[string]any

// BindContent binds a string input to {content}.
func BindContent(in string) map[string]any {
	return map[string]any{ContentVar: in}
}

// BindDocument binds a document's metadata by key and its content to
// {content}. Content wins over a metadata key of the same name.
func BindDocument(d document.Document) map[string]any {
	vars := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		vars[k] = v
	}
	vars[ContentVar] = d.Content
	return vars
}

// Template builds an FString chat template with a system and a user
// message. Variables are written {name}; literal braces are doubled.
func Template(system, user string) prompt.ChatTemplate {
	msgs := make([]schema.MessagesTemplate, 0, 2)
	if system != "" {
		msgs = append(msgs, schema.SystemMessage(system))
	}
	msgs = append(msgs, schema.UserMessage(user))
	return prompt.FromMessages(schema.FString, msgs...)
}

// Link is the LLM invocation stage: it renders its input into tpl and
// returns the completer's answer.
type Link[I any] struct {
	tpl       prompt.ChatTemplate
	completer Completer
	params    Params
	bind      Binder[I]

	// maxPromptTokens is the estimate above which a warning is logged.
	maxPromptTokens int
}

// NewLink validates params and returns an LLM stage.
func NewLink[I any](tpl prompt.ChatTemplate, c Completer, params Params, bind Binder[I]) (*Link[I], error) {
	if tpl == nil || c == nil || bind == nil {
		return nil, chain.Invalidf("llm: template, completer and binder are required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Link[I]{
		tpl:             tpl,
		completer:       c,
		params:          params,
		bind:            bind,
		maxPromptTokens: budget.DefaultMaxContextTokens,
	}, nil
}

// Render formats the template for in without calling the LLM.
func (l *Link[I]) Render(ctx context.Context, in I) ([]*schema.Message, error) {
	msgs, err := l.tpl.Format(ctx, l.bind(in))
	if err != nil {
		return nil, fmt.Errorf("llm: render prompt: %w: %w", chain.ErrInvalidArgument, err)
	}
	return msgs, nil
}

// Run implements chain.Chain.
func (l *Link[I]) Run(ctx context.Context, in I) (string, error) {
	msgs, err := l.Render(ctx, in)
	if err != nil {
		return "", err
	}

	log := logging.FromContext(ctx)
	if est := budget.EstimateMessages(msgs); est > l.maxPromptTokens {
		log.Warn("llm: prompt exceeds token budget",
			slog.Int("estimated_tokens", est),
			slog.Int("budget", l.maxPromptTokens),
		)
	}

	return l.completer.Complete(ctx, msgs, l.params)
}
