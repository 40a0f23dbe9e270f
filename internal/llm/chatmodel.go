package llm

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelCompleter adapts an eino chat model to [Completer], so every
// backend built by the provider package can serve the LLM stage.
type ChatModelCompleter struct {
	model    model.BaseChatModel
	name     string
	handlers []callbacks.Handler

	// noTemperature suppresses the temperature option for models that
	// reject it.
	noTemperature bool
}

// ChatModelOption customises a ChatModelCompleter.
type ChatModelOption func(*ChatModelCompleter)

// WithCallbacks initialises handlers (for example langfuse tracing) around
// every Generate call. Handlers registered globally with
// callbacks.AppendGlobalHandlers run regardless.
func WithCallbacks(handlers ...callbacks.Handler) ChatModelOption {
	return func(c *ChatModelCompleter) {
		c.handlers = append(c.handlers, handlers...)
	}
}

// WithRunName sets the run name reported to callback handlers.
func WithRunName(name string) ChatModelOption {
	return func(c *ChatModelCompleter) {
		c.name = name
	}
}

// WithoutTemperature never forwards Params.Temperature. Reasoning models
// such as the o-series reject the parameter.
func WithoutTemperature() ChatModelOption {
	return func(c *ChatModelCompleter) {
		c.noTemperature = true
	}
}

// NewChatModelCompleter wraps m.
func NewChatModelCompleter(m model.BaseChatModel, opts ...ChatModelOption) *ChatModelCompleter {
	c := &ChatModelCompleter{model: m, name: "docqa"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete implements Completer. Params.Model is forwarded only when set so
// the backend's configured model is used by default.
func (c *ChatModelCompleter) Complete(ctx context.Context, msgs []*schema.Message, p Params) (string, error) {
	if len(c.handlers) > 0 {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      c.name,
			Type:      "DocQA",
			Component: components.ComponentOfChatModel,
		}, c.handlers...)
	}

	var opts []model.Option
	if !c.noTemperature {
		opts = append(opts, model.WithTemperature(p.Temperature))
	}
	if p.Model != "" {
		opts = append(opts, model.WithModel(p.Model))
	}
	if p.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(p.MaxTokens))
	}
	if p.TopP > 0 {
		opts = append(opts, model.WithTopP(p.TopP))
	}
	if len(p.Stop) > 0 {
		opts = append(opts, model.WithStop(p.Stop))
	}

	msg, err := c.model.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", &RemoteError{Err: err}
	}
	if msg == nil {
		return "", malformed(errNoChoices)
	}
	return msg.Content, nil
}
