package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

// Completer sends messages to an LLM once and returns the text of the first
// choice. Failures are reported as [RemoteError] (transport, non-2xx) or
// wrap chain.ErrMalformedResponse (no choice, undecodable body).
type Completer interface {
	Complete(ctx context.Context, msgs []*schema.Message, p Params) (string, error)
}

// OpenAIConfig configures the go-openai backed completers.
type OpenAIConfig struct {
	// APIKey is the bearer token.
	APIKey string

	// BaseURL overrides https://api.openai.com/v1, e.g. for a proxy or
	// a compatible local server.
	BaseURL string

	// Organization is sent as the OpenAI-Organization header when set.
	Organization string

	// Model is used when Params.Model is empty.
	Model string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
}

func (c OpenAIConfig) client() *openai.Client {
	cfg := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	if c.Organization != "" {
		cfg.OrgID = c.Organization
	}
	if c.HTTPClient != nil {
		cfg.HTTPClient = c.HTTPClient
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIChat calls the OpenAI /chat/completions endpoint.
type OpenAIChat struct {
	client *openai.Client
	model  string
}

// NewOpenAIChat returns a chat completer. An empty cfg.Model defaults to
// [DefaultChatModel].
func NewOpenAIChat(cfg OpenAIConfig) *OpenAIChat {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAIChat{client: cfg.client(), model: model}
}

// Complete implements Completer.
func (c *OpenAIChat) Complete(ctx context.Context, msgs []*schema.Message, p Params) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:            p.model(c.model),
		Messages:         toChatMessages(msgs),
		Temperature:      p.wireTemperature(),
		MaxTokens:        p.MaxTokens,
		TopP:             p.TopP,
		Stop:             p.Stop,
		PresencePenalty:  p.PresencePenalty,
		FrequencyPenalty: p.FrequencyPenalty,
		User:             p.User,
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", malformed(errNoChoices)
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAICompletions calls the legacy OpenAI /completions endpoint. Messages
// are rendered into a single prompt, one message per paragraph.
type OpenAICompletions struct {
	client *openai.Client
	model  string
}

// NewOpenAICompletions returns a completions completer. An empty cfg.Model
// defaults to [DefaultCompletionModel].
func NewOpenAICompletions(cfg OpenAIConfig) *OpenAICompletions {
	model := cfg.Model
	if model == "" {
		model = DefaultCompletionModel
	}
	return &OpenAICompletions{client: cfg.client(), model: model}
}

// Complete implements Completer.
func (c *OpenAICompletions) Complete(ctx context.Context, msgs []*schema.Message, p Params) (string, error) {
	req := openai.CompletionRequest{
		Model:            p.model(c.model),
		Prompt:           RenderPrompt(msgs),
		Temperature:      p.wireTemperature(),
		MaxTokens:        p.MaxTokens,
		TopP:             p.TopP,
		Stop:             p.Stop,
		PresencePenalty:  p.PresencePenalty,
		FrequencyPenalty: p.FrequencyPenalty,
		User:             p.User,
	}
	resp, err := c.client.CreateCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", malformed(errNoChoices)
	}
	return resp.Choices[0].Text, nil
}

// RenderPrompt joins message contents into one completion prompt,
// separated by blank lines. Roles are dropped.
func RenderPrompt(msgs []*schema.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m == nil || m.Content == "" {
			continue
		}
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

func toChatMessages(msgs []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return out
}
