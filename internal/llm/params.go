// Package llm is the LLM invocation stage of docqa. It renders a prompt
// template, sends the resulting messages to a [Completer] once, and returns
// the text of the first choice.
//
// Completers:
//
//	OpenAIChat         /chat/completions via github.com/sashabaranov/go-openai
//	OpenAICompletions  legacy /completions via github.com/sashabaranov/go-openai
//	ChatModelCompleter any eino model.BaseChatModel (Azure, Ollama, Ark, Gemini)
//
// There is no streaming and no retry: one call, one blocking round trip.
package llm

import (
	"math"
)

const (
	// DefaultChatModel is used by OpenAIChat when no model is configured.
	DefaultChatModel = "gpt-3.5-turbo"

	// DefaultCompletionModel is used by OpenAICompletions when no model is
	// configured. Chat-only models are rejected by the /completions endpoint.
	DefaultCompletionModel = "gpt-3.5-turbo-instruct"
)

// Params are the generation parameters sent with every request of one LLM
// stage. Zero values mean "leave to the backend", except Temperature, which
// is always sent: zero requests deterministic sampling.
type Params struct {
	// Model overrides the completer's configured model when non-empty.
	Model string

	// Temperature is the sampling temperature, 0 to 2.
	Temperature float32

	// MaxTokens caps the completion length. Zero leaves it to the backend.
	MaxTokens int

	// TopP is the nucleus sampling mass. Zero leaves it to the backend.
	TopP float32

	// Stop lists sequences at which generation stops.
	Stop []string

	// PresencePenalty and FrequencyPenalty are OpenAI repetition penalties.
	PresencePenalty  float32
	FrequencyPenalty float32

	// User is an end-user identifier forwarded to OpenAI for abuse monitoring.
	User string
}

// model returns p.Model, or fallback when it is empty.
func (p Params) model(fallback string) string {
	if p.Model != "" {
		return p.Model
	}
	return fallback
}

// wireTemperature converts Temperature for go-openai, whose request structs
// omit a zero temperature. A zero is sent as the smallest positive float,
// which the API treats as deterministic.
func (p Params) wireTemperature() float32 {
	if p.Temperature == 0 {
		return math.SmallestNonzeroFloat32
	}
	return p.Temperature
}

// Validate reports out-of-range parameters as invalid arguments.
func (p Params) Validate() error {
	switch {
	case p.Temperature < 0 || p.Temperature > 2:
		return invalidParam("temperature", p.Temperature)
	case p.TopP < 0 || p.TopP > 1:
		return invalidParam("top_p", p.TopP)
	case p.MaxTokens < 0:
		return invalidParam("max_tokens", p.MaxTokens)
	}
	return nil
}
