package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/54b3r/docqa-go/internal/chain"
)

// RemoteError is an LLM transport failure or non-success response. It
// matches [chain.ErrRemoteService] under errors.Is.
type RemoteError struct {
	// StatusCode is the HTTP status of the response, or 0 when no response
	// was received.
	StatusCode int

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm: remote service returned %d %s: %v", e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	return fmt.Sprintf("llm: remote service: %v", e.Err)
}

// Unwrap exposes both the error kind and the cause.
func (e *RemoteError) Unwrap() []error {
	return []error{chain.ErrRemoteService, e.Err}
}

// errNoChoices is the cause reported when a response carries no choice.
var errNoChoices = errors.New("response contains no choices")

func malformed(err error) error {
	return fmt.Errorf("llm: %w: %w", chain.ErrMalformedResponse, err)
}

func invalidParam(name string, v any) error {
	return chain.Invalidf("llm: parameter %s out of range: %v", name, v)
}

// classifyOpenAI maps a go-openai client error onto the docqa error kinds.
func classifyOpenAI(err error) error {
	var (
		apiErr    *openai.APIError
		reqErr    *openai.RequestError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, openai.ErrCompletionUnsupportedModel),
		errors.Is(err, openai.ErrChatCompletionInvalidModel):
		return fmt.Errorf("llm: %w: %w", chain.ErrInvalidArgument, err)
	case errors.As(err, &apiErr):
		return &RemoteError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	case errors.As(err, &reqErr):
		return &RemoteError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return malformed(err)
	default:
		return &RemoteError{Err: err}
	}
}
