// Package provider selects and constructs the LLM backend serving docqa's
// LLM stages at runtime. Every backend is returned as an [llm.Completer].
// Supported backends: OpenAI (chat and legacy completions), Azure OpenAI,
// Ollama, Volcengine Ark, Google Gemini.
package provider

import (
	"fmt"
	"strings"

	"github.com/54b3r/docqa-go/internal/llm"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOpenAI selects the OpenAI /chat/completions API via go-openai.
	BackendOpenAI Backend = "openai"
	// BackendOpenAICompletions selects the legacy OpenAI /completions API.
	BackendOpenAICompletions Backend = "openai-completions"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendArk selects Volcengine Ark.
	BackendArk Backend = "ark"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendOpenAI, BackendOpenAICompletions, BackendAzure, BackendOllama, BackendArk, BackendGemini}

// ProviderOpenAI holds OpenAI settings, shared by both OpenAI backends.
type ProviderOpenAI struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
}

// ProviderAzureOpenAI holds Azure OpenAI settings.
type ProviderAzureOpenAI struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// ProviderOllama holds Ollama settings.
type ProviderOllama struct {
	Host  string
	Model string
}

// ProviderArk holds Volcengine Ark settings.
type ProviderArk struct {
	APIKey  string
	Model   string
	BaseURL string
	Region  string
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	APIKey string
	Model  string
}

// SharedTuning holds generation parameters common to all backends.
type SharedTuning struct {
	// MaxTokens caps the completion length; 0 leaves it to the backend.
	MaxTokens int

	// Temperature controls response randomness. 0 is deterministic.
	Temperature float32
}

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Ollama      ProviderOllama
	Ark         ProviderArk
	Gemini      ProviderGemini

	Tuning SharedTuning
}

// Validate reports the first missing or invalid setting for the selected
// backend, naming the environment variable that supplies it.
func (c *Config) Validate() error {
	if c.Tuning.Temperature < 0 || c.Tuning.Temperature > 2 {
		return fmt.Errorf("provider: MODEL_TEMPERATURE must be between 0 and 2, got %v", c.Tuning.Temperature)
	}
	if c.Tuning.MaxTokens < 0 {
		return fmt.Errorf("provider: MODEL_MAX_TOKENS must not be negative, got %d", c.Tuning.MaxTokens)
	}

	switch c.Backend {
	case BackendOpenAI, BackendOpenAICompletions:
		if c.OpenAI.APIKey == "" {
			return missing(c.Backend, "OPENAI_API_KEY")
		}
		if c.OpenAI.Model == "" {
			return missing(c.Backend, "OPENAI_MODEL")
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			return missing(c.Backend, "AZURE_OPENAI_API_KEY")
		}
		if c.AzureOpenAI.Endpoint == "" {
			return missing(c.Backend, "AZURE_OPENAI_ENDPOINT")
		}
		if c.AzureOpenAI.Deployment == "" {
			return missing(c.Backend, "AZURE_OPENAI_DEPLOYMENT")
		}
	case BackendOllama:
		if c.Ollama.Model == "" {
			return missing(c.Backend, "OLLAMA_MODEL")
		}
	case BackendArk:
		if c.Ark.APIKey == "" {
			return missing(c.Backend, "ARK_API_KEY")
		}
		if c.Ark.Model == "" {
			return missing(c.Backend, "ARK_MODEL")
		}
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return missing(c.Backend, "GOOGLE_API_KEY")
		}
		if c.Gemini.Model == "" {
			return missing(c.Backend, "GEMINI_MODEL")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q, valid values: %s", c.Backend, backendList())
	}
	return nil
}

// Params returns the generation parameters for LLM stages built on c.
func (c *Config) Params() llm.Params {
	return llm.Params{
		Temperature: c.Tuning.Temperature,
		MaxTokens:   c.Tuning.MaxTokens,
	}
}

// ModelName returns the model or deployment the selected backend will use.
func (c *Config) ModelName() string {
	switch c.Backend {
	case BackendOpenAI, BackendOpenAICompletions:
		return c.OpenAI.Model
	case BackendAzure:
		return c.AzureOpenAI.Deployment
	case BackendOllama:
		return c.Ollama.Model
	case BackendArk:
		return c.Ark.Model
	case BackendGemini:
		return c.Gemini.Model
	default:
		return ""
	}
}

func missing(b Backend, env string) error {
	return fmt.Errorf("provider: %s is required for the %s backend", env, b)
}

func backendList() string {
	names := make([]string, len(Backends))
	for i, b := range Backends {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
