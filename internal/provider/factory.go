package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"

	"github.com/54b3r/docqa-go/internal/llm"
)

// NewFromEnv constructs a Completer by reading provider configuration from
// environment variables. MODEL_PROVIDER selects the backend; each provider
// uses its own native credential env vars.
//
// Environment variables:
//
//	MODEL_PROVIDER              = openai | openai-completions | azure | ollama | ark | gemini (default: openai)
//
//	OpenAI:  OPENAI_API_KEY, OPENAI_MODEL (default: gpt-3.5-turbo, gpt-3.5-turbo-instruct
//	         for openai-completions), OPENAI_BASE_URL, OPENAI_ORG_ID
//	Azure:   AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT,
//	         AZURE_OPENAI_API_VERSION (default: 2024-02-01)
//	Ollama:  OLLAMA_HOST (default: http://localhost:11434), OLLAMA_MODEL (default: llama3)
//	Ark:     ARK_API_KEY, ARK_MODEL, ARK_BASE_URL, ARK_REGION (default: cn-beijing)
//	Gemini:  GOOGLE_API_KEY, GEMINI_MODEL (default: gemini-1.5-pro)
//
//	Shared:  MODEL_MAX_TOKENS (default: 512), MODEL_TEMPERATURE (default: 0)
func NewFromEnv(ctx context.Context, opts ...Option) (llm.Completer, *Config, error) {
	cfg := ConfigFromEnv()
	c, err := New(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

// ConfigFromEnv resolves a Config from environment variables with the
// defaults documented on [NewFromEnv].
func ConfigFromEnv() *Config {
	backend := Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendOpenAI)))
	openAIModel := llm.DefaultChatModel
	if backend == BackendOpenAICompletions {
		openAIModel = llm.DefaultCompletionModel
	}
	return &Config{
		Backend: backend,
		OpenAI: ProviderOpenAI{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			Model:        getEnvOrDefault("OPENAI_MODEL", openAIModel),
			BaseURL:      os.Getenv("OPENAI_BASE_URL"),
			Organization: os.Getenv("OPENAI_ORG_ID"),
		},
		AzureOpenAI: ProviderAzureOpenAI{
			APIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
			Endpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
			Deployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
			APIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		},
		Ollama: ProviderOllama{
			Host:  getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
			Model: getEnvOrDefault("OLLAMA_MODEL", "llama3"),
		},
		Ark: ProviderArk{
			APIKey:  os.Getenv("ARK_API_KEY"),
			Model:   os.Getenv("ARK_MODEL"),
			BaseURL: os.Getenv("ARK_BASE_URL"),
			Region:  getEnvOrDefault("ARK_REGION", "cn-beijing"),
		},
		Gemini: ProviderGemini{
			APIKey: os.Getenv("GOOGLE_API_KEY"),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro"),
		},
		Tuning: SharedTuning{
			MaxTokens:   getEnvInt("MODEL_MAX_TOKENS", 512),
			Temperature: getEnvFloat32("MODEL_TEMPERATURE", 0),
		},
	}
}

// Option customises backend construction.
type Option func(*options)

type options struct {
	handlers []callbacks.Handler
}

// WithCallbacks attaches eino callback handlers (e.g. langfuse) to backends
// built on eino chat models. The go-openai backends ignore them.
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, handlers...)
	}
}

// New constructs a Completer from an explicit Config, delegating to the
// appropriate backend factory function. It validates the config first so
// callers get a clear error at startup rather than on the first request.
func New(ctx context.Context, cfg *Config, opts ...Option) (llm.Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Backend {
	case BackendOpenAI:
		return llm.NewOpenAIChat(openAIConfig(cfg)), nil
	case BackendOpenAICompletions:
		return llm.NewOpenAICompletions(openAIConfig(cfg)), nil
	}

	var (
		m   model.BaseChatModel
		err error
	)
	switch cfg.Backend {
	case BackendAzure:
		m, err = newAzure(ctx, cfg)
	case BackendOllama:
		m, err = newOllama(ctx, cfg)
	case BackendArk:
		m, err = newArk(ctx, cfg)
	case BackendGemini:
		m, err = newGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("provider: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("provider: create %s chat model: %w", cfg.Backend, err)
	}

	completerOpts := []llm.ChatModelOption{
		llm.WithRunName(string(cfg.Backend)),
		llm.WithCallbacks(o.handlers...),
	}
	if cfg.Backend == BackendAzure && isAzureReasoningModel(cfg.AzureOpenAI.Deployment) {
		completerOpts = append(completerOpts, llm.WithoutTemperature())
	}
	return llm.NewChatModelCompleter(m, completerOpts...), nil
}

func openAIConfig(cfg *Config) llm.OpenAIConfig {
	return llm.OpenAIConfig{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Organization: cfg.OpenAI.Organization,
		Model:        cfg.OpenAI.Model,
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat32 returns the float32 value of the named environment variable,
// or fallback if the variable is unset, empty, or not parseable.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
