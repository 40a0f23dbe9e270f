package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	path, err := Load("/nonexistent/path/config.yaml", slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: azure
  max_tokens: 1024
  temperature: 0.3
  azure:
    endpoint: https://my-resource.openai.azure.com
    deployment: gpt-4o
    api_version: "2025-04-01-preview"
index:
  path: /var/lib/docqa/docs.db
  top_k: 6
  chunk_tokens: 800
reader:
  recursive: true
logging:
  level: debug
  format: text
metrics:
  textfile: /var/lib/node_exporter/docqa.prom
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Clear env vars that the YAML should set.
	envKeys := []string{
		"MODEL_PROVIDER", "MODEL_MAX_TOKENS", "MODEL_TEMPERATURE",
		"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT", "AZURE_OPENAI_API_VERSION",
		"DOCQA_INDEX_PATH", "DOCQA_TOP_K", "DOCQA_CHUNK_TOKENS", "DOCQA_RECURSIVE",
		"DOCQA_METRICS_FILE", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	loaded, err := Load(cfgPath, slog.Default())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	checks := map[string]string{
		"MODEL_PROVIDER":           "azure",
		"MODEL_MAX_TOKENS":         "1024",
		"MODEL_TEMPERATURE":        "0.3",
		"AZURE_OPENAI_ENDPOINT":    "https://my-resource.openai.azure.com",
		"AZURE_OPENAI_DEPLOYMENT":  "gpt-4o",
		"AZURE_OPENAI_API_VERSION": "2025-04-01-preview",
		"DOCQA_INDEX_PATH":         "/var/lib/docqa/docs.db",
		"DOCQA_TOP_K":              "6",
		"DOCQA_CHUNK_TOKENS":       "800",
		"DOCQA_RECURSIVE":          "true",
		"DOCQA_METRICS_FILE":       "/var/lib/node_exporter/docqa.prom",
		"LOG_LEVEL":                "debug",
		"LOG_FORMAT":               "text",
	}
	for k, want := range checks {
		if got := os.Getenv(k); got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}

	s := SettingsFromEnv()
	if s.IndexPath != "/var/lib/docqa/docs.db" || s.TopK != 6 || s.ChunkTokens != 800 || !s.Recursive {
		t.Errorf("SettingsFromEnv() = %+v", s)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("model:\n  provider: ollama\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Set env var BEFORE loading; it should NOT be overwritten.
	t.Setenv("MODEL_PROVIDER", "azure")

	if _, err := Load(cfgPath, slog.Default()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := os.Getenv("MODEL_PROVIDER"); got != "azure" {
		t.Errorf("MODEL_PROVIDER: expected env override %q, got %q", "azure", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath, slog.Default()); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("OPENAI_API_KEY=sk-from-dotenv\nDOCQA_TOP_K=9\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	t.Setenv("DOCQA_TOP_K", "2")

	if err := LoadDotEnv(envPath, slog.Default()); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("OPENAI_API_KEY"); got != "sk-from-dotenv" {
		t.Errorf("OPENAI_API_KEY = %q, want value from .env", got)
	}
	if got := os.Getenv("DOCQA_TOP_K"); got != "2" {
		t.Errorf("DOCQA_TOP_K = %q, want existing env value to win", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	t.Parallel()

	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"), slog.Default()); err != nil {
		t.Errorf("LoadDotEnv(missing) error = %v, want nil", err)
	}
}

func TestSettingsFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"DOCQA_INDEX_PATH", "DOCQA_TOP_K", "DOCQA_CHUNK_TOKENS", "DOCQA_PDFTOTEXT", "DOCQA_RECURSIVE", "DOCQA_METRICS_FILE"} {
		t.Setenv(k, "")
	}
	t.Setenv("DOCQA_TOP_K", "zero")

	s := SettingsFromEnv()
	want := Settings{IndexPath: DefaultIndexPath, TopK: DefaultTopK, ChunkTokens: DefaultChunkTokens, PDFToText: "pdftotext"}
	if s != want {
		t.Errorf("SettingsFromEnv() = %+v, want %+v", s, want)
	}
}

func TestFloat32Str(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float32
		want string
	}{
		{0.0, ""},
		{0.2, "0.2"},
		{0.3, "0.3"},
		{1.0, "1"},
	}
	for _, tt := range tests {
		if got := float32Str(tt.in); got != tt.want {
			t.Errorf("float32Str(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
