package config

import (
	"os"
	"strconv"
)

// Defaults for the docqa settings.
const (
	DefaultIndexPath   = "docqa.db"
	DefaultTopK        = 4
	DefaultChunkTokens = 1000
)

// Settings are the non-provider docqa options, resolved from env vars after
// Load and LoadDotEnv have run. CLI flags override them.
type Settings struct {
	IndexPath   string
	TopK        int
	ChunkTokens int
	PDFToText   string
	Recursive   bool
	MetricsFile string
}

// SettingsFromEnv resolves Settings from DOCQA_* env vars, falling back to
// the package defaults for unset or unparseable values.
func SettingsFromEnv() Settings {
	return Settings{
		IndexPath:   envOr("DOCQA_INDEX_PATH", DefaultIndexPath),
		TopK:        envInt("DOCQA_TOP_K", DefaultTopK),
		ChunkTokens: envInt("DOCQA_CHUNK_TOKENS", DefaultChunkTokens),
		PDFToText:   envOr("DOCQA_PDFTOTEXT", "pdftotext"),
		Recursive:   envBool("DOCQA_RECURSIVE"),
		MetricsFile: os.Getenv("DOCQA_METRICS_FILE"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
