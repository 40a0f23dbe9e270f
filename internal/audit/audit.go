// Package audit provides a structured audit logger for docqa command
// invocations. Each command logs one start and one end record carrying the
// command name, run id, configuration source and a sanitised view of the
// environment, so operators can trace what happened without exposing secrets.
//
// Secrets are logged as presence/absence only, never their values.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// auditEntry defines an env var to include in the audit log.
type auditEntry struct {
	// key is the environment variable name.
	key string
	// secret indicates the value should be redacted to presence/absence.
	secret bool
}

// auditKeys is the ordered list of env vars included in every start record.
var auditKeys = []auditEntry{
	{"MODEL_PROVIDER", false},
	{"MODEL_TEMPERATURE", false},
	{"MODEL_MAX_TOKENS", false},
	{"OPENAI_API_KEY", true},
	{"OPENAI_MODEL", false},
	{"OPENAI_BASE_URL", false},
	{"AZURE_OPENAI_API_KEY", true},
	{"AZURE_OPENAI_ENDPOINT", false},
	{"AZURE_OPENAI_DEPLOYMENT", false},
	{"OLLAMA_HOST", false},
	{"OLLAMA_MODEL", false},
	{"ARK_API_KEY", true},
	{"ARK_MODEL", false},
	{"GOOGLE_API_KEY", true},
	{"GEMINI_MODEL", false},
	{"DOCQA_INDEX_PATH", false},
	{"DOCQA_TOP_K", false},
	{"DOCQA_CHUNK_TOKENS", false},
	{"LOG_LEVEL", false},
	{"LOG_FORMAT", false},
	{"LANGFUSE_PUBLIC_KEY", true},
	{"LANGFUSE_SECRET_KEY", true},
}

// secretEnvKeys is the set of secret keys derived from auditKeys.
var secretEnvKeys = func() map[string]bool {
	m := make(map[string]bool)
	for _, e := range auditKeys {
		if e.secret {
			m[e.key] = true
		}
	}
	return m
}()

// LogCommandStart emits a structured audit log entry when a command begins.
// extra attributes (for example the question length or the input directory)
// are appended after the environment.
func LogCommandStart(ctx context.Context, log *slog.Logger, command, runID, configPath string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("run_id", runID),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}
	for _, entry := range auditKeys {
		val := os.Getenv(entry.key)
		if entry.secret {
			attrs = append(attrs, slog.String(entry.key, presence(val)))
		} else {
			attrs = append(attrs, slog.String(entry.key, valOrUnset(val)))
		}
	}
	attrs = append(attrs, extra...)

	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// LogCommandEnd emits the closing audit record with the outcome and duration.
func LogCommandEnd(ctx context.Context, log *slog.Logger, command, runID string, elapsed time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("run_id", runID),
		slog.Duration("duration", elapsed),
	}
	level := slog.LevelInfo
	outcome := "ok"
	if err != nil {
		level = slog.LevelError
		outcome = "error"
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	attrs = append(attrs, slog.String("outcome", outcome))

	log.LogAttrs(ctx, level, "audit: command end", attrs...)
}

// SanitiseKey returns "set" or "unset" for known secret keys, or the actual
// value for non-secret keys. This is safe to use in log messages.
func SanitiseKey(key, value string) string {
	if secretEnvKeys[key] {
		return presence(value)
	}
	return valOrUnset(value)
}

// presence returns "set" if the value is non-empty, "unset" otherwise.
func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// sanitiseConfigPath returns the config path or "none" if empty.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	// Redact home directory for privacy in logs.
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
