package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/54b3r/docqa-go/internal/qa"
)

// isolate clears the env vars docqa reads so the host environment cannot
// leak into a test. Tests using it must not run in parallel.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MODEL_PROVIDER", "MODEL_TEMPERATURE", "MODEL_MAX_TOKENS",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "OPENAI_ORG_ID",
		"DOCQA_CONFIG", "DOCQA_INDEX_PATH", "DOCQA_TOP_K", "DOCQA_CHUNK_TOKENS",
		"DOCQA_PDFTOTEXT", "DOCQA_RECURSIVE", "DOCQA_METRICS_FILE",
		"LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--env-file", filepath.Join(t.TempDir(), ".env")}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"jane.txt":  "Jane Roe leads the lighthouse restoration project.",
		"john.txt":  "John Doe maintains the harbour ferry schedule.",
		"notes.md":  "# Notes\n\nThe lighthouse reopens in spring.",
		"skip.json": `{"ignored": true}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestIngestAndSearch(t *testing.T) {
	isolate(t)
	dir := writeCorpus(t)
	indexPath := filepath.Join(t.TempDir(), "docs.db")
	metricsPath := filepath.Join(t.TempDir(), "docqa.prom")

	out, err := execute(t, "--metrics-file", metricsPath, "ingest", "--index", indexPath, dir)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !strings.Contains(out, "(3 chunks total)") {
		t.Errorf("ingest output = %q", out)
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	for _, want := range []string{"docqa_index_documents 3", `docqa_stage_runs_total{outcome="ok",stage="write"} 1`} {
		if !strings.Contains(string(prom), want) {
			t.Errorf("metrics textfile missing %q:\n%s", want, prom)
		}
	}

	out, err = execute(t, "search", "--index", indexPath, "-k", "1", "--json", "lighthouse", "restoration")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var hits []searchHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("decode search output %q: %v", out, err)
	}
	if len(hits) != 1 || filepath.Base(hits[0].Source) != "jane.txt" {
		t.Errorf("hits = %+v, want jane.txt first", hits)
	}
}

func TestSearch_MissingIndex(t *testing.T) {
	isolate(t)

	if _, err := execute(t, "search", "--index", filepath.Join(t.TempDir(), "absent.db"), "anything"); err == nil {
		t.Fatal("search on a missing index succeeded")
	}
}

func fakeChatServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": answer},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAsk(t *testing.T) {
	isolate(t)
	srv := fakeChatServer(t, "Jane Roe leads the project.\nSOURCES: jane.txt")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", srv.URL+"/v1")

	indexPath := filepath.Join(t.TempDir(), "docs.db")
	if _, err := execute(t, "ingest", "--index", indexPath, writeCorpus(t)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	out, err := execute(t, "ask", "--index", indexPath, "--json", "who leads the lighthouse project?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	var got qa.AnswerWithSources
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode ask output %q: %v", out, err)
	}
	if got.Answer != "Jane Roe leads the project." || len(got.Sources) != 1 || got.Sources[0] != "jane.txt" {
		t.Errorf("ask = %+v", got)
	}
}

func TestAsk_NoContext(t *testing.T) {
	isolate(t)
	srv := fakeChatServer(t, "unused")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", srv.URL+"/v1")

	indexPath := filepath.Join(t.TempDir(), "docs.db")
	if _, err := execute(t, "ingest", "--index", indexPath, writeCorpus(t)); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	_, err := execute(t, "ask", "--index", indexPath, "zeppelin")
	if !qa.IsNoContext(err) {
		t.Fatalf("ask error = %v, want ErrNoContext", err)
	}
}

func TestAsk_MissingAPIKey(t *testing.T) {
	isolate(t)

	_, err := execute(t, "ask", "--index", filepath.Join(t.TempDir(), "docs.db"), "anything")
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("ask error = %v, want missing OPENAI_API_KEY", err)
	}
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "docqa dev") {
		t.Errorf("version output = %q", out)
	}
}
