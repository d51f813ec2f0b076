// ABOUTME: End-to-end tests driving the docqa CLI through the root command
// ABOUTME: Uses a temp SQLite database and the offline hash embedder

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/docqa/internal/mcp"
	"github.com/harper/docqa/internal/models"
)

// setupCLIEnv points configuration at a fresh database with no API key
func setupCLIEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DOCQA_DB_PATH", filepath.Join(dir, "docqa.db"))
	t.Setenv("DOCQA_EMBEDDER", "hash")
	t.Setenv("DOCQA_SNAPSHOT_BACKEND", "sqlite")
	t.Setenv("DOCQA_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "")
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}

func mustRunCLI(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, stdin, args...)
	if err != nil {
		t.Fatalf("docqa %s error = %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func decodeJSON(t *testing.T, out string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
}

func TestCLI_AddRebuildAsk(t *testing.T) {
	dir := setupCLIEnv(t)

	out := mustRunCLI(t, "", "add", "--name", "policy.txt", "Refunds are issued within 30 days of purchase with a receipt.")
	if !strings.Contains(out, "✓ Added policy.txt") || !strings.Contains(out, "docqa rebuild") {
		t.Errorf("add output = %q", out)
	}

	out = mustRunCLI(t, "Orders ship from the Denver warehouse every weekday morning.", "add", "--name", "shipping.txt", "--rebuild")
	if !strings.Contains(out, "Index rebuilt: version 1") {
		t.Errorf("add --rebuild output = %q", out)
	}

	var docs []mcp.DocumentSummary
	decodeJSON(t, mustRunCLI(t, "", "list", "--format", "json"), &docs)
	if len(docs) != 2 {
		t.Fatalf("list returned %d documents, want 2", len(docs))
	}
	var policyID string
	for _, d := range docs {
		if d.SourceName == "policy.txt" {
			policyID = d.DocumentID
		}
	}
	if policyID == "" {
		t.Fatalf("policy.txt missing from %+v", docs)
	}

	var answer models.AnswerResult
	decodeJSON(t, mustRunCLI(t, "", "ask", "--format", "json", "how many days for refunds with a receipt?"), &answer)
	if answer.Generated || answer.NoEvidence {
		t.Errorf("ask = %+v, want an extractive answer", answer)
	}
	if len(answer.Sources) == 0 || answer.Sources[0].SourceName != "policy.txt" {
		t.Errorf("ask sources = %+v, want policy.txt first", answer.Sources)
	}

	out = mustRunCLI(t, "", "ask", "--doc", policyID, "refunds receipt")
	if !strings.Contains(out, "30 days") || !strings.Contains(out, "[1] policy.txt") {
		t.Errorf("ask table output = %q", out)
	}
	if strings.Contains(out, "shipping.txt") {
		t.Errorf("ask --doc should not cite other documents:\n%s", out)
	}

	out = mustRunCLI(t, "", "search", "--limit", "1", "Denver warehouse")
	if !strings.Contains(out, "RANK") || !strings.Contains(out, "shipping.txt") {
		t.Errorf("search output = %q", out)
	}

	var status StatusReport
	decodeJSON(t, mustRunCLI(t, "", "status", "--format", "json"), &status)
	if !status.Index.HasActiveSnapshot || status.Index.Version != 1 || status.LibraryDocuments != 2 {
		t.Errorf("status = %+v", status)
	}
	if status.SnapshotBackend != "sqlite" || status.Embedder != "hash" {
		t.Errorf("status backend = %q embedder = %q", status.SnapshotBackend, status.Embedder)
	}
	if status.DBPath != filepath.Join(dir, "docqa.db") {
		t.Errorf("status db path = %q", status.DBPath)
	}

	out = mustRunCLI(t, "", "remove", "--rebuild", policyID)
	if !strings.Contains(out, "✓ Removed "+policyID) || !strings.Contains(out, "version 2") {
		t.Errorf("remove output = %q", out)
	}
	if _, err := runCLI(t, "", "remove", policyID); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("removing twice error = %v, want not found", err)
	}
}

func TestCLI_ExportImport(t *testing.T) {
	dir := setupCLIEnv(t)
	exportPath := filepath.Join(dir, "exports", "index.yaml")

	if _, err := runCLI(t, "", "export", exportPath); err == nil || !strings.Contains(err.Error(), "docqa rebuild") {
		t.Errorf("export without an index error = %v, want rebuild hint", err)
	}

	mustRunCLI(t, "", "add", "--name", "a.txt", "--rebuild", "Parking passes are renewed every January.")

	out := mustRunCLI(t, "", "export", exportPath)
	if !strings.Contains(out, "Exported version 1") {
		t.Errorf("export output = %q", out)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	var res models.RebuildResult
	decodeJSON(t, mustRunCLI(t, "", "import", "--format", "json", exportPath), &res)
	if res.Version != 2 || res.ChunkCount == 0 || res.DocumentCount != 1 {
		t.Errorf("import = %+v, want version 2 with the exported chunks", res)
	}

	// A new process sees the imported version
	var status StatusReport
	decodeJSON(t, mustRunCLI(t, "", "status", "--format", "json"), &status)
	if status.Index.Version != 2 {
		t.Errorf("status version = %d, want 2", status.Index.Version)
	}
}

func TestCLI_AskBeforeRebuild(t *testing.T) {
	setupCLIEnv(t)

	var answer models.AnswerResult
	decodeJSON(t, mustRunCLI(t, "", "ask", "--format", "json", "anything at all?"), &answer)
	if !answer.NoEvidence {
		t.Errorf("ask with no index = %+v, want no evidence", answer)
	}

	if _, err := runCLI(t, "", "ask", "   "); err == nil {
		t.Error("ask with a blank question should fail")
	}

	out := mustRunCLI(t, "", "list")
	if !strings.Contains(out, "No documents found") {
		t.Errorf("list output = %q", out)
	}
}
