package sync

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentsync/agentsync/internal/model"
	"github.com/agentsync/agentsync/internal/scan"
	"github.com/agentsync/agentsync/internal/tool"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixtureWorkspace builds a workspace whose canonical source declares one
// MCP server and one command; no tool files exist yet.
func fixtureWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	root := filepath.Join(ws, scan.SourceDirName)
	writeFile(t, filepath.Join(root, "mcp.json"),
		`{"servers": {"github": {"type": "http", "url": "https://example.com/mcp"}}}`)
	writeFile(t, filepath.Join(root, "commands", "git", "commit.md"),
		"---\ndescription: make a commit\n---\n\nCommit the work.\n")
	return ws
}

func TestCheckEmptyToolsReportsMissing(t *testing.T) {
	ws := fixtureWorkspace(t)
	eng := New(ws, tool.All())
	report, err := eng.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !report.HasDrift() {
		t.Fatal("expected drift against an empty workspace")
	}
	for _, it := range report.Items {
		if it.Kind != model.DriftMissing {
			t.Errorf("item %s/%s kind = %s, want missing-in-tool", it.Tool, it.Key, it.Kind)
		}
	}
	// Summaries come back ordered by tool name regardless of worker
	// completion order.
	want := []string{"claude", "codex", "copilot", "cursor"}
	if len(report.Summaries) != len(want) {
		t.Fatalf("summaries = %v", report.Summaries)
	}
	for i, s := range report.Summaries {
		if s.Tool != want[i] {
			t.Errorf("summaries[%d] = %s, want %s", i, s.Tool, want[i])
		}
	}
	if eng.State() != StateReported {
		t.Errorf("state = %s, want reported", eng.State())
	}
}

func TestFixConvergesThenCheckIsClean(t *testing.T) {
	ws := fixtureWorkspace(t)

	report, fixes, err := New(ws, tool.All()).Fix(context.Background(), FixOptions{})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !report.HasDrift() {
		t.Fatal("detection pass should have reported drift")
	}
	if !fixes.Success() || fixes.AppliedCount() == 0 {
		t.Fatalf("fix did not apply cleanly: %+v", fixes)
	}

	after, err := New(ws, tool.All()).Check(context.Background())
	if err != nil {
		t.Fatalf("check after fix: %v", err)
	}
	if after.HasDrift() || after.HasErrors() {
		t.Errorf("drift after fix: %v %v", after.Items, after.ToolErrors)
	}

	// A second fix finds nothing drifted and plans nothing.
	_, again, err := New(ws, tool.All()).Fix(context.Background(), FixOptions{})
	if err != nil {
		t.Fatalf("second fix: %v", err)
	}
	if len(again.Results) != 0 {
		t.Errorf("second fix planned %d actions, want 0", len(again.Results))
	}
}

func TestFixDryRunMutatesNothing(t *testing.T) {
	ws := fixtureWorkspace(t)

	_, fixes, err := New(ws, tool.All()).Fix(context.Background(), FixOptions{DryRun: true})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !fixes.DryRun {
		t.Error("report should be marked dry-run")
	}
	if len(fixes.Results) == 0 {
		t.Fatal("dry run should still plan actions")
	}
	for _, r := range fixes.Results {
		if r.Status != model.FixSkipped {
			t.Errorf("dry-run result status = %s, want skipped", r.Status)
		}
		if _, err := os.Stat(r.Action.Path); !os.IsNotExist(err) {
			t.Errorf("dry run touched %s", r.Action.Path)
		}
	}
}

func TestCheckIsolatesPerToolFailure(t *testing.T) {
	ws := fixtureWorkspace(t)
	writeFile(t, filepath.Join(ws, ".mcp.json"), "{not json")

	report, err := New(ws, tool.All()).Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(report.ToolErrors) != 1 {
		t.Fatalf("tool errors = %v, want exactly claude's", report.ToolErrors)
	}
	te := report.ToolErrors[0]
	if te.Tool != "claude" || te.Stage != "observe" {
		t.Errorf("tool error = %+v", te)
	}
	if len(report.ItemsForTool("claude")) != 0 {
		t.Error("failed tool must contribute no items")
	}
	// Other tools still report their drift.
	if len(report.ItemsForTool("cursor")) == 0 {
		t.Error("healthy tools should still be diffed")
	}
	for _, s := range report.Summaries {
		if s.Tool == "claude" && !s.Failed {
			t.Error("claude summary not marked failed")
		}
	}
}

func TestIgnoredServersNeverDiffAndSurviveFix(t *testing.T) {
	ws := fixtureWorkspace(t)
	writeFile(t, filepath.Join(ws, ".cursor", "mcp.json"),
		`{"mcpServers": {"legacy": {"type": "http", "url": "https://old.example.com"}}}`)

	eng := New(ws, tool.All())
	eng.IgnoreServers([]string{"legacy"})

	report, err := eng.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, it := range report.Items {
		if it.Key == "legacy" {
			t.Errorf("ignored server produced item %+v", it)
		}
	}

	eng = New(ws, tool.All())
	eng.IgnoreServers([]string{"legacy"})
	if _, fixes, err := eng.Fix(context.Background(), FixOptions{}); err != nil || !fixes.Success() {
		t.Fatalf("fix: %v %+v", err, fixes)
	}

	data, err := os.ReadFile(filepath.Join(ws, ".cursor", "mcp.json"))
	if err != nil {
		t.Fatal(err)
	}
	var mcp struct {
		Servers map[string]any `json:"mcpServers"`
	}
	if err := json.Unmarshal(data, &mcp); err != nil {
		t.Fatal(err)
	}
	if _, ok := mcp.Servers["legacy"]; !ok {
		t.Error("fix deleted the ignored server")
	}
	if _, ok := mcp.Servers["github"]; !ok {
		t.Error("fix did not sync the canonical server")
	}
}

func TestFixBackupKeepsOriginal(t *testing.T) {
	ws := fixtureWorkspace(t)
	original := `{"mcpServers": {"stale": {"type": "http", "url": "https://old"}}}`
	writeFile(t, filepath.Join(ws, ".cursor", "mcp.json"), original)

	_, fixes, err := New(ws, tool.All()).Fix(context.Background(), FixOptions{Backup: true})
	if err != nil || !fixes.Success() {
		t.Fatalf("fix: %v %+v", err, fixes)
	}

	bak, err := os.ReadFile(filepath.Join(ws, ".cursor", "mcp.json.bak"))
	if err != nil {
		t.Fatalf("backup file: %v", err)
	}
	if string(bak) != original {
		t.Errorf("backup content = %q, want the pre-fix file", bak)
	}
}

func TestCheckNoAdaptersFails(t *testing.T) {
	eng := New(fixtureWorkspace(t), nil)
	if _, err := eng.Check(context.Background()); err == nil {
		t.Fatal("expected error with no adapters")
	}
	if eng.State() != StateFailed {
		t.Errorf("state = %s, want failed", eng.State())
	}
}
