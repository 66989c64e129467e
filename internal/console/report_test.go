package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agentsync/agentsync/internal/model"
)

func TestWriteSyncReportClean(t *testing.T) {
	var buf bytes.Buffer
	report := model.SyncReport{
		Workspace: "/ws",
		Items:     []model.SyncItem{},
		Summaries: []model.ToolSummary{
			{Tool: "claude", Synced: 3},
			{Tool: "cursor", Synced: 1},
		},
	}
	if err := WriteSyncReport(&buf, report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "All tools in sync.") {
		t.Errorf("clean footer missing:\n%s", out)
	}
	if strings.Count(out, "clean") != 2 {
		t.Errorf("want both tools marked clean:\n%s", out)
	}
}

func TestWriteSyncReportDrift(t *testing.T) {
	var buf bytes.Buffer
	report := model.SyncReport{
		Workspace: "/ws",
		Items: []model.SyncItem{
			{Tool: "codex", Category: model.CategoryServer, Key: "github", Kind: model.DriftMissing, Detail: "server \"github\" not configured for codex"},
		},
		Summaries: []model.ToolSummary{{Tool: "codex", Missing: 1}},
		ToolErrors: []model.ToolError{
			{Tool: "claude", Stage: "observe", Message: "parse .mcp.json"},
		},
		Warnings: []model.Warning{{Source: "mcp.json", Message: "server \"x\" has neither url nor command"}},
	}
	if err := WriteSyncReport(&buf, report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "All tools in sync.") {
		t.Errorf("drifted report claims clean:\n%s", out)
	}
	for _, want := range []string{"drifted", "missing-in-tool", "github", "error: claude (observe)", "warning: mcp.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteFixReportDryRun(t *testing.T) {
	var buf bytes.Buffer
	report := model.FixReport{
		DryRun: true,
		Results: []model.FixResult{
			{Action: model.FixAction{Tool: "cursor", Path: "/ws/.cursor/mcp.json", Op: model.FixCreate}, Status: model.FixSkipped},
		},
	}
	if err := WriteFixReport(&buf, report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Dry run; no files were modified.") {
		t.Errorf("dry-run notice missing:\n%s", out)
	}
	if !strings.Contains(out, "PLANNED") || strings.Contains(out, "action(s) applied") {
		t.Errorf("dry-run output wrong:\n%s", out)
	}
}

func TestWriteFixReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFixReport(&buf, model.FixReport{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Nothing to fix.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"much too long for this", 10, "much to..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
