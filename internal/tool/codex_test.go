package tool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/agentsync/agentsync/internal/diff"
	"github.com/agentsync/agentsync/internal/model"
)

func TestCodexRenderGating(t *testing.T) {
	st := canonicalFixture(t)
	out := Get("codex").Render(st)

	// claude-only is gated away; github and db remain.
	if len(out.Servers) != 2 {
		t.Fatalf("servers = %v, want 2", out.Servers)
	}
	for _, s := range out.Servers {
		if s.Name == "claude-only" {
			t.Error("claude-only must not render for codex")
		}
	}
	// claude-deploy is gated to claude; git/commit remains.
	if len(out.Commands) != 1 || out.Commands[0].Key() != "git/commit" {
		t.Errorf("commands = %v, want [git/commit]", out.Commands)
	}
	// Skills and agents are unsupported and must stay nil.
	if out.Skills != nil || out.Agents != nil {
		t.Errorf("unsupported categories must be nil: %+v", out)
	}
}

func TestCodexWritePreservesConfigKeys(t *testing.T) {
	ws := t.TempDir()
	cfgPath := filepath.Join(ws, ".codex", "config.toml")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatal(err)
	}
	existing := "model = \"o3\"\napproval_policy = \"on-request\"\n\n[mcp_servers.stale]\ncommand = \"old\"\n"
	if err := os.WriteFile(cfgPath, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	a := Get("codex")
	actions, err := a.Write(ws, a.Render(canonicalFixture(t)))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	applyActions(t, actions)

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	var merged map[string]any
	if err := toml.Unmarshal(data, &merged); err != nil {
		t.Fatalf("merged config not valid TOML: %v", err)
	}
	if merged["model"] != "o3" {
		t.Errorf("model key = %v, want o3", merged["model"])
	}
	servers, _ := merged["mcp_servers"].(map[string]any)
	if _, ok := servers["stale"]; ok {
		t.Error("stale server survived")
	}
	if _, ok := servers["github"]; !ok {
		t.Error("github server missing")
	}
}

func TestCodexFixConverges(t *testing.T) {
	ws := t.TempDir()
	st := canonicalFixture(t)
	a := Get("codex")

	actions, err := a.Write(ws, a.Render(st))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	applyActions(t, actions)

	observed, err := a.Observe(ws)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	items := diff.Compute(a.Render(st), observed, a.Capabilities())
	if len(items) != 0 {
		t.Errorf("drift after fix: %v", items)
	}
}

func TestCodexPromptFileLayout(t *testing.T) {
	ws := t.TempDir()
	a := Get("codex")
	actions, err := a.Write(ws, a.Render(canonicalFixture(t)))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	applyActions(t, actions)

	// git/commit lands as the flat file git-commit.md with the namespace
	// recorded in front matter.
	path := filepath.Join(ws, ".codex", "prompts", "git-commit.md")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("prompt file: %v", err)
	}
	if !strings.Contains(string(data), "namespace: git") {
		t.Errorf("prompt file missing namespace front matter:\n%s", data)
	}

	observed, err := a.Observe(ws)
	if err != nil {
		t.Fatal(err)
	}
	if len(observed.Commands) != 1 || observed.Commands[0].Key() != "git/commit" {
		t.Errorf("observed commands = %v, want [git/commit]", observed.Commands)
	}
}

func TestFlatFileName(t *testing.T) {
	tests := []struct {
		cmd  model.Command
		want string
	}{
		{model.Command{Namespace: "git", Slug: "commit"}, "git-commit.md"},
		{model.Command{Slug: "deploy"}, "deploy.md"},
	}
	for _, tt := range tests {
		if got := flatFileName(tt.cmd); got != tt.want {
			t.Errorf("flatFileName(%+v) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestSplitFlatName(t *testing.T) {
	tests := []struct {
		name     string
		meta     map[string]any
		stem     string
		wantNS   string
		wantSlug string
	}{
		{"explicit namespace", map[string]any{"namespace": "git"}, "git-commit", "git", "commit"},
		{"explicit empty namespace pins dashed slug", map[string]any{"namespace": ""}, "claude-deploy", "", "claude-deploy"},
		{"heuristic first dash", map[string]any{}, "ops-restart", "ops", "restart"},
		{"no dash", map[string]any{}, "deploy", "", "deploy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, slug := splitFlatName(tt.meta, tt.stem)
			if ns != tt.wantNS || slug != tt.wantSlug {
				t.Errorf("splitFlatName = (%q, %q), want (%q, %q)", ns, slug, tt.wantNS, tt.wantSlug)
			}
		})
	}
}

func TestCursorObserveOnlyServers(t *testing.T) {
	st, err := Get("cursor").Observe(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if st.Servers == nil {
		t.Error("servers must be non-nil for a supported category")
	}
	if st.Skills != nil || st.Commands != nil || st.Agents != nil {
		t.Errorf("unsupported categories must stay nil: %+v", st)
	}
}

func TestCopilotFixConverges(t *testing.T) {
	ws := t.TempDir()
	st := canonicalFixture(t)
	a := Get("copilot")

	actions, err := a.Write(ws, a.Render(st))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	applyActions(t, actions)

	observed, err := a.Observe(ws)
	if err != nil {
		t.Fatal(err)
	}
	items := diff.Compute(a.Render(st), observed, a.Capabilities())
	if len(items) != 0 {
		t.Errorf("drift after fix: %v", items)
	}
}
