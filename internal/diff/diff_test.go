package diff

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agentsync/agentsync/internal/model"
)

var allCats = []model.Category{model.CategoryServer, model.CategorySkill, model.CategoryCommand, model.CategoryAgent}

func srv(name string, typ model.ServerType, url string) model.MCPServer {
	return model.MCPServer{Name: name, Type: typ, URL: url}
}

func TestComputeInSync(t *testing.T) {
	expected := model.ObservedState{
		Tool:    "claude",
		Servers: []model.MCPServer{srv("github", model.ServerHTTP, "https://gh/mcp")},
	}
	observed := model.ObservedState{
		Tool:    "claude",
		Servers: []model.MCPServer{srv("github", model.ServerHTTP, "https://gh/mcp")},
	}
	if items := Compute(expected, observed, allCats); len(items) != 0 {
		t.Errorf("expected no drift, got %v", items)
	}
}

func TestComputeKinds(t *testing.T) {
	expected := model.ObservedState{
		Tool: "claude",
		Servers: []model.MCPServer{
			srv("gone", model.ServerHTTP, "https://a"),
			srv("changed", model.ServerHTTP, "https://b"),
		},
	}
	observed := model.ObservedState{
		Tool: "claude",
		Servers: []model.MCPServer{
			srv("changed", model.ServerHTTP, "https://b-moved"),
			srv("surplus", model.ServerHTTP, "https://c"),
		},
	}

	items := Compute(expected, observed, allCats)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3: %v", len(items), items)
	}

	// Expected keys first in canonical order, extras after.
	wantOrder := []struct {
		key  string
		kind model.DriftKind
	}{
		{"gone", model.DriftMissing},
		{"changed", model.DriftMismatch},
		{"surplus", model.DriftExtra},
	}
	for i, want := range wantOrder {
		if items[i].Key != want.key || items[i].Kind != want.kind {
			t.Errorf("items[%d] = %s/%s, want %s/%s", i, items[i].Key, items[i].Kind, want.key, want.kind)
		}
	}
	if items[1].Detail != "differs in url" {
		t.Errorf("mismatch detail = %q, want %q", items[1].Detail, "differs in url")
	}
}

func TestComputeNilCategoryNeverDiffs(t *testing.T) {
	// Cursor only supports servers; its Skills slice is nil. Canonical
	// skills must not appear as missing.
	expected := model.ObservedState{
		Tool:    "cursor",
		Servers: []model.MCPServer{},
	}
	observed := model.ObservedState{
		Tool:    "cursor",
		Servers: []model.MCPServer{},
	}
	items := Compute(expected, observed, []model.Category{model.CategoryServer})
	if len(items) != 0 {
		t.Errorf("nil categories produced items: %v", items)
	}
}

func TestComputeEmptyObservedReportsAllMissing(t *testing.T) {
	expected := model.ObservedState{
		Tool:   "claude",
		Skills: []model.Skill{{Name: "a", BodyHash: "x"}, {Name: "b", BodyHash: "y"}},
	}
	observed := model.ObservedState{Tool: "claude", Skills: []model.Skill{}}
	items := Compute(expected, observed, allCats)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, it := range items {
		if it.Kind != model.DriftMissing {
			t.Errorf("item %s kind = %s, want missing-in-tool", it.Key, it.Kind)
		}
	}
}

func TestComputeEnvExactEquality(t *testing.T) {
	expected := model.ObservedState{
		Tool: "claude",
		Servers: []model.MCPServer{{
			Name: "db", Type: model.ServerStdio, Command: "db-mcp",
			Env: map[string]string{"HOST": "prod", "PORT": "5432"},
		}},
	}
	tests := []struct {
		name  string
		env   map[string]string
		drift bool
	}{
		{"identical env", map[string]string{"PORT": "5432", "HOST": "prod"}, false},
		{"changed value", map[string]string{"HOST": "staging", "PORT": "5432"}, true},
		{"extra key", map[string]string{"HOST": "prod", "PORT": "5432", "DEBUG": "1"}, true},
		{"missing key", map[string]string{"HOST": "prod"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed := model.ObservedState{
				Tool: "claude",
				Servers: []model.MCPServer{{
					Name: "db", Type: model.ServerStdio, Command: "db-mcp", Env: tt.env,
				}},
			}
			items := Compute(expected, observed, allCats)
			if got := len(items) > 0; got != tt.drift {
				t.Errorf("drift = %v, want %v (items %v)", got, tt.drift, items)
			}
		})
	}
}

func TestComputeBodyChangeViaHash(t *testing.T) {
	expected := model.ObservedState{
		Tool:     "claude",
		Commands: []model.Command{{Slug: "deploy", BodyHash: model.BodyHash("new body")}},
	}
	observed := model.ObservedState{
		Tool:     "claude",
		Commands: []model.Command{{Slug: "deploy", BodyHash: model.BodyHash("old body")}},
	}
	items := Compute(expected, observed, allCats)
	if len(items) != 1 || items[0].Kind != model.DriftMismatch {
		t.Fatalf("got %v, want one value-mismatch", items)
	}
	if !strings.Contains(items[0].Detail, "body_hash") {
		t.Errorf("detail = %q, want body_hash named", items[0].Detail)
	}
}

func TestComputeRenameSuggestion(t *testing.T) {
	expected := model.ObservedState{
		Tool:    "claude",
		Servers: []model.MCPServer{srv("microsoft-learn", model.ServerHTTP, "https://x")},
	}
	observed := model.ObservedState{
		Tool:    "claude",
		Servers: []model.MCPServer{srv("MicrosoftLearn", model.ServerHTTP, "https://x")},
	}
	items := Compute(expected, observed, allCats)

	var extra *model.SyncItem
	for i := range items {
		if items[i].Kind == model.DriftExtra {
			extra = &items[i]
		}
	}
	if extra == nil {
		t.Fatalf("no extra item in %v", items)
	}
	if !strings.Contains(extra.Detail, `"microsoft-learn"`) {
		t.Errorf("detail = %q, want closest canonical name hint", extra.Detail)
	}
}

func TestNearestKey(t *testing.T) {
	exp := []entry{{key: "github"}, {key: "filesystem"}}
	tests := []struct {
		key  string
		want string
	}{
		{"git-hub", "github"},
		{"GitHub", "github"},
		{"totally-different", ""},
	}
	for _, tt := range tests {
		if got := nearestKey(tt.key, exp); got != tt.want {
			t.Errorf("nearestKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestExpectedCount(t *testing.T) {
	st := model.ObservedState{
		Tool:    "claude",
		Servers: []model.MCPServer{srv("a", model.ServerHTTP, "u"), srv("b", model.ServerHTTP, "u")},
		Skills:  []model.Skill{{Name: "s"}},
	}
	if got := ExpectedCount(st, allCats); got != 3 {
		t.Errorf("ExpectedCount = %d, want 3", got)
	}
	if got := ExpectedCount(st, []model.Category{model.CategoryServer}); got != 2 {
		t.Errorf("ExpectedCount(servers only) = %d, want 2", got)
	}
}

func TestComputeItemValuesAreComparables(t *testing.T) {
	expected := model.ObservedState{
		Tool:    "claude",
		Servers: []model.MCPServer{srv("s", model.ServerHTTP, "https://a")},
	}
	observed := model.ObservedState{Tool: "claude", Servers: []model.MCPServer{}}
	items := Compute(expected, observed, allCats)
	if len(items) != 1 {
		t.Fatal("want one missing item")
	}
	want := model.ServerValue{Type: model.ServerHTTP, URL: "https://a"}
	if diff := cmp.Diff(want, items[0].Expected); diff != "" {
		t.Errorf("Expected payload mismatch (-want +got):\n%s", diff)
	}
}
