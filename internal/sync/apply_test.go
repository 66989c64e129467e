package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentsync/agentsync/internal/model"
)

func TestApplyCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.json")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	actions := []model.FixAction{
		{Tool: "claude", Path: filepath.Join(dir, "sub", "new.md"), Op: model.FixCreate, Content: []byte("fresh\n")},
		{Tool: "claude", Path: existing, Op: model.FixUpdate, Content: []byte("new")},
	}
	results := applyToolActions(actions)

	for i, r := range results {
		if r.Status != model.FixApplied {
			t.Errorf("results[%d] = %s (%s), want applied", i, r.Status, r.Error)
		}
	}
	if data, _ := os.ReadFile(actions[0].Path); string(data) != "fresh\n" {
		t.Errorf("created file = %q", data)
	}
	if data, _ := os.ReadFile(existing); string(data) != "new" {
		t.Errorf("updated file = %q", data)
	}
	// No staging temp files survive.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestApplyDeleteAbsentIsSkipped(t *testing.T) {
	dir := t.TempDir()
	results := applyToolActions([]model.FixAction{
		{Tool: "claude", Path: filepath.Join(dir, "gone.md"), Op: model.FixDelete},
	})
	if results[0].Status != model.FixSkipped || results[0].Error != "already absent" {
		t.Errorf("result = %+v, want skipped/already absent", results[0])
	}
}

func TestApplyBackupWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	results := applyToolActions([]model.FixAction{
		{Tool: "claude", Path: path, Op: model.FixBackupWrite, Content: []byte("replaced")},
	})
	if results[0].Status != model.FixApplied {
		t.Fatalf("result = %+v", results[0])
	}
	if data, _ := os.ReadFile(path + ".bak"); string(data) != "original" {
		t.Errorf("backup = %q, want original content", data)
	}
	if data, _ := os.ReadFile(path); string(data) != "replaced" {
		t.Errorf("target = %q, want replaced content", data)
	}
}

func TestApplyStagingFailureAppliesNothing(t *testing.T) {
	dir := t.TempDir()
	// A regular file where a directory is needed makes MkdirAll fail for
	// the second action after the first has already staged.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	good := filepath.Join(dir, "good.md")
	actions := []model.FixAction{
		{Tool: "claude", Path: good, Op: model.FixCreate, Content: []byte("ok")},
		{Tool: "claude", Path: filepath.Join(blocker, "nested.md"), Op: model.FixCreate, Content: []byte("no")},
	}
	results := applyToolActions(actions)

	if results[1].Status != model.FixFailed {
		t.Errorf("failing action status = %s, want failed", results[1].Status)
	}
	if results[0].Status != model.FixSkipped {
		t.Errorf("staged action status = %s, want skipped", results[0].Status)
	}
	if !strings.Contains(results[0].Error, "staging failed") {
		t.Errorf("skipped action error = %q", results[0].Error)
	}
	if _, err := os.Stat(good); !os.IsNotExist(err) {
		t.Error("staging failure still wrote a target file")
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
