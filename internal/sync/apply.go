package sync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/agentsync/agentsync/internal/model"
)

// applyToolActions applies one tool's FixActions as a unit using a
// stage-then-rename discipline: every write lands in a temporary file in
// the target directory first, and targets are only replaced (via rename,
// atomic on POSIX filesystems) once all staging succeeded. A failure
// during staging applies nothing for the tool; a crash mid-write can
// never leave a truncated target.
// staged tracks a temp file awaiting its commit rename.
type staged struct {
	index int
	tmp   string
}

func applyToolActions(actions []model.FixAction) []model.FixResult {
	results := make([]model.FixResult, len(actions))
	for i, a := range actions {
		results[i] = model.FixResult{Action: a, Status: model.FixSkipped}
	}

	// Stage phase: write all content to temp files.
	var writes []staged
	for i, a := range actions {
		if a.Op == model.FixDelete {
			continue
		}
		dir := filepath.Dir(a.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return failAll(results, i, fmt.Errorf("create directory %s: %w", dir, err), writes)
		}
		tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", filepath.Base(a.Path), uuid.NewString()[:8]))
		if err := os.WriteFile(tmp, a.Content, 0o644); err != nil {
			return failAll(results, i, fmt.Errorf("stage %s: %w", a.Path, err), writes)
		}
		writes = append(writes, staged{index: i, tmp: tmp})
	}

	// Commit phase: move staged files into place, then handle deletes.
	// Each rename is the per-file commit point; on a rename failure the
	// remaining staged files are discarded rather than half-applied.
	committed := true
	for _, w := range writes {
		a := actions[w.index]
		if !committed {
			os.Remove(w.tmp)
			results[w.index].Error = "skipped after earlier failure"
			continue
		}
		if a.Op == model.FixBackupWrite {
			if err := backupFile(a.Path); err != nil {
				os.Remove(w.tmp)
				results[w.index] = model.FixResult{Action: a, Status: model.FixFailed, Error: err.Error()}
				committed = false
				continue
			}
		}
		if err := os.Rename(w.tmp, a.Path); err != nil {
			os.Remove(w.tmp)
			results[w.index] = model.FixResult{Action: a, Status: model.FixFailed, Error: err.Error()}
			committed = false
			continue
		}
		results[w.index] = model.FixResult{Action: a, Status: model.FixApplied}
	}

	for i, a := range actions {
		if a.Op != model.FixDelete {
			continue
		}
		if !committed {
			results[i].Error = "skipped after earlier failure"
			continue
		}
		err := os.Remove(a.Path)
		switch {
		case os.IsNotExist(err):
			results[i] = model.FixResult{Action: a, Status: model.FixSkipped, Error: "already absent"}
		case err != nil:
			results[i] = model.FixResult{Action: a, Status: model.FixFailed, Error: err.Error()}
		default:
			results[i] = model.FixResult{Action: a, Status: model.FixApplied}
		}
	}

	return results
}

// failAll marks the action at index as failed, cleans up any staged temp
// files, and leaves every other action skipped.
func failAll(results []model.FixResult, index int, err error, writes []staged) []model.FixResult {
	for _, w := range writes {
		os.Remove(w.tmp)
	}
	results[index].Status = model.FixFailed
	results[index].Error = err.Error()
	for i := range results {
		if i != index && results[i].Status == model.FixSkipped {
			results[i].Error = "skipped: staging failed for " + results[index].Action.Path
		}
	}
	return results
}

// backupFile copies path to path.bak before it is overwritten. A missing
// original needs no backup.
func backupFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	return nil
}
