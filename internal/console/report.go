package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/agentsync/agentsync/internal/history"
	"github.com/agentsync/agentsync/internal/model"
)

// WriteSyncReport renders a detection report: a per-tool summary table
// followed by one line per drift item, grouped by tool.
func WriteSyncReport(w io.Writer, report model.SyncReport) error {
	t := NewTable(w, "TOOL", "SYNCED", "MISSING", "EXTRA", "MISMATCH", "STATUS")
	for _, s := range report.Summaries {
		status := "clean"
		switch {
		case s.Failed:
			status = "failed"
		case s.Drifted():
			status = "drifted"
		}
		t.Row(s.Tool,
			strconv.Itoa(s.Synced),
			strconv.Itoa(s.Missing),
			strconv.Itoa(s.Extra),
			strconv.Itoa(s.Mismatch),
			status)
	}
	if err := t.Flush(); err != nil {
		return err
	}

	for _, s := range report.Summaries {
		items := report.ItemsForTool(s.Tool)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", bold(s.Tool, isTTY(w)))
		it := NewTable(w)
		for _, item := range items {
			detail := item.Detail
			if detail != "" {
				detail = truncate(detail, it.Width()/2)
			}
			it.Row("  "+string(item.Kind), string(item.Category), item.Key, detail)
		}
		if err := it.Flush(); err != nil {
			return err
		}
	}

	for _, e := range report.ToolErrors {
		fmt.Fprintf(w, "\nerror: %s (%s): %s\n", e.Tool, e.Stage, e.Message)
	}
	writeWarnings(w, report.Warnings)

	clean := !report.HasErrors()
	for _, s := range report.Summaries {
		if s.Drifted() || s.Failed {
			clean = false
		}
	}
	if clean {
		fmt.Fprintln(w, "\nAll tools in sync.")
	}
	return nil
}

// WriteFixReport renders the fix results, one line per action.
func WriteFixReport(w io.Writer, report model.FixReport) error {
	if len(report.Results) == 0 && len(report.ToolErrors) == 0 {
		fmt.Fprintln(w, "Nothing to fix.")
		return nil
	}

	verb := "APPLIED"
	if report.DryRun {
		fmt.Fprintln(w, "Dry run; no files were modified.")
		verb = "PLANNED"
	}

	t := NewTable(w, verb, "TOOL", "OP", "PATH")
	for _, r := range report.Results {
		status := string(r.Status)
		if report.DryRun {
			status = "plan"
		}
		path := r.Action.Path
		if r.Error != "" {
			path += " (" + r.Error + ")"
		}
		t.Row(status, r.Action.Tool, string(r.Action.Op), path)
	}
	if err := t.Flush(); err != nil {
		return err
	}

	for _, e := range report.ToolErrors {
		fmt.Fprintf(w, "error: %s (%s): %s\n", e.Tool, e.Stage, e.Message)
	}

	if !report.DryRun {
		fmt.Fprintf(w, "\n%d action(s) applied.\n", report.AppliedCount())
	}
	return nil
}

// WriteRuns renders the run journal, newest first.
func WriteRuns(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	t := NewTable(w, "WHEN", "MODE", "WORKSPACE", "DRIFT", "APPLIED", "DURATION")
	for _, r := range runs {
		mode := r.Mode
		if r.DryRun {
			mode += " (dry-run)"
		}
		drift := "-"
		if n := r.Missing + r.Extra + r.Mismatch; n > 0 {
			drift = strconv.Itoa(n)
		}
		applied := "-"
		if r.Mode == "fix" && !r.DryRun {
			applied = strconv.Itoa(r.Applied)
		}
		t.Row(humanize.Time(r.Timestamp),
			mode,
			truncate(r.Workspace, t.Width()/3),
			drift,
			applied,
			r.Duration.Round(time.Millisecond).String())
	}
	return t.Flush()
}

// writeWarnings prints non-fatal scan warnings.
func writeWarnings(w io.Writer, warnings []model.Warning) {
	for _, warn := range warnings {
		msg := warn.Message
		if warn.Source != "" {
			msg = warn.Source + ": " + msg
		}
		fmt.Fprintf(w, "warning: %s\n", strings.TrimSpace(msg))
	}
}
