package model

// DriftKind classifies one detected unit of drift.
type DriftKind string

const (
	DriftMissing  DriftKind = "missing-in-tool"
	DriftExtra    DriftKind = "extra-in-tool"
	DriftMismatch DriftKind = "value-mismatch"
)

// SyncItem is one detected unit of drift between canonical state and a
// tool's on-disk configuration.
type SyncItem struct {
	Tool     string    `json:"tool"`
	Category Category  `json:"category"`
	Key      string    `json:"key"`
	Kind     DriftKind `json:"kind"`
	Expected any       `json:"expected,omitempty"` // comparable projection from the canonical render
	Observed any       `json:"observed,omitempty"` // comparable projection from the tool
	Detail   string    `json:"detail,omitempty"`
}

// ToolError records a per-tool recoverable failure (malformed config,
// unreadable file). The run continues for other tools.
type ToolError struct {
	Tool    string `json:"tool"`
	Stage   string `json:"stage"` // "observe", "diff", or "fix"
	Message string `json:"message"`
}

// Warning is a non-blocking validation finding from the scanning step.
type Warning struct {
	Source  string `json:"source,omitempty"` // file or item the warning refers to
	Message string `json:"message"`
}

// ToolSummary holds per-tool drift counts for a SyncReport.
type ToolSummary struct {
	Tool     string `json:"tool"`
	Synced   int    `json:"synced"`
	Missing  int    `json:"missing"`
	Extra    int    `json:"extra"`
	Mismatch int    `json:"mismatch"`
	Failed   bool   `json:"failed"` // observe/diff failed; counts are meaningless
}

// Drifted reports whether this tool has any drift.
func (t ToolSummary) Drifted() bool {
	return t.Missing > 0 || t.Extra > 0 || t.Mismatch > 0
}

// SyncReport is the full result of one detection run. It is plain data,
// immutable once returned, and safe to hand to concurrent readers.
type SyncReport struct {
	Workspace  string        `json:"workspace"`
	Items      []SyncItem    `json:"items"`
	Summaries  []ToolSummary `json:"summaries"`
	ToolErrors []ToolError   `json:"tool_errors,omitempty"`
	Warnings   []Warning     `json:"warnings,omitempty"`
}

// HasDrift reports whether any SyncItem was detected.
func (r SyncReport) HasDrift() bool {
	return len(r.Items) > 0
}

// HasErrors reports whether any tool-level failure was recorded.
func (r SyncReport) HasErrors() bool {
	return len(r.ToolErrors) > 0
}

// ItemsForTool returns the report's items for one tool, in report order.
func (r SyncReport) ItemsForTool(tool string) []SyncItem {
	var out []SyncItem
	for _, it := range r.Items {
		if it.Tool == tool {
			out = append(out, it)
		}
	}
	return out
}

// FixOp is the kind of file mutation a FixAction performs.
type FixOp string

const (
	FixCreate      FixOp = "create"
	FixUpdate      FixOp = "update"
	FixDelete      FixOp = "delete"
	FixBackupWrite FixOp = "backup-write" // copy the original aside, then write
)

// FixAction is one concrete file operation derived from detected drift.
// Content holds the exact serialized bytes to write; adapters never
// invent content beyond what the canonical state implies.
type FixAction struct {
	Tool    string `json:"tool"`
	Path    string `json:"path"`
	Op      FixOp  `json:"op"`
	Content []byte `json:"-"`
	Detail  string `json:"detail,omitempty"`
}

// FixStatus is the outcome of applying one FixAction.
type FixStatus string

const (
	FixApplied FixStatus = "applied"
	FixSkipped FixStatus = "skipped"
	FixFailed  FixStatus = "failed"
)

// FixResult pairs a FixAction with its outcome.
type FixResult struct {
	Action FixAction `json:"action"`
	Status FixStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// FixReport aggregates FixResults for one fix run.
type FixReport struct {
	DryRun     bool        `json:"dry_run"`
	Results    []FixResult `json:"results"`
	ToolErrors []ToolError `json:"tool_errors,omitempty"`
}

// Success reports whether every action was applied or skipped as a no-op.
func (r FixReport) Success() bool {
	if len(r.ToolErrors) > 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Status == FixFailed {
			return false
		}
	}
	return true
}

// AppliedCount returns the number of actions that were actually applied.
func (r FixReport) AppliedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == FixApplied {
			n++
		}
	}
	return n
}
