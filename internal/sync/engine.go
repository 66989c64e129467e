// Package sync orchestrates a reconciliation run: scanning canonical
// state, diffing every registered tool against it, and optionally
// applying fixes that converge each tool toward canonical.
package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agentsync/agentsync/internal/diff"
	"github.com/agentsync/agentsync/internal/model"
	"github.com/agentsync/agentsync/internal/scan"
	"github.com/agentsync/agentsync/internal/tool"
)

// State is the engine's position in the run lifecycle. Failed is
// absorbing; Reported is terminal for report-only runs.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateDiffing
	StateReported
	StateFixing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateDiffing:
		return "diffing"
	case StateReported:
		return "reported"
	case StateFixing:
		return "fixing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Engine runs one reconciliation over a workspace. It is single-use:
// construct, run, discard. Nothing is cached across runs; every run
// recomputes from disk.
type Engine struct {
	workspace string
	adapters  []tool.Adapter
	scanner   *scan.Scanner
	ignore    map[string]bool

	mu    sync.Mutex
	state State
}

// New returns an Engine for the workspace using the given adapters.
// Passing no adapters is a registry configuration error surfaced at run
// time, not here.
func New(workspace string, adapters []tool.Adapter) *Engine {
	return &Engine{
		workspace: workspace,
		adapters:  adapters,
		scanner:   scan.New(),
		state:     StateIdle,
	}
}

// IgnoreServers excludes the named MCP servers from diffing and fixing.
// Ignored servers present in a tool's files are left untouched by Fix.
// Must be called before Check or Fix.
func (e *Engine) IgnoreServers(names []string) {
	if len(names) == 0 {
		return
	}
	e.ignore = make(map[string]bool, len(names))
	for _, n := range names {
		e.ignore[n] = true
	}
}

// filterIgnored drops ignored servers from a state so they never diff.
func (e *Engine) filterIgnored(st model.ObservedState) model.ObservedState {
	if len(e.ignore) == 0 || st.Servers == nil {
		return st
	}
	kept := make([]model.MCPServer, 0, len(st.Servers))
	for _, s := range st.Servers {
		if !e.ignore[s.Name] {
			kept = append(kept, s)
		}
	}
	st.Servers = kept
	return st
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// toolResult carries one tool's diff outcome from a worker.
type toolResult struct {
	tool    string
	items   []model.SyncItem
	summary model.ToolSummary
	err     *model.ToolError
}

// Check runs Scanning and Diffing and returns the report. The report is
// always produced, drift or not; per-tool failures are recorded in it
// rather than aborting the run.
func (e *Engine) Check(ctx context.Context) (model.SyncReport, error) {
	e.setState(StateScanning)
	if len(e.adapters) == 0 {
		e.setState(StateFailed)
		return model.SyncReport{}, fmt.Errorf("no tool adapters registered")
	}
	res, err := e.scanner.Scan(e.workspace)
	if err != nil {
		e.setState(StateFailed)
		return model.SyncReport{}, err
	}

	e.setState(StateDiffing)
	report := e.diffAll(ctx, res)
	e.setState(StateReported)
	return report, nil
}

// diffAll observes and diffs every tool. Tools are independent, so they
// run in parallel workers; results are re-ordered by tool name afterward
// so parallelism is never observable in report ordering.
func (e *Engine) diffAll(ctx context.Context, res scan.Result) model.SyncReport {
	results := make([]toolResult, len(e.adapters))

	g, ctx := errgroup.WithContext(ctx)
	for i, a := range e.adapters {
		i, a := i, a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.diffOne(a, res.State)
			return nil
		})
	}
	// Workers only return the context error; per-tool failures live in
	// their toolResult.
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].tool < results[j].tool })

	report := model.SyncReport{
		Workspace: e.workspace,
		Items:     []model.SyncItem{},
		Warnings:  res.Warnings,
	}
	for _, r := range results {
		if r.tool == "" {
			continue // cancelled before this worker ran
		}
		report.Items = append(report.Items, r.items...)
		report.Summaries = append(report.Summaries, r.summary)
		if r.err != nil {
			report.ToolErrors = append(report.ToolErrors, *r.err)
		}
	}
	return report
}

// diffOne observes one tool and diffs it against its canonical render.
// An observe failure yields an error entry and no items for the tool.
func (e *Engine) diffOne(a tool.Adapter, st model.CanonicalState) toolResult {
	r := toolResult{tool: a.Name(), summary: model.ToolSummary{Tool: a.Name()}}

	observed, err := a.Observe(e.workspace)
	if err != nil {
		r.summary.Failed = true
		r.err = &model.ToolError{Tool: a.Name(), Stage: "observe", Message: err.Error()}
		return r
	}

	expected := e.filterIgnored(a.Render(st))
	observed = e.filterIgnored(observed)
	r.items = diff.Compute(expected, observed, a.Capabilities())

	for _, it := range r.items {
		switch it.Kind {
		case model.DriftMissing:
			r.summary.Missing++
		case model.DriftExtra:
			r.summary.Extra++
		case model.DriftMismatch:
			r.summary.Mismatch++
		}
	}
	r.summary.Synced = diff.ExpectedCount(expected, a.Capabilities()) - r.summary.Missing - r.summary.Mismatch
	return r
}

// FixOptions controls fix application.
type FixOptions struct {
	DryRun bool // plan actions but mutate nothing
	Backup bool // keep a .bak copy of files that get overwritten or deleted
}

// Fix runs a full detection pass and then converges every drifted tool
// toward canonical. It returns the detection report alongside the fix
// report. Failures applying one tool's fixes never block other tools.
func (e *Engine) Fix(ctx context.Context, opts FixOptions) (model.SyncReport, model.FixReport, error) {
	report, err := e.Check(ctx)
	if err != nil {
		return model.SyncReport{}, model.FixReport{}, err
	}

	e.setState(StateFixing)
	fixReport := model.FixReport{DryRun: opts.DryRun, Results: []model.FixResult{}}

	// Canonical state is rebuilt rather than carried over from Check so
	// the render used for writing matches what was just reported.
	res, err := e.scanner.Scan(e.workspace)
	if err != nil {
		e.setState(StateFailed)
		return report, model.FixReport{}, err
	}

	drifted := make(map[string]bool)
	for _, s := range report.Summaries {
		if s.Drifted() {
			drifted[s.Tool] = true
		}
	}

	for _, a := range e.adapters {
		if err := ctx.Err(); err != nil {
			// Cancellation stops issuing further actions; applied ones stay.
			break
		}
		if !drifted[a.Name()] {
			continue
		}
		desired := a.Render(res.State)
		desired = e.filterIgnored(desired)
		// Ignored servers already present in the tool's files must
		// survive a fix, so fold them back into the desired set.
		if len(e.ignore) > 0 && desired.Servers != nil {
			if observed, oerr := a.Observe(e.workspace); oerr == nil {
				for _, s := range observed.Servers {
					if e.ignore[s.Name] {
						desired.Servers = append(desired.Servers, s)
					}
				}
			}
		}
		actions, err := a.Write(e.workspace, desired)
		if err != nil {
			fixReport.ToolErrors = append(fixReport.ToolErrors, model.ToolError{
				Tool: a.Name(), Stage: "fix", Message: err.Error(),
			})
			continue
		}
		if opts.Backup {
			actions = withBackups(actions)
		}
		if opts.DryRun {
			for _, act := range actions {
				fixReport.Results = append(fixReport.Results, model.FixResult{Action: act, Status: model.FixSkipped})
			}
			continue
		}
		fixReport.Results = append(fixReport.Results, applyToolActions(actions)...)
	}

	e.setState(StateDone)
	return report, fixReport, nil
}

// withBackups upgrades destructive updates to backup-then-write.
func withBackups(actions []model.FixAction) []model.FixAction {
	out := make([]model.FixAction, len(actions))
	for i, a := range actions {
		if a.Op == model.FixUpdate {
			a.Op = model.FixBackupWrite
		}
		out[i] = a
	}
	return out
}
