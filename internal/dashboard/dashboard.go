// Package dashboard is an interactive terminal view over a sync report.
// It shows per-tool drift with tabs, and can trigger refresh and fix
// runs without leaving the screen.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentsync/agentsync/internal/model"
	"github.com/agentsync/agentsync/internal/sync"
	"github.com/agentsync/agentsync/internal/tool"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("244"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true)
	cleanStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	driftStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const logTab = "log"

type reportMsg struct {
	report model.SyncReport
	err    error
}

type fixMsg struct {
	report model.SyncReport
	fixes  model.FixReport
	err    error
}

// Model is the dashboard's bubbletea model.
type Model struct {
	workspace string

	report model.SyncReport
	fixLog []string
	tabs   []string
	tab    int

	viewport viewport.Model
	width    int
	height   int
	ready    bool
	busy     bool
	status   string
	err      error
}

// New returns a dashboard for the workspace. The first scan runs on Init.
func New(workspace string) Model {
	return Model{
		workspace: workspace,
		status:    "scanning...",
		busy:      true,
	}
}

// Run launches the dashboard in the alternate screen.
func Run(workspace string) error {
	p := tea.NewProgram(New(workspace), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return refreshCmd(m.workspace)
}

func refreshCmd(workspace string) tea.Cmd {
	return func() tea.Msg {
		eng := sync.New(workspace, tool.All())
		report, err := eng.Check(context.Background())
		return reportMsg{report: report, err: err}
	}
}

func fixCmd(workspace string, dryRun bool) tea.Cmd {
	return func() tea.Msg {
		eng := sync.New(workspace, tool.All())
		report, fixes, err := eng.Fix(context.Background(), sync.FixOptions{DryRun: dryRun})
		return fixMsg{report: report, fixes: fixes, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerLines := 4
		footerLines := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerLines-footerLines)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerLines - footerLines
		}
		m.viewport.SetContent(m.tabContent())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			if len(m.tabs) > 0 {
				m.tab = (m.tab + 1) % len(m.tabs)
				m.viewport.SetContent(m.tabContent())
				m.viewport.GotoTop()
			}
			return m, nil
		case "shift+tab", "left", "h":
			if len(m.tabs) > 0 {
				m.tab = (m.tab - 1 + len(m.tabs)) % len(m.tabs)
				m.viewport.SetContent(m.tabContent())
				m.viewport.GotoTop()
			}
			return m, nil
		case "r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "scanning..."
			return m, refreshCmd(m.workspace)
		case "f":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "fixing..."
			return m, fixCmd(m.workspace, false)
		case "d":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "planning..."
			return m, fixCmd(m.workspace, true)
		}

	case reportMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "scan failed"
			return m, nil
		}
		m.err = nil
		m.setReport(msg.report)
		m.status = overallStatus(msg.report)
		return m, nil

	case fixMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "fix failed"
			return m, nil
		}
		m.err = nil
		m.fixLog = formatFixLog(msg.fixes)
		if msg.fixes.DryRun {
			m.setReport(msg.report)
			m.status = overallStatus(msg.report)
			m.selectTab(logTab)
			return m, nil
		}
		// Re-scan so the panels show post-fix reality.
		m.busy = true
		m.status = "rescanning..."
		m.selectTab(logTab)
		return m, refreshCmd(m.workspace)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// setReport installs a fresh report and rebuilds the tab list, keeping
// the current tab selected when it still exists.
func (m *Model) setReport(report model.SyncReport) {
	current := ""
	if m.tab < len(m.tabs) {
		current = m.tabs[m.tab]
	}
	m.report = report
	m.tabs = m.tabs[:0]
	m.tabs = append(m.tabs, "overview")
	for _, s := range report.Summaries {
		m.tabs = append(m.tabs, s.Tool)
	}
	m.tabs = append(m.tabs, logTab)
	m.tab = 0
	m.selectTab(current)
	if m.ready {
		m.viewport.SetContent(m.tabContent())
	}
}

func (m *Model) selectTab(name string) {
	for i, t := range m.tabs {
		if t == name {
			m.tab = i
			if m.ready {
				m.viewport.SetContent(m.tabContent())
				m.viewport.GotoTop()
			}
			return
		}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("agent-sync dashboard"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.workspace))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("status: " + m.status))
	if m.err != nil {
		b.WriteString("  ")
		b.WriteString(failStyle.Render(m.err.Error()))
	}
	b.WriteString("\n")

	var tabs []string
	for i, t := range m.tabs {
		label := t + m.tabBadge(t)
		if i == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: switch  r: refresh  f: fix  d: dry run  q: quit"))
	return b.String()
}

// tabBadge marks drifted or failed tool tabs.
func (m Model) tabBadge(name string) string {
	for _, s := range m.report.Summaries {
		if s.Tool != name {
			continue
		}
		if s.Failed {
			return "!"
		}
		if s.Drifted() {
			return "*"
		}
	}
	return ""
}

// tabContent renders the body of the selected tab.
func (m Model) tabContent() string {
	if len(m.tabs) == 0 {
		return ""
	}
	switch name := m.tabs[m.tab]; name {
	case "overview":
		return m.overviewContent()
	case logTab:
		if len(m.fixLog) == 0 {
			return helpStyle.Render("No fixes run yet. Press f to fix or d for a dry run.")
		}
		return strings.Join(m.fixLog, "\n")
	default:
		return m.toolContent(name)
	}
}

func (m Model) overviewContent() string {
	var b strings.Builder
	for _, s := range m.report.Summaries {
		line := fmt.Sprintf("%-10s synced %-3d missing %-3d extra %-3d mismatch %-3d",
			s.Tool, s.Synced, s.Missing, s.Extra, s.Mismatch)
		switch {
		case s.Failed:
			b.WriteString(failStyle.Render(line + "  FAILED"))
		case s.Drifted():
			b.WriteString(driftStyle.Render(line))
		default:
			b.WriteString(cleanStyle.Render(line))
		}
		b.WriteString("\n")
	}
	for _, e := range m.report.ToolErrors {
		b.WriteString(failStyle.Render(fmt.Sprintf("%s (%s): %s", e.Tool, e.Stage, e.Message)))
		b.WriteString("\n")
	}
	for _, w := range m.report.Warnings {
		b.WriteString(statusStyle.Render("warning: " + w.Source + ": " + w.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) toolContent(name string) string {
	items := m.report.ItemsForTool(name)
	if len(items) == 0 {
		return cleanStyle.Render("In sync.")
	}
	var b strings.Builder
	for _, it := range items {
		line := fmt.Sprintf("%-16s %-8s %s", it.Kind, it.Category, it.Key)
		if it.Detail != "" {
			line += "  " + statusStyle.Render(it.Detail)
		}
		switch it.Kind {
		case model.DriftMissing:
			b.WriteString(failStyle.Render(string(it.Kind)) + line[len(it.Kind):])
		default:
			b.WriteString(driftStyle.Render(string(it.Kind)) + line[len(it.Kind):])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func overallStatus(report model.SyncReport) string {
	switch {
	case report.HasErrors():
		return "errors"
	case report.HasDrift():
		return "drift detected"
	default:
		return "in sync"
	}
}

func formatFixLog(fr model.FixReport) []string {
	var out []string
	if fr.DryRun {
		out = append(out, driftStyle.Render("[dry run]"))
	}
	for _, r := range fr.Results {
		line := fmt.Sprintf("%-8s %-8s %-14s %s", r.Status, r.Action.Tool, r.Action.Op, r.Action.Path)
		if r.Error != "" {
			line += "  (" + r.Error + ")"
		}
		out = append(out, line)
	}
	for _, e := range fr.ToolErrors {
		out = append(out, failStyle.Render(fmt.Sprintf("%s (%s): %s", e.Tool, e.Stage, e.Message)))
	}
	if len(out) == 0 {
		out = append(out, "Nothing to fix.")
	}
	return out
}
