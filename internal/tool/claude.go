package tool

import (
	"fmt"
	"path/filepath"

	"github.com/agentsync/agentsync/internal/codec"
	"github.com/agentsync/agentsync/internal/model"
)

// claude implements Adapter for Claude Code's workspace-level files:
// .mcp.json for MCP servers and .claude/ for commands, skills, and
// agents.
type claude struct {
	json codec.Codec
	md   codec.Codec
}

func init() {
	Register(&claude{json: codec.MustGet(codec.JSON), md: codec.MustGet(codec.Markdown)})
}

// Name returns "claude".
func (c *claude) Name() string { return "claude" }

// Capabilities returns all four categories; Claude Code is the only tool
// that manages servers, skills, commands, and agents.
func (c *claude) Capabilities() []model.Category {
	return []model.Category{model.CategoryServer, model.CategorySkill, model.CategoryCommand, model.CategoryAgent}
}

func (c *claude) mcpPath(ws string) string      { return filepath.Join(ws, ".mcp.json") }
func (c *claude) commandsDir(ws string) string  { return filepath.Join(ws, ".claude", "commands") }
func (c *claude) skillsDir(ws string) string    { return filepath.Join(ws, ".claude", "skills") }
func (c *claude) agentsDir(ws string) string    { return filepath.Join(ws, ".claude", "agents") }

// Observe reads .mcp.json and the .claude content directories.
func (c *claude) Observe(workspace string) (model.ObservedState, error) {
	st := model.ObservedState{Tool: c.Name()}

	var mcpFile map[string]any
	if _, err := unmarshalFile(c.json, c.mcpPath(workspace), &mcpFile); err != nil {
		return model.ObservedState{}, err
	}
	st.Servers = []model.MCPServer{}
	if raw, ok := mcpFile["mcpServers"].(map[string]any); ok {
		st.Servers = serversFromMap(raw)
	}

	skills, err := scanSkillsDir(c.md, c.skillsDir(workspace))
	if err != nil {
		return model.ObservedState{}, err
	}
	st.Skills = skills

	cmds, err := scanCommandsNested(c.md, c.commandsDir(workspace))
	if err != nil {
		return model.ObservedState{}, err
	}
	st.Commands = cmds

	agents, err := scanAgentsDir(c.md, c.agentsDir(workspace))
	if err != nil {
		return model.ObservedState{}, err
	}
	st.Agents = agents

	return st, nil
}

// Render projects canonical state into Claude shape. Servers and
// commands honor their per-tool gating lists.
func (c *claude) Render(st model.CanonicalState) model.ObservedState {
	out := model.ObservedState{
		Tool:     c.Name(),
		Servers:  []model.MCPServer{},
		Skills:   append([]model.Skill{}, st.Skills...),
		Commands: []model.Command{},
		Agents:   append([]model.Agent{}, st.Agents...),
	}
	for _, srv := range st.Servers {
		if srv.EnabledForTool(c.Name()) {
			out.Servers = append(out.Servers, srv)
		}
	}
	for _, cmd := range st.Commands {
		if cmd.SyncedToTool(c.Name()) {
			out.Commands = append(out.Commands, cmd)
		}
	}
	return out
}

// Write plans the file operations that converge Claude's configuration
// to desired. The mcpServers block of .mcp.json is replaced wholesale
// while every other key in the file is preserved; content directories
// get one action per changed file.
func (c *claude) Write(workspace string, desired model.ObservedState) ([]model.FixAction, error) {
	var actions []model.FixAction

	// .mcp.json: read-merge-write.
	mcpFile := map[string]any{}
	if _, err := unmarshalFile(c.json, c.mcpPath(workspace), &mcpFile); err != nil {
		return nil, err
	}
	mcpFile["mcpServers"] = serversToMap(desired.Servers)
	content, err := c.json.Marshal(mcpFile)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", c.mcpPath(workspace), err)
	}
	actions = append(actions, planMergedFile(c.Name(), c.mcpPath(workspace), content,
		fmt.Sprintf("sync %d MCP servers into .mcp.json", len(desired.Servers)))...)

	// Skills: one SKILL.md per skill.
	skillFiles := map[string][]byte{}
	for _, s := range desired.Skills {
		data, err := renderSkillDoc(c.md, s)
		if err != nil {
			return nil, fmt.Errorf("serialize skill %s: %w", s.Name, err)
		}
		skillFiles[filepath.Join(c.skillsDir(workspace), s.Name, "SKILL.md")] = data
	}
	observedSkills, err := scanSkillsDir(c.md, c.skillsDir(workspace))
	if err != nil {
		return nil, err
	}
	var managedSkills []string
	for _, s := range observedSkills {
		managedSkills = append(managedSkills, filepath.Join(s.Path, "SKILL.md"))
	}
	actions = append(actions, planDocFiles(c.Name(), skillFiles, managedSkills, docDetail("skill"))...)

	// Commands: namespace folders under .claude/commands.
	cmdFiles := map[string][]byte{}
	for _, cmd := range desired.Commands {
		data, err := renderCommandDoc(c.md, cmd, false)
		if err != nil {
			return nil, fmt.Errorf("serialize command %s: %w", cmd.Key(), err)
		}
		cmdFiles[filepath.Join(c.commandsDir(workspace), filepath.FromSlash(cmd.Key())+".md")] = data
	}
	observedCmds, err := scanCommandsNested(c.md, c.commandsDir(workspace))
	if err != nil {
		return nil, err
	}
	var managedCmds []string
	for _, cmd := range observedCmds {
		managedCmds = append(managedCmds, cmd.SourcePath)
	}
	actions = append(actions, planDocFiles(c.Name(), cmdFiles, managedCmds, docDetail("command"))...)

	// Agents: flat .md files under .claude/agents.
	agentFiles := map[string][]byte{}
	for _, a := range desired.Agents {
		data, err := renderAgentDoc(c.md, a)
		if err != nil {
			return nil, fmt.Errorf("serialize agent %s: %w", a.Name, err)
		}
		agentFiles[filepath.Join(c.agentsDir(workspace), a.Name+".md")] = data
	}
	observedAgents, err := scanAgentsDir(c.md, c.agentsDir(workspace))
	if err != nil {
		return nil, err
	}
	var managedAgents []string
	for _, a := range observedAgents {
		managedAgents = append(managedAgents, a.SourcePath)
	}
	actions = append(actions, planDocFiles(c.Name(), agentFiles, managedAgents, docDetail("agent"))...)

	return actions, nil
}

// docDetail builds the human-readable detail line for a planned doc-file
// action.
func docDetail(kind string) func(path string, op model.FixOp) string {
	return func(path string, op model.FixOp) string {
		switch op {
		case model.FixCreate:
			return fmt.Sprintf("write %s file %s", kind, filepath.Base(path))
		case model.FixDelete:
			return fmt.Sprintf("remove %s file %s", kind, filepath.Base(path))
		default:
			return fmt.Sprintf("update %s file %s", kind, filepath.Base(path))
		}
	}
}
