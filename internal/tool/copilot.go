package tool

import (
	"fmt"
	"path/filepath"

	"github.com/agentsync/agentsync/internal/codec"
	"github.com/agentsync/agentsync/internal/model"
)

// copilot implements Adapter for GitHub Copilot CLI: MCP servers in
// .copilot/mcp-config.json and skill folders under .copilot/skills.
type copilot struct {
	json codec.Codec
	md   codec.Codec
}

func init() {
	Register(&copilot{json: codec.MustGet(codec.JSON), md: codec.MustGet(codec.Markdown)})
}

// Name returns "copilot".
func (c *copilot) Name() string { return "copilot" }

// Capabilities returns servers and skills.
func (c *copilot) Capabilities() []model.Category {
	return []model.Category{model.CategoryServer, model.CategorySkill}
}

func (c *copilot) mcpPath(ws string) string   { return filepath.Join(ws, ".copilot", "mcp-config.json") }
func (c *copilot) skillsDir(ws string) string { return filepath.Join(ws, ".copilot", "skills") }

// Observe reads mcp-config.json and the skills directory.
func (c *copilot) Observe(workspace string) (model.ObservedState, error) {
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

	return st, nil
}

// Render projects canonical state into Copilot shape.
func (c *copilot) Render(st model.CanonicalState) model.ObservedState {
	out := model.ObservedState{
		Tool:    c.Name(),
		Servers: []model.MCPServer{},
		Skills:  append([]model.Skill{}, st.Skills...),
	}
	for _, srv := range st.Servers {
		if srv.EnabledForTool(c.Name()) {
			out.Servers = append(out.Servers, srv)
		}
	}
	return out
}

// Write plans the operations that converge Copilot configuration to
// desired, preserving any keys in mcp-config.json outside mcpServers.
func (c *copilot) Write(workspace string, desired model.ObservedState) ([]model.FixAction, error) {
	var actions []model.FixAction

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
		fmt.Sprintf("sync %d MCP servers into mcp-config.json", len(desired.Servers)))...)

	skillFiles := map[string][]byte{}
	for _, s := range desired.Skills {
		data, err := renderSkillDoc(c.md, s)
		if err != nil {
			return nil, fmt.Errorf("serialize skill %s: %w", s.Name, err)
		}
		skillFiles[filepath.Join(c.skillsDir(workspace), s.Name, "SKILL.md")] = data
	}
	observed, err := scanSkillsDir(c.md, c.skillsDir(workspace))
	if err != nil {
		return nil, err
	}
	var managed []string
	for _, s := range observed {
		managed = append(managed, filepath.Join(s.Path, "SKILL.md"))
	}
	actions = append(actions, planDocFiles(c.Name(), skillFiles, managed, docDetail("skill"))...)

	return actions, nil
}
