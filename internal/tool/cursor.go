package tool

import (
	"fmt"
	"path/filepath"

	"github.com/agentsync/agentsync/internal/codec"
	"github.com/agentsync/agentsync/internal/model"
)

// cursor implements Adapter for Cursor IDE, which only manages MCP
// servers, in .cursor/mcp.json.
type cursor struct {
	json codec.Codec
}

func init() {
	Register(&cursor{json: codec.MustGet(codec.JSON)})
}

// Name returns "cursor".
func (c *cursor) Name() string { return "cursor" }

// Capabilities returns servers only.
func (c *cursor) Capabilities() []model.Category {
	return []model.Category{model.CategoryServer}
}

func (c *cursor) mcpPath(ws string) string { return filepath.Join(ws, ".cursor", "mcp.json") }

// Observe reads .cursor/mcp.json.
func (c *cursor) Observe(workspace string) (model.ObservedState, error) {
	st := model.ObservedState{Tool: c.Name()}

	var mcpFile map[string]any
	if _, err := unmarshalFile(c.json, c.mcpPath(workspace), &mcpFile); err != nil {
		return model.ObservedState{}, err
	}
	st.Servers = []model.MCPServer{}
	if raw, ok := mcpFile["mcpServers"].(map[string]any); ok {
		st.Servers = serversFromMap(raw)
	}
	return st, nil
}

// Render projects canonical state into Cursor shape.
func (c *cursor) Render(st model.CanonicalState) model.ObservedState {
	out := model.ObservedState{Tool: c.Name(), Servers: []model.MCPServer{}}
	for _, srv := range st.Servers {
		if srv.EnabledForTool(c.Name()) {
			out.Servers = append(out.Servers, srv)
		}
	}
	return out
}

// Write plans the single merge of .cursor/mcp.json, preserving unmanaged
// keys.
func (c *cursor) Write(workspace string, desired model.ObservedState) ([]model.FixAction, error) {
	mcpFile := map[string]any{}
	if _, err := unmarshalFile(c.json, c.mcpPath(workspace), &mcpFile); err != nil {
		return nil, err
	}
	mcpFile["mcpServers"] = serversToMap(desired.Servers)
	content, err := c.json.Marshal(mcpFile)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", c.mcpPath(workspace), err)
	}
	return planMergedFile(c.Name(), c.mcpPath(workspace), content,
		fmt.Sprintf("sync %d MCP servers into mcp.json", len(desired.Servers))), nil
}
