package tool

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentsync/agentsync/internal/codec"
	"github.com/agentsync/agentsync/internal/model"
)

// codex implements Adapter for OpenAI Codex CLI: MCP servers live as
// [mcp_servers.<name>] tables in .codex/config.toml and prompts as flat
// markdown files under .codex/prompts.
type codex struct {
	toml codec.Codec
	md   codec.Codec
}

func init() {
	Register(&codex{toml: codec.MustGet(codec.TOML), md: codec.MustGet(codec.Markdown)})
}

// Name returns "codex".
func (c *codex) Name() string { return "codex" }

// Capabilities returns servers and commands; Codex has no external skill
// or agent directories.
func (c *codex) Capabilities() []model.Category {
	return []model.Category{model.CategoryServer, model.CategoryCommand}
}

func (c *codex) configPath(ws string) string { return filepath.Join(ws, ".codex", "config.toml") }
func (c *codex) promptsDir(ws string) string { return filepath.Join(ws, ".codex", "prompts") }

// Observe reads config.toml and the prompts directory.
func (c *codex) Observe(workspace string) (model.ObservedState, error) {
	st := model.ObservedState{Tool: c.Name()}

	var cfg map[string]any
	if _, err := unmarshalFile(c.toml, c.configPath(workspace), &cfg); err != nil {
		return model.ObservedState{}, err
	}
	st.Servers = []model.MCPServer{}
	if raw, ok := cfg["mcp_servers"].(map[string]any); ok {
		st.Servers = serversFromMap(raw)
	}

	cmds, err := scanCommandsFlat(c.md, c.promptsDir(workspace))
	if err != nil {
		return model.ObservedState{}, err
	}
	st.Commands = cmds

	return st, nil
}

// Render projects canonical state into Codex shape.
func (c *codex) Render(st model.CanonicalState) model.ObservedState {
	out := model.ObservedState{
		Tool:     c.Name(),
		Servers:  []model.MCPServer{},
		Commands: []model.Command{},
	}
	for _, srv := range st.Servers {
		if !srv.EnabledForTool(c.Name()) {
			continue
		}
		// Codex config has no explicit type field for url/command servers,
		// so the expected type is normalized to what Observe infers back.
		if srv.URL != "" || srv.Command != "" {
			srv.Type = inferServerType(srv)
		}
		out.Servers = append(out.Servers, srv)
	}
	for _, cmd := range st.Commands {
		if cmd.SyncedToTool(c.Name()) {
			out.Commands = append(out.Commands, cmd)
		}
	}
	return out
}

// Write plans the operations that converge Codex configuration to
// desired. The mcp_servers table of config.toml is replaced wholesale;
// model, personality, and any other settings in the file are preserved.
func (c *codex) Write(workspace string, desired model.ObservedState) ([]model.FixAction, error) {
	var actions []model.FixAction

	cfg := map[string]any{}
	if _, err := unmarshalFile(c.toml, c.configPath(workspace), &cfg); err != nil {
		return nil, err
	}
	cfg["mcp_servers"] = codexServerTables(desired.Servers)
	content, err := c.toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", c.configPath(workspace), err)
	}
	actions = append(actions, planMergedFile(c.Name(), c.configPath(workspace), content,
		fmt.Sprintf("sync %d MCP servers into config.toml", len(desired.Servers)))...)

	promptFiles := map[string][]byte{}
	for _, cmd := range desired.Commands {
		data, err := renderCommandDoc(c.md, cmd, true)
		if err != nil {
			return nil, fmt.Errorf("serialize prompt %s: %w", cmd.Key(), err)
		}
		promptFiles[filepath.Join(c.promptsDir(workspace), flatFileName(cmd))] = data
	}
	observed, err := scanCommandsFlat(c.md, c.promptsDir(workspace))
	if err != nil {
		return nil, err
	}
	var managed []string
	for _, cmd := range observed {
		managed = append(managed, cmd.SourcePath)
	}
	actions = append(actions, planDocFiles(c.Name(), promptFiles, managed, docDetail("prompt"))...)

	return actions, nil
}

// flatFileName returns the Codex prompt file name for a command:
// "<namespace>-<slug>.md", or "<slug>.md" without a namespace.
func flatFileName(cmd model.Command) string {
	if cmd.Namespace == "" {
		return cmd.Slug + ".md"
	}
	return cmd.Namespace + "-" + cmd.Slug + ".md"
}

// codexServerTables converts servers into the [mcp_servers.<name>] TOML
// layout. Codex has no type field; url implies HTTP and command implies
// stdio, matching what Observe infers back.
func codexServerTables(servers []model.MCPServer) map[string]any {
	names := make([]string, 0, len(servers))
	byName := make(map[string]model.MCPServer, len(servers))
	for _, srv := range servers {
		names = append(names, srv.Name)
		byName[srv.Name] = srv
	}
	sort.Strings(names)

	out := make(map[string]any, len(servers))
	for _, name := range names {
		srv := byName[name]
		entry := map[string]any{}
		if srv.URL != "" {
			entry["url"] = srv.URL
		}
		if srv.Command != "" {
			entry["command"] = srv.Command
		}
		if len(srv.Args) > 0 {
			entry["args"] = srv.Args
		}
		if len(srv.Env) > 0 {
			entry["env"] = srv.Env
		}
		if len(srv.Headers) > 0 {
			entry["headers"] = srv.Headers
		}
		if srv.URL == "" && srv.Command == "" {
			// Local servers have neither; record the type so the entry
			// is not empty and round-trips.
			entry["type"] = strings.ToLower(string(srv.Type))
		}
		out[name] = entry
	}
	return out
}
