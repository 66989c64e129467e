package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentsync/agentsync/internal/codec"
	"github.com/agentsync/agentsync/internal/model"
)

// unmarshalFile reads and parses path with c. A missing file returns
// (nil, false, nil). A malformed file returns a *codec.ParseError so the
// caller can record it as a per-tool failure instead of aborting the run.
func unmarshalFile(c codec.Codec, path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := c.Unmarshal(data, v); err != nil {
		return false, &codec.ParseError{Path: path, Format: c.Format(), Err: err}
	}
	return true, nil
}

// readDoc parses a markdown file with front matter.
func readDoc(md codec.Codec, path string) (codec.Document, error) {
	var doc codec.Document
	if _, err := unmarshalFile(md, path, &doc); err != nil {
		return codec.Document{}, err
	}
	return doc, nil
}

// --- MCP server map conversion (mcpServers-style JSON objects) ---

// serversFromMap converts an mcpServers object into MCPServer entries
// sorted by name. Entries without an explicit type are inferred: url
// means http, command means stdio.
func serversFromMap(raw map[string]any) []model.MCPServer {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	servers := make([]model.MCPServer, 0, len(names))
	for _, name := range names {
		entry, ok := raw[name].(map[string]any)
		if !ok {
			continue
		}
		srv := model.MCPServer{
			Name:    name,
			URL:     anyString(entry["url"]),
			Command: anyString(entry["command"]),
			Args:    anyStringSlice(entry["args"]),
			Env:     anyStringMap(entry["env"]),
			Headers: anyStringMap(entry["headers"]),
		}
		srv.Type = model.ServerType(anyString(entry["type"]))
		if srv.Type == "" {
			srv.Type = inferServerType(srv)
		}
		servers = append(servers, srv)
	}
	return servers
}

// serversToMap converts MCPServer entries into an mcpServers object.
// Only populated fields are emitted, so tool files stay minimal.
func serversToMap(servers []model.MCPServer) map[string]any {
	out := make(map[string]any, len(servers))
	for _, srv := range servers {
		entry := map[string]any{"type": string(srv.Type)}
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
		out[srv.Name] = entry
	}
	return out
}

func inferServerType(srv model.MCPServer) model.ServerType {
	if srv.URL != "" {
		return model.ServerHTTP
	}
	if srv.Command != "" {
		return model.ServerStdio
	}
	return model.ServerLocal
}

// --- markdown document scanning ---

// scanSkillsDir enumerates <dir>/<name>/SKILL.md skill folders.
func scanSkillsDir(md codec.Codec, dir string) ([]model.Skill, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []model.Skill{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	skills := []model.Skill{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		skillFile := filepath.Join(dir, e.Name(), "SKILL.md")
		if _, err := os.Stat(skillFile); err != nil {
			continue
		}
		doc, err := readDoc(md, skillFile)
		if err != nil {
			return nil, err
		}
		skills = append(skills, model.Skill{
			Name:        e.Name(),
			Description: codec.MetaString(doc.Meta, "description"),
			Body:        doc.Body,
			BodyHash:    model.BodyHash(doc.Body),
			Path:        filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

// renderSkillDoc serializes a skill into SKILL.md bytes.
func renderSkillDoc(md codec.Codec, s model.Skill) ([]byte, error) {
	meta := map[string]any{"name": s.Name}
	if s.Description != "" {
		meta["description"] = s.Description
	}
	return md.Marshal(&codec.Document{Meta: meta, Body: s.Body})
}

// scanAgentsDir enumerates <dir>/<name>.md agent definitions.
func scanAgentsDir(md codec.Codec, dir string) ([]model.Agent, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []model.Agent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	agents := []model.Agent{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, err := readDoc(md, path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if n := codec.MetaString(doc.Meta, "name"); n != "" {
			name = n
		}
		agents = append(agents, model.Agent{
			Name:         name,
			Description:  codec.MetaString(doc.Meta, "description"),
			Capabilities: codec.MetaStringList(doc.Meta, "capabilities"),
			ContextFiles: codec.MetaStringList(doc.Meta, "context"),
			Body:         doc.Body,
			BodyHash:     model.BodyHash(doc.Body),
			SourcePath:   path,
		})
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents, nil
}

// renderAgentDoc serializes an agent definition into markdown bytes.
func renderAgentDoc(md codec.Codec, a model.Agent) ([]byte, error) {
	meta := map[string]any{"name": a.Name}
	if a.Description != "" {
		meta["description"] = a.Description
	}
	if len(a.Capabilities) > 0 {
		meta["capabilities"] = a.Capabilities
	}
	if len(a.ContextFiles) > 0 {
		meta["context"] = a.ContextFiles
	}
	return md.Marshal(&codec.Document{Meta: meta, Body: a.Body})
}

// scanCommandsNested reads <dir>/[namespace/]slug.md command files, the
// Claude layout where the folder is the namespace.
func scanCommandsNested(md codec.Codec, dir string) ([]model.Command, error) {
	cmds := []model.Command{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		doc, derr := readDoc(md, path)
		if derr != nil {
			return derr
		}
		ns := ""
		if parent := filepath.Dir(path); parent != dir {
			ns = filepath.Base(parent)
		}
		cmds = append(cmds, model.Command{
			Namespace:    ns,
			Slug:         strings.TrimSuffix(d.Name(), ".md"),
			Description:  codec.MetaString(doc.Meta, "description"),
			ArgumentHint: codec.MetaString(doc.Meta, "argument-hint"),
			SyncTo:       codec.MetaStringList(doc.Meta, "sync_to"),
			Body:         doc.Body,
			BodyHash:     model.BodyHash(doc.Body),
			SourcePath:   path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Key() < cmds[j].Key() })
	return cmds, nil
}

// scanCommandsFlat reads <dir>/<namespace>-<slug>.md prompt files, the
// Codex layout. Files rendered by agent-sync carry an explicit namespace
// in front matter; for hand-made files the namespace is inferred from the
// text before the first dash.
func scanCommandsFlat(md codec.Codec, dir string) ([]model.Command, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []model.Command{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	cmds := []model.Command{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, derr := readDoc(md, path)
		if derr != nil {
			return nil, derr
		}
		stem := strings.TrimSuffix(e.Name(), ".md")
		ns, slug := splitFlatName(doc.Meta, stem)
		cmds = append(cmds, model.Command{
			Namespace:    ns,
			Slug:         slug,
			Description:  codec.MetaString(doc.Meta, "description"),
			ArgumentHint: codec.MetaString(doc.Meta, "argument-hint"),
			Body:         doc.Body,
			BodyHash:     model.BodyHash(doc.Body),
			SourcePath:   path,
		})
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Key() < cmds[j].Key() })
	return cmds, nil
}

// splitFlatName resolves namespace and slug for a flat-layout command
// file. An explicit front matter namespace wins; "" (set explicitly) pins
// a dashed slug with no namespace.
func splitFlatName(meta map[string]any, stem string) (ns, slug string) {
	if v, ok := meta["namespace"]; ok {
		ns = anyString(v)
		if ns != "" && strings.HasPrefix(stem, ns+"-") {
			return ns, strings.TrimPrefix(stem, ns+"-")
		}
		return ns, stem
	}
	if i := strings.Index(stem, "-"); i > 0 {
		return stem[:i], stem[i+1:]
	}
	return "", stem
}

// renderCommandDoc serializes a command into markdown bytes. When
// withNamespace is set the namespace is recorded in front matter, which
// flat layouts need to reconstruct the command key.
func renderCommandDoc(md codec.Codec, c model.Command, withNamespace bool) ([]byte, error) {
	meta := map[string]any{}
	if c.Description != "" {
		meta["description"] = c.Description
	}
	if c.ArgumentHint != "" {
		meta["argument-hint"] = c.ArgumentHint
	}
	if withNamespace {
		meta["namespace"] = c.Namespace
	}
	return md.Marshal(&codec.Document{Meta: meta, Body: c.Body})
}

// --- fix planning ---

// planDocFiles compares desired file contents (absolute path to bytes)
// against what is on disk and plans create/update/delete actions. Paths
// in managed that are absent from desired are deleted. Unchanged files
// produce no action, which is what makes a repeated fix a no-op.
func planDocFiles(toolName string, desired map[string][]byte, managed []string, detail func(path string, op model.FixOp) string) []model.FixAction {
	paths := make([]string, 0, len(desired))
	for p := range desired {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var actions []model.FixAction
	for _, p := range paths {
		content := desired[p]
		current, err := os.ReadFile(p)
		switch {
		case os.IsNotExist(err):
			actions = append(actions, model.FixAction{
				Tool: toolName, Path: p, Op: model.FixCreate, Content: content,
				Detail: detail(p, model.FixCreate),
			})
		case err == nil && string(current) != string(content):
			actions = append(actions, model.FixAction{
				Tool: toolName, Path: p, Op: model.FixUpdate, Content: content,
				Detail: detail(p, model.FixUpdate),
			})
		}
	}

	sort.Strings(managed)
	for _, p := range managed {
		if _, ok := desired[p]; ok {
			continue
		}
		actions = append(actions, model.FixAction{
			Tool: toolName, Path: p, Op: model.FixDelete,
			Detail: detail(p, model.FixDelete),
		})
	}
	return actions
}

// planMergedFile plans the single create/update action for a shared
// config file (e.g., .mcp.json) whose serialized content has already been
// merged. No action is planned when the file already matches.
func planMergedFile(toolName, path string, content []byte, detailText string) []model.FixAction {
	current, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return []model.FixAction{{Tool: toolName, Path: path, Op: model.FixCreate, Content: content, Detail: detailText}}
	case err == nil && string(current) == string(content):
		return nil
	default:
		return []model.FixAction{{Tool: toolName, Path: path, Op: model.FixUpdate, Content: content, Detail: detailText}}
	}
}

// --- loose value coercion for parsed JSON/TOML trees ---

func anyString(v any) string {
	s, _ := v.(string)
	return s
}

func anyStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func anyStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
