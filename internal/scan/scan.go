// Package scan builds the canonical state from a workspace's .agents
// directory: mcp.json for MCP servers, skills/ for skill folders,
// commands/ for command files, and agents/ for agent definitions.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentsync/agentsync/internal/codec"
	"github.com/agentsync/agentsync/internal/model"
)

// SourceDirName is the canonical source directory inside a workspace.
const SourceDirName = ".agents"

// Result is the outcome of one canonical scan: the state plus any
// non-fatal per-file warnings.
type Result struct {
	State    model.CanonicalState
	Warnings []model.Warning
}

// Scanner reads canonical sources through injected codecs.
type Scanner struct {
	json codec.Codec
	md   codec.Codec
}

// New returns a Scanner using the registered json and markdown codecs.
func New() *Scanner {
	return &Scanner{json: codec.MustGet(codec.JSON), md: codec.MustGet(codec.Markdown)}
}

// Scan builds the canonical state for workspace. A missing .agents
// directory is fatal; a malformed individual file is recorded as a
// warning and skipped.
func (s *Scanner) Scan(workspace string) (Result, error) {
	root := filepath.Join(workspace, SourceDirName)
	info, err := os.Stat(root)
	if err != nil {
		return Result{}, fmt.Errorf("canonical source directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("canonical source %s is not a directory", root)
	}

	var warnings []model.Warning

	servers, w := s.scanServers(root)
	warnings = append(warnings, w...)

	skills, w := s.scanSkills(root)
	warnings = append(warnings, w...)

	commands, w := s.scanCommands(root)
	warnings = append(warnings, w...)

	agents, w := s.scanAgents(workspace, root)
	warnings = append(warnings, w...)

	state, err := model.NewCanonicalState(root, servers, skills, commands, agents)
	if err != nil {
		return Result{}, fmt.Errorf("canonical state: %w", err)
	}
	return Result{State: state, Warnings: warnings}, nil
}

// scanServers reads mcp.json. The canonical schema keys servers under
// "servers" and supports the enabled_for tool gating list.
func (s *Scanner) scanServers(root string) ([]model.MCPServer, []model.Warning) {
	path := filepath.Join(root, "mcp.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, []model.Warning{{Source: path, Message: err.Error()}}
	}

	var file struct {
		Servers map[string]struct {
			Type       string            `json:"type"`
			URL        string            `json:"url"`
			Command    string            `json:"command"`
			Args       []string          `json:"args"`
			Env        map[string]string `json:"env"`
			Headers    map[string]string `json:"headers"`
			EnabledFor []string          `json:"enabled_for"`
		} `json:"servers"`
	}
	if err := s.json.Unmarshal(data, &file); err != nil {
		return nil, []model.Warning{{Source: path, Message: fmt.Sprintf("malformed mcp.json: %v", err)}}
	}

	names := make([]string, 0, len(file.Servers))
	for name := range file.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var servers []model.MCPServer
	var warnings []model.Warning
	for _, name := range names {
		entry := file.Servers[name]
		srv := model.MCPServer{
			Name:       name,
			Type:       model.ServerType(entry.Type),
			URL:        entry.URL,
			Command:    entry.Command,
			Args:       entry.Args,
			Env:        entry.Env,
			Headers:    entry.Headers,
			EnabledFor: entry.EnabledFor,
		}
		if srv.Type == "" {
			switch {
			case srv.URL != "":
				srv.Type = model.ServerHTTP
			case srv.Command != "":
				srv.Type = model.ServerStdio
			default:
				srv.Type = model.ServerLocal
			}
		}
		if srv.URL == "" && srv.Command == "" && srv.Type != model.ServerLocal {
			warnings = append(warnings, model.Warning{
				Source:  path,
				Message: fmt.Sprintf("server %q has neither url nor command", name),
			})
		}
		servers = append(servers, srv)
	}
	return servers, warnings
}

// scanSkills enumerates skills/<name>/SKILL.md.
func (s *Scanner) scanSkills(root string) ([]model.Skill, []model.Warning) {
	dir := filepath.Join(root, "skills")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, []model.Warning{{Source: dir, Message: err.Error()}}
	}

	var skills []model.Skill
	var warnings []model.Warning
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		skillFile := filepath.Join(dir, e.Name(), "SKILL.md")
		data, err := os.ReadFile(skillFile)
		if os.IsNotExist(err) {
			warnings = append(warnings, model.Warning{
				Source:  filepath.Join(dir, e.Name()),
				Message: "skill folder has no SKILL.md",
			})
			continue
		}
		if err != nil {
			warnings = append(warnings, model.Warning{Source: skillFile, Message: err.Error()})
			continue
		}
		var doc codec.Document
		if err := s.md.Unmarshal(data, &doc); err != nil {
			warnings = append(warnings, model.Warning{Source: skillFile, Message: err.Error()})
			continue
		}
		skills = append(skills, model.Skill{
			Name:        e.Name(),
			Description: codec.MetaString(doc.Meta, "description"),
			Body:        doc.Body,
			BodyHash:    model.BodyHash(doc.Body),
			Path:        filepath.Join(dir, e.Name()),
		})
	}
	return skills, warnings
}

// scanCommands walks commands/[namespace/]slug.md.
func (s *Scanner) scanCommands(root string) ([]model.Command, []model.Warning) {
	dir := filepath.Join(root, "commands")
	var commands []model.Command
	var warnings []model.Warning

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipAll
			}
			warnings = append(warnings, model.Warning{Source: path, Message: err.Error()})
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			warnings = append(warnings, model.Warning{Source: path, Message: rerr.Error()})
			return nil
		}
		var doc codec.Document
		if uerr := s.md.Unmarshal(data, &doc); uerr != nil {
			warnings = append(warnings, model.Warning{Source: path, Message: uerr.Error()})
			return nil
		}
		ns := ""
		if parent := filepath.Dir(path); parent != dir {
			ns = filepath.Base(parent)
		}
		commands = append(commands, model.Command{
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
		warnings = append(warnings, model.Warning{Source: dir, Message: err.Error()})
	}
	return commands, warnings
}

// scanAgents reads agents/<name>.md. Context file references are
// validated against the workspace; dangling references become warnings,
// never errors.
func (s *Scanner) scanAgents(workspace, root string) ([]model.Agent, []model.Warning) {
	dir := filepath.Join(root, "agents")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, []model.Warning{{Source: dir, Message: err.Error()}}
	}

	var agents []model.Agent
	var warnings []model.Warning
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			warnings = append(warnings, model.Warning{Source: path, Message: rerr.Error()})
			continue
		}
		var doc codec.Document
		if uerr := s.md.Unmarshal(data, &doc); uerr != nil {
			warnings = append(warnings, model.Warning{Source: path, Message: uerr.Error()})
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if n := codec.MetaString(doc.Meta, "name"); n != "" {
			name = n
		}
		agent := model.Agent{
			Name:         name,
			Description:  codec.MetaString(doc.Meta, "description"),
			Capabilities: codec.MetaStringList(doc.Meta, "capabilities"),
			ContextFiles: codec.MetaStringList(doc.Meta, "context"),
			Body:         doc.Body,
			BodyHash:     model.BodyHash(doc.Body),
			SourcePath:   path,
		}
		for _, ref := range agent.ContextFiles {
			refPath := filepath.Join(workspace, filepath.FromSlash(ref))
			if _, serr := os.Stat(refPath); serr != nil {
				warnings = append(warnings, model.Warning{
					Source:  path,
					Message: fmt.Sprintf("agent %q references missing file %s", name, ref),
				})
			}
		}
		agents = append(agents, agent)
	}
	return agents, warnings
}
