// Package model defines core types for agent-sync: the canonical
// configuration state, per-tool observed state, and the drift/fix
// structures produced by a reconciliation run.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Category identifies one class of managed configuration content.
type Category string

const (
	CategoryServer  Category = "server"
	CategorySkill   Category = "skill"
	CategoryCommand Category = "command"
	CategoryAgent   Category = "agent"
)

// Categories lists all categories in report order.
var Categories = []Category{CategoryServer, CategorySkill, CategoryCommand, CategoryAgent}

// ServerType is the transport type of an MCP server connection.
type ServerType string

const (
	ServerHTTP  ServerType = "http"
	ServerStdio ServerType = "stdio"
	ServerLocal ServerType = "local"
)

// MCPServer is a single MCP server definition.
type MCPServer struct {
	Name       string            `json:"name"`
	Type       ServerType        `json:"type"`
	URL        string            `json:"url,omitempty"`
	Command    string            `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	EnabledFor []string          `json:"enabled_for,omitempty"` // tool names; empty means all tools
}

// EnabledForTool reports whether this server should be rendered into the
// named tool's configuration. An empty EnabledFor list enables all tools.
func (s MCPServer) EnabledForTool(tool string) bool {
	if len(s.EnabledFor) == 0 {
		return true
	}
	for _, t := range s.EnabledFor {
		if t == tool {
			return true
		}
	}
	return false
}

// ServerValue is the comparable projection of an MCPServer: the fields
// that constitute drift when they differ between canonical and tool state.
type ServerValue struct {
	Type    ServerType        `json:"type"`
	URL     string            `json:"url,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Comparable returns the drift-relevant projection of s. Empty collections
// normalize to nil so that a missing key and an empty one compare equal.
func (s MCPServer) Comparable() ServerValue {
	return ServerValue{
		Type:    s.Type,
		URL:     s.URL,
		Command: s.Command,
		Args:    normSlice(s.Args),
		Env:     normMap(s.Env),
		Headers: normMap(s.Headers),
	}
}

// Skill is a skill folder reference (a directory containing SKILL.md).
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Body        string `json:"-"`         // SKILL.md content below front matter
	BodyHash    string `json:"body_hash"` // normalized hash of Body
	Path        string `json:"path,omitempty"`
}

// SkillValue is the comparable projection of a Skill.
type SkillValue struct {
	Description string `json:"description,omitempty"`
	BodyHash    string `json:"body_hash"`
}

// Comparable returns the drift-relevant projection of s. Location metadata
// (Path) is deliberately excluded: canonical and tool copies live in
// different directories by definition.
func (s Skill) Comparable() SkillValue {
	return SkillValue{Description: s.Description, BodyHash: s.BodyHash}
}

// Command is a command/prompt file definition. The key is "namespace/slug"
// when a namespace is present, otherwise just the slug.
type Command struct {
	Namespace    string   `json:"namespace,omitempty"`
	Slug         string   `json:"slug"`
	Description  string   `json:"description,omitempty"`
	ArgumentHint string   `json:"argument_hint,omitempty"`
	Body         string   `json:"-"`
	BodyHash     string   `json:"body_hash"`
	SyncTo       []string `json:"sync_to,omitempty"` // tool names; empty means all tools
	SourcePath   string   `json:"source_path,omitempty"`
}

// Key returns the unique command key: "namespace/slug" or "slug".
func (c Command) Key() string {
	if c.Namespace == "" {
		return c.Slug
	}
	return c.Namespace + "/" + c.Slug
}

// SyncedToTool reports whether this command should be rendered into the
// named tool's configuration. An empty SyncTo list targets all tools.
func (c Command) SyncedToTool(tool string) bool {
	if len(c.SyncTo) == 0 {
		return true
	}
	for _, t := range c.SyncTo {
		if t == tool {
			return true
		}
	}
	return false
}

// CommandValue is the comparable projection of a Command.
type CommandValue struct {
	Description  string `json:"description,omitempty"`
	ArgumentHint string `json:"argument_hint,omitempty"`
	BodyHash     string `json:"body_hash"`
}

// Comparable returns the drift-relevant projection of c.
func (c Command) Comparable() CommandValue {
	return CommandValue{
		Description:  c.Description,
		ArgumentHint: c.ArgumentHint,
		BodyHash:     c.BodyHash,
	}
}

// Agent is a declared agent definition.
type Agent struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	ContextFiles []string `json:"context_files,omitempty"` // workspace-relative references
	Body         string   `json:"-"`
	BodyHash     string   `json:"body_hash"`
	SourcePath   string   `json:"source_path,omitempty"`
}

// AgentValue is the comparable projection of an Agent.
type AgentValue struct {
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	ContextFiles []string `json:"context_files,omitempty"`
	BodyHash     string   `json:"body_hash"`
}

// Comparable returns the drift-relevant projection of a.
func (a Agent) Comparable() AgentValue {
	return AgentValue{
		Description:  a.Description,
		Capabilities: normSlice(a.Capabilities),
		ContextFiles: normSlice(a.ContextFiles),
		BodyHash:     a.BodyHash,
	}
}

// CanonicalState is the single authoritative configuration snapshot for a
// workspace. It is a value type: constructed once, never mutated. Entries
// within each category are sorted by key, which fixes the deterministic
// item order every downstream consumer relies on.
type CanonicalState struct {
	Root     string      `json:"root"` // the .agents directory this was built from
	Servers  []MCPServer `json:"servers"`
	Skills   []Skill     `json:"skills"`
	Commands []Command   `json:"commands"`
	Agents   []Agent     `json:"agents"`
}

// NewCanonicalState builds a CanonicalState from the given entries,
// sorting each category by key and rejecting duplicate names within a
// category.
func NewCanonicalState(root string, servers []MCPServer, skills []Skill, commands []Command, agents []Agent) (CanonicalState, error) {
	st := CanonicalState{
		Root:     root,
		Servers:  append([]MCPServer(nil), servers...),
		Skills:   append([]Skill(nil), skills...),
		Commands: append([]Command(nil), commands...),
		Agents:   append([]Agent(nil), agents...),
	}
	sort.Slice(st.Servers, func(i, j int) bool { return st.Servers[i].Name < st.Servers[j].Name })
	sort.Slice(st.Skills, func(i, j int) bool { return st.Skills[i].Name < st.Skills[j].Name })
	sort.Slice(st.Commands, func(i, j int) bool { return st.Commands[i].Key() < st.Commands[j].Key() })
	sort.Slice(st.Agents, func(i, j int) bool { return st.Agents[i].Name < st.Agents[j].Name })

	if name, ok := firstDup(st.Servers, func(s MCPServer) string { return s.Name }); ok {
		return CanonicalState{}, fmt.Errorf("duplicate server name %q", name)
	}
	if name, ok := firstDup(st.Skills, func(s Skill) string { return s.Name }); ok {
		return CanonicalState{}, fmt.Errorf("duplicate skill name %q", name)
	}
	if name, ok := firstDup(st.Commands, func(c Command) string { return c.Key() }); ok {
		return CanonicalState{}, fmt.Errorf("duplicate command %q", name)
	}
	if name, ok := firstDup(st.Agents, func(a Agent) string { return a.Name }); ok {
		return CanonicalState{}, fmt.Errorf("duplicate agent name %q", name)
	}
	return st, nil
}

// ObservedState is one tool's configuration projected into canonical
// shape. A nil category slice means the tool does not support that
// category; it is distinct from an empty (but non-nil) slice, which means
// supported-but-empty. Categories outside a tool's capability set must
// stay nil so absence is never diffable as "missing".
type ObservedState struct {
	Tool     string      `json:"tool"`
	Servers  []MCPServer `json:"servers,omitempty"`
	Skills   []Skill     `json:"skills,omitempty"`
	Commands []Command   `json:"commands,omitempty"`
	Agents   []Agent     `json:"agents,omitempty"`
}

// BodyHash returns the drift-detection hash of a markdown body: SHA-256 of
// the text with trimmed edges and normalized line endings, truncated to 16
// hex characters.
func BodyHash(text string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// normSlice returns nil for empty slices so comparable projections treat
// absent and empty lists identically.
func normSlice(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// normMap returns nil for empty maps.
func normMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

// firstDup returns the first duplicated key in a sorted slice.
func firstDup[T any](items []T, key func(T) string) (string, bool) {
	for i := 1; i < len(items); i++ {
		if key(items[i]) == key(items[i-1]) {
			return key(items[i]), true
		}
	}
	return "", false
}
