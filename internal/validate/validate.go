// Package validate checks canonical entries for problems that will not
// stop a sync but usually indicate authoring mistakes. Every finding is
// a warning; validation never fails a run.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agentsync/agentsync/internal/model"
	"github.com/agentsync/agentsync/internal/tool"
)

// maxDescriptionLen bounds description fields. Longer descriptions get
// silently truncated by some tools, so flag them at authoring time.
const maxDescriptionLen = 1024

var nameRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// State checks every canonical entry and returns the findings.
func State(st model.CanonicalState) []model.Warning {
	var warnings []model.Warning
	warnings = append(warnings, servers(st.Servers)...)
	warnings = append(warnings, skills(st.Skills)...)
	warnings = append(warnings, commands(st.Commands)...)
	warnings = append(warnings, agents(st.Agents)...)
	return warnings
}

func servers(list []model.MCPServer) []model.Warning {
	var out []model.Warning
	known := tool.Names()
	for _, s := range list {
		src := "server " + s.Name
		if !nameRe.MatchString(s.Name) {
			out = append(out, warn(src, "name should be lowercase kebab-case"))
		}
		switch s.Type {
		case model.ServerHTTP:
			if s.URL == "" {
				out = append(out, warn(src, "http server has no url"))
			}
			if s.Command != "" {
				out = append(out, warn(src, "http server has a command; it will be ignored"))
			}
		case model.ServerStdio:
			if s.Command == "" {
				out = append(out, warn(src, "stdio server has no command"))
			}
			if s.URL != "" {
				out = append(out, warn(src, "stdio server has a url; it will be ignored"))
			}
		}
		for _, t := range s.EnabledFor {
			if !contains(known, t) {
				out = append(out, warn(src, fmt.Sprintf("enabled_for lists unknown tool %q", t)))
			}
		}
	}
	return out
}

func skills(list []model.Skill) []model.Warning {
	var out []model.Warning
	for _, s := range list {
		src := "skill " + s.Name
		if !nameRe.MatchString(s.Name) {
			out = append(out, warn(src, "name should be lowercase kebab-case"))
		}
		if s.Description == "" {
			out = append(out, warn(src, "missing description"))
		}
		if len(s.Description) > maxDescriptionLen {
			out = append(out, warn(src, fmt.Sprintf("description exceeds %d characters", maxDescriptionLen)))
		}
		if strings.TrimSpace(s.Body) == "" {
			out = append(out, warn(src, "empty body"))
		}
	}
	return out
}

func commands(list []model.Command) []model.Warning {
	var out []model.Warning
	known := tool.Names()
	for _, c := range list {
		src := "command " + c.Key()
		if !nameRe.MatchString(c.Slug) {
			out = append(out, warn(src, "slug should be lowercase kebab-case"))
		}
		if c.Namespace != "" && !nameRe.MatchString(c.Namespace) {
			out = append(out, warn(src, "namespace should be lowercase kebab-case"))
		}
		if c.Description == "" {
			out = append(out, warn(src, "missing description"))
		}
		for _, t := range c.SyncTo {
			if !contains(known, t) {
				out = append(out, warn(src, fmt.Sprintf("sync_to lists unknown tool %q", t)))
			}
		}
	}
	return out
}

func agents(list []model.Agent) []model.Warning {
	var out []model.Warning
	for _, a := range list {
		src := "agent " + a.Name
		if !nameRe.MatchString(a.Name) {
			out = append(out, warn(src, "name should be lowercase kebab-case"))
		}
		if a.Description == "" {
			out = append(out, warn(src, "missing description"))
		}
		if strings.TrimSpace(a.Body) == "" {
			out = append(out, warn(src, "empty body"))
		}
	}
	return out
}

func warn(source, message string) model.Warning {
	return model.Warning{Source: source, Message: message}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
