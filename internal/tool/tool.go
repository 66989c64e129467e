// Package tool defines the Adapter interface and a registry of adapters
// for the supported AI developer tools. Each adapter knows where its
// tool's configuration lives inside a workspace, how to read it into
// canonical shape, and how to render canonical state back into the
// tool's own files.
package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agentsync/agentsync/internal/model"
)

// Adapter translates between canonical state and one tool's on-disk
// configuration. Implementations are stateless; all paths derive from the
// workspace root passed to Observe and Write.
type Adapter interface {
	// Name returns the unique identifier for this tool (e.g., "claude").
	Name() string

	// Capabilities returns the categories this tool supports. Diffing is
	// restricted to this set.
	Capabilities() []model.Category

	// Observe reads the tool's current configuration under workspace.
	// A missing file yields an empty observed state, not an error. A
	// malformed file yields a *codec.ParseError the caller records as a
	// per-tool failure.
	Observe(workspace string) (model.ObservedState, error)

	// Render projects canonical state into this tool's shape, applying
	// only the categories in Capabilities and the per-item tool gating
	// (enabled_for, sync_to).
	Render(st model.CanonicalState) model.ObservedState

	// Write plans the file operations that make the tool's configuration
	// under workspace match desired. It reads current file contents and
	// merges, so keys outside the managed categories survive. Content in
	// the returned actions is fully serialized; nothing is written here.
	Write(workspace string, desired model.ObservedState) ([]model.FixAction, error)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Adapter)
)

// Register adds an adapter to the registry. It panics if an adapter with
// the same name is already registered.
func Register(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	name := a.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("tool: duplicate registration for %q", name))
	}
	registry[name] = a
}

// Get returns the adapter with the given name, or nil if not found.
func Get(name string) Adapter {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name]
}

// Names returns the sorted names of all registered adapters.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered adapters sorted by name.
func All() []Adapter {
	names := Names()
	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		out = append(out, Get(name))
	}
	return out
}

// supports reports whether cap is in the adapter's capability set.
func supports(a Adapter, cat model.Category) bool {
	for _, c := range a.Capabilities() {
		if c == cat {
			return true
		}
	}
	return false
}
