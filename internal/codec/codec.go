// Package codec defines the format codec interface and a registry keyed
// by format tag. Tool adapters and the canonical scanner consume codecs
// instead of calling encoding packages directly, so every file format the
// system touches is parsed and serialized through one place.
package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Format tags for the registry.
const (
	JSON = "json"
	TOML = "toml"
	YAML = "yaml"
)

// Codec parses raw file bytes into a structured value and serializes a
// structured value back to bytes.
type Codec interface {
	// Format returns the unique tag for this codec (e.g., "json").
	Format() string

	// Unmarshal parses data into v.
	Unmarshal(data []byte, v any) error

	// Marshal serializes v, ending with a trailing newline.
	Marshal(v any) ([]byte, error)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Codec)
)

// Register adds a codec to the registry. It panics if a codec with the
// same format tag is already registered.
func Register(c Codec) {
	mu.Lock()
	defer mu.Unlock()
	tag := c.Format()
	if _, exists := registry[tag]; exists {
		panic(fmt.Sprintf("codec: duplicate registration for %q", tag))
	}
	registry[tag] = c
}

// Get returns the codec for the given format tag, or nil if not found.
func Get(tag string) Codec {
	mu.RLock()
	defer mu.RUnlock()
	return registry[tag]
}

// MustGet returns the codec for the given format tag, panicking if the
// format is unknown. Intended for static wiring at adapter construction.
func MustGet(tag string) Codec {
	c := Get(tag)
	if c == nil {
		panic(fmt.Sprintf("codec: unknown format %q", tag))
	}
	return c
}

// Formats returns the sorted tags of all registered codecs.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ParseError describes a malformed configuration file. The reconciler
// surfaces it as a per-tool report entry instead of failing the run.
type ParseError struct {
	Path   string
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
