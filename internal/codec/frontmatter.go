package codec

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Markdown is the format tag for markdown files with YAML front matter.
const Markdown = "markdown-front-matter"

// Document is the structured value for the markdown-front-matter format:
// a YAML metadata block plus the markdown body below it.
type Document struct {
	Meta map[string]any
	Body string
}

func init() {
	Register(markdownCodec{})
}

// markdownCodec splits and reassembles markdown files with a YAML front
// matter block delimited by --- lines. A file without front matter parses
// to an empty Meta and the full text as Body.
type markdownCodec struct{}

func (markdownCodec) Format() string { return Markdown }

func (markdownCodec) Unmarshal(data []byte, v any) error {
	doc, ok := v.(*Document)
	if !ok {
		return fmt.Errorf("markdown codec: expected *codec.Document, got %T", v)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		doc.Meta = map[string]any{}
		doc.Body = text
		return nil
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		doc.Meta = map[string]any{}
		doc.Body = text
		return nil
	}
	block := rest[:end]
	body := rest[end+len("\n---"):]
	// Drop the closing delimiter's newline and the blank separator line
	// Marshal emits, so parse and serialize round-trip byte-identically.
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return fmt.Errorf("front matter: %w", err)
	}
	doc.Meta = meta
	doc.Body = body
	return nil
}

func (markdownCodec) Marshal(v any) ([]byte, error) {
	doc, ok := v.(*Document)
	if !ok {
		return nil, fmt.Errorf("markdown codec: expected *codec.Document, got %T", v)
	}
	var buf bytes.Buffer
	if len(doc.Meta) > 0 {
		meta, err := yaml.Marshal(doc.Meta)
		if err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n")
		if doc.Body != "" {
			buf.WriteString("\n")
		}
	}
	buf.WriteString(doc.Body)
	if !strings.HasSuffix(buf.String(), "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// MetaString returns the string value for key in a front matter map, or
// "" when absent or not a string.
func MetaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// MetaStringList returns the value for key as a string list. Scalar
// strings are split on commas, matching how tools write single-line
// front matter lists.
func MetaStringList(meta map[string]any, key string) []string {
	switch v := meta[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
