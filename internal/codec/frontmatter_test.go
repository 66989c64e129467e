package codec

import (
	"bytes"
	"reflect"
	"testing"
)

func TestMarkdownUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMeta map[string]any
		wantBody string
	}{
		{
			name:     "front matter and body",
			input:    "---\ndescription: review code\n---\n\nDo the review.\n",
			wantMeta: map[string]any{"description": "review code"},
			wantBody: "Do the review.\n",
		},
		{
			name:     "no front matter",
			input:    "Just a body.\n",
			wantMeta: map[string]any{},
			wantBody: "Just a body.\n",
		},
		{
			name:     "unterminated front matter treated as body",
			input:    "---\ndescription: oops\n",
			wantMeta: map[string]any{},
			wantBody: "---\ndescription: oops\n",
		},
		{
			name:     "crlf input",
			input:    "---\r\ndescription: d\r\n---\r\n\r\nbody\r\n",
			wantMeta: map[string]any{"description": "d"},
			wantBody: "body\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc Document
			if err := MustGet(Markdown).Unmarshal([]byte(tt.input), &doc); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(doc.Meta, tt.wantMeta) {
				t.Errorf("Meta = %v, want %v", doc.Meta, tt.wantMeta)
			}
			if doc.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", doc.Body, tt.wantBody)
			}
		})
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	md := MustGet(Markdown)
	original := &Document{
		Meta: map[string]any{"description": "deploy helper"},
		Body: "Run the deploy.\n\nThen verify.\n",
	}
	data, err := md.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var parsed Document
	if err := md.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Body != original.Body {
		t.Errorf("body changed across round trip: %q -> %q", original.Body, parsed.Body)
	}

	// Serializing the parsed document again must be byte-identical, or a
	// repeated fix would keep rewriting unchanged files.
	again, err := md.Marshal(&parsed)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("round trip not stable:\nfirst:  %q\nsecond: %q", data, again)
	}
}

func TestMarkdownUnmarshalWrongType(t *testing.T) {
	var m map[string]any
	if err := MustGet(Markdown).Unmarshal([]byte("x"), &m); err == nil {
		t.Fatal("expected error for non-Document target")
	}
}

func TestMetaString(t *testing.T) {
	meta := map[string]any{"description": "d", "count": 3}
	if got := MetaString(meta, "description"); got != "d" {
		t.Errorf("MetaString = %q, want %q", got, "d")
	}
	if got := MetaString(meta, "count"); got != "" {
		t.Errorf("non-string value should yield empty, got %q", got)
	}
	if got := MetaString(meta, "absent"); got != "" {
		t.Errorf("absent key should yield empty, got %q", got)
	}
}

func TestMetaStringList(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		want []string
	}{
		{"yaml list", map[string]any{"k": []any{"a", "b"}}, []string{"a", "b"}},
		{"comma scalar", map[string]any{"k": "a, b ,c"}, []string{"a", "b", "c"}},
		{"empty string", map[string]any{"k": ""}, nil},
		{"absent", map[string]any{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MetaStringList(tt.meta, "k"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MetaStringList = %v, want %v", got, tt.want)
			}
		})
	}
}
