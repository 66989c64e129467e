package codec

import (
	"bytes"
	"encoding/json"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

func init() {
	Register(jsonCodec{})
	Register(tomlCodec{})
	Register(yamlCodec{})
}

// jsonCodec reads JSON with tolerance for // and /* */ comments and
// trailing commas, which several tools emit in their config files, and
// writes strict two-space-indented JSON.
type jsonCodec struct{}

func (jsonCodec) Format() string { return JSON }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(jsonc.ToJSON(data), v)
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// tomlCodec wraps pelletier/go-toml.
type tomlCodec struct{}

func (tomlCodec) Format() string { return TOML }

func (tomlCodec) Unmarshal(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

func (tomlCodec) Marshal(v any) ([]byte, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, err
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	return data, nil
}

// yamlCodec wraps gopkg.in/yaml.v3.
type yamlCodec struct{}

func (yamlCodec) Format() string { return YAML }

func (yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
