package synonym

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const fileSchema = `{
  "type": "object",
  "required": ["synonyms"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "synonyms": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "minItems": 3,
        "maxItems": 4,
        "uniqueItems": true,
        "items": {"type": "string", "minLength": 1}
      }
    }
  }
}`

type file struct {
	Version  int                 `yaml:"version"`
	Synonyms map[string][]string `yaml:"synonyms"`
}

// LoadFile reads a YAML synonym file and merges its entries over the
// built-in table. An empty path returns the built-in table.
func LoadFile(path string) (*Table, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading synonym file: %w", err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return base.With(extra)
}

// Parse validates a YAML synonym document and returns its entries.
func Parse(data []byte) (map[string][]string, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty synonym document")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fileSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validating synonym document: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid synonym document: %s", strings.Join(msgs, "; "))
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding synonyms: %w", err)
	}
	return f.Synonyms, nil
}
