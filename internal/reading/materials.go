package reading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Save writes the mixed content and the commentary as indented JSON under dir
// and returns both paths.
func Save(dir string, m Materials, at time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	topic := m.Mixed.Topic
	if topic == "" {
		topic = "general"
	}
	stamp := at.Format("20060102_150405")

	files := []struct {
		name string
		v    any
	}{
		{fmt.Sprintf("mixed_content_%s_%s.json", topic, stamp), m.Mixed},
		{fmt.Sprintf("commentary_%s_%s.json", topic, stamp), m.Commentary},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f.v); err != nil {
			return paths, fmt.Errorf("encoding %s: %w", f.name, err)
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
