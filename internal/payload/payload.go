// Package payload loads out-of-line request bodies referenced with the
// @path marker. JSON and YAML files are parsed into structured data;
// anything else is returned as raw text.
package payload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// FileMarker prefixes a body value that should be loaded from disk.
const FileMarker = "@"

// Load resolves a raw body template. A string value starting with the file
// marker is replaced by the file's content; everything else passes through.
func Load(value any) (any, error) {
	str, ok := value.(string)
	if !ok || !strings.HasPrefix(str, FileMarker) {
		return value, nil
	}
	return loadFile(strings.TrimPrefix(str, FileMarker))
}

func loadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load body file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("body file %s is not valid JSON", path)
		}
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse body file %s: %w", path, err)
		}
		return out, nil
	case ".yaml", ".yml":
		var out any
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse body file %s: %w", path, err)
		}
		return out, nil
	default:
		return string(data), nil
	}
}
