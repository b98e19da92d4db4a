package maze

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a map-file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// CanonicalExtension is appended to map names that carry no recognized extension.
const CanonicalExtension = ".json"

var extensions = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// FormatFor reports the map format implied by a file name's extension.
func FormatFor(filename string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(filename))]
	return f, ok
}

// NormalizeName appends CanonicalExtension when name has no recognized extension.
func NormalizeName(name string) string {
	if _, ok := FormatFor(name); ok {
		return name
	}
	return name + CanonicalExtension
}

// Parse decodes a map document and builds its graph.
func Parse(name string, format Format, data []byte) (*RoomGraph, error) {
	var rooms []Room

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &rooms); err != nil {
			return nil, fmt.Errorf("failed to parse map %s: %w", name, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &rooms); err != nil {
			return nil, fmt.Errorf("failed to parse map %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("unsupported map format %q", format)
	}

	graph, err := NewRoomGraph(name, rooms)
	if err != nil {
		return nil, fmt.Errorf("invalid map %s: %w", name, err)
	}
	return graph, nil
}
