package lookup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigLoadError reports a lookup table that is missing or cannot be
// parsed. It is fatal to a report run.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("loading lookup table %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

var (
	errNoDocument   = errors.New("file holds no lookup table")
	errNullEnvelope = errors.New(`"events" is null`)
)

// envelope is the historical layout with entries nested under "events".
type envelope struct {
	Events Table `json:"events" yaml:"events"`
}

// Load reads a lookup table from a JSON or YAML file. The format follows the
// file extension (.yaml/.yml are YAML, everything else JSON). Entries may sit
// at the top level or under an "events" key.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}

	var table Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		table, err = parseYAML(data)
	default:
		table, err = parseJSON(data)
	}
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return table, nil
}

func parseJSON(data []byte) (Table, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, errNoDocument
	}
	if raw, ok := probe["events"]; ok && string(bytes.TrimSpace(raw)) == "null" {
		return nil, errNullEnvelope
	}
	if raw, ok := probe["events"]; ok && isEnvelope(raw) {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		return nonNil(env.Events), nil
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	return nonNil(table), nil
}

func parseYAML(data []byte) (Table, error) {
	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if probe == nil {
		return nil, errNoDocument
	}
	if node, ok := probe["events"]; ok && node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, errNullEnvelope
	}
	if node, ok := probe["events"]; ok && node.Kind == yaml.MappingNode && yamlEnvelope(&node) {
		var env envelope
		if err := yaml.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		return nonNil(env.Events), nil
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	return nonNil(table), nil
}

// isEnvelope reports whether raw looks like a map of entries rather than an
// entry for an operation literally named "events".
func isEnvelope(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	for key, v := range m {
		switch key {
		case "name", "source", "description":
			return false
		}
		if v = bytes.TrimSpace(v); len(v) == 0 || v[0] != '{' {
			return false
		}
	}
	return true
}

func yamlEnvelope(node *yaml.Node) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "name", "source", "description":
			return false
		}
		if node.Content[i+1].Kind != yaml.MappingNode {
			return false
		}
	}
	return true
}

func nonNil(t Table) Table {
	if t == nil {
		return Table{}
	}
	return t
}
