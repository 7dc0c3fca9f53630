package javascript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// packageJSON is the subset of package.json this plugin reads and writes.
// Unknown fields are preserved through the Rest map.
type packageJSON struct {
	Dependencies    map[string]string
	DevDependencies map[string]string
	Workspaces      []string
	Rest            map[string]json.RawMessage
}

// workspaceSupport mutates package.json. Path dependencies use the
// "file:" protocol; members are the "workspaces" array.
type workspaceSupport Plugin

func (s *workspaceSupport) AddPathDependency(manifest []byte, name, relPath string) ([]byte, error) {
	m, err := parsePackageJSON(manifest)
	if err != nil {
		return nil, err
	}
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	m.Dependencies[name] = "file:" + relPath
	return m.marshal()
}

func (s *workspaceSupport) RemovePathDependency(manifest []byte, name string) ([]byte, error) {
	m, err := parsePackageJSON(manifest)
	if err != nil {
		return nil, err
	}
	delete(m.Dependencies, name)
	delete(m.DevDependencies, name)
	return m.marshal()
}

func (s *workspaceSupport) Members(manifest []byte) ([]string, error) {
	m, err := parsePackageJSON(manifest)
	if err != nil {
		return nil, err
	}
	return m.Workspaces, nil
}

func (s *workspaceSupport) SetMembers(manifest []byte, members []string) ([]byte, error) {
	m, err := parsePackageJSON(manifest)
	if err != nil {
		return nil, err
	}
	m.Workspaces = members
	return m.marshal()
}

func parsePackageJSON(src []byte) (*packageJSON, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	m := &packageJSON{Rest: raw}
	if err := popField(raw, "dependencies", &m.Dependencies); err != nil {
		return nil, err
	}
	if err := popField(raw, "devDependencies", &m.DevDependencies); err != nil {
		return nil, err
	}
	if err := popField(raw, "workspaces", &m.Workspaces); err != nil {
		return nil, err
	}
	return m, nil
}

func popField[T any](raw map[string]json.RawMessage, key string, dst *T) error {
	data, ok := raw[key]
	if !ok {
		return nil
	}
	delete(raw, key)
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse package.json %s: %w", key, err)
	}
	return nil
}

func (m *packageJSON) marshal() ([]byte, error) {
	out := make(map[string]any, len(m.Rest)+3)
	for k, v := range m.Rest {
		out[k] = v
	}
	if len(m.Dependencies) > 0 {
		out["dependencies"] = m.Dependencies
	}
	if len(m.DevDependencies) > 0 {
		out["devDependencies"] = m.DevDependencies
	}
	if len(m.Workspaces) > 0 {
		out["workspaces"] = m.Workspaces
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode package.json: %w", err)
	}
	return buf.Bytes(), nil
}

// filePath extracts the local path from a "file:" version specifier.
func filePath(version string) (string, bool) {
	if strings.HasPrefix(version, "file:") {
		return strings.TrimPrefix(version, "file:"), true
	}
	return "", false
}
