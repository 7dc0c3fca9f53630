package refs

import (
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mamaar/reshape/pkg/types"
)

// manifestNames are rewritten as manifest-path updates rather than plain
// references.
var manifestNames = map[string]bool{
	"go.mod":           true,
	"go.work":          true,
	"package.json":     true,
	"requirements.txt": true,
	"Cargo.toml":       true,
	"pyproject.toml":   true,
}

// isConfigFile reports whether path is scanned as structured configuration.
func isConfigFile(path string) bool {
	base := filepath.Base(path)
	if manifestNames[base] || base == ".gitignore" {
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml", ".toml", ".json":
		return true
	}
	return false
}

// scanConfig finds path values referencing oldRef in a config file. Edits
// are positional, so surrounding formatting and comments survive untouched.
func scanConfig(path, content, oldRef, newRef string, scope types.Scope) []types.DependencyUpdate {
	if !scope.Allows(types.RefConfigPathValue) {
		return nil
	}
	updateType := types.UpdateReference
	if manifestNames[filepath.Base(path)] {
		updateType = types.UpdateManifestPath
	}

	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		if updates := scanYAML(path, content, oldRef, newRef, updateType, scope); updates != nil {
			return updates
		}
		// Invalid YAML falls through to the textual scan.
		return scanConfigText(path, content, oldRef, newRef, updateType, scope)
	case filepath.Base(path) == ".gitignore":
		return scanGitignore(path, content, oldRef, newRef)
	default:
		return scanConfigText(path, content, oldRef, newRef, updateType, scope)
	}
}

// scanYAML walks the parsed document and matches scalar values, using the
// node positions to anchor the search. Returns nil when content is not
// parseable YAML.
func scanYAML(path, content, oldRef, newRef string, updateType types.UpdateType, scope types.Scope) []types.DependencyUpdate {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil
	}
	lines := strings.Split(content, "\n")
	var updates []types.DependencyUpdate

	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n.Kind == yaml.ScalarNode && scalarEligible(n.Value, oldRef, scope) {
			updates = append(updates, scalarMatches(path, lines, n, oldRef, newRef, updateType)...)
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(&root)
	return updates
}

// scalarEligible applies the same guard as string literals: the value must
// be path-shaped, unless exact identifier matches are explicitly enabled.
func scalarEligible(value, oldRef string, scope types.Scope) bool {
	if !strings.Contains(value, oldRef) {
		return false
	}
	if isPathLike(value) {
		return true
	}
	return scope.UpdateExactMatches && value == oldRef
}

func scalarMatches(path string, lines []string, n *yaml.Node, oldRef, newRef string, updateType types.UpdateType) []types.DependencyUpdate {
	lineNo := n.Line - 1
	if lineNo < 0 || lineNo >= len(lines) {
		return nil
	}
	var updates []types.DependencyUpdate
	for _, m := range findMatches(lines[lineNo], oldRef) {
		if m.col < n.Column-1 {
			continue
		}
		m.line = lineNo
		updates = append(updates, types.DependencyUpdate{
			TargetFile:   path,
			UpdateType:   updateType,
			OldReference: oldRef,
			NewReference: newRef,
			Location:     m.location(),
			Confidence:   confidenceFor(n.Value),
		})
	}
	return updates
}

func confidenceFor(value string) types.Confidence {
	if isPathLike(value) {
		return literalConfidence(value)
	}
	return types.ConfidenceMedium
}

// scanGitignore updates ignore patterns mentioning the old path.
func scanGitignore(path, content, oldRef, newRef string) []types.DependencyUpdate {
	var updates []types.DependencyUpdate
	for lineNo, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, m := range findMatches(line, oldRef) {
			m.line = lineNo
			updates = append(updates, types.DependencyUpdate{
				TargetFile:   path,
				UpdateType:   types.UpdateReference,
				OldReference: oldRef,
				NewReference: newRef,
				Location:     m.location(),
				Confidence:   types.ConfidenceMedium,
			})
		}
	}
	return updates
}

// scanConfigText is the format-preserving fallback for TOML, JSON, go.mod,
// and requirements files: only matches inside path-shaped values count.
func scanConfigText(path, content, oldRef, newRef string, updateType types.UpdateType, scope types.Scope) []types.DependencyUpdate {
	var updates []types.DependencyUpdate
	markers := []string{"#"}
	if strings.HasSuffix(path, ".json") {
		markers = nil
	}
	if strings.HasSuffix(path, "go.mod") || strings.HasSuffix(path, "go.work") {
		markers = []string{"//"}
	}

	for lineNo, line := range strings.Split(content, "\n") {
		comment := commentStart(line, markers)
		for _, m := range findMatches(line, oldRef) {
			if comment >= 0 && m.col > comment {
				continue
			}
			if !valueContextEligible(line, m.col, oldRef, scope) {
				continue
			}
			m.line = lineNo
			updates = append(updates, types.DependencyUpdate{
				TargetFile:   path,
				UpdateType:   updateType,
				OldReference: oldRef,
				NewReference: newRef,
				Location:     m.location(),
				Confidence:   types.ConfidenceMedium,
			})
		}
	}
	return updates
}

// valueContextEligible accepts a match when the surrounding value token is
// path-shaped: the enclosing quoted string for quoted formats, or the
// whitespace-delimited token otherwise.
func valueContextEligible(line string, col int, oldRef string, scope types.Scope) bool {
	if s, ok := enclosingSpan(line, col); ok {
		return isPathLike(s.text) || (scope.UpdateExactMatches && s.text == oldRef)
	}
	token := tokenAround(line, col)
	return isPathLike(token) || (scope.UpdateExactMatches && token == oldRef)
}

func enclosingSpan(line string, col int) (span, bool) {
	for _, s := range stringSpans(line) {
		if s.contains(col) {
			return s, true
		}
	}
	return span{}, false
}

func tokenAround(line string, col int) string {
	start := col
	for start > 0 && !isSpaceByte(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && !isSpaceByte(line[end]) {
		end++
	}
	return strings.Trim(line[start:end], ",\"'=")
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t'
}
