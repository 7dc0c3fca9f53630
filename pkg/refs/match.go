// Package refs implements the reference and import updater: given an old
// and new identifier or path, it scans the project and produces the
// cross-file updates needed to keep references consistent. It never writes.
//
// Known gap: case-style variants of the same logical name (snake_case vs
// camelCase vs PascalCase) are not detected. A rename across a
// naming-convention boundary misses the differently-cased occurrence; the
// correct heuristic is ambiguous enough that none is attempted here.
package refs

import (
	"strings"

	"github.com/mamaar/reshape/pkg/types"
)

// match is one occurrence of the needle inside a line.
type match struct {
	line int
	col  int // byte column of the match start
	text string
}

// findMatches returns every word-bounded occurrence of needle in content.
// A hit is rejected when either neighboring byte is alphanumeric or an
// underscore, so renaming "user" never corrupts "username".
func findMatches(content, needle string) []match {
	if needle == "" {
		return nil
	}
	var matches []match
	for lineNo, line := range strings.Split(content, "\n") {
		for start := 0; ; {
			i := strings.Index(line[start:], needle)
			if i < 0 {
				break
			}
			col := start + i
			if wordBounded(line, col, len(needle)) {
				matches = append(matches, match{line: lineNo, col: col, text: needle})
			}
			start = col + len(needle)
		}
	}
	return matches
}

func wordBounded(line string, col, length int) bool {
	if col > 0 && isWordByte(line[col-1]) {
		return false
	}
	end := col + length
	if end < len(line) && isWordByte(line[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// isPathLike reports whether s looks like a file path rather than prose: it
// contains a path separator or ends in a recognized source/config extension.
func isPathLike(s string) bool {
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	if i := strings.LastIndexByte(s, '.'); i > 0 && i < len(s)-1 {
		ext := strings.ToLower(s[i:])
		switch ext {
		case ".go", ".py", ".pyi", ".js", ".mjs", ".cjs", ".jsx", ".ts",
			".rs", ".md", ".yaml", ".yml", ".toml", ".json", ".txt", ".mod":
			return true
		}
	}
	return false
}

// literalConfidence grades a string-literal hit. A separator or extension
// makes the reference near-certain; a bare word is weak.
func literalConfidence(literal string) types.Confidence {
	if strings.ContainsAny(literal, "/\\") {
		return types.ConfidenceStrong
	}
	if isPathLike(literal) {
		return types.ConfidenceMedium
	}
	return types.ConfidenceWeak
}

// locationOf builds the half-open range for a match of length n.
func (m match) location() types.EditLocation {
	return types.EditLocation{
		StartLine: m.line,
		StartCol:  m.col,
		EndLine:   m.line,
		EndCol:    m.col + len(m.text),
	}
}
