package refs

import (
	"path/filepath"
	"strings"

	"github.com/mamaar/reshape/pkg/types"
)

// span is a half-open byte range within one line.
type span struct {
	start, end int
	// text is the span content without the surrounding quotes.
	text string
}

// stringSpans finds the quoted string literals in one line. Escapes are
// honored inside double quotes; raw/backtick and single-quoted forms are
// taken verbatim. Unterminated literals extend to end of line.
func stringSpans(line string) []span {
	var spans []span
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '"' && c != '\'' && c != '`' {
			continue
		}
		j := i + 1
		for j < len(line) {
			if line[j] == '\\' && c == '"' {
				j += 2
				continue
			}
			if line[j] == c {
				break
			}
			j++
		}
		end := j
		if end > len(line) {
			end = len(line)
		}
		content := line[i+1 : end]
		stop := end
		if end < len(line) {
			stop = end + 1
		}
		spans = append(spans, span{start: i, end: stop, text: content})
		i = stop - 1
	}
	return spans
}

func (s span) contains(col int) bool {
	return col > s.start && col < s.end
}

// commentMarkers returns the line-comment markers for a source file, by
// extension family.
func commentMarkers(path string) []string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi", ".yaml", ".yml", ".toml", ".sh":
		return []string{"#"}
	case ".go", ".js", ".mjs", ".cjs", ".jsx", ".ts", ".rs":
		return []string{"//"}
	}
	return nil
}

// commentStart returns the byte column where a line comment begins, or -1.
// Markers inside string literals do not count.
func commentStart(line string, markers []string) int {
	spans := stringSpans(line)
	for _, marker := range markers {
		for start := 0; ; {
			i := strings.Index(line[start:], marker)
			if i < 0 {
				break
			}
			col := start + i
			inString := false
			for _, s := range spans {
				if s.contains(col) {
					inString = true
					break
				}
			}
			if !inString {
				return col
			}
			start = col + len(marker)
		}
	}
	return -1
}

// scanSourceText finds string-literal and comment occurrences of oldRef in
// one source file. Import statements are handled separately through the
// owning plugin, so matches inside them are filtered by the caller.
func scanSourceText(path, content, oldRef, newRef string, scope types.Scope) []types.DependencyUpdate {
	var updates []types.DependencyUpdate
	markers := commentMarkers(path)

	for lineNo, line := range strings.Split(content, "\n") {
		spans := stringSpans(line)
		comment := commentStart(line, markers)

		for _, m := range findMatches(line, oldRef) {
			m.line = lineNo
			switch {
			case inSpan(spans, m.col):
				lit := containing(spans, m.col)
				// Only path-shaped literals are treated as references;
				// version strings and prose stay untouched.
				if !isPathLike(lit.text) {
					continue
				}
				if !scope.Allows(types.RefStringLiteralPath) {
					continue
				}
				updates = append(updates, types.DependencyUpdate{
					TargetFile:   path,
					UpdateType:   types.UpdateReference,
					OldReference: oldRef,
					NewReference: newRef,
					Location:     m.location(),
					Confidence:   literalConfidence(lit.text),
				})
			case comment >= 0 && m.col > comment:
				if !scope.Allows(types.RefComment) {
					continue
				}
				updates = append(updates, types.DependencyUpdate{
					TargetFile:   path,
					UpdateType:   types.UpdateReference,
					OldReference: oldRef,
					NewReference: newRef,
					Location:     m.location(),
					Confidence:   types.ConfidenceWeak,
				})
			}
		}
	}
	return updates
}

func inSpan(spans []span, col int) bool {
	for _, s := range spans {
		if s.contains(col) {
			return true
		}
	}
	return false
}

func containing(spans []span, col int) span {
	for _, s := range spans {
		if s.contains(col) {
			return s
		}
	}
	return span{}
}
