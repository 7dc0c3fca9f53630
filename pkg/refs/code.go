package refs

import (
	"strings"

	"github.com/mamaar/reshape/pkg/types"
)

// CodeMatch is one identifier occurrence in code context.
type CodeMatch struct {
	Location types.EditLocation
}

// CodeMatches finds word-bounded occurrences of name that sit in code
// proper: not inside a string literal and not behind a comment marker.
// Rename generators use this for identifier occurrences; string and
// comment hits flow through the scoped reference scan instead.
func CodeMatches(path, content, name string) []CodeMatch {
	markers := commentMarkers(path)
	var out []CodeMatch
	for lineNo, line := range strings.Split(content, "\n") {
		spans := stringSpans(line)
		comment := commentStart(line, markers)
		for _, m := range findMatches(line, name) {
			if inSpan(spans, m.col) {
				continue
			}
			if comment >= 0 && m.col >= comment {
				continue
			}
			m.line = lineNo
			out = append(out, CodeMatch{Location: m.location()})
		}
	}
	return out
}
