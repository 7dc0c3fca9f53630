package refs

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mamaar/reshape/pkg/types"
)

var (
	// Inline link or image destination: [label](dest "title")
	inlineLinkRe = regexp.MustCompile(`\]\(\s*(<[^>]*>|[^\s)]+)`)
	// Reference-style link definition: [label]: dest
	refDefRe = regexp.MustCompile(`^\s*\[[^\]]+\]:\s*(\S+)`)
	// Autolink: <dest>
	autoLinkRe = regexp.MustCompile(`<([^<>\s]+)>`)
)

// scanMarkdown finds occurrences of oldRef in a markdown document: link
// destinations, reference-style definitions, autolinks, and path-like
// inline code spans. Bare prose mentions are excluded unless the scope
// opts in; their false-positive rate is unacceptably high.
func scanMarkdown(path, content, oldRef, newRef string, scope types.Scope) []types.DependencyUpdate {
	source := []byte(content)
	reader := text.NewReader(source)
	doc := goldmark.DefaultParser().Parse(reader)

	// Destinations the parser recognized as links, plus the text of
	// path-like code spans.
	linkDests := make(map[string]bool)
	codeTexts := make(map[string]bool)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			linkDests[string(node.Destination)] = true
		case *ast.Image:
			linkDests[string(node.Destination)] = true
		case *ast.AutoLink:
			linkDests[string(node.URL(source))] = true
		case *ast.CodeSpan:
			codeTexts[string(node.Text(source))] = true
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	var updates []types.DependencyUpdate
	if scope.Allows(types.RefDocLink) {
		updates = append(updates, linkMatches(path, content, oldRef, newRef, linkDests, codeTexts)...)
	}
	if scope.UpdateProse {
		updates = append(updates, proseMatches(path, content, oldRef, newRef, updates)...)
	}
	return updates
}

// linkMatches locates the recognized destinations and code spans in the raw
// text and keeps the ones containing a word-bounded oldRef.
func linkMatches(path, content, oldRef, newRef string, linkDests, codeTexts map[string]bool) []types.DependencyUpdate {
	var updates []types.DependencyUpdate
	seen := make(map[types.EditLocation]bool)

	add := func(lineNo int, destStart int, dest string, confidence types.Confidence) {
		for _, m := range findMatches(dest, oldRef) {
			loc := types.EditLocation{
				StartLine: lineNo,
				StartCol:  destStart + m.col,
				EndLine:   lineNo,
				EndCol:    destStart + m.col + len(oldRef),
			}
			if seen[loc] {
				continue
			}
			seen[loc] = true
			updates = append(updates, types.DependencyUpdate{
				TargetFile:   path,
				UpdateType:   types.UpdateReference,
				OldReference: oldRef,
				NewReference: newRef,
				Location:     loc,
				Confidence:   confidence,
			})
		}
	}

	for lineNo, line := range strings.Split(content, "\n") {
		for _, idx := range inlineLinkRe.FindAllStringSubmatchIndex(line, -1) {
			dest := strings.Trim(line[idx[2]:idx[3]], "<>")
			start := idx[2]
			if line[idx[2]] == '<' {
				start++
			}
			if linkDests[dest] || isPathLike(dest) {
				add(lineNo, start, dest, types.ConfidenceStrong)
			}
		}
		if idx := refDefRe.FindStringSubmatchIndex(line); idx != nil {
			dest := line[idx[2]:idx[3]]
			add(lineNo, idx[2], dest, types.ConfidenceStrong)
		}
		for _, idx := range autoLinkRe.FindAllStringSubmatchIndex(line, -1) {
			dest := line[idx[2]:idx[3]]
			if linkDests[dest] {
				add(lineNo, idx[2], dest, types.ConfidenceMedium)
			}
		}
		// Path-like inline code spans: `src/old.py`
		for _, s := range backtickSpans(line) {
			if codeTexts[s.text] && isPathLike(s.text) {
				add(lineNo, s.start+1, s.text, types.ConfidenceMedium)
			}
		}
	}
	return updates
}

// proseMatches reports word-bounded oldRef occurrences in prose: raw lines
// outside fenced code blocks, skipping inline code spans and positions
// already claimed by a link update. The raw-line scan matters because the
// inline parser fragments text at emphasis delimiters, splitting snake_case
// names across segments. Always weak confidence.
func proseMatches(path, content, oldRef, newRef string, claimed []types.DependencyUpdate) []types.DependencyUpdate {
	var updates []types.DependencyUpdate
	inFence := false
	for lineNo, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		spans := backtickSpans(line)
		for _, m := range findMatches(line, oldRef) {
			loc := types.EditLocation{
				StartLine: lineNo, StartCol: m.col,
				EndLine: lineNo, EndCol: m.col + len(oldRef),
			}
			if insideSpan(spans, m.col) || overlapsAny(loc, claimed) {
				continue
			}
			updates = append(updates, types.DependencyUpdate{
				TargetFile:   path,
				UpdateType:   types.UpdateReference,
				OldReference: oldRef,
				NewReference: newRef,
				Location:     loc,
				Confidence:   types.ConfidenceWeak,
			})
		}
	}
	return updates
}

func insideSpan(spans []span, col int) bool {
	for _, s := range spans {
		if col >= s.start && col < s.end {
			return true
		}
	}
	return false
}

func backtickSpans(line string) []span {
	var spans []span
	for i := 0; i < len(line); i++ {
		if line[i] != '`' {
			continue
		}
		j := strings.IndexByte(line[i+1:], '`')
		if j < 0 {
			break
		}
		spans = append(spans, span{start: i, end: i + j + 2, text: line[i+1 : i+1+j]})
		i = i + j + 1
	}
	return spans
}

