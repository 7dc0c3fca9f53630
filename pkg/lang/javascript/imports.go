package javascript

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

type importSupport Plugin

func (s *importSupport) ExtractImports(src []byte) ([]lang.Import, error) {
	root, closeTree, err := parseTree(context.Background(), src)
	if err != nil {
		return nil, err
	}
	defer closeTree()

	var imports []lang.Import
	walkImportSources(root, src, func(source *sitter.Node, stmt *sitter.Node) {
		imports = append(imports, lang.Import{
			Target:    unquote(source.Content(src)),
			Location:  nodeLoc(source),
			Statement: stmt.Content(src),
		})
	})
	return imports, nil
}

// RewriteImports rewrites import and require sources matching oldTarget.
// Relative specifiers match when they resolve to the same path or a path
// under it.
func (s *importSupport) RewriteImports(path string, src []byte, oldTarget, newTarget string) ([]types.TextEdit, int, error) {
	root, closeTree, err := parseTree(context.Background(), src)
	if err != nil {
		return nil, 0, err
	}
	defer closeTree()

	var edits []types.TextEdit
	walkImportSources(root, src, func(source *sitter.Node, stmt *sitter.Node) {
		raw := source.Content(src)
		target := unquote(raw)
		rewritten, ok := rewriteSpecifier(target, oldTarget, newTarget)
		if !ok {
			return
		}
		quote := "\""
		if strings.HasPrefix(raw, "'") {
			quote = "'"
		}
		edits = append(edits, types.TextEdit{
			FilePath:     path,
			Location:     nodeLoc(source),
			OriginalText: raw,
			NewText:      quote + rewritten + quote,
			Description:  "update import path",
		})
	})
	return edits, len(edits), nil
}

// walkImportSources visits the string source of every import statement,
// dynamic import(), and require() call in the tree.
func walkImportSources(node *sitter.Node, src []byte, visit func(source, stmt *sitter.Node)) {
	switch node.Type() {
	case "import_statement", "export_statement":
		if source := node.ChildByFieldName("source"); source != nil {
			visit(source, node)
		}
	case "call_expression":
		fn := node.ChildByFieldName("function")
		args := node.ChildByFieldName("arguments")
		if fn != nil && args != nil && (fn.Content(src) == "require" || fn.Type() == "import") {
			if args.NamedChildCount() == 1 && args.NamedChild(0).Type() == "string" {
				visit(args.NamedChild(0), node)
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkImportSources(node.Child(i), src, visit)
	}
}

// requireCall extracts a top-level require() as an import entry.
func requireCall(stmt *sitter.Node, src []byte) (lang.Import, bool) {
	var found *lang.Import
	walkImportSources(stmt, src, func(source, container *sitter.Node) {
		if found == nil {
			found = &lang.Import{
				Target:    unquote(source.Content(src)),
				Location:  nodeLoc(source),
				Statement: stmt.Content(src),
			}
		}
	})
	if found == nil {
		return lang.Import{}, false
	}
	return *found, true
}

func importFrom(stmt *sitter.Node, src []byte) (lang.Import, bool) {
	source := stmt.ChildByFieldName("source")
	if source == nil {
		return lang.Import{}, false
	}
	return lang.Import{
		Target:    unquote(source.Content(src)),
		Location:  nodeLoc(source),
		Statement: stmt.Content(src),
	}, true
}

func rewriteSpecifier(target, oldTarget, newTarget string) (string, bool) {
	if target == oldTarget {
		return newTarget, true
	}
	if strings.HasPrefix(target, oldTarget+"/") {
		return newTarget + target[len(oldTarget):], true
	}
	// ./lib/mod matches when oldTarget was given without the extension.
	if ext := ".js"; target == oldTarget+ext {
		return newTarget + ext, true
	}
	return "", false
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
}
