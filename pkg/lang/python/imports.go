package python

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
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "import_statement" || child.Type() == "import_from_statement" {
			imports = append(imports, importsFrom(child, src)...)
		}
	}
	return imports, nil
}

// RewriteImports replaces the dotted module path oldTarget with newTarget in
// every import and from-import statement. Only the dotted-name node is
// edited; aliases and imported names are untouched.
func (s *importSupport) RewriteImports(path string, src []byte, oldTarget, newTarget string) ([]types.TextEdit, int, error) {
	root, closeTree, err := parseTree(context.Background(), src)
	if err != nil {
		return nil, 0, err
	}
	defer closeTree()

	var edits []types.TextEdit
	for i := 0; i < int(root.ChildCount()); i++ {
		stmt := root.Child(i)
		if stmt.Type() != "import_statement" && stmt.Type() != "import_from_statement" {
			continue
		}
		for _, dotted := range dottedNames(stmt) {
			target := dotted.Content(src)
			rewritten, ok := rewriteModulePath(target, oldTarget, newTarget)
			if !ok {
				continue
			}
			edits = append(edits, types.TextEdit{
				FilePath:     path,
				Location:     nodeLoc(dotted),
				OriginalText: target,
				NewText:      rewritten,
				Description:  "update import path",
			})
		}
	}
	return edits, len(edits), nil
}

// importsFrom flattens one import statement into per-target entries.
func importsFrom(stmt *sitter.Node, src []byte) []lang.Import {
	var imports []lang.Import
	for _, dotted := range dottedNames(stmt) {
		imports = append(imports, lang.Import{
			Target:    dotted.Content(src),
			Location:  nodeLoc(dotted),
			Statement: stmt.Content(src),
		})
	}
	return imports
}

// dottedNames collects the module-path nodes of an import statement. For
// from-imports only the module_name field counts; the imported names after
// `import` are symbols, not module paths.
func dottedNames(stmt *sitter.Node) []*sitter.Node {
	if stmt.Type() == "import_from_statement" {
		if mod := stmt.ChildByFieldName("module_name"); mod != nil {
			return []*sitter.Node{mod}
		}
		return nil
	}
	var names []*sitter.Node
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			names = append(names, child)
		case "aliased_import":
			if n := child.ChildByFieldName("name"); n != nil {
				names = append(names, n)
			}
		}
	}
	return names
}

// rewriteModulePath maps target onto newTarget when target equals oldTarget
// or is a submodule of it.
func rewriteModulePath(target, oldTarget, newTarget string) (string, bool) {
	if target == oldTarget {
		return newTarget, true
	}
	if strings.HasPrefix(target, oldTarget+".") {
		return newTarget + target[len(oldTarget):], true
	}
	return "", false
}
