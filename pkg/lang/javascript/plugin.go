// Package javascript implements the JavaScript language plugin on top of
// tree-sitter. It supports imports and package.json workspace handling;
// structural module refactoring is not implemented for JavaScript.
package javascript

import (
	"context"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

type Plugin struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Plugin {
	return &Plugin{logger: logger}
}

func (p *Plugin) Name() string            { return "javascript" }
func (p *Plugin) Extensions() []string    { return []string{".js", ".mjs", ".cjs", ".jsx"} }
func (p *Plugin) ManifestNames() []string { return []string{"package.json"} }

func (p *Plugin) Imports() lang.ImportSupport      { return (*importSupport)(p) }
func (p *Plugin) Workspace() lang.WorkspaceSupport { return (*workspaceSupport)(p) }
func (p *Plugin) Refactor() lang.RefactorSupport   { return nil }

// Parse extracts top-level functions, classes, methods, declarations, and
// import statements from a JavaScript buffer.
func (p *Plugin) Parse(ctx context.Context, path string, src []byte) (*lang.SourceSummary, error) {
	root, closeTree, err := parseTree(ctx, src)
	if err != nil {
		return nil, err
	}
	defer closeTree()

	summary := &lang.SourceSummary{
		Language:        "javascript",
		Path:            path,
		HasSyntaxErrors: root.HasError(),
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		p.collectTopLevel(child, src, summary)
	}
	return summary, nil
}

func (p *Plugin) collectTopLevel(node *sitter.Node, src []byte, summary *lang.SourceSummary) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		summary.Symbols = append(summary.Symbols, namedSymbol(node, src, lang.SymbolFunction, ""))
	case "class_declaration":
		summary.Symbols = append(summary.Symbols, namedSymbol(node, src, lang.SymbolClass, ""))
		summary.Symbols = append(summary.Symbols, classMethods(node, src)...)
	case "lexical_declaration", "variable_declaration":
		summary.Symbols = append(summary.Symbols, declaredVariables(node, src)...)
		// const x = require("y") is an import in assignment form.
		if imp, ok := requireCall(node, src); ok {
			summary.Imports = append(summary.Imports, imp)
		}
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			p.collectTopLevel(decl, src, summary)
		}
	case "import_statement":
		if imp, ok := importFrom(node, src); ok {
			summary.Imports = append(summary.Imports, imp)
		}
	case "expression_statement":
		// Bare require("x") calls.
		if imp, ok := requireCall(node, src); ok {
			summary.Imports = append(summary.Imports, imp)
		}
	}
}

// ParseManifest normalizes a package.json dependency map.
func (p *Plugin) ParseManifest(path string, src []byte) ([]lang.Dependency, error) {
	manifest, err := parsePackageJSON(src)
	if err != nil {
		return nil, err
	}
	var deps []lang.Dependency
	for _, section := range []map[string]string{manifest.Dependencies, manifest.DevDependencies} {
		for name, version := range section {
			d := lang.Dependency{Name: name, Version: version}
			if local, ok := filePath(version); ok {
				d.Path = local
				d.Version = ""
			}
			deps = append(deps, d)
		}
	}
	return deps, nil
}

func namedSymbol(node *sitter.Node, src []byte, kind lang.SymbolKind, container string) lang.Symbol {
	name := ""
	if n := node.ChildByFieldName("name"); n != nil {
		name = n.Content(src)
	}
	return lang.Symbol{Name: name, Kind: kind, Location: nodeLoc(node), Container: container}
}

func classMethods(class *sitter.Node, src []byte) []lang.Symbol {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	className := ""
	if n := class.ChildByFieldName("name"); n != nil {
		className = n.Content(src)
	}
	var methods []lang.Symbol
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "method_definition" {
			continue
		}
		methods = append(methods, namedSymbol(child, src, lang.SymbolMethod, className))
	}
	return methods
}

func declaredVariables(decl *sitter.Node, src []byte) []lang.Symbol {
	var syms []lang.Symbol
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil || name.Type() != "identifier" {
			continue
		}
		syms = append(syms, lang.Symbol{
			Name:     name.Content(src),
			Kind:     lang.SymbolVariable,
			Location: nodeLoc(decl),
		})
	}
	return syms
}

func parseTree(ctx context.Context, src []byte) (*sitter.Node, func(), error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, types.NewInternal("tree-sitter parse failed", err)
	}
	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, nil, types.NewInternal("tree-sitter returned no root node", nil)
	}
	return root, func() { tree.Close() }, nil
}

func nodeLoc(node *sitter.Node) types.EditLocation {
	start := node.StartPoint()
	end := node.EndPoint()
	return types.EditLocation{
		StartLine: int(start.Row),
		StartCol:  int(start.Column),
		EndLine:   int(end.Row),
		EndCol:    int(end.Column),
	}
}
