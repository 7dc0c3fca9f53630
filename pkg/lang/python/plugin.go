// Package python implements the Python language plugin on top of
// tree-sitter. It exposes import support only: Python has no workspace
// manifest mutation or structural module refactoring here, so verbs that
// need those traits are rejected with a capability error.
package python

import (
	"context"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

type Plugin struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Plugin {
	return &Plugin{logger: logger}
}

func (p *Plugin) Name() string            { return "python" }
func (p *Plugin) Extensions() []string    { return []string{".py", ".pyi"} }
func (p *Plugin) ManifestNames() []string { return []string{"requirements.txt"} }

func (p *Plugin) Imports() lang.ImportSupport      { return (*importSupport)(p) }
func (p *Plugin) Workspace() lang.WorkspaceSupport { return nil }
func (p *Plugin) Refactor() lang.RefactorSupport   { return nil }

// Parse extracts top-level functions, classes, methods, assignments, and
// imports from a Python buffer.
func (p *Plugin) Parse(ctx context.Context, path string, src []byte) (*lang.SourceSummary, error) {
	root, closeTree, err := parseTree(ctx, src)
	if err != nil {
		return nil, err
	}
	defer closeTree()

	summary := &lang.SourceSummary{
		Language:        "python",
		Path:            path,
		HasSyntaxErrors: root.HasError(),
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "function_definition":
			summary.Symbols = append(summary.Symbols, symbolFrom(child, src, lang.SymbolFunction, ""))
		case "class_definition":
			summary.Symbols = append(summary.Symbols, symbolFrom(child, src, lang.SymbolClass, ""))
			summary.Symbols = append(summary.Symbols, classMethods(child, src)...)
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				switch def.Type() {
				case "function_definition":
					summary.Symbols = append(summary.Symbols, symbolFrom(def, src, lang.SymbolFunction, ""))
				case "class_definition":
					summary.Symbols = append(summary.Symbols, symbolFrom(def, src, lang.SymbolClass, ""))
					summary.Symbols = append(summary.Symbols, classMethods(def, src)...)
				}
			}
		case "expression_statement":
			if sym, ok := assignmentSymbol(child, src); ok {
				summary.Symbols = append(summary.Symbols, sym)
			}
		case "import_statement", "import_from_statement":
			summary.Imports = append(summary.Imports, importsFrom(child, src)...)
		}
	}
	return summary, nil
}

// ParseManifest reads a requirements.txt into a dependency list. Only the
// name==version form carries a version; everything else is name-only.
func (p *Plugin) ParseManifest(path string, src []byte) ([]lang.Dependency, error) {
	var deps []lang.Dependency
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := line, ""
		if i := strings.Index(line, "=="); i >= 0 {
			name, version = line[:i], line[i+2:]
		} else if i := strings.IndexAny(line, "<>~!;[ "); i >= 0 {
			name = line[:i]
		}
		deps = append(deps, lang.Dependency{Name: strings.TrimSpace(name), Version: strings.TrimSpace(version)})
	}
	return deps, nil
}

// parseTree runs tree-sitter over src. A fresh parser per call keeps this
// safe under concurrent use.
func parseTree(ctx context.Context, src []byte) (*sitter.Node, func(), error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
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

func symbolFrom(node *sitter.Node, src []byte, kind lang.SymbolKind, container string) lang.Symbol {
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
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if child.Type() == "decorated_definition" {
			child = child.ChildByFieldName("definition")
			if child == nil {
				continue
			}
		}
		if child.Type() == "function_definition" {
			methods = append(methods, symbolFrom(child, src, lang.SymbolMethod, className))
		}
	}
	return methods
}

func assignmentSymbol(stmt *sitter.Node, src []byte) (lang.Symbol, bool) {
	if stmt.ChildCount() == 0 {
		return lang.Symbol{}, false
	}
	assign := stmt.Child(0)
	if assign.Type() != "assignment" {
		return lang.Symbol{}, false
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return lang.Symbol{}, false
	}
	return lang.Symbol{
		Name:     left.Content(src),
		Kind:     lang.SymbolVariable,
		Location: nodeLoc(stmt),
	}, true
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
