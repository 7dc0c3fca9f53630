// Package golang implements the Go language plugin. It is the
// full-capability plugin: import, workspace, and refactoring support are all
// present.
package golang

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

type Plugin struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Plugin {
	return &Plugin{logger: logger}
}

func (p *Plugin) Name() string            { return "go" }
func (p *Plugin) Extensions() []string    { return []string{".go"} }
func (p *Plugin) ManifestNames() []string { return []string{"go.mod", "go.work"} }

func (p *Plugin) Imports() lang.ImportSupport      { return (*importSupport)(p) }
func (p *Plugin) Workspace() lang.WorkspaceSupport { return (*workspaceSupport)(p) }
func (p *Plugin) Refactor() lang.RefactorSupport   { return &refactorSupport{logger: p.logger} }

// Parse builds a symbol and import summary for one Go source buffer.
func (p *Plugin) Parse(ctx context.Context, path string, src []byte) (*lang.SourceSummary, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	summary := &lang.SourceSummary{Language: "go", Path: path}
	if err != nil {
		if file == nil {
			return nil, types.NewInvalidRequest("parse %s: %v", path, err)
		}
		summary.HasSyntaxErrors = true
	}

	ins := inspector.New([]*ast.File{file})
	ins.Preorder([]ast.Node{
		(*ast.FuncDecl)(nil),
		(*ast.GenDecl)(nil),
		(*ast.ImportSpec)(nil),
	}, func(n ast.Node) {
		switch node := n.(type) {
		case *ast.FuncDecl:
			summary.Symbols = append(summary.Symbols, funcSymbol(fset, node))
		case *ast.GenDecl:
			summary.Symbols = append(summary.Symbols, genDeclSymbols(fset, node)...)
		case *ast.ImportSpec:
			summary.Imports = append(summary.Imports, importOf(fset, src, node))
		}
	})
	return summary, nil
}

// ParseManifest normalizes go.mod (or go.work) into a dependency list.
func (p *Plugin) ParseManifest(path string, src []byte) ([]lang.Dependency, error) {
	f, err := modfile.Parse(path, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	deps := make([]lang.Dependency, 0, len(f.Require))
	replaced := make(map[string]string)
	for _, rep := range f.Replace {
		replaced[rep.Old.Path] = rep.New.Path
	}
	for _, req := range f.Require {
		d := lang.Dependency{Name: req.Mod.Path, Version: req.Mod.Version}
		if local, ok := replaced[req.Mod.Path]; ok && modfile.IsDirectoryPath(local) {
			d.Path = local
		}
		deps = append(deps, d)
	}
	return deps, nil
}

func funcSymbol(fset *token.FileSet, fn *ast.FuncDecl) lang.Symbol {
	sym := lang.Symbol{
		Name:     fn.Name.Name,
		Kind:     lang.SymbolFunction,
		Location: locOf(fset, fn.Pos(), fn.End()),
	}
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sym.Kind = lang.SymbolMethod
		sym.Container = receiverTypeName(fn.Recv.List[0].Type)
	}
	return sym
}

func genDeclSymbols(fset *token.FileSet, decl *ast.GenDecl) []lang.Symbol {
	var syms []lang.Symbol
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			syms = append(syms, lang.Symbol{
				Name:     s.Name.Name,
				Kind:     lang.SymbolType,
				Location: locOf(fset, decl.Pos(), decl.End()),
			})
		case *ast.ValueSpec:
			kind := lang.SymbolVariable
			if decl.Tok == token.CONST {
				kind = lang.SymbolConstant
			}
			for _, name := range s.Names {
				syms = append(syms, lang.Symbol{
					Name:     name.Name,
					Kind:     kind,
					Location: locOf(fset, decl.Pos(), decl.End()),
				})
			}
		}
	}
	return syms
}

func importOf(fset *token.FileSet, src []byte, spec *ast.ImportSpec) lang.Import {
	loc := locOf(fset, spec.Pos(), spec.End())
	target := spec.Path.Value
	if len(target) >= 2 {
		target = target[1 : len(target)-1]
	}
	start := fset.Position(spec.Pos()).Offset
	end := fset.Position(spec.End()).Offset
	stmt := ""
	if start >= 0 && end <= len(src) {
		stmt = string(src[start:end])
	}
	return lang.Import{Target: target, Location: loc, Statement: stmt}
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	}
	return ""
}

// locOf converts a token position pair to a zero-based half-open range.
func locOf(fset *token.FileSet, pos, end token.Pos) types.EditLocation {
	p := fset.Position(pos)
	e := fset.Position(end)
	return types.EditLocation{
		StartLine: p.Line - 1,
		StartCol:  p.Column - 1,
		EndLine:   e.Line - 1,
		EndCol:    e.Column - 1,
	}
}
