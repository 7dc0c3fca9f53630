package golang

import (
	"go/parser"
	"go/token"
	"strconv"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

// importSupport implements lang.ImportSupport on top of go/parser. Imports
// are rewritten as positional edits over the string literal only, so
// aliases and grouping are left untouched.
type importSupport Plugin

func (s *importSupport) ExtractImports(src []byte) ([]lang.Import, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, parser.ImportsOnly)
	if err != nil {
		return nil, types.NewInvalidRequest("parse imports: %v", err)
	}
	imports := make([]lang.Import, 0, len(file.Imports))
	for _, spec := range file.Imports {
		imports = append(imports, importOf(fset, src, spec))
	}
	return imports, nil
}

func (s *importSupport) RewriteImports(path string, src []byte, oldTarget, newTarget string) ([]types.TextEdit, int, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ImportsOnly)
	if err != nil {
		return nil, 0, types.NewInvalidRequest("parse imports in %s: %v", path, err)
	}

	var edits []types.TextEdit
	for _, spec := range file.Imports {
		target, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		rewritten, ok := rewriteImportPath(target, oldTarget, newTarget)
		if !ok {
			continue
		}
		edits = append(edits, types.TextEdit{
			FilePath:     path,
			Location:     locOf(fset, spec.Path.Pos(), spec.Path.End()),
			OriginalText: spec.Path.Value,
			NewText:      strconv.Quote(rewritten),
			Description:  "update import path",
		})
	}
	return edits, len(edits), nil
}

// rewriteImportPath maps target onto newTarget when target equals oldTarget
// or is a subpackage of it.
func rewriteImportPath(target, oldTarget, newTarget string) (string, bool) {
	if target == oldTarget {
		return newTarget, true
	}
	prefix := oldTarget + "/"
	if len(target) > len(prefix) && target[:len(prefix)] == prefix {
		return newTarget + "/" + target[len(prefix):], true
	}
	return "", false
}
