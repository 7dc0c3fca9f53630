package golang

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mamaar/reshape/pkg/types"
)

// refactorSupport implements the structural refactoring trait for Go:
// packages are directories, module declarations are import statements.
type refactorSupport struct {
	logger *slog.Logger
}

// LocateModuleFiles finds the .go files of the package declared as
// moduleName under root. Hidden directories, vendor, and testdata are
// skipped, matching the toolchain's own walk rules.
func (s *refactorSupport) LocateModuleFiles(root, moduleName string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		pkg, err := packageClause(path)
		if err != nil {
			s.logger.Debug("skipping unparseable file", "path", path, "err", err)
			return nil
		}
		if pkg == moduleName {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, types.NewResourceNotFound("package", moduleName)
	}
	return files, nil
}

// GenerateManifest produces a minimal go.mod for a newly extracted package.
func (s *refactorSupport) GenerateManifest(packageName string) ([]byte, error) {
	return []byte(fmt.Sprintf("module %s\n\ngo 1.25\n", packageName)), nil
}

// RemoveModuleDecl removes the import of moduleName from a source buffer.
func (s *refactorSupport) RemoveModuleDecl(path string, src []byte, moduleName string) (*types.TextEdit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ImportsOnly)
	if err != nil {
		return nil, types.NewInvalidRequest("parse %s: %v", path, err)
	}
	for _, spec := range file.Imports {
		target, err := strconv.Unquote(spec.Path.Value)
		if err != nil || target != moduleName {
			continue
		}
		loc := locOf(fset, spec.Pos(), spec.End())
		// Take the whole line so no empty import line is left behind.
		loc.StartCol = 0
		loc.EndLine = loc.StartLine + 1
		loc.EndCol = 0
		return &types.TextEdit{
			FilePath:     path,
			Location:     loc,
			OriginalText: lineAt(src, loc.StartLine),
			NewText:      "",
			Description:  fmt.Sprintf("remove import of %s", moduleName),
		}, nil
	}
	return nil, types.NewResourceNotFound("import", moduleName)
}

func (s *refactorSupport) SourceFilesUnder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func packageClause(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.PackageClauseOnly)
	if err != nil {
		return "", err
	}
	return file.Name.Name, nil
}

// lineAt returns line n of src including its trailing newline.
func lineAt(src []byte, n int) string {
	lines := strings.SplitAfter(string(src), "\n")
	if n < 0 || n >= len(lines) {
		return ""
	}
	return lines[n]
}
