// Package lang defines the language plugin contract. Every plugin implements
// the mandatory parsing surface; the optional capability traits (imports,
// workspace, refactoring) are queried at runtime and return nil when a
// language does not support them, so verbs can reject unsupported languages
// with a specific capability error instead of a silent no-op.
package lang

import (
	"context"

	"github.com/mamaar/reshape/pkg/types"
)

// SymbolKind classifies a parsed symbol.
type SymbolKind string

const (
	SymbolFunction SymbolKind = "function"
	SymbolMethod   SymbolKind = "method"
	SymbolType     SymbolKind = "type"
	SymbolClass    SymbolKind = "class"
	SymbolVariable SymbolKind = "variable"
	SymbolConstant SymbolKind = "constant"
	SymbolModule   SymbolKind = "module"
)

// Symbol is one named declaration found in a source buffer.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Location types.EditLocation
	// Container is the enclosing type or class name for methods, empty for
	// top-level symbols.
	Container string
}

// Import is one import/use statement found in a source buffer.
type Import struct {
	// Target is the imported module path or package name as written.
	Target   string
	Location types.EditLocation
	// Statement is the full statement text.
	Statement string
}

// SourceSummary is the normalized output of parsing one source buffer.
type SourceSummary struct {
	Language string
	Path     string
	Symbols  []Symbol
	Imports  []Import
	// HasSyntaxErrors is set when the parse tree contains error nodes; the
	// summary is still usable but generators should classify results as
	// experimental.
	HasSyntaxErrors bool
}

// SymbolNamed returns the first top-level symbol with the given name.
func (s *SourceSummary) SymbolNamed(name string) (Symbol, bool) {
	for _, sym := range s.Symbols {
		if sym.Name == name {
			return sym, true
		}
	}
	return Symbol{}, false
}

// SymbolAt returns the symbol whose location contains the given position.
func (s *SourceSummary) SymbolAt(line, col int) (Symbol, bool) {
	pos := types.EditLocation{StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1}
	for _, sym := range s.Symbols {
		if sym.Location.Overlaps(pos) {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Dependency is one entry in a normalized manifest dependency list.
type Dependency struct {
	Name    string
	Version string
	// Path is set for path dependencies (local workspace members).
	Path string
}

// Plugin is the mandatory per-language contract. Parse turns source text
// into a symbol/structure summary; ParseManifest normalizes the language's
// package descriptor. The trait accessors return nil for traits the
// language does not implement.
type Plugin interface {
	// Name is the canonical language name ("go", "python", "javascript").
	Name() string
	// Extensions lists the file extensions this plugin owns, with dots.
	Extensions() []string
	// ManifestNames lists the manifest file basenames this plugin owns
	// ("go.mod", "package.json", ...).
	ManifestNames() []string

	Parse(ctx context.Context, path string, src []byte) (*SourceSummary, error)
	ParseManifest(path string, src []byte) ([]Dependency, error)

	Imports() ImportSupport
	Workspace() WorkspaceSupport
	Refactor() RefactorSupport
}

// ImportSupport is the optional import-handling trait.
type ImportSupport interface {
	// ExtractImports lists the import statements in src.
	ExtractImports(src []byte) ([]Import, error)
	// RewriteImports rewrites every import of oldTarget to newTarget and
	// returns the edits plus the number of statements changed. It never
	// mutates src.
	RewriteImports(path string, src []byte, oldTarget, newTarget string) ([]types.TextEdit, int, error)
}

// WorkspaceSupport is the optional manifest-mutation trait.
type WorkspaceSupport interface {
	// AddPathDependency inserts a path dependency into manifest content and
	// returns the updated content.
	AddPathDependency(manifest []byte, name, relPath string) ([]byte, error)
	// RemovePathDependency removes a path dependency by name.
	RemovePathDependency(manifest []byte, name string) ([]byte, error)
	// Members returns the declared workspace member list, for languages
	// whose manifest declares one.
	Members(manifest []byte) ([]string, error)
	// SetMembers replaces the declared member list.
	SetMembers(manifest []byte, members []string) ([]byte, error)
}

// RefactorSupport is the optional structural-refactoring trait. Verbs that
// restructure modules (extract-module-to-package, move) require it.
type RefactorSupport interface {
	// LocateModuleFiles returns the file(s) backing a module/package given
	// its declared name, searched under root.
	LocateModuleFiles(root, moduleName string) ([]string, error)
	// GenerateManifest produces a manifest for a newly extracted package.
	GenerateManifest(packageName string) ([]byte, error)
	// RemoveModuleDecl returns the edit that removes a now-stale module
	// declaration from a parent source buffer.
	RemoveModuleDecl(path string, src []byte, moduleName string) (*types.TextEdit, error)
	// SourceFilesUnder enumerates this language's source files under dir.
	SourceFilesUnder(dir string) ([]string, error)
}

// Trait names used in capability descriptors and capability errors.
const (
	CapImportSupport    = "import_support"
	CapWorkspaceSupport = "workspace_support"
	CapRefactorSupport  = "refactor_support"
)
