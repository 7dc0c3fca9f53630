package lang

import (
	"context"
	"errors"
	"testing"

	"github.com/mamaar/reshape/pkg/types"
)

// fakePlugin implements Plugin with configurable traits.
type fakePlugin struct {
	name      string
	exts      []string
	manifests []string
	imports   ImportSupport
	workspace WorkspaceSupport
	refactor  RefactorSupport
}

func (f *fakePlugin) Name() string            { return f.name }
func (f *fakePlugin) Extensions() []string    { return f.exts }
func (f *fakePlugin) ManifestNames() []string { return f.manifests }
func (f *fakePlugin) Parse(ctx context.Context, path string, src []byte) (*SourceSummary, error) {
	return &SourceSummary{Language: f.name, Path: path}, nil
}
func (f *fakePlugin) ParseManifest(path string, src []byte) ([]Dependency, error) {
	return nil, nil
}
func (f *fakePlugin) Imports() ImportSupport     { return f.imports }
func (f *fakePlugin) Workspace() WorkspaceSupport { return f.workspace }
func (f *fakePlugin) Refactor() RefactorSupport   { return f.refactor }

type fakeImports struct{}

func (fakeImports) ExtractImports(src []byte) ([]Import, error) { return nil, nil }
func (fakeImports) RewriteImports(path string, src []byte, oldTarget, newTarget string) ([]types.TextEdit, int, error) {
	return nil, 0, nil
}

func TestRegistryForFile(t *testing.T) {
	py := &fakePlugin{name: "python", exts: []string{".py"}, manifests: []string{"pyproject.toml"}}
	js := &fakePlugin{name: "javascript", exts: []string{".js", ".mjs"}, manifests: []string{"package.json"}}
	r := NewRegistry(py, js)

	if got := r.ForFile("src/app.py"); got != py {
		t.Errorf("ForFile(.py) = %v", got)
	}
	if got := r.ForFile("lib/index.MJS"); got != js {
		t.Error("extension matching should be case-insensitive")
	}
	if got := r.ForFile("package.json"); got != js {
		t.Error("manifest basename should map to its plugin")
	}
	if got := r.ForFile("README.md"); got != nil {
		t.Errorf("unclaimed file should return nil, got %v", got)
	}
}

func TestRegistryForLanguage(t *testing.T) {
	r := NewRegistry(&fakePlugin{name: "go", exts: []string{".go"}})
	if _, err := r.ForLanguage("go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := r.ForLanguage("cobol")
	if err == nil {
		t.Fatal("expected error for unregistered language")
	}
	if types.CodeOf(err) != types.CodeResourceNotFound {
		t.Errorf("code = %s", types.CodeOf(err))
	}
}

func TestDescribe(t *testing.T) {
	p := &fakePlugin{name: "python", exts: []string{".py"}, imports: fakeImports{}}
	d := Describe(p)
	if !d.Has(CapImportSupport) {
		t.Error("expected import_support")
	}
	if d.Has(CapWorkspaceSupport) || d.Has(CapRefactorSupport) {
		t.Error("unexpected capabilities listed")
	}
}

func TestRequireRefactorNamesCapability(t *testing.T) {
	p := &fakePlugin{name: "python", imports: fakeImports{}}
	_, err := RequireRefactor(p)
	if err == nil {
		t.Fatal("expected capability error")
	}
	var e *types.Error
	if !errors.As(err, &e) {
		t.Fatal("expected *types.Error")
	}
	if e.Code != types.CodeCapabilityUnsupported {
		t.Errorf("code = %s", e.Code)
	}
	if e.Details["capability"] != CapRefactorSupport {
		t.Errorf("error must name the exact missing capability, got %v", e.Details)
	}
}
