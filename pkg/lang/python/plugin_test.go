package python

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mamaar/reshape/pkg/lang"
)

func testPlugin() *Plugin {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const sampleSource = `import os
import app.models as models
from app.models import User

MAX_RETRIES = 3

class Worker:
    def run(self):
        return User()

def main():
    pass
`

func TestParse(t *testing.T) {
	summary, err := testPlugin().Parse(context.Background(), "app.py", []byte(sampleSource))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if summary.HasSyntaxErrors {
		t.Error("unexpected syntax errors")
	}

	if sym, ok := summary.SymbolNamed("Worker"); !ok || sym.Kind != lang.SymbolClass {
		t.Errorf("Worker = %+v, ok=%v", sym, ok)
	}
	if sym, ok := summary.SymbolNamed("run"); !ok || sym.Kind != lang.SymbolMethod || sym.Container != "Worker" {
		t.Errorf("run = %+v, ok=%v", sym, ok)
	}
	if sym, ok := summary.SymbolNamed("main"); !ok || sym.Kind != lang.SymbolFunction {
		t.Errorf("main = %+v, ok=%v", sym, ok)
	}
	if sym, ok := summary.SymbolNamed("MAX_RETRIES"); !ok || sym.Kind != lang.SymbolVariable {
		t.Errorf("MAX_RETRIES = %+v, ok=%v", sym, ok)
	}

	// os, app.models (aliased), app.models (from-import)
	if len(summary.Imports) != 3 {
		t.Fatalf("expected 3 imports, got %d: %+v", len(summary.Imports), summary.Imports)
	}
}

func TestCapabilities(t *testing.T) {
	p := testPlugin()
	if p.Imports() == nil {
		t.Error("expected import support")
	}
	if p.Workspace() != nil {
		t.Error("python must not report workspace support")
	}
	if p.Refactor() != nil {
		t.Error("python must not report refactor support")
	}
}

func TestRewriteImports(t *testing.T) {
	edits, n, err := testPlugin().Imports().RewriteImports("app.py", []byte(sampleSource), "app.models", "app.db.models")
	if err != nil {
		t.Fatalf("RewriteImports: %v", err)
	}
	// The aliased import and the from-import both reference app.models.
	if n != 2 {
		t.Fatalf("expected 2 rewrites, got %d: %+v", n, edits)
	}
	for _, e := range edits {
		if e.OriginalText != "app.models" || e.NewText != "app.db.models" {
			t.Errorf("edit = %+v", e)
		}
	}
}

func TestRewriteImportsSubmodule(t *testing.T) {
	src := []byte("from app.models.user import User\n")
	edits, n, err := testPlugin().Imports().RewriteImports("x.py", src, "app.models", "core.models")
	if err != nil {
		t.Fatalf("RewriteImports: %v", err)
	}
	if n != 1 || edits[0].NewText != "core.models.user" {
		t.Errorf("n=%d edits=%+v", n, edits)
	}
}

func TestRewriteImportsNoFalsePositive(t *testing.T) {
	src := []byte("import app.models_extra\n")
	_, n, err := testPlugin().Imports().RewriteImports("x.py", src, "app.models", "core.models")
	if err != nil {
		t.Fatalf("RewriteImports: %v", err)
	}
	if n != 0 {
		t.Errorf("app.models_extra must not match app.models, got %d rewrites", n)
	}
}

func TestParseManifest(t *testing.T) {
	manifest := []byte("# deps\nrequests==2.31.0\nflask>=2.0\n\n-r extra.txt\npyyaml\n")
	deps, err := testPlugin().ParseManifest("requirements.txt", manifest)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(deps) != 3 {
		t.Fatalf("expected 3 deps, got %d: %+v", len(deps), deps)
	}
	if deps[0].Name != "requests" || deps[0].Version != "2.31.0" {
		t.Errorf("deps[0] = %+v", deps[0])
	}
	if deps[1].Name != "flask" || deps[1].Version != "" {
		t.Errorf("deps[1] = %+v", deps[1])
	}
}
