package javascript

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mamaar/reshape/pkg/lang"
)

func testPlugin() *Plugin {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const sampleSource = `import { User } from './models/user.js';
const config = require('./config');

const MAX_RETRIES = 3;

export class Worker {
  run() {
    return new User();
  }
}

function main() {}
`

func TestParse(t *testing.T) {
	summary, err := testPlugin().Parse(context.Background(), "app.js", []byte(sampleSource))
	if err != nil {
		t.Fatalf("Parse: %v", err)
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
	if _, ok := summary.SymbolNamed("MAX_RETRIES"); !ok {
		t.Error("expected MAX_RETRIES")
	}

	if len(summary.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d: %+v", len(summary.Imports), summary.Imports)
	}
	if summary.Imports[0].Target != "./models/user.js" {
		t.Errorf("imports[0] = %+v", summary.Imports[0])
	}
}

func TestCapabilities(t *testing.T) {
	p := testPlugin()
	if p.Imports() == nil || p.Workspace() == nil {
		t.Error("expected import and workspace support")
	}
	if p.Refactor() != nil {
		t.Error("javascript must not report refactor support")
	}
}

func TestRewriteImports(t *testing.T) {
	edits, n, err := testPlugin().Imports().RewriteImports(
		"app.js", []byte(sampleSource), "./models/user.js", "./db/user.js")
	if err != nil {
		t.Fatalf("RewriteImports: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 rewrite, got %d: %+v", n, edits)
	}
	if edits[0].NewText != "'./db/user.js'" {
		t.Errorf("quote style should be preserved, got %s", edits[0].NewText)
	}
}

func TestRewriteRequire(t *testing.T) {
	edits, n, err := testPlugin().Imports().RewriteImports(
		"app.js", []byte(sampleSource), "./config", "./settings")
	if err != nil {
		t.Fatalf("RewriteImports: %v", err)
	}
	if n != 1 || edits[0].NewText != "'./settings'" {
		t.Errorf("n=%d edits=%+v", n, edits)
	}
}

func TestParseManifest(t *testing.T) {
	manifest := []byte(`{
  "name": "app",
  "dependencies": {
    "express": "^4.18.0",
    "shared": "file:../shared"
  }
}`)
	deps, err := testPlugin().ParseManifest("package.json", manifest)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %d", len(deps))
	}
	byName := make(map[string]lang.Dependency)
	for _, d := range deps {
		byName[d.Name] = d
	}
	if byName["shared"].Path != "../shared" {
		t.Errorf("shared = %+v", byName["shared"])
	}
	if byName["express"].Version != "^4.18.0" {
		t.Errorf("express = %+v", byName["express"])
	}
}

func TestWorkspaceMutation(t *testing.T) {
	manifest := []byte(`{"name": "app", "workspaces": ["packages/a"]}`)
	ws := testPlugin().Workspace()

	updated, err := ws.AddPathDependency(manifest, "extracted", "./packages/extracted")
	if err != nil {
		t.Fatalf("AddPathDependency: %v", err)
	}
	if !strings.Contains(string(updated), `"file:./packages/extracted"`) {
		t.Errorf("path dependency missing:\n%s", updated)
	}

	members, err := ws.Members(updated)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 1 || members[0] != "packages/a" {
		t.Errorf("members = %v", members)
	}

	updated, err = ws.SetMembers(updated, []string{"packages/a", "packages/extracted"})
	if err != nil {
		t.Fatalf("SetMembers: %v", err)
	}
	members, err = ws.Members(updated)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("members after set = %v", members)
	}

	removed, err := ws.RemovePathDependency(updated, "extracted")
	if err != nil {
		t.Fatalf("RemovePathDependency: %v", err)
	}
	if strings.Contains(string(removed), "file:./packages/extracted") {
		t.Errorf("dependency not removed:\n%s", removed)
	}
}
