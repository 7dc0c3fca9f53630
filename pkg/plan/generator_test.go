package plan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/lang/golang"
	"github.com/mamaar/reshape/pkg/lang/javascript"
	"github.com/mamaar/reshape/pkg/lang/python"
	"github.com/mamaar/reshape/pkg/oracle"
	"github.com/mamaar/reshape/pkg/project"
	"github.com/mamaar/reshape/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry() *lang.Registry {
	l := testLogger()
	return lang.NewRegistry(golang.New(l), python.New(l), javascript.New(l))
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestGenerator(t *testing.T, root string, oc oracle.Client) *Generator {
	t.Helper()
	p, err := project.Open(root, testRegistry(), testLogger())
	require.NoError(t, err)
	g := NewGenerator(p, oc, testLogger())
	g.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return g
}

// Renaming a symbol declared and referenced once in its own file plus once
// in a second file yields exactly 2 edits, one per file.
func TestSimpleRenameScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def old_name():\n    pass\n")
	writeFile(t, root, "b.py", "result = old_name()\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetSymbolAtPosition, Path: "a.py", Symbol: "old_name"},
		NewName: "new_name",
	})
	require.NoError(t, err)

	all := plan.AllEdits()
	require.Len(t, all, 2, "%+v", all)

	perFile := make(map[string]int)
	for _, e := range all {
		perFile[filepath.Base(e.FilePath)]++
		require.Equal(t, "old_name", e.OriginalText)
		require.Equal(t, "new_name", e.NewText)
	}
	require.Equal(t, 1, perFile["a.py"])
	require.Equal(t, 1, perFile["b.py"])
	require.Equal(t, types.StrategyNative, plan.Metadata.Strategy)
}

// Generating the same plan twice against an unchanged project produces
// structurally equal plans, and generation never mutates the project.
func TestDryRunIdempotence(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def old_name():\n    pass\n")
	writeFile(t, root, "b.py", "x = old_name()\n")

	g := newTestGenerator(t, root, nil)
	req := RenameRequest{
		Target:  types.Target{Kind: types.TargetSymbolAtPosition, Path: "a.py", Symbol: "old_name"},
		NewName: "new_name",
	}

	before, err := project.ChecksumFile(filepath.Join(root, "a.py"))
	require.NoError(t, err)

	first, err := g.Rename(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Rename(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)

	after, err := project.ChecksumFile(filepath.Join(root, "a.py"))
	require.NoError(t, err)
	require.Equal(t, before, after, "plan generation must not touch disk")
}

// Requesting extract-module for a language without refactoring support
// fails with a capability error naming the exact missing trait.
func TestCapabilityGapScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/models.py", "class User:\n    pass\n")

	g := newTestGenerator(t, root, nil)
	_, err := g.ExtractModule(context.Background(), ExtractModuleRequest{
		Language:   "python",
		ModuleName: "models",
		DestDir:    "packages/models",
	})
	require.Error(t, err)
	require.Equal(t, types.CodeCapabilityUnsupported, types.CodeOf(err))

	var e *types.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, lang.CapRefactorSupport, e.Details["capability"])
	require.Equal(t, "python", e.Details["language"])
}

func TestOverlapInvariantAcrossVerbs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def old_name():\n    return old_name\n\nx = old_name()\n")
	writeFile(t, root, "docs.md", "See [a](a.py).\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetSymbolAtPosition, Path: "a.py", Symbol: "old_name"},
		NewName: "renamed",
	})
	require.NoError(t, err)
	require.NoError(t, plan.CheckOverlaps())
}

func TestOracleAssistedRename(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def old_name():\n    pass\n")

	fake := oracle.NewFake()
	fake.Respond("rename", &oracle.WorkspaceEdit{Edits: []oracle.Edit{
		{
			File:     filepath.Join(root, "a.py"),
			Location: types.EditLocation{StartLine: 0, StartCol: 4, EndLine: 0, EndCol: 12},
			NewText:  "new_name",
		},
	}})

	g := newTestGenerator(t, root, fake)
	plan, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetSymbolAtPosition, Path: "a.py", Symbol: "old_name"},
		NewName: "new_name",
	})
	require.NoError(t, err)
	require.Equal(t, types.StrategyOracle, plan.Metadata.Strategy)
	require.Len(t, plan.Edits, 1)
	require.Equal(t, "old_name", plan.Edits[0].OriginalText)
}

// A hung oracle degrades to the native fallback instead of failing.
func TestOracleTimeoutFallsBack(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, project.ConfigFileName, "oracle_timeout: 50ms\n")
	writeFile(t, root, "a.py", "def old_name():\n    pass\n")

	fake := oracle.NewFake()
	fake.Hang()

	g := newTestGenerator(t, root, fake)
	start := time.Now()
	plan, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetSymbolAtPosition, Path: "a.py", Symbol: "old_name"},
		NewName: "new_name",
	})
	require.NoError(t, err)
	require.Equal(t, types.StrategyNative, plan.Metadata.Strategy)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRenameChecksumsRecorded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def old_name():\n    pass\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetSymbolAtPosition, Path: "a.py", Symbol: "old_name"},
		NewName: "new_name",
	})
	require.NoError(t, err)

	for _, f := range plan.Files() {
		sum, ok := plan.ChecksumFor(f)
		require.True(t, ok, "file %s has no checksum rule", f)
		onDisk, err := project.ChecksumFile(f)
		require.NoError(t, err)
		require.Equal(t, onDisk, sum)
	}
}

func TestRenameMissingSymbol(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	g := newTestGenerator(t, root, nil)
	_, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetSymbolAtPosition, Path: "a.py", Symbol: "nope"},
		NewName: "x2",
	})
	require.Equal(t, types.CodeResourceNotFound, types.CodeOf(err))
}

func TestExtractFunction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def handler():\n    x = 1\n    y = x + 1\n    print(y)\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.ExtractFunction(context.Background(), ExtractFunctionRequest{
		File: "a.py",
		Range: types.EditLocation{
			StartLine: 1, StartCol: 4, EndLine: 2, EndCol: 13,
		},
		Name: "setup",
	})
	require.NoError(t, err)
	require.Len(t, plan.Edits, 2)
	require.Equal(t, "setup()", plan.Edits[0].NewText)
	require.Contains(t, plan.Edits[1].NewText, "def setup():")
	require.NoError(t, plan.CheckOverlaps())
}

func TestExtractVariable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc f() int {\n\treturn 40 + 2\n}\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.ExtractVariable(context.Background(), ExtractVariableRequest{
		File:  "main.go",
		Range: types.EditLocation{StartLine: 3, StartCol: 8, EndLine: 3, EndCol: 14},
		Name:  "answer",
	})
	require.NoError(t, err)
	require.Len(t, plan.Edits, 2)
	require.Contains(t, plan.Edits[0].NewText, "answer := 40 + 2")
	require.Equal(t, "answer", plan.Edits[1].NewText)
	require.Equal(t, types.SafetySafe, plan.Metadata.Safety)
}

func TestInlineVariable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "limit = 10\n\nprint(limit)\nprint(limit + 1)\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.InlineVariable(context.Background(), InlineVariableRequest{
		File: "a.py",
		Name: "limit",
	})
	require.NoError(t, err)
	// One removal plus two replacements.
	require.Len(t, plan.Edits, 3)
	require.Equal(t, "", plan.Edits[0].NewText)
	require.Equal(t, "10", plan.Edits[1].NewText)
}

func TestInlineFunction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def answer():\n    return 42\n\nx = answer()\n")
	writeFile(t, root, "b.py", "y = answer() * 2\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.InlineFunction(context.Background(), InlineFunctionRequest{
		File: "a.py",
		Name: "answer",
	})
	require.NoError(t, err)

	var replaced []string
	for _, e := range plan.AllEdits() {
		replaced = append(replaced, e.NewText)
	}
	require.Contains(t, replaced, "42")
	require.NoError(t, plan.CheckOverlaps())
}

func TestInlineFunctionComplexBodyRejected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f():\n    x = 1\n    if x:\n        return 1\n    return 2\n")

	g := newTestGenerator(t, root, nil)
	_, err := g.InlineFunction(context.Background(), InlineFunctionRequest{File: "a.py", Name: "f"})
	require.Equal(t, types.CodeInvalidRequest, types.CodeOf(err))
}

func TestMoveFileUpdatesReferences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/models.py", "class User:\n    pass\n")
	writeFile(t, root, "app/main.py", "from app.models import User\npath = \"app/models.py\"\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.Move(context.Background(), MoveRequest{
		Target: types.Target{Kind: types.TargetFile, Path: "app/models.py"},
		Dest:   "app/db/models.py",
	})
	require.NoError(t, err)

	require.Len(t, plan.FileOps, 1)
	require.Equal(t, types.FileRename, plan.FileOps[0].Kind)

	kinds := make(map[types.UpdateType]int)
	for _, u := range plan.DependencyUpdates {
		kinds[u.UpdateType]++
	}
	require.GreaterOrEqual(t, kinds[types.UpdateImport], 1, "dotted import should update: %+v", plan.DependencyUpdates)
	require.GreaterOrEqual(t, kinds[types.UpdateReference], 1, "string literal should update")
}

func TestDeleteSafety(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "orphan.py", "x = 1\n")
	writeFile(t, root, "used.py", "y = 2\n")
	writeFile(t, root, "main.py", "p = \"used.py\"\n")

	g := newTestGenerator(t, root, nil)

	plan, err := g.Delete(context.Background(), DeleteRequest{
		Target: types.Target{Kind: types.TargetFile, Path: "orphan.py"},
	})
	require.NoError(t, err)
	require.Equal(t, types.SafetySafe, plan.Metadata.Safety)

	plan, err = g.Delete(context.Background(), DeleteRequest{
		Target: types.Target{Kind: types.TargetFile, Path: "used.py"},
	})
	require.NoError(t, err)
	require.Equal(t, types.SafetyRequiresReview, plan.Metadata.Safety)
	require.Equal(t, "1", plan.Metadata.IntentArguments["remaining_references"])
}

func TestReorder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def b():\n    pass\n\ndef a():\n    pass\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.Reorder(context.Background(), ReorderRequest{
		File:  "a.py",
		Order: []string{"a", "b"},
	})
	require.NoError(t, err)
	require.Len(t, plan.Edits, 2)
	require.Contains(t, plan.Edits[0].NewText, "def a")
	require.Contains(t, plan.Edits[1].NewText, "def b")
	require.NoError(t, plan.CheckOverlaps())
}

func TestReorderUnknownDeclaration(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def a():\n    pass\n")

	g := newTestGenerator(t, root, nil)
	_, err := g.Reorder(context.Background(), ReorderRequest{File: "a.py", Order: []string{"zzz"}})
	require.Equal(t, types.CodeResourceNotFound, types.CodeOf(err))
}

func TestExtractModuleGo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/app\n\ngo 1.25\n")
	writeFile(t, root, "util/strings.go", "package util\n\nfunc Upper(s string) string { return s }\n")
	writeFile(t, root, "main.go", "package main\n\nimport \"example.com/app/util\"\n\nvar _ = util.Upper\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.ExtractModule(context.Background(), ExtractModuleRequest{
		Language:    "go",
		ModuleName:  "util",
		PackageName: "example.com/util",
		DestDir:     "packages/util",
	})
	require.NoError(t, err)

	var hasRename, hasCreate bool
	for _, op := range plan.FileOps {
		switch op.Kind {
		case types.FileRename:
			hasRename = true
			require.Contains(t, op.NewPath, filepath.Join("packages", "util"))
		case types.FileCreate:
			hasCreate = true
			require.True(t, strings.HasPrefix(op.Content, "module example.com/util"))
		}
	}
	require.True(t, hasRename, "module files must move")
	require.True(t, hasCreate, "a manifest must be generated")

	// Parent manifest gains the path dependency as a whole-file edit.
	require.Len(t, plan.Edits, 1)
	require.Contains(t, plan.Edits[0].NewText, "example.com/util")
	require.Equal(t, types.SafetyExperimental, plan.Metadata.Safety)
}

// Renaming a directory produces a rename file operation with an existence
// rule for the directory instead of a checksum, plus updates for files
// referencing the old path.
func TestRenameDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/mod.py", "x = 1\n")
	writeFile(t, root, "README.md", "See [the module](pkg/mod.py).\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetDirectory, Path: "pkg"},
		NewName: "lib",
	})
	require.NoError(t, err)

	require.Len(t, plan.FileOps, 1)
	op := plan.FileOps[0]
	require.Equal(t, types.FileRename, op.Kind)
	require.Equal(t, filepath.Join(root, "pkg"), op.Path)
	require.Equal(t, filepath.Join(root, "lib"), op.NewPath)

	require.NotEmpty(t, plan.DependencyUpdates, "doc link must be rewritten")

	kinds := make(map[string]types.ValidationKind)
	for _, v := range plan.Validations {
		kinds[filepath.Base(v.FilePath)] = v.Kind
	}
	require.Equal(t, types.ValidateFileExists, kinds["pkg"])
	require.Equal(t, types.ValidateFileNew, kinds["lib"])
}

func TestMoveDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old_dir/util.py", "x = 1\n")
	writeFile(t, root, "main.py", "path = \"old_dir/util.py\"\n")

	g := newTestGenerator(t, root, nil)
	plan, err := g.Move(context.Background(), MoveRequest{
		Target: types.Target{Kind: types.TargetDirectory, Path: "old_dir"},
		Dest:   "new_dir",
	})
	require.NoError(t, err)

	require.Len(t, plan.FileOps, 1)
	require.Equal(t, types.FileRename, plan.FileOps[0].Kind)
	require.NotEmpty(t, plan.DependencyUpdates, "path literal must be rewritten")
}

func TestRenameMissingDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	g := newTestGenerator(t, root, nil)
	_, err := g.Rename(context.Background(), RenameRequest{
		Target:  types.Target{Kind: types.TargetDirectory, Path: "absent"},
		NewName: "lib",
	})
	require.Error(t, err)
	require.Equal(t, types.CodeResourceNotFound, types.CodeOf(err))
}

// Extracting from the last function of a file without a trailing newline
// must still produce edits that lie within the file.
func TestExtractFunctionAtEndOfFile(t *testing.T) {
	root := t.TempDir()
	content := "def main():\n    x = 1\n    y = 2\n    print(x + y)"
	writeFile(t, root, "a.py", content)

	g := newTestGenerator(t, root, nil)
	plan, err := g.ExtractFunction(context.Background(), ExtractFunctionRequest{
		File:  "a.py",
		Range: types.EditLocation{StartLine: 1, StartCol: 4, EndLine: 2, EndCol: 9},
		Name:  "setup",
	})
	require.NoError(t, err)
	require.Len(t, plan.Edits, 2)
	for _, e := range plan.Edits {
		_, err := types.ExtractRange([]byte(content), e.Location)
		require.NoError(t, err, "edit %s must lie within the file", e.Location)
	}
	require.Contains(t, plan.Edits[1].NewText, "def setup():")
}
