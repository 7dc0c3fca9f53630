package refs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/lang/golang"
	"github.com/mamaar/reshape/pkg/lang/javascript"
	"github.com/mamaar/reshape/pkg/lang/python"
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

func openProject(t *testing.T, root string) *project.Project {
	t.Helper()
	p, err := project.Open(root, testRegistry(), testLogger())
	require.NoError(t, err)
	return p
}

// Renaming a path referenced by a code import, a path-like string literal,
// and a manifest path dependency must cover all three sites; a bare prose
// mention without a separator stays out unless prose scanning is enabled.
func TestReferenceCompleteness(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/main.py", "from app.models import User\n\npath = \"app/models.py\"\n")
	writeFile(t, root, "pipeline.yaml", "check: app/models.py\n")
	writeFile(t, root, "README.md", "The models module is great.\n")

	u := NewUpdater(openProject(t, root), testLogger())

	updates, err := u.FindUpdates(context.Background(), "app/models.py", "app/db/models.py", types.StandardScope())
	require.NoError(t, err)

	byFile := make(map[string]int)
	for _, up := range updates {
		byFile[filepath.Base(up.TargetFile)]++
	}
	require.Equal(t, 1, byFile["main.py"], "string literal site: %+v", updates)
	require.Equal(t, 1, byFile["pipeline.yaml"], "config site: %+v", updates)
	require.Zero(t, byFile["README.md"], "prose mention must stay out by default")

	// The dotted import is a separate reference form.
	importUpdates, err := u.FindUpdates(context.Background(), "app.models", "app.db.models", types.StandardScope())
	require.NoError(t, err)
	require.Len(t, importUpdates, 1)
	require.Equal(t, types.UpdateImport, importUpdates[0].UpdateType)
	require.Equal(t, types.ConfidenceStrong, importUpdates[0].Confidence)
}

func TestProseOptIn(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "We renamed old_name recently.\n")

	u := NewUpdater(openProject(t, root), testLogger())

	updates, err := u.FindUpdates(context.Background(), "old_name", "new_name", types.StandardScope())
	require.NoError(t, err)
	require.Empty(t, updates, "prose is excluded by default")

	updates, err = u.FindUpdates(context.Background(), "old_name", "new_name", types.EverythingScope())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, types.ConfidenceWeak, updates[0].Confidence)
}

func TestDocLinkUpdate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/guide.md",
		"See [the models](../app/models.py) for details.\n\n[ref]: ../app/models.py\n")

	u := NewUpdater(openProject(t, root), testLogger())
	updates, err := u.FindUpdates(context.Background(), "models.py", "entities.py", types.StandardScope())
	require.NoError(t, err)
	require.Len(t, updates, 2, "inline link and reference definition: %+v", updates)
	for _, up := range updates {
		require.Equal(t, types.ConfidenceStrong, up.Confidence)
	}
}

func TestGoImportRewrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nimport \"example.com/proj/util\"\n\nvar _ = util.X\n")

	u := NewUpdater(openProject(t, root), testLogger())
	updates, err := u.FindUpdates(context.Background(), "example.com/proj/util", "example.com/proj/internal/util", types.StandardScope())
	require.NoError(t, err)

	require.Len(t, updates, 1, "import rewrite must not double-count the quoted literal: %+v", updates)
	require.Equal(t, types.UpdateImport, updates[0].UpdateType)
}

func TestVersionStringsUntouched(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "version = \"1.2.3\"\nurl = \"https://pypi.org/1.2.3\"\n")

	u := NewUpdater(openProject(t, root), testLogger())
	updates, err := u.FindUpdates(context.Background(), "1.2.3", "1.2.4", types.StandardScope())
	require.NoError(t, err)
	// Only the URL literal is path-shaped.
	require.Len(t, updates, 1, "%+v", updates)
}

func TestCommentScanOptIn(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "# see helpers for details\nx = 1\n")

	u := NewUpdater(openProject(t, root), testLogger())

	updates, err := u.FindUpdates(context.Background(), "helpers", "support", types.StandardScope())
	require.NoError(t, err)
	require.Empty(t, updates)

	updates, err = u.FindUpdates(context.Background(), "helpers", "support", types.CommentScope())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, types.ConfidenceWeak, updates[0].Confidence)
}

func TestExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "path = \"lib/old.py\"\n")
	writeFile(t, root, "generated/app.py", "path = \"lib/old.py\"\n")

	scope := types.StandardScope()
	scope.ExcludeGlobs = []string{"generated/**"}

	u := NewUpdater(openProject(t, root), testLogger())
	updates, err := u.FindUpdates(context.Background(), "lib/old.py", "lib/new.py", scope)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.NotContains(t, updates[0].TargetFile, "generated")
}

func TestGitignoreUpdate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "# build output\nold_dir/\n")

	u := NewUpdater(openProject(t, root), testLogger())
	updates, err := u.FindUpdates(context.Background(), "old_dir", "new_dir", types.StandardScope())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, 1, updates[0].Location.StartLine, "comment line must not match")
}

func TestManifestPathDependency(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/app\n\ngo 1.25\n\nreplace example.com/dep => ../dep\n")

	u := NewUpdater(openProject(t, root), testLogger())
	updates, err := u.FindUpdates(context.Background(), "../dep", "../libs/dep", types.StandardScope())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, types.UpdateManifestPath, updates[0].UpdateType)
}

func TestDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "p = \"x/old.py\"\n")
	writeFile(t, root, "b.py", "p = \"x/old.py\"\nq = \"x/old.py\"\n")

	u := NewUpdater(openProject(t, root), testLogger())
	first, err := u.FindUpdates(context.Background(), "x/old.py", "x/new.py", types.StandardScope())
	require.NoError(t, err)
	second, err := u.FindUpdates(context.Background(), "x/old.py", "x/new.py", types.StandardScope())
	require.NoError(t, err)
	require.Equal(t, first, second, "parallel scan must produce a stable order")
	require.Len(t, first, 3)
}

// Prose scanning works on raw lines, so snake_case names survive the inline
// parser's emphasis splitting; fenced blocks and inline code stay excluded.
func TestProseSkipsCodeRegions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "NOTES.md",
		"We renamed old_name recently.\n\n"+
			"```\nold_name = 1\n```\n\n"+
			"Call `old_name` directly.\n")

	u := NewUpdater(openProject(t, root), testLogger())
	updates, err := u.FindUpdates(context.Background(), "old_name", "new_name", types.EverythingScope())
	require.NoError(t, err)
	require.Len(t, updates, 1, "%+v", updates)
	require.Equal(t, 0, updates[0].Location.StartLine)
	require.Equal(t, types.ConfidenceWeak, updates[0].Confidence)
}
