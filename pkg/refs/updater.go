package refs

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mamaar/reshape/pkg/project"
	"github.com/mamaar/reshape/pkg/types"
)

const scanConcurrency = 8

// Updater scans the project for references to an old identifier or path and
// produces the dependency updates needed after it changes. It performs no
// writes; the resulting updates travel inside an edit plan.
type Updater struct {
	project *project.Project
	logger  *slog.Logger
}

func NewUpdater(p *project.Project, logger *slog.Logger) *Updater {
	return &Updater{project: p, logger: logger}
}

// FindUpdates scans every eligible project file for references to oldRef.
// The scan splits by source kind because each kind carries a different
// false-positive risk; scope controls which kinds are consulted at all.
func (u *Updater) FindUpdates(ctx context.Context, oldRef, newRef string, scope types.Scope) ([]types.DependencyUpdate, error) {
	if oldRef == "" {
		return nil, types.NewInvalidRequest("old reference must not be empty")
	}
	files, err := u.project.Files()
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		updates []types.DependencyUpdate
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)

	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found, err := u.scanFile(ctx, file, oldRef, newRef, scope)
			if err != nil {
				// A single unreadable or unparseable file does not abort
				// the whole scan.
				u.logger.Warn("reference scan skipped file", "path", file, "err", err)
				return nil
			}
			if len(found) > 0 {
				mu.Lock()
				updates = append(updates, found...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	updates = dedupe(updates)
	sort.Slice(updates, func(i, j int) bool {
		a, b := updates[i], updates[j]
		if a.TargetFile != b.TargetFile {
			return a.TargetFile < b.TargetFile
		}
		if a.Location.StartLine != b.Location.StartLine {
			return a.Location.StartLine < b.Location.StartLine
		}
		return a.Location.StartCol < b.Location.StartCol
	})
	return updates, nil
}

// scanFile dispatches one file to the scanner matching its kind.
func (u *Updater) scanFile(ctx context.Context, file, oldRef, newRef string, scope types.Scope) ([]types.DependencyUpdate, error) {
	rel := u.project.Rel(file)
	if scope.Excludes(rel) {
		return nil, nil
	}
	content, _, err := u.project.ReadFile(file)
	if err != nil {
		return nil, err
	}
	text := string(content)
	if !strings.Contains(text, oldRef) {
		return nil, nil
	}

	switch {
	case isConfigFile(file):
		return scanConfig(file, text, oldRef, newRef, scope), nil
	case strings.EqualFold(filepath.Ext(file), ".md"):
		if !scope.Allows(types.RefDocLink) && !scope.UpdateProse {
			return nil, nil
		}
		return scanMarkdown(file, text, oldRef, newRef, scope), nil
	default:
		return u.scanSource(ctx, file, content, oldRef, newRef, scope)
	}
}

// scanSource combines plugin-parsed import rewrites with the textual
// literal and comment scan for one source file.
func (u *Updater) scanSource(ctx context.Context, file string, content []byte, oldRef, newRef string, scope types.Scope) ([]types.DependencyUpdate, error) {
	var updates []types.DependencyUpdate

	plugin := u.project.PluginFor(file)
	if plugin != nil && plugin.Imports() != nil && scope.Allows(types.RefImportStatement) {
		edits, _, err := plugin.Imports().RewriteImports(file, content, oldRef, newRef)
		if err != nil {
			return nil, err
		}
		for _, e := range edits {
			updates = append(updates, types.DependencyUpdate{
				TargetFile:   file,
				UpdateType:   types.UpdateImport,
				OldReference: e.OriginalText,
				NewReference: e.NewText,
				Location:     e.Location,
				Confidence:   types.ConfidenceStrong,
			})
		}
	}

	// Drop textual hits that fall inside an import edit: the quoted import
	// path would otherwise match the string-literal scan too.
	for _, t := range scanSourceText(file, string(content), oldRef, newRef, scope) {
		if overlapsAny(t.Location, updates) {
			continue
		}
		updates = append(updates, t)
	}
	return updates, nil
}

func overlapsAny(loc types.EditLocation, updates []types.DependencyUpdate) bool {
	for _, u := range updates {
		if loc.Overlaps(u.Location) {
			return true
		}
	}
	return false
}

func dedupe(updates []types.DependencyUpdate) []types.DependencyUpdate {
	type key struct {
		file string
		loc  types.EditLocation
	}
	seen := make(map[key]bool, len(updates))
	out := updates[:0]
	for _, u := range updates {
		k := key{u.TargetFile, u.Location}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, u)
	}
	return out
}
