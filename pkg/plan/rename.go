package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/oracle"
	"github.com/mamaar/reshape/pkg/refs"
	"github.com/mamaar/reshape/pkg/types"
)

// RenameRequest renames a symbol, file, or directory. For symbol targets
// NewName is the new identifier; for file and directory targets it is the
// new path, relative to the project root.
type RenameRequest struct {
	Target  types.Target
	NewName string
	Scope   *types.Scope
}

func (g *Generator) Rename(ctx context.Context, req RenameRequest) (*types.EditPlan, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if req.NewName == "" {
		return nil, types.NewInvalidRequest("rename requires a new name")
	}
	switch req.Target.Kind {
	case types.TargetSymbolAtPosition:
		return g.renameSymbol(ctx, req)
	case types.TargetFile, types.TargetDirectory:
		return g.renamePath(ctx, req)
	}
	return nil, types.NewInvalidRequest("unknown target kind %q", req.Target.Kind)
}

func (g *Generator) renameSymbol(ctx context.Context, req RenameRequest) (*types.EditPlan, error) {
	scope := g.scopeOrDefault(req.Scope)
	plugin, err := g.pluginFor(req.Target.Path)
	if err != nil {
		return nil, err
	}
	content, _, err := g.project.ReadFile(req.Target.Path)
	if err != nil {
		return nil, err
	}
	summary, err := plugin.Parse(ctx, req.Target.Path, content)
	if err != nil {
		return nil, err
	}

	sym, ok := g.resolveSymbol(summary, req.Target)
	if !ok {
		return nil, types.NewResourceNotFound("symbol", req.Target.Symbol)
	}

	plan := g.newPlan("rename", req.Target.Path, map[string]string{
		"old_name": sym.Name,
		"new_name": req.NewName,
	})

	if oracleEdits, ok := g.tryOracle(ctx, oracle.Request{
		Operation: "rename",
		File:      g.project.Abs(req.Target.Path),
		Location:  sym.Location,
		NewName:   req.NewName,
	}); ok {
		g.splitEdits(plan, oracleEdits)
		g.classifyRename(plan, summary)
		return g.finalize(plan, types.StrategyOracle)
	}

	// Native fallback: word-bounded identifier occurrences in code context,
	// in the source file and then across the rest of the language's files.
	sourceAbs := g.project.Abs(req.Target.Path)
	for _, m := range refs.CodeMatches(sourceAbs, string(content), sym.Name) {
		plan.Edits = append(plan.Edits, types.TextEdit{
			FilePath:     sourceAbs,
			Location:     m.Location,
			OriginalText: sym.Name,
			NewText:      req.NewName,
			Description:  "rename occurrence",
		})
	}

	crossFile, err := g.crossFileCodeUpdates(ctx, plugin, sourceAbs, sym.Name, req.NewName)
	if err != nil {
		return nil, err
	}
	plan.DependencyUpdates = append(plan.DependencyUpdates, crossFile...)

	// Non-code reference kinds (literals, docs, configs, comments) go
	// through the reference updater under the caller's scope.
	textual, err := g.updater.FindUpdates(ctx, sym.Name, req.NewName, scope)
	if err != nil {
		return nil, err
	}
	for _, u := range textual {
		if u.UpdateType == types.UpdateImport {
			// A bare identifier matching an import target is coincidence.
			continue
		}
		if overlapsPlan(plan, u) {
			continue
		}
		plan.DependencyUpdates = append(plan.DependencyUpdates, u)
	}

	g.classifyRename(plan, summary)
	return g.finalize(plan, types.StrategyNative)
}

func (g *Generator) renamePath(ctx context.Context, req RenameRequest) (*types.EditPlan, error) {
	scope := g.scopeOrDefault(req.Scope)
	oldAbs := g.project.Abs(req.Target.Path)
	oldRel := g.project.Rel(oldAbs)
	newRel := req.NewName
	newAbs := g.project.Abs(newRel)

	if req.Target.Kind == types.TargetFile {
		if _, _, err := g.project.ReadFile(oldAbs); err != nil {
			return nil, err
		}
	} else if info, err := os.Stat(oldAbs); err != nil || !info.IsDir() {
		return nil, types.NewResourceNotFound("directory", oldRel)
	}

	plan := g.newPlan("rename", oldAbs, map[string]string{
		"old_path": oldRel,
		"new_path": newRel,
	})
	plan.FileOps = append(plan.FileOps, types.FileOp{
		Kind:    types.FileRename,
		Path:    oldAbs,
		NewPath: newAbs,
	})

	updates, err := g.updater.FindUpdates(ctx, filepath.ToSlash(oldRel), filepath.ToSlash(newRel), scope)
	if err != nil {
		return nil, err
	}
	plan.DependencyUpdates = append(plan.DependencyUpdates, updates...)

	// A language that imports by module path rather than file path needs
	// the dotted form updated too.
	if plugin := g.project.PluginFor(oldAbs); plugin != nil {
		oldMod, newMod := modulePath(plugin, oldRel), modulePath(plugin, newRel)
		if oldMod != "" && oldMod != filepath.ToSlash(oldRel) {
			modUpdates, err := g.updater.FindUpdates(ctx, oldMod, newMod, scope)
			if err != nil {
				return nil, err
			}
			for _, u := range modUpdates {
				if !overlapsPlan(plan, u) {
					plan.DependencyUpdates = append(plan.DependencyUpdates, u)
				}
			}
		}
	}

	plan.Metadata.Safety = types.SafetyRequiresReview
	if len(plan.DependencyUpdates) == 0 {
		plan.Metadata.Safety = types.SafetySafe
	}
	return g.finalize(plan, types.StrategyNative)
}

func (g *Generator) resolveSymbol(summary *lang.SourceSummary, target types.Target) (lang.Symbol, bool) {
	if target.Symbol != "" {
		return summary.SymbolNamed(target.Symbol)
	}
	return summary.SymbolAt(target.Line, target.Col)
}

// splitEdits routes oracle edits into direct edits (source file) and
// dependency updates (everything else), per the plan contract.
func (g *Generator) splitEdits(plan *types.EditPlan, edits []types.TextEdit) {
	sourceAbs := g.project.Abs(plan.SourceFile)
	for _, e := range edits {
		if e.FilePath == sourceAbs || g.project.Rel(e.FilePath) == plan.SourceFile {
			plan.Edits = append(plan.Edits, e)
			continue
		}
		plan.DependencyUpdates = append(plan.DependencyUpdates, types.DependencyUpdate{
			TargetFile:   e.FilePath,
			UpdateType:   types.UpdateReference,
			OldReference: e.OriginalText,
			NewReference: e.NewText,
			Location:     e.Location,
			Confidence:   types.ConfidenceStrong,
		})
	}
}

// crossFileCodeUpdates scans the other files of the same language for
// code-context occurrences of name.
func (g *Generator) crossFileCodeUpdates(ctx context.Context, plugin lang.Plugin, sourceAbs, name, newName string) ([]types.DependencyUpdate, error) {
	files, err := g.project.Files()
	if err != nil {
		return nil, err
	}
	var updates []types.DependencyUpdate
	for _, file := range files {
		if file == sourceAbs || g.project.PluginFor(file) != plugin {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, _, err := g.project.ReadFile(file)
		if err != nil {
			return nil, err
		}
		for _, m := range refs.CodeMatches(file, string(content), name) {
			updates = append(updates, types.DependencyUpdate{
				TargetFile:   file,
				UpdateType:   types.UpdateReference,
				OldReference: name,
				NewReference: newName,
				Location:     m.Location,
				Confidence:   types.ConfidenceMedium,
			})
		}
	}
	return updates, nil
}

func (g *Generator) classifyRename(plan *types.EditPlan, summary *lang.SourceSummary) {
	switch {
	case summary.HasSyntaxErrors:
		plan.Metadata.Safety = types.SafetyExperimental
	case len(plan.DependencyUpdates) == 0:
		plan.Metadata.Safety = types.SafetySafe
	default:
		plan.Metadata.Safety = types.SafetyRequiresReview
	}
}

// modulePath converts a source file path into the language's import form.
func modulePath(plugin lang.Plugin, rel string) string {
	slash := filepath.ToSlash(rel)
	switch plugin.Name() {
	case "python":
		trimmed := strings.TrimSuffix(strings.TrimSuffix(slash, ".py"), ".pyi")
		return strings.ReplaceAll(trimmed, "/", ".")
	case "javascript":
		return "./" + slash
	}
	return ""
}

func overlapsPlan(plan *types.EditPlan, u types.DependencyUpdate) bool {
	for _, e := range plan.AllEdits() {
		if e.FilePath == u.TargetFile && e.Location.Overlaps(u.Location) {
			return true
		}
	}
	return false
}
