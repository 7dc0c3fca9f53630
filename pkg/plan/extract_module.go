package plan

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

// ExtractModuleRequest moves a module out of its current location into a
// standalone package: the module's files move under DestDir, a manifest is
// generated for the new package, the parent manifest gains a path
// dependency, and every reference is updated. Requires the language's
// refactoring and workspace traits.
type ExtractModuleRequest struct {
	Language    string
	ModuleName  string
	PackageName string
	// DestDir is the new package directory, relative to the project root.
	DestDir string
	// ParentFile optionally names a file whose module declaration (import)
	// of the extracted module should be removed.
	ParentFile string
	// ParentManifest is the manifest gaining the path dependency; defaults
	// to the language's manifest at the project root.
	ParentManifest string
	Scope          *types.Scope
}

func (g *Generator) ExtractModule(ctx context.Context, req ExtractModuleRequest) (*types.EditPlan, error) {
	if req.ModuleName == "" || req.DestDir == "" {
		return nil, types.NewInvalidRequest("extract module requires a module name and a destination directory")
	}
	plugin, err := g.project.Registry().ForLanguage(req.Language)
	if err != nil {
		return nil, err
	}
	rs, err := lang.RequireRefactor(plugin)
	if err != nil {
		return nil, err
	}
	ws, err := lang.RequireWorkspace(plugin)
	if err != nil {
		return nil, err
	}
	scope := g.scopeOrDefault(req.Scope)
	packageName := req.PackageName
	if packageName == "" {
		packageName = req.ModuleName
	}

	files, err := rs.LocateModuleFiles(g.project.Root(), req.ModuleName)
	if err != nil {
		return nil, err
	}

	plan := g.newPlan("extract_module_to_package", files[0], map[string]string{
		"module":  req.ModuleName,
		"package": packageName,
		"dest":    req.DestDir,
	})

	// Move the module's files under the new package directory.
	destAbs := g.project.Abs(req.DestDir)
	for _, file := range files {
		plan.FileOps = append(plan.FileOps, types.FileOp{
			Kind:    types.FileRename,
			Path:    file,
			NewPath: filepath.Join(destAbs, filepath.Base(file)),
		})
	}

	// Manifest for the extracted package.
	manifest, err := rs.GenerateManifest(packageName)
	if err != nil {
		return nil, err
	}
	manifestName := plugin.ManifestNames()[0]
	plan.FileOps = append(plan.FileOps, types.FileOp{
		Kind:    types.FileCreate,
		Path:    filepath.Join(destAbs, manifestName),
		Content: string(manifest),
	})

	// Path dependency in the parent manifest.
	parentManifest := req.ParentManifest
	if parentManifest == "" {
		parentManifest = manifestName
	}
	parentContent, _, err := g.project.ReadFile(parentManifest)
	if err != nil {
		return nil, err
	}
	updated, err := ws.AddPathDependency(parentContent, packageName, "./"+filepath.ToSlash(req.DestDir))
	if err != nil {
		return nil, err
	}
	plan.Edits = append(plan.Edits, wholeFileEdit(g.project.Abs(parentManifest), parentContent, updated))

	// Stale module declaration in the parent source file.
	if req.ParentFile != "" {
		parentSrc, _, err := g.project.ReadFile(req.ParentFile)
		if err != nil {
			return nil, err
		}
		edit, err := rs.RemoveModuleDecl(g.project.Abs(req.ParentFile), parentSrc, req.ModuleName)
		if err != nil && types.CodeOf(err) != types.CodeResourceNotFound {
			return nil, err
		}
		if edit != nil {
			plan.Edits = append(plan.Edits, *edit)
		}
	}

	// References to the moved files.
	for _, file := range files {
		oldRel := filepath.ToSlash(g.project.Rel(file))
		newRel := filepath.ToSlash(filepath.Join(req.DestDir, filepath.Base(file)))
		updates, err := g.updater.FindUpdates(ctx, oldRel, newRel, scope)
		if err != nil {
			return nil, err
		}
		for _, u := range updates {
			if !overlapsPlan(plan, u) {
				plan.DependencyUpdates = append(plan.DependencyUpdates, u)
			}
		}
	}

	// Cross-module restructuring is always experimental.
	plan.Metadata.Safety = types.SafetyExperimental
	return g.finalize(plan, types.StrategyNative)
}

// wholeFileEdit replaces a file's entire content, expressed positionally so
// the executor applies it like any other edit.
func wholeFileEdit(path string, old, new []byte) types.TextEdit {
	lines := strings.Split(string(old), "\n")
	last := len(lines) - 1
	return types.TextEdit{
		FilePath: path,
		Location: types.EditLocation{
			StartLine: 0, StartCol: 0,
			EndLine: last, EndCol: len(lines[last]),
		},
		OriginalText: string(old),
		NewText:      string(new),
		Description:  "update manifest",
	}
}
