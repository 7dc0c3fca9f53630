// Package plan implements the plan generators, one per refactoring verb.
// A generator is a pure function from current file contents and operation
// parameters to an edit plan; nothing here writes to disk. Each verb tries
// the code-intelligence oracle first and falls back to computing edits
// natively from the language plugin's parse.
package plan

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/oracle"
	"github.com/mamaar/reshape/pkg/project"
	"github.com/mamaar/reshape/pkg/refs"
	"github.com/mamaar/reshape/pkg/types"
)

// Generator builds edit plans against one project. The oracle client may be
// nil; every verb then uses its native path.
type Generator struct {
	project *project.Project
	updater *refs.Updater
	oracle  oracle.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewGenerator(p *project.Project, oracleClient oracle.Client, logger *slog.Logger) *Generator {
	return &Generator{
		project: p,
		updater: refs.NewUpdater(p, logger),
		oracle:  oracleClient,
		logger:  logger,
		now:     time.Now,
	}
}

// scopeOrDefault resolves the effective scope for one request.
func (g *Generator) scopeOrDefault(s *types.Scope) types.Scope {
	if s != nil {
		return *s
	}
	return g.project.Config().Scope
}

// pluginFor returns the plugin owning path or a not-found error mentioning
// the file, so callers see which file had no language support.
func (g *Generator) pluginFor(path string) (lang.Plugin, error) {
	p := g.project.PluginFor(path)
	if p == nil {
		return nil, types.NewResourceNotFound("language plugin for file", g.project.Rel(path))
	}
	return p, nil
}

// tryOracle runs one oracle query under the configured timeout and
// normalizes the response. ok is false whenever the native fallback should
// run instead: no oracle, unsupported operation, timeout, or any failure.
func (g *Generator) tryOracle(ctx context.Context, req oracle.Request) ([]types.TextEdit, bool) {
	we, err := oracle.Query(ctx, g.oracle, req, g.project.Config().OracleTimeout)
	if err != nil {
		if g.oracle != nil {
			g.logger.Debug("oracle unavailable, using native fallback",
				"operation", req.Operation, "err", err)
		}
		return nil, false
	}
	edits, err := oracle.Normalize(we, g.project.ReadFile)
	if err != nil {
		g.logger.Warn("oracle response rejected", "operation", req.Operation, "err", err)
		return nil, false
	}
	return edits, true
}

// newPlan starts a plan skeleton for one intent.
func (g *Generator) newPlan(intent, sourceFile string, args map[string]string) *types.EditPlan {
	return &types.EditPlan{
		SourceFile: g.project.Rel(sourceFile),
		Metadata: types.PlanMetadata{
			IntentName:      intent,
			IntentArguments: args,
			CreatedAt:       g.now(),
			Safety:          types.SafetyRequiresReview,
		},
	}
}

// finalize stamps checksums for every touched file, computes the complexity
// and impact estimates, and enforces the overlap invariant. On any failure
// no partial plan is returned.
func (g *Generator) finalize(plan *types.EditPlan, strategy types.Strategy) (*types.EditPlan, error) {
	plan.Metadata.Strategy = strategy

	for _, file := range plan.Files() {
		// Directories carry no content to checksum; existence is the check.
		if info, statErr := os.Stat(g.project.Abs(file)); statErr == nil && info.IsDir() {
			plan.Validations = append(plan.Validations, types.ValidationRule{
				Kind: types.ValidateFileExists, FilePath: file,
			})
			continue
		}
		_, sum, err := g.project.ReadFile(file)
		if err != nil {
			if types.CodeOf(err) == types.CodeResourceNotFound && planCreates(plan, file) {
				plan.Validations = append(plan.Validations, types.ValidationRule{
					Kind: types.ValidateFileNew, FilePath: file,
				})
				continue
			}
			return nil, err
		}
		plan.Validations = append(plan.Validations, types.ValidationRule{
			Kind: types.ValidateChecksum, FilePath: file, Checksum: sum,
		})
	}

	plan.Metadata.ComplexityScore = complexityOf(plan)
	plan.Metadata.ImpactAreas = impactOf(plan)

	if err := plan.CheckOverlaps(); err != nil {
		return nil, err
	}
	return plan, nil
}

func planCreates(plan *types.EditPlan, file string) bool {
	for _, op := range plan.FileOps {
		if op.Kind == types.FileCreate && op.Path == file {
			return true
		}
		if op.Kind == types.FileRename && op.NewPath == file {
			return true
		}
	}
	return false
}

// complexityOf estimates 1-10 from the touched surface.
func complexityOf(plan *types.EditPlan) int {
	score := 1
	files := len(plan.Files())
	edits := len(plan.AllEdits())
	switch {
	case files > 10:
		score += 4
	case files > 3:
		score += 3
	case files > 1:
		score += 2
	}
	switch {
	case edits > 50:
		score += 3
	case edits > 10:
		score += 2
	case edits > 3:
		score++
	}
	if len(plan.FileOps) > 0 {
		score += 2
	}
	if score > 10 {
		score = 10
	}
	return score
}

func impactOf(plan *types.EditPlan) []types.ImpactArea {
	files := plan.Files()
	var areas []types.ImpactArea
	switch {
	case len(files) <= 1 && len(plan.FileOps) == 0:
		areas = append(areas, types.ImpactFile)
	default:
		areas = append(areas, types.ImpactCrossFile)
	}
	for _, d := range plan.DependencyUpdates {
		if d.UpdateType == types.UpdateManifestPath {
			areas = append(areas, types.ImpactCrossModule)
			break
		}
	}
	if len(plan.FileOps) > 0 && !containsArea(areas, types.ImpactCrossModule) {
		for _, op := range plan.FileOps {
			if op.Kind == types.FileCreate {
				areas = append(areas, types.ImpactCrossModule)
				break
			}
		}
	}
	return areas
}

func containsArea(areas []types.ImpactArea, a types.ImpactArea) bool {
	for _, x := range areas {
		if x == a {
			return true
		}
	}
	return false
}
