package plan

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/mamaar/reshape/pkg/types"
)

// MoveRequest relocates a file or directory and updates every reference to
// its old path.
type MoveRequest struct {
	Target types.Target
	// Dest is the new path, relative to the project root.
	Dest  string
	Scope *types.Scope
}

func (g *Generator) Move(ctx context.Context, req MoveRequest) (*types.EditPlan, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if req.Target.Kind == types.TargetSymbolAtPosition {
		return nil, types.NewInvalidRequest("move operates on files and directories")
	}
	if req.Dest == "" {
		return nil, types.NewInvalidRequest("move requires a destination")
	}
	// Moving is a path rename with the destination spelled as a path.
	return g.renamePath(ctx, RenameRequest{
		Target:  req.Target,
		NewName: req.Dest,
		Scope:   req.Scope,
	})
}

// DeleteRequest removes a file after checking what still references it.
// Remaining references never block plan generation; they downgrade the
// safety classification so the caller reviews before applying.
type DeleteRequest struct {
	Target types.Target
	Scope  *types.Scope
}

func (g *Generator) Delete(ctx context.Context, req DeleteRequest) (*types.EditPlan, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if req.Target.Kind == types.TargetSymbolAtPosition {
		return nil, types.NewInvalidRequest("delete operates on files and directories")
	}
	scope := g.scopeOrDefault(req.Scope)
	abs := g.project.Abs(req.Target.Path)
	rel := filepath.ToSlash(g.project.Rel(abs))

	if req.Target.Kind == types.TargetFile {
		if _, _, err := g.project.ReadFile(abs); err != nil {
			return nil, err
		}
	}

	// Find what still points at the file. The new reference equals the old
	// one: these sites are reported, not rewritten.
	remaining, err := g.updater.FindUpdates(ctx, rel, rel, scope)
	if err != nil {
		return nil, err
	}

	plan := g.newPlan("delete", abs, map[string]string{
		"path":                 rel,
		"remaining_references": strconv.Itoa(len(remaining)),
	})
	plan.FileOps = append(plan.FileOps, types.FileOp{
		Kind: types.FileDelete,
		Path: abs,
	})

	if len(remaining) == 0 {
		plan.Metadata.Safety = types.SafetySafe
	} else {
		plan.Metadata.Safety = types.SafetyRequiresReview
	}
	return g.finalize(plan, types.StrategyNative)
}
