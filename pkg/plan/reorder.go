package plan

import (
	"context"
	"sort"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

// ReorderRequest rearranges the top-level declarations of one file into the
// given order. Order must name every reorderable declaration exactly once.
type ReorderRequest struct {
	File  string
	Order []string
}

func (g *Generator) Reorder(ctx context.Context, req ReorderRequest) (*types.EditPlan, error) {
	if len(req.Order) == 0 {
		return nil, types.NewInvalidRequest("reorder requires the desired declaration order")
	}
	plugin, err := g.pluginFor(req.File)
	if err != nil {
		return nil, err
	}
	content, _, err := g.project.ReadFile(req.File)
	if err != nil {
		return nil, err
	}
	summary, err := plugin.Parse(ctx, req.File, content)
	if err != nil {
		return nil, err
	}

	decls := topLevelDecls(summary)
	if len(decls) != len(req.Order) {
		return nil, types.NewInvalidRequest(
			"order names %d declarations, file has %d", len(req.Order), len(decls))
	}
	byName := make(map[string]lang.Symbol, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}
	for _, name := range req.Order {
		if _, ok := byName[name]; !ok {
			return nil, types.NewResourceNotFound("declaration", name)
		}
	}

	// Current slots, in file order.
	sort.Slice(decls, func(i, j int) bool {
		return decls[i].Location.StartLine < decls[j].Location.StartLine
	})

	plan := g.newPlan("reorder", req.File, nil)
	fileAbs := g.project.Abs(req.File)

	for i, name := range req.Order {
		slot := decls[i]
		moving := byName[name]
		if moving.Name == slot.Name {
			continue
		}
		slotText, err := types.ExtractRange(content, slot.Location)
		if err != nil {
			return nil, err
		}
		movingText, err := types.ExtractRange(content, moving.Location)
		if err != nil {
			return nil, err
		}
		plan.Edits = append(plan.Edits, types.TextEdit{
			FilePath:     fileAbs,
			Location:     slot.Location,
			OriginalText: slotText,
			NewText:      movingText,
			Description:  "reorder declaration " + name,
		})
	}

	// Rearranging whole declarations cannot change behavior in these
	// languages' top-level scope, but initialization order can matter.
	plan.Metadata.Safety = types.SafetyRequiresReview
	return g.finalize(plan, types.StrategyNative)
}

// topLevelDecls filters the summary down to reorderable declarations:
// methods live inside their container and do not move independently.
func topLevelDecls(summary *lang.SourceSummary) []lang.Symbol {
	var decls []lang.Symbol
	for _, s := range summary.Symbols {
		if s.Container != "" {
			continue
		}
		decls = append(decls, s)
	}
	return decls
}
