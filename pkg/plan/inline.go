package plan

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mamaar/reshape/pkg/oracle"
	"github.com/mamaar/reshape/pkg/refs"
	"github.com/mamaar/reshape/pkg/types"
)

// InlineVariableRequest replaces every use of a variable with its
// initializer and removes the declaration. The variable must be declared
// with a single-line initializer in the target file.
type InlineVariableRequest struct {
	File string
	Name string
}

func (g *Generator) InlineVariable(ctx context.Context, req InlineVariableRequest) (*types.EditPlan, error) {
	if req.Name == "" {
		return nil, types.NewInvalidRequest("inline variable requires a name")
	}
	plugin, err := g.pluginFor(req.File)
	if err != nil {
		return nil, err
	}
	content, _, err := g.project.ReadFile(req.File)
	if err != nil {
		return nil, err
	}

	plan := g.newPlan("inline_variable", req.File, map[string]string{"name": req.Name})
	fileAbs := g.project.Abs(req.File)

	declLine, initializer, ok := findInitializer(string(content), req.Name, plugin.Name())
	if !ok {
		return nil, types.NewResourceNotFound("variable declaration", req.Name)
	}

	if oracleEdits, ok := g.tryOracle(ctx, oracle.Request{
		Operation: "inline_variable",
		File:      fileAbs,
		Location:  insertAt(declLine),
		NewName:   req.Name,
	}); ok {
		g.splitEdits(plan, oracleEdits)
		plan.Metadata.Safety = types.SafetySafe
		return g.finalize(plan, types.StrategyOracle)
	}

	// Remove the declaration line.
	plan.Edits = append(plan.Edits, types.TextEdit{
		FilePath:     fileAbs,
		Location:     wholeLine(declLine),
		OriginalText: lineText(string(content), declLine) + "\n",
		NewText:      "",
		Description:  fmt.Sprintf("remove declaration of %s", req.Name),
	})

	// Replace uses after the declaration.
	uses := 0
	for _, m := range refs.CodeMatches(fileAbs, string(content), req.Name) {
		if m.Location.StartLine == declLine {
			continue
		}
		plan.Edits = append(plan.Edits, types.TextEdit{
			FilePath:     fileAbs,
			Location:     m.Location,
			OriginalText: req.Name,
			NewText:      initializer,
			Description:  "inline use",
		})
		uses++
	}
	if uses == 0 {
		plan.Metadata.Safety = types.SafetySafe
	} else {
		plan.Metadata.Safety = types.SafetyRequiresReview
	}
	return g.finalize(plan, types.StrategyNative)
}

// InlineFunctionRequest replaces calls to a single-expression function with
// its body and removes the definition. Only zero-argument functions whose
// body is one return statement are inlined natively; anything else needs
// the oracle.
type InlineFunctionRequest struct {
	File string
	Name string
}

func (g *Generator) InlineFunction(ctx context.Context, req InlineFunctionRequest) (*types.EditPlan, error) {
	if req.Name == "" {
		return nil, types.NewInvalidRequest("inline function requires a name")
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
	sym, ok := summary.SymbolNamed(req.Name)
	if !ok {
		return nil, types.NewResourceNotFound("function", req.Name)
	}

	plan := g.newPlan("inline_function", req.File, map[string]string{"name": req.Name})
	fileAbs := g.project.Abs(req.File)

	if oracleEdits, ok := g.tryOracle(ctx, oracle.Request{
		Operation: "inline_function",
		File:      fileAbs,
		Location:  sym.Location,
		NewName:   req.Name,
	}); ok {
		g.splitEdits(plan, oracleEdits)
		plan.Metadata.Safety = types.SafetyRequiresReview
		return g.finalize(plan, types.StrategyOracle)
	}

	body, err := types.ExtractRange(content, sym.Location)
	if err != nil {
		return nil, err
	}
	expr, ok := singleReturnExpr(body)
	if !ok {
		return nil, types.NewInvalidRequest(
			"function %s is not a single-expression function; inlining it needs oracle support", req.Name)
	}

	// Remove the definition.
	plan.Edits = append(plan.Edits, types.TextEdit{
		FilePath:     fileAbs,
		Location:     sym.Location,
		OriginalText: body,
		NewText:      "",
		Description:  fmt.Sprintf("remove definition of %s", req.Name),
	})

	// Replace calls, in this file and across the project.
	callRe := regexp.MustCompile(regexp.QuoteMeta(req.Name) + `\(\s*\)`)
	replaceCalls := func(path string, text string, intoPlan bool) {
		for lineNo, line := range strings.Split(text, "\n") {
			for _, idx := range callRe.FindAllStringIndex(line, -1) {
				loc := types.EditLocation{
					StartLine: lineNo, StartCol: idx[0],
					EndLine: lineNo, EndCol: idx[1],
				}
				if loc.Overlaps(sym.Location) && path == fileAbs {
					continue
				}
				if intoPlan {
					plan.Edits = append(plan.Edits, types.TextEdit{
						FilePath:     path,
						Location:     loc,
						OriginalText: line[idx[0]:idx[1]],
						NewText:      expr,
						Description:  "inline call",
					})
				} else {
					plan.DependencyUpdates = append(plan.DependencyUpdates, types.DependencyUpdate{
						TargetFile:   path,
						UpdateType:   types.UpdateReference,
						OldReference: line[idx[0]:idx[1]],
						NewReference: expr,
						Location:     loc,
						Confidence:   types.ConfidenceMedium,
					})
				}
			}
		}
	}
	replaceCalls(fileAbs, string(content), true)

	files, err := g.project.Files()
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file == fileAbs || g.project.PluginFor(file) != plugin {
			continue
		}
		other, _, err := g.project.ReadFile(file)
		if err != nil {
			return nil, err
		}
		replaceCalls(file, string(other), false)
	}

	plan.Metadata.Safety = types.SafetyRequiresReview
	if len(plan.DependencyUpdates) > 0 {
		plan.Metadata.Safety = types.SafetyExperimental
	}
	return g.finalize(plan, types.StrategyNative)
}

// findInitializer locates `name = expr` (or `name := expr`) at the top
// level of a file and returns the line and the initializer expression.
func findInitializer(content, name, language string) (int, string, bool) {
	var re *regexp.Regexp
	switch language {
	case "go":
		re = regexp.MustCompile(`^\s*(?:var\s+)?` + regexp.QuoteMeta(name) + `\s*:?=\s*(.+?)\s*$`)
	default:
		re = regexp.MustCompile(`^\s*(?:const\s+|let\s+|var\s+)?` + regexp.QuoteMeta(name) + `\s*=\s*(.+?);?\s*$`)
	}
	for lineNo, line := range strings.Split(content, "\n") {
		if m := re.FindStringSubmatch(line); m != nil {
			return lineNo, m[1], true
		}
	}
	return 0, "", false
}

// singleReturnExpr extracts the expression of a one-return-statement body.
func singleReturnExpr(body string) (string, bool) {
	var expr string
	found := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "return "); ok {
			if found {
				return "", false
			}
			expr = strings.TrimSuffix(rest, ";")
			found = true
		}
	}
	return expr, found
}

func wholeLine(line int) types.EditLocation {
	return types.EditLocation{StartLine: line, StartCol: 0, EndLine: line + 1, EndCol: 0}
}

func lineText(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}
