package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/mamaar/reshape/pkg/oracle"
	"github.com/mamaar/reshape/pkg/types"
)

// ExtractFunctionRequest lifts a selected range into a new function and
// replaces the selection with a call to it.
type ExtractFunctionRequest struct {
	File  string
	Range types.EditLocation
	Name  string
}

func (g *Generator) ExtractFunction(ctx context.Context, req ExtractFunctionRequest) (*types.EditPlan, error) {
	if req.Name == "" {
		return nil, types.NewInvalidRequest("extract function requires a name")
	}
	plugin, err := g.pluginFor(req.File)
	if err != nil {
		return nil, err
	}
	content, _, err := g.project.ReadFile(req.File)
	if err != nil {
		return nil, err
	}
	selection, err := types.ExtractRange(content, req.Range)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(selection) == "" {
		return nil, types.NewInvalidRequest("selection is empty")
	}

	plan := g.newPlan("extract_function", req.File, map[string]string{
		"name": req.Name,
	})
	fileAbs := g.project.Abs(req.File)

	if oracleEdits, ok := g.tryOracle(ctx, oracle.Request{
		Operation: "extract_function",
		File:      fileAbs,
		Location:  req.Range,
		NewName:   req.Name,
	}); ok {
		g.splitEdits(plan, oracleEdits)
		plan.Metadata.Safety = classifySelection(selection)
		return g.finalize(plan, types.StrategyOracle)
	}

	summary, err := plugin.Parse(ctx, req.File, content)
	if err != nil {
		return nil, err
	}

	call, definition := functionTemplates(plugin.Name(), req.Name, selection)

	lines := strings.Split(string(content), "\n")
	insertLine := len(lines) - 1
	if sym, ok := summary.SymbolAt(req.Range.StartLine, req.Range.StartCol); ok {
		insertLine = sym.Location.EndLine + 1
	}
	insertLoc := insertAt(insertLine)
	if insertLine >= len(lines) {
		// The enclosing symbol ends the file without a trailing newline;
		// append at the end of the last line instead.
		last := len(lines) - 1
		end := len(lines[last])
		insertLoc = types.EditLocation{
			StartLine: last, StartCol: end,
			EndLine: last, EndCol: end,
		}
	}

	plan.Edits = append(plan.Edits,
		types.TextEdit{
			FilePath:     fileAbs,
			Location:     req.Range,
			OriginalText: selection,
			NewText:      call,
			Description:  fmt.Sprintf("replace selection with call to %s", req.Name),
		},
		types.TextEdit{
			FilePath:     fileAbs,
			Location:     insertLoc,
			OriginalText: "",
			NewText:      definition,
			Priority:     1,
			Description:  fmt.Sprintf("define %s", req.Name),
		},
	)
	plan.Metadata.Safety = classifySelection(selection)
	return g.finalize(plan, types.StrategyNative)
}

// ExtractVariableRequest lifts a selected expression into a named variable
// declared just above the selection's line.
type ExtractVariableRequest struct {
	File  string
	Range types.EditLocation
	Name  string
}

func (g *Generator) ExtractVariable(ctx context.Context, req ExtractVariableRequest) (*types.EditPlan, error) {
	if req.Name == "" {
		return nil, types.NewInvalidRequest("extract variable requires a name")
	}
	if req.Range.StartLine != req.Range.EndLine {
		return nil, types.NewInvalidRequest("extract variable needs a single-line expression")
	}
	plugin, err := g.pluginFor(req.File)
	if err != nil {
		return nil, err
	}
	content, _, err := g.project.ReadFile(req.File)
	if err != nil {
		return nil, err
	}
	expr, err := types.ExtractRange(content, req.Range)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(expr) == "" {
		return nil, types.NewInvalidRequest("selection is empty")
	}

	plan := g.newPlan("extract_variable", req.File, map[string]string{
		"name": req.Name,
	})
	fileAbs := g.project.Abs(req.File)

	if oracleEdits, ok := g.tryOracle(ctx, oracle.Request{
		Operation: "extract_variable",
		File:      fileAbs,
		Location:  req.Range,
		NewName:   req.Name,
	}); ok {
		g.splitEdits(plan, oracleEdits)
		plan.Metadata.Safety = types.SafetySafe
		return g.finalize(plan, types.StrategyOracle)
	}

	indent := lineIndent(content, req.Range.StartLine)
	decl := variableTemplate(plugin.Name(), req.Name, expr)

	plan.Edits = append(plan.Edits,
		types.TextEdit{
			FilePath:     fileAbs,
			Location:     insertAt(req.Range.StartLine),
			OriginalText: "",
			NewText:      indent + decl + "\n",
			Priority:     1,
			Description:  fmt.Sprintf("declare %s", req.Name),
		},
		types.TextEdit{
			FilePath:     fileAbs,
			Location:     req.Range,
			OriginalText: expr,
			NewText:      req.Name,
			Description:  "replace expression with variable",
		},
	)
	plan.Metadata.Safety = types.SafetySafe
	return g.finalize(plan, types.StrategyNative)
}

// insertAt is a zero-width location at the start of line.
func insertAt(line int) types.EditLocation {
	return types.EditLocation{StartLine: line, StartCol: 0, EndLine: line, EndCol: 0}
}

func lineIndent(content []byte, line int) string {
	lines := strings.Split(string(content), "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	text := lines[line]
	return text[:len(text)-len(strings.TrimLeft(text, " \t"))]
}

// classifySelection grades an extraction: selections with early returns
// change control flow when lifted.
func classifySelection(selection string) types.Safety {
	if strings.Contains(selection, "return") {
		return types.SafetyExperimental
	}
	return types.SafetyRequiresReview
}

// functionTemplates renders the call site and the new definition in the
// file's language.
func functionTemplates(language, name, body string) (call, definition string) {
	switch language {
	case "python":
		return name + "()", fmt.Sprintf("\n\ndef %s():\n%s\n", name, reindent(body, "    "))
	case "javascript":
		return name + "();", fmt.Sprintf("\n\nfunction %s() {\n%s\n}\n", name, reindent(body, "  "))
	default:
		return name + "()", fmt.Sprintf("\n\nfunc %s() {\n%s\n}\n", name, reindent(body, "\t"))
	}
}

func variableTemplate(language, name, expr string) string {
	switch language {
	case "python":
		return fmt.Sprintf("%s = %s", name, expr)
	case "javascript":
		return fmt.Sprintf("const %s = %s;", name, expr)
	default:
		return fmt.Sprintf("%s := %s", name, expr)
	}
}

// reindent strips the selection's common leading whitespace and applies the
// target indent to every non-empty line.
func reindent(body, indent string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || lead < common {
			common = lead
		}
	}
	if common < 0 {
		common = 0
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = indent + line[common:]
	}
	return strings.Join(lines, "\n")
}
