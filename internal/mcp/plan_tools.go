package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/reshape/pkg/plan"
	"github.com/mamaar/reshape/pkg/types"
)

// scopeFrom resolves an optional scope preset name from tool input.
func scopeFrom(preset string) (*types.Scope, error) {
	if preset == "" {
		return nil, nil
	}
	s, ok := types.ScopePreset(preset)
	if !ok {
		return nil, types.NewInvalidRequest("unknown scope preset %q", preset)
	}
	return &s, nil
}

// target builds a Target from tool input: a named or positioned symbol when
// given, otherwise the file or directory itself.
func target(path, symbol string, line, col int, directory bool) types.Target {
	switch {
	case symbol != "" || line > 0 || col > 0:
		return types.Target{
			Kind:   types.TargetSymbolAtPosition,
			Path:   path,
			Symbol: symbol,
			Line:   line,
			Col:    col,
		}
	case directory:
		return types.Target{Kind: types.TargetDirectory, Path: path}
	default:
		return types.Target{Kind: types.TargetFile, Path: path}
	}
}

// planned stores the plan and wraps its summary as a tool result.
func planned(state *Server, p *types.EditPlan) (*mcpsdk.CallToolResult, any, error) {
	id := state.StorePlan(p)
	return textResult(summarize(id, p)), nil, nil
}

type RenameInput struct {
	Path        string `json:"path" jsonschema:"file or directory the target lives at, relative to the project root"`
	Symbol      string `json:"symbol,omitempty" jsonschema:"symbol to rename; omit to rename the file or directory itself"`
	Line        int    `json:"line,omitempty" jsonschema:"0-based line of the symbol, used when symbol is omitted"`
	Col         int    `json:"col,omitempty" jsonschema:"0-based column of the symbol"`
	Directory   bool   `json:"directory,omitempty" jsonschema:"treat path as a directory rename"`
	NewName     string `json:"new_name" jsonschema:"new symbol name, or new path for file/directory renames"`
	ScopePreset string `json:"scope_preset,omitempty" jsonschema:"reference update scope: code, standard, comments, or everything"`
}

type ExtractFunctionInput struct {
	File      string `json:"file" jsonschema:"source file, relative to the project root"`
	StartLine int    `json:"start_line" jsonschema:"0-based first line of the selection"`
	StartCol  int    `json:"start_col" jsonschema:"0-based start column"`
	EndLine   int    `json:"end_line" jsonschema:"0-based line the selection ends on"`
	EndCol    int    `json:"end_col" jsonschema:"0-based end column, exclusive"`
	Name      string `json:"name" jsonschema:"name for the extracted function"`
}

type ExtractVariableInput struct {
	File      string `json:"file" jsonschema:"source file, relative to the project root"`
	StartLine int    `json:"start_line" jsonschema:"0-based line of the expression"`
	StartCol  int    `json:"start_col" jsonschema:"0-based start column"`
	EndCol    int    `json:"end_col" jsonschema:"0-based end column, exclusive"`
	Name      string `json:"name" jsonschema:"name for the extracted variable"`
}

type ExtractModuleInput struct {
	Language    string `json:"language" jsonschema:"language plugin name, e.g. go"`
	Module      string `json:"module" jsonschema:"module to extract"`
	PackageName string `json:"package_name,omitempty" jsonschema:"name for the new package; defaults to the module name"`
	DestDir     string `json:"dest_dir" jsonschema:"destination directory for the new package, relative to the project root"`
	ParentFile  string `json:"parent_file,omitempty" jsonschema:"file whose declaration of the module should be removed"`
	ScopePreset string `json:"scope_preset,omitempty" jsonschema:"reference update scope"`
}

type InlineInput struct {
	File string `json:"file" jsonschema:"source file, relative to the project root"`
	Name string `json:"name" jsonschema:"variable or function to inline"`
}

type MoveInput struct {
	Path        string `json:"path" jsonschema:"file or directory to move, relative to the project root"`
	Directory   bool   `json:"directory,omitempty" jsonschema:"treat path as a directory"`
	Dest        string `json:"dest" jsonschema:"destination path, relative to the project root"`
	ScopePreset string `json:"scope_preset,omitempty" jsonschema:"reference update scope"`
}

type DeleteInput struct {
	Path        string `json:"path" jsonschema:"file to delete, relative to the project root"`
	ScopePreset string `json:"scope_preset,omitempty" jsonschema:"scope for the remaining-reference check"`
}

type ReorderInput struct {
	File  string   `json:"file" jsonschema:"source file, relative to the project root"`
	Order []string `json:"order" jsonschema:"desired top-level declaration order; must name every declaration"`
}

func registerPlanTools(s *mcpsdk.Server, state *Server) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_rename",
		Description: "Plan renaming a symbol, file, or directory, updating imports, string literal paths, doc links, and config values. Returns a plan id; nothing is written until apply_plan.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in RenameInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		scope, err := scopeFrom(in.ScopePreset)
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.Rename(ctx, plan.RenameRequest{
			Target:  target(in.Path, in.Symbol, in.Line, in.Col, in.Directory),
			NewName: in.NewName,
			Scope:   scope,
		})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_extract_function",
		Description: "Plan extracting a selected range into a new function, replacing the selection with a call. Returns a plan id.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ExtractFunctionInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.ExtractFunction(ctx, plan.ExtractFunctionRequest{
			File: in.File,
			Range: types.EditLocation{
				StartLine: in.StartLine, StartCol: in.StartCol,
				EndLine: in.EndLine, EndCol: in.EndCol,
			},
			Name: in.Name,
		})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_extract_variable",
		Description: "Plan extracting a single-line expression into a named variable declared above it. Returns a plan id.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ExtractVariableInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.ExtractVariable(ctx, plan.ExtractVariableRequest{
			File: in.File,
			Range: types.EditLocation{
				StartLine: in.StartLine, StartCol: in.StartCol,
				EndLine: in.StartLine, EndCol: in.EndCol,
			},
			Name: in.Name,
		})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_extract_module",
		Description: "Plan extracting a module into a standalone package: move its files, generate a manifest, add a path dependency to the parent manifest, and update references. Requires the language's refactoring and workspace capabilities.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ExtractModuleInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		scope, err := scopeFrom(in.ScopePreset)
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.ExtractModule(ctx, plan.ExtractModuleRequest{
			Language:    in.Language,
			ModuleName:  in.Module,
			PackageName: in.PackageName,
			DestDir:     in.DestDir,
			ParentFile:  in.ParentFile,
			Scope:       scope,
		})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_inline_variable",
		Description: "Plan replacing every use of a variable with its initializer and removing the declaration. Returns a plan id.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in InlineInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.InlineVariable(ctx, plan.InlineVariableRequest{File: in.File, Name: in.Name})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_inline_function",
		Description: "Plan replacing calls to a single-expression function with its body and removing the definition. Returns a plan id.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in InlineInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.InlineFunction(ctx, plan.InlineFunctionRequest{File: in.File, Name: in.Name})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_move",
		Description: "Plan moving a file or directory and updating every reference to its old path. Returns a plan id.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in MoveInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		scope, err := scopeFrom(in.ScopePreset)
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.Move(ctx, plan.MoveRequest{
			Target: target(in.Path, "", 0, 0, in.Directory),
			Dest:   in.Dest,
			Scope:  scope,
		})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_delete",
		Description: "Plan deleting a file. Remaining references downgrade the plan's safety instead of blocking it. Returns a plan id.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in DeleteInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		scope, err := scopeFrom(in.ScopePreset)
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.Delete(ctx, plan.DeleteRequest{
			Target: target(in.Path, "", 0, 0, false),
			Scope:  scope,
		})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "plan_reorder",
		Description: "Plan rearranging a file's top-level declarations into the given order. Returns a plan id.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ReorderInput) (*mcpsdk.CallToolResult, any, error) {
		g, err := state.Generator()
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := g.Reorder(ctx, plan.ReorderRequest{File: in.File, Order: in.Order})
		if err != nil {
			return errResult(err), nil, nil
		}
		return planned(state, p)
	})
}
