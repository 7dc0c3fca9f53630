package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/reshape/pkg/apply"
)

type OpenProjectInput struct {
	Path string `json:"path" jsonschema:"project root directory"`
}

type ApplyPlanInput struct {
	PlanID string `json:"plan_id" jsonschema:"id returned by a planning tool"`
	DryRun bool   `json:"dry_run,omitempty" jsonschema:"validate only and report the would-be file set; nothing is written"`
}

type InspectPlanInput struct {
	PlanID string `json:"plan_id" jsonschema:"id returned by a planning tool"`
}

// ApplyResult is the structured output of apply_plan.
type ApplyResult struct {
	TransactionID string   `json:"transaction_id"`
	State         string   `json:"state"`
	DryRun        bool     `json:"dry_run"`
	FilesChanged  []string `json:"files_changed"`
}

func registerApplyTools(s *mcpsdk.Server, state *Server) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "open_project",
		Description: "Open the project at a root directory. Must be called before any planning or apply tool.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in OpenProjectInput) (*mcpsdk.CallToolResult, any, error) {
		if err := state.OpenProject(in.Path); err != nil {
			return errResult(err), nil, nil
		}
		p, err := state.Project()
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(map[string]any{"root": p.Root()}), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "apply_plan",
		Description: "Execute a stored plan as one atomic transaction: every edit and file operation lands, or the tree is left untouched. With dry_run the plan is validated and the would-be file set reported.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in ApplyPlanInput) (*mcpsdk.CallToolResult, any, error) {
		ex, err := state.Executor()
		if err != nil {
			return errResult(err), nil, nil
		}
		p, err := state.PlanByID(in.PlanID)
		if err != nil {
			return errResult(err), nil, nil
		}
		res, err := ex.Apply(ctx, p, in.DryRun)
		if err != nil {
			return errResult(err), nil, nil
		}
		if !in.DryRun && res.State == apply.StateCommitted {
			state.DropPlan(in.PlanID)
		}
		return textResult(&ApplyResult{
			TransactionID: res.TransactionID,
			State:         string(res.State),
			DryRun:        res.DryRun,
			FilesChanged:  res.FilesChanged,
		}), nil, nil
	})

	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "inspect_plan",
		Description: "Return a stored plan in full: edits, dependency updates, file operations, validations, and metadata.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in InspectPlanInput) (*mcpsdk.CallToolResult, any, error) {
		p, err := state.PlanByID(in.PlanID)
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(p), nil, nil
	})
}
