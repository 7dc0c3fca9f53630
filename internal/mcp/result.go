package mcp

import (
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/reshape/pkg/types"
)

// PlanSummary is the structured output of every planning tool. The full
// plan stays server-side under PlanID until apply_plan or inspect_plan asks
// for it.
type PlanSummary struct {
	PlanID            string   `json:"plan_id"`
	Intent            string   `json:"intent"`
	SourceFile        string   `json:"source_file"`
	Strategy          string   `json:"strategy"`
	Safety            string   `json:"safety"`
	ComplexityScore   int      `json:"complexity_score"`
	ImpactAreas       []string `json:"impact_areas"`
	EditCount         int      `json:"edit_count"`
	DependencyUpdates int      `json:"dependency_updates"`
	FileOperations    int      `json:"file_operations"`
	Files             []string `json:"files"`
}

func summarize(id string, p *types.EditPlan) *PlanSummary {
	areas := make([]string, 0, len(p.Metadata.ImpactAreas))
	for _, a := range p.Metadata.ImpactAreas {
		areas = append(areas, string(a))
	}
	return &PlanSummary{
		PlanID:            id,
		Intent:            p.Metadata.IntentName,
		SourceFile:        p.SourceFile,
		Strategy:          string(p.Metadata.Strategy),
		Safety:            string(p.Metadata.Safety),
		ComplexityScore:   p.Metadata.ComplexityScore,
		ImpactAreas:       areas,
		EditCount:         len(p.Edits),
		DependencyUpdates: len(p.DependencyUpdates),
		FileOperations:    len(p.FileOps),
		Files:             p.Files(),
	}
}

// textResult marshals v to JSON and wraps it in a CallToolResult with a
// single TextContent block.
func textResult(v any) *mcpsdk.CallToolResult {
	b, _ := json.MarshalIndent(v, "", "  ")
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a CallToolResult that signals an error.
func errResult(err error) *mcpsdk.CallToolResult {
	r := &mcpsdk.CallToolResult{}
	r.SetError(err)
	return r
}
