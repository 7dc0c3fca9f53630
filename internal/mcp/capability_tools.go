package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type CapabilitiesInput struct{}

func registerCapabilityTools(s *mcpsdk.Server, state *Server) {
	mcpsdk.AddTool(s, &mcpsdk.Tool{
		Name:        "capabilities",
		Description: "List the registered language plugins with their file extensions and supported capabilities.",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, in CapabilitiesInput) (*mcpsdk.CallToolResult, any, error) {
		p, err := state.Project()
		if err != nil {
			return errResult(err), nil, nil
		}
		return textResult(p.Registry().Descriptors()), nil, nil
	})
}
