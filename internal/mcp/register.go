package mcp

import mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

// RegisterAllTools wires every reshape tool into the MCP server.
func RegisterAllTools(s *mcpsdk.Server, state *Server) {
	registerApplyTools(s, state)
	registerPlanTools(s, state)
	registerCapabilityTools(s, state)
}
