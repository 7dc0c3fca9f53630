// Package version carries the build version shared by the CLI and the MCP
// server.
package version

// Version is the current version of reshape.
const Version = "0.1.0"
