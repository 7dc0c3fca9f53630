// Command reshape-mcp serves the refactoring engine over the Model Context
// Protocol on stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	internalmcp "github.com/mamaar/reshape/internal/mcp"
	"github.com/mamaar/reshape/internal/version"
)

func main() {
	var (
		projectFlag = flag.String("project", "", "project root to open at startup (tools can open one later)")
		debugFlag   = flag.Bool("debug", false, "enable debug logging")
		versionFlag = flag.Bool("version", false, "show version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("reshape-mcp %s\n", version.Version)
		return
	}

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	// stdout carries the protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	state := internalmcp.NewServer(nil, logger)
	defer state.Close()

	if *projectFlag != "" {
		if err := state.OpenProject(*projectFlag); err != nil {
			logger.Error("failed to open project", "path", *projectFlag, "err", err)
			os.Exit(1)
		}
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "reshape",
		Version: version.Version,
	}, nil)
	internalmcp.RegisterAllTools(server, state)

	if err := server.Run(context.Background(), &mcpsdk.StdioTransport{}); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
