// Package cli implements the reshape command tree. Planning commands print
// an edit plan as JSON and never write source files; only `reshape apply`
// mutates the tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mamaar/reshape/internal/version"
	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/lang/golang"
	"github.com/mamaar/reshape/pkg/lang/javascript"
	"github.com/mamaar/reshape/pkg/lang/python"
	"github.com/mamaar/reshape/pkg/plan"
	"github.com/mamaar/reshape/pkg/project"
)

var (
	projectFlag string
	debugFlag   bool
)

// NewRootCommand builds the reshape command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "reshape",
		Short:         "Plan and apply multi-language refactorings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&projectFlag, "project", "p", ".", "project root directory")
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	root.AddCommand(
		newPlanCommand(),
		newApplyCommand(),
		newCapabilitiesCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if debugFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRegistry(logger *slog.Logger) *lang.Registry {
	return lang.NewRegistry(
		golang.New(logger),
		python.New(logger),
		javascript.New(logger),
	)
}

// openProject opens the project named by --project.
func openProject(logger *slog.Logger) (*project.Project, error) {
	return project.Open(projectFlag, newRegistry(logger), logger)
}

// newGenerator opens the project and builds a plan generator for it. The
// CLI runs without a code-intelligence oracle; every plan uses the native
// strategy.
func newGenerator(logger *slog.Logger) (*plan.Generator, error) {
	p, err := openProject(logger)
	if err != nil {
		return nil, err
	}
	return plan.NewGenerator(p, nil, logger), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reshape version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reshape %s\n", version.Version)
		},
	}
}
