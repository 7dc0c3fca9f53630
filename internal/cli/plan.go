package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mamaar/reshape/pkg/plan"
	"github.com/mamaar/reshape/pkg/types"
)

var (
	scopeFlag  string
	outFlag    string
	symbolFlag string
	lineFlag   int
	colFlag    int
	dirFlag    bool
)

func newPlanCommand() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate an edit plan without writing any file",
	}
	planCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "", "scope preset: code, standard, comments, or everything")
	planCmd.PersistentFlags().StringVarP(&outFlag, "out", "o", "", "write the plan to a file instead of stdout")

	planCmd.AddCommand(
		newPlanRenameCommand(),
		newPlanExtractFunctionCommand(),
		newPlanExtractVariableCommand(),
		newPlanExtractModuleCommand(),
		newPlanInlineVariableCommand(),
		newPlanInlineFunctionCommand(),
		newPlanMoveCommand(),
		newPlanDeleteCommand(),
		newPlanReorderCommand(),
	)
	return planCmd
}

func resolveScope() (*types.Scope, error) {
	if scopeFlag == "" {
		return nil, nil
	}
	s, ok := types.ScopePreset(scopeFlag)
	if !ok {
		return nil, types.NewInvalidRequest("unknown scope preset %q", scopeFlag)
	}
	return &s, nil
}

// emitPlan writes the plan as indented JSON to --out or stdout.
func emitPlan(cmd *cobra.Command, p *types.EditPlan) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	data = append(data, '\n')
	if outFlag != "" {
		return os.WriteFile(outFlag, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func symbolTarget(path string) types.Target {
	switch {
	case symbolFlag != "" || lineFlag > 0 || colFlag > 0:
		return types.Target{
			Kind:   types.TargetSymbolAtPosition,
			Path:   path,
			Symbol: symbolFlag,
			Line:   lineFlag,
			Col:    colFlag,
		}
	case dirFlag:
		return types.Target{Kind: types.TargetDirectory, Path: path}
	default:
		return types.Target{Kind: types.TargetFile, Path: path}
	}
}

func newPlanRenameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Plan renaming a symbol, file, or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			g, err := newGenerator(logger)
			if err != nil {
				return err
			}
			scope, err := resolveScope()
			if err != nil {
				return err
			}
			p, err := g.Rename(cmd.Context(), plan.RenameRequest{
				Target:  symbolTarget(args[0]),
				NewName: args[1],
				Scope:   scope,
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	cmd.Flags().StringVar(&symbolFlag, "symbol", "", "symbol to rename; omit to rename the path itself")
	cmd.Flags().IntVar(&lineFlag, "line", 0, "0-based line of the symbol")
	cmd.Flags().IntVar(&colFlag, "col", 0, "0-based column of the symbol")
	cmd.Flags().BoolVar(&dirFlag, "dir", false, "treat path as a directory")
	return cmd
}

func newPlanExtractFunctionCommand() *cobra.Command {
	var name string
	var startLine, startCol, endLine, endCol int
	cmd := &cobra.Command{
		Use:   "extract-function <file>",
		Short: "Plan extracting a selected range into a new function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			p, err := g.ExtractFunction(cmd.Context(), plan.ExtractFunctionRequest{
				File: args[0],
				Range: types.EditLocation{
					StartLine: startLine, StartCol: startCol,
					EndLine: endLine, EndCol: endCol,
				},
				Name: name,
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name for the extracted function")
	cmd.Flags().IntVar(&startLine, "start-line", 0, "0-based first line of the selection")
	cmd.Flags().IntVar(&startCol, "start-col", 0, "0-based start column")
	cmd.Flags().IntVar(&endLine, "end-line", 0, "0-based end line")
	cmd.Flags().IntVar(&endCol, "end-col", 0, "0-based end column, exclusive")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPlanExtractVariableCommand() *cobra.Command {
	var name string
	var line, startCol, endCol int
	cmd := &cobra.Command{
		Use:   "extract-variable <file>",
		Short: "Plan extracting a single-line expression into a variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			p, err := g.ExtractVariable(cmd.Context(), plan.ExtractVariableRequest{
				File: args[0],
				Range: types.EditLocation{
					StartLine: line, StartCol: startCol,
					EndLine: line, EndCol: endCol,
				},
				Name: name,
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name for the extracted variable")
	cmd.Flags().IntVar(&line, "line", 0, "0-based line of the expression")
	cmd.Flags().IntVar(&startCol, "start-col", 0, "0-based start column")
	cmd.Flags().IntVar(&endCol, "end-col", 0, "0-based end column, exclusive")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPlanExtractModuleCommand() *cobra.Command {
	var language, pkgName, parentFile string
	cmd := &cobra.Command{
		Use:   "extract-module <module> <dest-dir>",
		Short: "Plan extracting a module into a standalone package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			scope, err := resolveScope()
			if err != nil {
				return err
			}
			p, err := g.ExtractModule(cmd.Context(), plan.ExtractModuleRequest{
				Language:    language,
				ModuleName:  args[0],
				PackageName: pkgName,
				DestDir:     args[1],
				ParentFile:  parentFile,
				Scope:       scope,
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	cmd.Flags().StringVar(&language, "language", "go", "language plugin name")
	cmd.Flags().StringVar(&pkgName, "package-name", "", "name for the new package; defaults to the module name")
	cmd.Flags().StringVar(&parentFile, "parent-file", "", "file whose declaration of the module should be removed")
	return cmd
}

func newPlanInlineVariableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inline-variable <file> <name>",
		Short: "Plan replacing a variable's uses with its initializer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			p, err := g.InlineVariable(cmd.Context(), plan.InlineVariableRequest{
				File: args[0],
				Name: args[1],
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	return cmd
}

func newPlanInlineFunctionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inline-function <file> <name>",
		Short: "Plan replacing calls to a single-expression function with its body",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			p, err := g.InlineFunction(cmd.Context(), plan.InlineFunctionRequest{
				File: args[0],
				Name: args[1],
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	return cmd
}

func newPlanMoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <path> <dest>",
		Short: "Plan moving a file or directory and updating references",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			scope, err := resolveScope()
			if err != nil {
				return err
			}
			kind := types.TargetFile
			if dirFlag {
				kind = types.TargetDirectory
			}
			p, err := g.Move(cmd.Context(), plan.MoveRequest{
				Target: types.Target{Kind: kind, Path: args[0]},
				Dest:   args[1],
				Scope:  scope,
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	cmd.Flags().BoolVar(&dirFlag, "dir", false, "treat path as a directory")
	return cmd
}

func newPlanDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Plan deleting a file, reporting remaining references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			scope, err := resolveScope()
			if err != nil {
				return err
			}
			p, err := g.Delete(cmd.Context(), plan.DeleteRequest{
				Target: types.Target{Kind: types.TargetFile, Path: args[0]},
				Scope:  scope,
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	return cmd
}

func newPlanReorderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <file> <name>...",
		Short: "Plan rearranging a file's top-level declarations",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := newGenerator(newLogger())
			if err != nil {
				return err
			}
			p, err := g.Reorder(cmd.Context(), plan.ReorderRequest{
				File:  args[0],
				Order: args[1:],
			})
			if err != nil {
				return err
			}
			return emitPlan(cmd, p)
		},
	}
	return cmd
}
