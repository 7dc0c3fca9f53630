package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mamaar/reshape/pkg/apply"
	"github.com/mamaar/reshape/pkg/types"
)

func newApplyCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "apply <plan.json>",
		Short: "Execute an edit plan as one atomic transaction",
		Long: `Execute an edit plan produced by a plan command. Every edit and file
operation lands, or the tree is left untouched. With --dry-run the plan is
validated against current file contents and the would-be file set printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			p, err := openProject(logger)
			if err != nil {
				return err
			}
			plan, err := readPlan(args[0])
			if err != nil {
				return err
			}
			ex := apply.NewExecutor(p, apply.NewLockManager(), logger)
			res, err := ex.Apply(cmd.Context(), plan, dryRun)
			if err != nil {
				return err
			}
			out, encErr := json.MarshalIndent(res, "", "  ")
			if encErr != nil {
				return encErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only; write nothing")
	return cmd
}

func readPlan(path string) (*types.EditPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewResourceNotFound("plan file", path)
		}
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	var plan types.EditPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, types.NewInvalidRequest("plan file is not valid JSON: %v", err)
	}
	return &plan, nil
}

func newCapabilitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List registered language plugins and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := newRegistry(newLogger())
			out, err := json.MarshalIndent(registry.Descriptors(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
