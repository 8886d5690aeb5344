package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/plan"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <cartridge-dir> <plan.cue>",
		Short: "Add modules and items from a CUE course plan",
		Long: `Add every module and item described by a CUE course plan.

The plan is validated against the plan schema before anything changes.
All additions happen in one transaction: if any fails, the package is
left untouched.

Example plan:
  modules: [{
    title: "Week 1"
    items: [{kind: "assignment", title: "A1", points: 10}]
  }]`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.Load(args[1])
			if err != nil {
				return badInput(rootOpts.formatter(cmd), err)
			}
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				return plan.Apply(ctx, e, p)
			})
		},
	}
}
