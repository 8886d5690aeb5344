package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/engine"
)

// NewCopyCommand creates the copy-<kind> command.
func NewCopyCommand(rootOpts *RootOptions, kf kindFlags) *cobra.Command {
	noun := kf.kind.Noun()

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("copy-%s <cartridge-dir>", noun),
		Short: fmt.Sprintf("Copy a %s", noun),
		Long: fmt.Sprintf(`Copy the %[1]s selected by --%[2]s or --id under a fresh identifier.

The copy is appended to --target-module, or added standalone when no
target is given. The original is left untouched.

Example:
  cartridge copy-%[1]s ./bio101 --%[2]s "..." --target-module "Week 2"`, noun, kf.name),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selector(cmd, kf)
			if err != nil {
				return badInput(rootOpts.formatter(cmd), err)
			}
			target, _ := cmd.Flags().GetString("target-module")
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				r, err := e.Copy(ctx, kf.kind, sel, moduleSelector(target))
				return []engine.Report{r}, err
			})
		},
	}

	addSelectorFlags(cmd, kf)
	cmd.Flags().String("target-module", "", "title of the module to copy into (default: standalone)")
	return cmd
}

// NewMoveCommand creates the move-<kind> command.
func NewMoveCommand(rootOpts *RootOptions, kf kindFlags) *cobra.Command {
	noun := kf.kind.Noun()

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("move-%s <cartridge-dir>", noun),
		Short: fmt.Sprintf("Move a %s to another module", noun),
		Long: fmt.Sprintf(`Move the %[1]s selected by --%[2]s or --id into --target-module.

The %[1]s keeps its identifier. Its old module closes the gap and the
target module makes room at --position (default: append). Without
--target-module the %[1]s becomes a standalone item.

Example:
  cartridge move-%[1]s ./bio101 --%[2]s "..." --target-module "Week 2" --position 1`, noun, kf.name),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selector(cmd, kf)
			if err != nil {
				return badInput(rootOpts.formatter(cmd), err)
			}
			target, _ := cmd.Flags().GetString("target-module")
			dest := moduleSelector(target)
			position := optInt(cmd, "position")
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				r, err := e.Move(ctx, kf.kind, sel, dest, position)
				return []engine.Report{r}, err
			})
		},
	}

	addSelectorFlags(cmd, kf)
	cmd.Flags().String("target-module", "", "title of the module to move into (default: standalone)")
	cmd.Flags().Int("position", 0, "1-based position inside the target module (default: append)")
	return cmd
}
