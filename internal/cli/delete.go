package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
)

// NewDeleteCommand creates the delete-<kind> command.
func NewDeleteCommand(rootOpts *RootOptions, kf kindFlags) *cobra.Command {
	noun := kf.kind.Noun()
	long := fmt.Sprintf(`Delete the %s selected by --%s or --id.

The remaining items of its module close the gap.`, noun, kf.name)
	if kf.kind == entity.KindModule {
		long = `Delete the module selected by --title or --id.

Every item inside the module is deleted with it, including the backing
files of file items. Later modules close the gap.`
	}

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("delete-%s <cartridge-dir>", noun),
		Short:         fmt.Sprintf("Delete a %s", noun),
		Long:          long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selector(cmd, kf)
			if err != nil {
				return badInput(rootOpts.formatter(cmd), err)
			}
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				r, err := e.Delete(ctx, kf.kind, sel)
				return []engine.Report{r}, err
			})
		},
	}

	addSelectorFlags(cmd, kf)
	return cmd
}
