package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
)

// NewUpdateCommand creates the update-<kind> command.
func NewUpdateCommand(rootOpts *RootOptions, kf kindFlags) *cobra.Command {
	noun := kf.kind.Noun()
	rename := "new-" + kf.name

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("update-%s <cartridge-dir>", noun),
		Short: fmt.Sprintf("Update fields of a %s", noun),
		Long: fmt.Sprintf(`Update the %[1]s selected by --%[2]s or --id.

Only the flags given are changed. Updating a field to its current value
is a no-op and leaves the package untouched.

Example:
  cartridge update-%[1]s ./bio101 --%[2]s "..." --%[3]s "..."`, noun, kf.name, rename),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			sel, err := selector(cmd, kf)
			if err != nil {
				return badInput(f, err)
			}
			body, err := readBody(cmd, kf)
			if err != nil {
				return badInput(f, err)
			}
			patch := entity.Patch{
				Title:     optString(cmd, rename),
				Body:      body,
				Published: optBool(cmd, "published"),
				Points:    optInt(cmd, "points"),
				Position:  optInt(cmd, "position"),
			}
			if patch.Empty() {
				return badInput(f, fmt.Errorf("nothing to update"))
			}
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				r, err := e.Update(ctx, kf.kind, sel, patch)
				return []engine.Report{r}, err
			})
		},
	}

	addSelectorFlags(cmd, kf)
	cmd.Flags().String(rename, "", fmt.Sprintf("new %s", kf.name))
	addBodyFlag(cmd, kf)
	cmd.Flags().Int("position", 0, "new 1-based position inside the module")
	if kf.points {
		cmd.Flags().Int("points", 0, "points possible")
	}
	if kf.published {
		cmd.Flags().Bool("published", true, fmt.Sprintf("publish the %s", noun))
	}
	return cmd
}

// NewRenameModuleCommand creates the rename-module command.
func NewRenameModuleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename-module <cartridge-dir>",
		Short: "Rename a module",
		Long: `Rename the module selected by --title or --id.

Example:
  cartridge rename-module ./bio101 --title "Week 1" --new-title "Week One"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			sel, err := selector(cmd, moduleFlags)
			if err != nil {
				return badInput(f, err)
			}
			newTitle, _ := cmd.Flags().GetString("new-title")
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				r, err := e.Rename(ctx, sel, newTitle)
				return []engine.Report{r}, err
			})
		},
	}

	addSelectorFlags(cmd, moduleFlags)
	cmd.Flags().String("new-title", "", "new module title (required)")
	_ = cmd.MarkFlagRequired("new-title")
	return cmd
}
