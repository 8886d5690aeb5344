package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
)

// NewAddModuleCommand creates the add-module command.
func NewAddModuleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-module <cartridge-dir>",
		Short: "Add a module",
		Long: `Add a module to the course.

Without --position the module is appended after the existing modules.
Positions beyond the end are clamped to the end.

Example:
  cartridge add-module ./bio101 --title "Week 1"
  cartridge add-module ./bio101 --title "Orientation" --position 1 --published=false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			params := engine.AddParams{
				Kind:      entity.KindModule,
				Title:     title,
				Published: optBool(cmd, "published"),
				Position:  optInt(cmd, "position"),
			}
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				r, err := e.Add(ctx, params)
				return []engine.Report{r}, err
			})
		},
	}

	cmd.Flags().String("title", "", "module title (required)")
	cmd.Flags().Int("position", 0, "1-based position among modules (default: append)")
	cmd.Flags().Bool("published", true, "publish the module")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// NewAddCommand creates the add-<kind> command of a content kind.
func NewAddCommand(rootOpts *RootOptions, kf kindFlags) *cobra.Command {
	noun := kf.kind.Noun()

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("add-%s <cartridge-dir>", noun),
		Short: fmt.Sprintf("Add a %s to a module or as a standalone item", noun),
		Long: fmt.Sprintf(`Add a %[1]s.

With --module the %[1]s is placed in that module (appended, or inserted at
--position, pushing later items down). Without --module it is standalone.

Example:
  cartridge add-%[1]s ./bio101 --module "Week 1" --%[2]s "..."`, noun, kf.name),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			body, err := readBody(cmd, kf)
			if err != nil {
				return badInput(f, err)
			}

			title, _ := cmd.Flags().GetString(kf.name)
			module, _ := cmd.Flags().GetString("module")
			params := engine.AddParams{
				Kind:      kf.kind,
				Title:     title,
				Published: optBool(cmd, "published"),
				Points:    optInt(cmd, "points"),
				Module:    moduleSelector(module),
				Position:  optInt(cmd, "position"),
			}
			if body != nil {
				params.Body = *body
			}
			return rootOpts.mutate(cmd, args[0], func(ctx context.Context, e *engine.Engine) ([]engine.Report, error) {
				r, err := e.Add(ctx, params)
				return []engine.Report{r}, err
			})
		},
	}

	cmd.Flags().String(kf.name, "", fmt.Sprintf("%s %s (required)", noun, kf.name))
	_ = cmd.MarkFlagRequired(kf.name)
	addBodyFlag(cmd, kf)
	cmd.Flags().String("module", "", "title of the module to add to (default: standalone)")
	cmd.Flags().Int("position", 0, "1-based position inside the module (default: append)")
	if kf.points {
		cmd.Flags().Int("points", 0, "points possible (default from configuration)")
	}
	if kf.published {
		cmd.Flags().Bool("published", true, fmt.Sprintf("publish the %s", noun))
	}
	return cmd
}
