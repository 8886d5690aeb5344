package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/cartridge"
)

// NewPackageCommand creates the package command.
func NewPackageCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "package <cartridge-dir>",
		Short: "Zip a package into an .imscc archive",
		Long: `Zip the package directory into an .imscc archive ready for import.

The package is loaded first, so a directory that is not a valid package
is rejected. Paths matching package.exclude in the configuration are
skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			dir := args[0]
			p, err := rootOpts.open(cmd, f, dir)
			if err != nil {
				return err
			}
			p.Close()

			out := output
			if out == "" {
				out = strings.TrimRight(filepath.Clean(dir), string(filepath.Separator)) + ".imscc"
			}
			var exclude []string
			if rootOpts.Config != nil {
				exclude = rootOpts.Config.Package.Exclude
			}

			res, err := cartridge.Archive(dir, out, exclude)
			if err != nil {
				return f.Fail(ErrCodeWriteFailed, "package failed", err)
			}
			if f.Format == "json" {
				return f.Success(res)
			}
			fmt.Fprintf(f.Writer, "✓ Wrote %s (%d files)\n", res.Path, len(res.Files))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default: <cartridge-dir>.imscc)")
	return cmd
}
