package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/cartridge"
	"github.com/roach88/cartridge/internal/engine"
)

// VerifyResult is the JSON payload of verify.
type VerifyResult struct {
	Valid      bool               `json:"valid"`
	Drift      []cartridge.Drift  `json:"drift"`
	Violations []engine.Violation `json:"violations"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <cartridge-dir>",
		Short: "Check a package for drift and broken ordering",
		Long: `Check that the package on disk matches what would be regenerated from
its content, and that module positions and memberships are consistent.

Exits with status 1 when any problem is found. Nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			p, err := rootOpts.open(cmd, f, args[0])
			if err != nil {
				return err
			}
			defer p.Close()

			drift, err := p.Diff(p.Baseline)
			if err != nil {
				return f.Fail(ErrCodeGeneric, "verify failed", err)
			}
			violations, err := p.Engine(rootOpts.engineOptions()...).Verify(commandContext(cmd))
			if err != nil {
				return f.Fail(ErrCodeGeneric, "verify failed", err)
			}

			result := VerifyResult{
				Valid:      len(drift) == 0 && len(violations) == 0,
				Drift:      drift,
				Violations: violations,
			}
			if result.Valid {
				if f.Format == "json" {
					return f.Success(result)
				}
				fmt.Fprintf(f.Writer, "✓ %s is consistent\n", args[0])
				return nil
			}

			msg := fmt.Sprintf("%d drifted file(s), %d violation(s)", len(drift), len(violations))
			if f.Format == "json" {
				_ = f.Error(ErrCodeDrift, msg, result)
			} else {
				fmt.Fprintf(f.Writer, "✗ %s: %s\n", args[0], msg)
				for _, d := range drift {
					fmt.Fprintf(f.Writer, "  %-8s %s\n", d.Status, d.Path)
				}
				for _, v := range violations {
					fmt.Fprintf(f.Writer, "  %s\n", v)
				}
			}
			return NewExitError(ExitFailure, msg)
		},
	}
}
