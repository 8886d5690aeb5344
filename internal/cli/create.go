package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/cartridge"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Title string
	Code  string
}

// CreateResult is the JSON payload of create.
type CreateResult struct {
	Dir      string   `json:"dir"`
	CourseID string   `json:"course_id"`
	Title    string   `json:"title"`
	Code     string   `json:"code,omitempty"`
	Written  []string `json:"written"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <cartridge-dir>",
		Short: "Create an empty course package",
		Long: `Create an empty course package in a new or empty directory.

The package gets course settings, an empty manifest and the module index.

Example:
  cartridge create ./bio101 --title "Biology 101" --code BIO101`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "course title (required)")
	cmd.Flags().StringVar(&opts.Code, "code", "", "course code")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func runCreate(opts *CreateOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	p, err := cartridge.Create(commandContext(cmd), dir,
		cartridge.CreateParams{Title: opts.Title, Code: opts.Code}, opts.packageOptions())
	if err != nil {
		return f.Fail(ErrCodeOpenFailed, "failed to create package", err)
	}
	defer p.Close()

	plan, err := p.Rebuild(commandContext(cmd))
	if err != nil {
		return f.Fail(ErrCodeGeneric, "failed to create package", err)
	}

	result := CreateResult{
		Dir:      dir,
		CourseID: p.Course.ID,
		Title:    p.Course.Title,
		Code:     p.Course.Code,
		Written:  plan.Paths(),
	}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Created course %q (%s) in %s\n", result.Title, result.CourseID, dir)
	return nil
}
