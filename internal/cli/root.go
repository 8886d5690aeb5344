package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/config"
	"github.com/roach88/cartridge/internal/entity"
	"github.com/roach88/cartridge/internal/ids"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs.
	Config *config.Config

	// Generator and Now override identifier and clock sources (for testing).
	// If nil, random identifiers and the wall clock are used.
	Generator ids.Generator
	Now       func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cartridge CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, so
// tests can inject generators.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cartridge",
		Short: "Build and edit Common Cartridge course packages",
		Long: `Build and edit IMS/Canvas Common Cartridge course packages.

A package is a directory holding a course manifest, one ordering document
per module and the content of every wiki page, assignment, quiz, discussion
and file. Every command loads the package, applies one change and
regenerates all derived documents, so the manifest and module documents
never drift from the content.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, used, err := config.Load(config.LoadOptions{ConfigFilePath: opts.ConfigPath})
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: failed to load configuration: %v\n", err)
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			opts.Config = cfg

			if !cmd.Flags().Changed("format") {
				opts.Format = cfg.Output.Format
			}
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			if used != "" {
				slog.Debug("configuration loaded", "path", used)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to cartridge.yaml (default: ./cartridge.yaml, then the user config dir)")

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewAddModuleCommand(opts))
	for _, k := range contentKinds {
		cmd.AddCommand(NewAddCommand(opts, k))
	}
	for _, k := range allKinds {
		cmd.AddCommand(NewUpdateCommand(opts, k))
		cmd.AddCommand(NewDeleteCommand(opts, k))
	}
	for _, k := range contentKinds {
		cmd.AddCommand(NewCopyCommand(opts, k))
		cmd.AddCommand(NewMoveCommand(opts, k))
		cmd.AddCommand(NewDisplayCommand(opts, k))
	}
	cmd.AddCommand(NewRenameModuleCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewPackageCommand(opts))

	return cmd
}

// setupLogging routes slog through a charmbracelet/log handler on w.
func setupLogging(w io.Writer, verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:  level,
		Prefix: "cartridge",
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// kindFlags describes the per-kind flag names of the item commands.
type kindFlags struct {
	kind entity.Kind

	// name is the selecting/naming flag: "title", or "filename" for files.
	name string

	// body is the content flag; "source" reads the content from a path.
	body string

	points    bool
	published bool
}

var (
	moduleFlags = kindFlags{kind: entity.KindModule, name: "title", published: true}

	contentKinds = []kindFlags{
		{kind: entity.KindWikiPage, name: "title", body: "content", published: true},
		{kind: entity.KindAssignment, name: "title", body: "description", points: true, published: true},
		{kind: entity.KindQuiz, name: "title", body: "description", points: true, published: true},
		{kind: entity.KindDiscussion, name: "title", body: "content", published: true},
		{kind: entity.KindFile, name: "filename", body: "source"},
	}

	allKinds = append(append([]kindFlags(nil), contentKinds...), moduleFlags)
)
