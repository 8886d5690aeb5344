package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/engine"
)

// NewDisplayCommand creates the display-<kind> command.
func NewDisplayCommand(rootOpts *RootOptions, kf kindFlags) *cobra.Command {
	noun := kf.kind.Noun()

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("display-%s <cartridge-dir>", noun),
		Short:         fmt.Sprintf("Show one %s", noun),
		Long:          fmt.Sprintf("Show every field of the %s selected by --%s or --id.", noun, kf.name),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			sel, err := selector(cmd, kf)
			if err != nil {
				return badInput(f, err)
			}

			p, err := rootOpts.open(cmd, f, args[0])
			if err != nil {
				return err
			}
			defer p.Close()

			d, err := p.Engine(rootOpts.engineOptions()...).Display(commandContext(cmd), kf.kind, sel)
			if err != nil {
				return f.Fail(ErrCodeGeneric, cmd.Name()+" failed", err)
			}
			if f.Format == "json" {
				return f.Success(d)
			}
			writeDetail(f.Writer, d)
			return nil
		},
	}

	addSelectorFlags(cmd, kf)
	return cmd
}

func writeDetail(w io.Writer, d engine.Detail) {
	fmt.Fprintf(w, "%s: %s\n", d.Kind, d.Title)
	fmt.Fprintf(w, "  ID:        %s\n", d.ID)
	fmt.Fprintf(w, "  Published: %t\n", d.Published)
	if d.Module != "" {
		fmt.Fprintf(w, "  Module:    %s (%s)\n", d.ModuleTitle, d.Module)
		fmt.Fprintf(w, "  Position:  %d\n", d.Position)
	} else {
		fmt.Fprintln(w, "  Module:    (standalone)")
	}
	if d.Points != nil {
		fmt.Fprintf(w, "  Points:    %d\n", *d.Points)
	}
	if d.Href != "" {
		fmt.Fprintf(w, "  Href:      %s\n", d.Href)
	}
	if d.Body != "" {
		fmt.Fprintf(w, "\n%s\n", d.Body)
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <cartridge-dir>",
		Short: "List modules, their items and standalone items",
		Long: `List every module in position order with its items, followed by the
items that belong to no module.`,
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

			listing, err := p.Engine(rootOpts.engineOptions()...).List(commandContext(cmd))
			if err != nil {
				return f.Fail(ErrCodeGeneric, "list failed", err)
			}
			if f.Format == "json" {
				return f.Success(listing)
			}
			writeListing(f.Writer, p.Course.Title, listing)
			return nil
		},
	}
}

func writeListing(w io.Writer, course string, l engine.Listing) {
	fmt.Fprintf(w, "Course: %s\n", course)
	if len(l.Modules) == 0 && len(l.Standalone) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for _, m := range l.Modules {
		fmt.Fprintf(w, "%d. %s%s [%s]\n", m.Position, m.Title, draft(m.Published), m.ID)
		for _, it := range m.Items {
			fmt.Fprintf(w, "   %d. %s: %s%s [%s]\n", it.Position, it.Kind, it.Title, draft(it.Published), it.ID)
		}
	}
	if len(l.Standalone) > 0 {
		fmt.Fprintln(w, "Standalone:")
		for _, it := range l.Standalone {
			fmt.Fprintf(w, "   - %s: %s%s [%s]\n", it.Kind, it.Title, draft(it.Published), it.ID)
		}
	}
}

func draft(published bool) string {
	if published {
		return ""
	}
	return " (unpublished)"
}
