package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cartridge/internal/cartridge"
	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
)

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) packageOptions() cartridge.Options {
	return cartridge.Options{Generator: o.Generator, Now: o.Now}
}

func (o *RootOptions) engineOptions() []engine.Option {
	if o.Config == nil {
		return nil
	}
	return []engine.Option{engine.WithDefaults(o.Config.AdapterDefaults())}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// open loads the package in dir, reporting failure through f.
func (o *RootOptions) open(cmd *cobra.Command, f *OutputFormatter, dir string) (*cartridge.Package, error) {
	f.VerboseLog("Loading package %s", dir)
	p, err := cartridge.Load(commandContext(cmd), dir, o.packageOptions())
	if err != nil {
		return nil, f.Fail(ErrCodeOpenFailed, "failed to open package", err)
	}
	return p, nil
}

// mutate runs one command against the package in dir: load, apply fn in
// one transaction, rebuild, write, report.
func (o *RootOptions) mutate(cmd *cobra.Command, dir string, fn func(ctx context.Context, e *engine.Engine) ([]engine.Report, error)) error {
	f := o.formatter(cmd)
	p, err := o.open(cmd, f, dir)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := commandContext(cmd)
	out, err := p.Mutate(ctx, func(e *engine.Engine) ([]engine.Report, error) {
		return fn(ctx, e)
	}, o.engineOptions()...)
	if err != nil {
		return f.Fail(ErrCodeWriteFailed, cmd.Name()+" failed", err)
	}

	f.VerboseLog("Wrote %d file(s), removed %d, %d unchanged",
		len(out.Write.Written), len(out.Write.Removed), out.Write.Unchanged)
	if f.Format == "json" {
		return f.Success(out)
	}
	for _, r := range out.Reports {
		writeReport(f.Writer, r)
	}
	return nil
}

// writeReport prints one operation result for humans.
func writeReport(w io.Writer, r engine.Report) {
	name := fmt.Sprintf("%s %q (%s)", r.Kind, r.Title, r.ID)
	switch r.Op {
	case engine.OpUpdate, engine.OpRename:
		if len(r.Changes) == 0 {
			fmt.Fprintf(w, "No changes to %s\n", name)
			return
		}
		fmt.Fprintf(w, "✓ Updated %s\n", name)
		for _, c := range r.Changes {
			fmt.Fprintf(w, "  %s\n", c)
		}
	case engine.OpDelete:
		fmt.Fprintf(w, "✓ Deleted %s", name)
		if n := len(r.Removed) - 1; n > 0 {
			fmt.Fprintf(w, " and %d item(s)", n)
		}
		fmt.Fprintln(w)
	default:
		verb := map[engine.Op]string{engine.OpAdd: "Added", engine.OpCopy: "Copied", engine.OpMove: "Moved"}[r.Op]
		fmt.Fprintf(w, "✓ %s %s", verb, name)
		switch {
		case r.Module != "":
			fmt.Fprintf(w, " in module %s at position %d", r.Module, r.Position)
		case r.Kind == entity.KindModule:
			fmt.Fprintf(w, " at position %d", r.Position)
		default:
			fmt.Fprint(w, " as standalone item")
		}
		if r.Clamped {
			fmt.Fprint(w, " (position clamped)")
		}
		fmt.Fprintln(w)
	}
}

// optInt returns the flag value when it was set on the command line.
func optInt(cmd *cobra.Command, name string) *int {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil
	}
	return &v
}

// optBool returns the flag value when it was set on the command line.
func optBool(cmd *cobra.Command, name string) *bool {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return nil
	}
	return &v
}

// optString returns the flag value when it was set on the command line.
func optString(cmd *cobra.Command, name string) *string {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

// readBody resolves the content flag of kf. For "source" flags the value
// is a path whose bytes become the body.
func readBody(cmd *cobra.Command, kf kindFlags) (*string, error) {
	if kf.body == "" {
		return nil, nil
	}
	v := optString(cmd, kf.body)
	if v == nil || kf.body != "source" {
		return v, nil
	}
	data, err := os.ReadFile(*v)
	if err != nil {
		return nil, fmt.Errorf("read --source: %w", err)
	}
	body := string(data)
	return &body, nil
}

// selector builds the subject selector from --id or the naming flag.
func selector(cmd *cobra.Command, kf kindFlags) (engine.Selector, error) {
	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString(kf.name)
	if id == "" && name == "" {
		return engine.Selector{}, fmt.Errorf("one of --%s or --id is required", kf.name)
	}
	return engine.Selector{ID: id, Title: name}, nil
}

func addSelectorFlags(cmd *cobra.Command, kf kindFlags) {
	cmd.Flags().String(kf.name, "", fmt.Sprintf("%s of the %s to select", kf.name, kf.kind.Noun()))
	cmd.Flags().String("id", "", fmt.Sprintf("identifier of the %s to select", kf.kind.Noun()))
}

func addBodyFlag(cmd *cobra.Command, kf kindFlags) {
	switch kf.body {
	case "source":
		cmd.Flags().String("source", "", "path of the file whose bytes are stored")
	case "":
	default:
		cmd.Flags().String(kf.body, "", fmt.Sprintf("%s %s (HTML)", kf.kind.Noun(), kf.body))
	}
}

// badInput reports a flag problem detected before the package is touched.
func badInput(f *OutputFormatter, err error) error {
	_ = f.Error(ErrCodeBadInput, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid input", err)
}

func moduleSelector(title string) *engine.Selector {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	s := engine.ByTitle(title)
	return &s
}
