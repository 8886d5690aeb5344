package cartridge

import (
	"context"
	"log/slog"

	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/refsync"
)

// Outcome is the result of one committed command.
type Outcome struct {
	Reports []engine.Report `json:"reports"`
	Write   WriteResult     `json:"write"`
	plan    *refsync.Plan
}

// Plan returns the documents the command produced.
func (o Outcome) Plan() *refsync.Plan {
	return o.plan
}

// Engine returns an engine bound to the package store and allocator.
func (p *Package) Engine(opts ...engine.Option) *engine.Engine {
	return engine.New(p.Store, p.Registry, p.Alloc, opts...)
}

// Mutate runs fn inside one store transaction, then rebuilds every derived
// document and writes the package. When fn fails the transaction is rolled
// back and nothing on disk is touched. A command whose reports changed
// nothing still rebuilds; the writer skips files whose bytes match.
func (p *Package) Mutate(ctx context.Context, fn func(e *engine.Engine) ([]engine.Report, error), opts ...engine.Option) (Outcome, error) {
	var reports []engine.Report
	err := p.Engine(opts...).Atomic(ctx, func(tx *engine.Engine) error {
		var err error
		reports, err = fn(tx)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	var affected []string
	for _, r := range reports {
		affected = append(affected, r.Affected...)
	}
	plan, err := p.Rebuild(ctx, affected...)
	if err != nil {
		return Outcome{}, err
	}
	res, err := p.Write(plan)
	if err != nil {
		return Outcome{}, err
	}

	slog.Debug("command committed",
		"dir", p.Dir,
		"reports", len(reports),
		"affected", plan.Affected,
	)
	return Outcome{Reports: reports, Write: res, plan: plan}, nil
}

// One adapts a single-report operation to Mutate.
func One(op func(e *engine.Engine) (engine.Report, error)) func(e *engine.Engine) ([]engine.Report, error) {
	return func(e *engine.Engine) ([]engine.Report, error) {
		r, err := op(e)
		if err != nil {
			return nil, err
		}
		return []engine.Report{r}, nil
	}
}
