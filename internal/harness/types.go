package harness

import (
	"github.com/roach88/cartridge/internal/engine"
	"github.com/roach88/cartridge/internal/entity"
)

// CaseOK is the case of a step that succeeded.
const CaseOK = "ok"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int64           `json:"seq"`
	Op      string          `json:"op"`
	Kind    entity.Kind     `json:"kind,omitempty"`
	Args    string          `json:"args,omitempty"`
	Case    string          `json:"case"`
	Reports []engine.Report `json:"reports,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists setup and flow steps in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Outline is the course listing after the last step.
	Outline engine.Listing `json:"outline"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(seq int64, step Step, kind entity.Kind, outcome string, reports []engine.Report) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Op:      step.Op,
		Kind:    kind,
		Args:    step.Args.String(),
		Case:    outcome,
		Reports: reports,
	})
}
