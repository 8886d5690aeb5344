package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cartridge/internal/entity"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Course sets the title and code of the created package.
	Course Course `yaml:"course,omitempty"`

	// Setup steps establish the initial package and must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the steps under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the trace and the final package.
	Assertions []Assertion `yaml:"assertions"`

	// BaseDir resolves relative plan paths. LoadScenario sets it to the
	// scenario file's directory.
	BaseDir string `yaml:"-"`
}

// Course names the package a scenario starts from.
type Course struct {
	Title string `yaml:"title,omitempty"`
	Code  string `yaml:"code,omitempty"`
}

// Step is one operation against the package.
type Step struct {
	// Op is add, update, rename, delete, copy, move or apply.
	Op string `yaml:"op"`

	// Kind is the entity kind: a kind name or its noun ("quiz", "file").
	// apply and rename take no kind.
	Kind string `yaml:"kind,omitempty"`

	Args Args `yaml:"args"`

	// Expect validates the outcome. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Args are the operation parameters. Unset fields are not passed on.
type Args struct {
	// ID or Title selects the subject of update, rename, delete, copy and
	// move. For add, Title is the new entity's title or filename.
	ID    string `yaml:"id,omitempty"`
	Title string `yaml:"title,omitempty"`

	NewTitle  *string `yaml:"new_title,omitempty"`
	Body      *string `yaml:"body,omitempty"`
	Points    *int    `yaml:"points,omitempty"`
	Published *bool   `yaml:"published,omitempty"`
	Position  *int    `yaml:"position,omitempty"`

	// Module is the parent module title for add, and the target module
	// title for copy and move.
	Module string `yaml:"module,omitempty"`

	// Plan is the path of a CUE course plan for apply.
	Plan string `yaml:"plan,omitempty"`
}

// String renders the set arguments in a fixed order for traces.
func (a Args) String() string {
	var parts []string
	add := func(format string, v any) { parts = append(parts, fmt.Sprintf(format, v)) }
	if a.ID != "" {
		add("id=%s", a.ID)
	}
	if a.Title != "" {
		add("title=%q", a.Title)
	}
	if a.NewTitle != nil {
		add("new_title=%q", *a.NewTitle)
	}
	if a.Body != nil {
		add("body=%d bytes", len(*a.Body))
	}
	if a.Points != nil {
		add("points=%d", *a.Points)
	}
	if a.Published != nil {
		add("published=%t", *a.Published)
	}
	if a.Position != nil {
		add("position=%d", *a.Position)
	}
	if a.Module != "" {
		add("module=%q", a.Module)
	}
	if a.Plan != "" {
		add("plan=%s", a.Plan)
	}
	return strings.Join(parts, " ")
}

// ExpectClause specifies the expected outcome of a flow step.
type ExpectClause struct {
	// Case is "ok" or an engine error code.
	Case string `yaml:"case"`

	// Result is a subset match against the first report: id, module,
	// position, clamped, changes (count) and removed (count).
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final package.
type Assertion struct {
	Type string `yaml:"type"`

	// Op, Ops and Case match trace steps.
	Op   string   `yaml:"op,omitempty"`
	Ops  []string `yaml:"ops,omitempty"`
	Case string   `yaml:"case,omitempty"`

	// Count is the expected number of trace steps or entities.
	Count int `yaml:"count,omitempty"`

	Kind   string `yaml:"kind,omitempty"`
	Module string `yaml:"module,omitempty"`
	Title  string `yaml:"title,omitempty"`

	Titles    []string `yaml:"titles,omitempty"`
	Positions []int    `yaml:"positions,omitempty"`

	// Expect holds field values for final_state (subset match).
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Path, Contains and Absent configure document_contains.
	Path     string `yaml:"path,omitempty"`
	Contains string `yaml:"contains,omitempty"`
	Absent   bool   `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertModules       = "modules"
	AssertModuleOrder   = "module_order"
	AssertStandalone    = "standalone"
	AssertEntityCount   = "entity_count"
	AssertFinalState    = "final_state"
	AssertDocument      = "document_contains"
	AssertConsistent    = "consistent"
)

// Operation names accepted in steps.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRename = "rename"
	OpDelete = "delete"
	OpCopy   = "copy"
	OpMove   = "move"
	OpApply  = "apply"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.BaseDir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative plan paths resolve against
// the working directory unless BaseDir is set afterwards.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot carry expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpApply:
		if step.Args.Plan == "" {
			return fmt.Errorf("apply requires args.plan")
		}
		return nil
	case OpRename:
		if step.Args.NewTitle == nil {
			return fmt.Errorf("rename requires args.new_title")
		}
		return nil
	case OpAdd, OpUpdate, OpDelete, OpCopy, OpMove:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.Kind == "" {
		return fmt.Errorf("%s requires kind", step.Op)
	}
	if _, err := entity.ParseKind(step.Kind); err != nil {
		return err
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for %s", index, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertModuleOrder:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for module_order", index)
		}
	case AssertFinalState:
		if a.Kind == "" || a.Title == "" {
			return fmt.Errorf("assertions[%d]: kind and title are required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertDocument:
		if a.Path == "" || a.Contains == "" {
			return fmt.Errorf("assertions[%d]: path and contains are required for document_contains", index)
		}
	case AssertModules, AssertStandalone, AssertEntityCount, AssertConsistent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Kind != "" {
		if _, err := entity.ParseKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}
	return nil
}
