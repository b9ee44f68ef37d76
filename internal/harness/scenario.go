package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fmea/internal/config"
	"github.com/roach88/fmea/internal/model"
)

// Scenario is a scripted FMEA session: a list of query-layer operations run
// against a fresh store, followed by assertions on the resulting risk picture.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend selects the store: "json" (default) or "sqlite".
	Backend string `yaml:"backend,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step invokes one operation.
type Step struct {
	// Op names the operation, e.g. "create_failure_mode".
	Op string `yaml:"op"`

	// Ref names the created record so later steps and assertions can refer
	// to it.
	Ref string `yaml:"ref,omitempty"`

	// Args are the operation arguments. Values naming another record
	// (project, component, failure_mode, target, ...) are refs.
	Args map[string]any `yaml:"args"`

	// ExpectError is the expected failure: not_found, duplicate,
	// invalid_rating or invalid_input. The step must then fail with it.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks the final state.
type Assertion struct {
	// Type is one of rpn, summary, count, missing, orphans.
	Type string `yaml:"type"`

	// FailureMode is the failure mode ref (rpn).
	FailureMode string `yaml:"failure_mode,omitempty"`

	// Project is the project ref (summary).
	Project string `yaml:"project,omitempty"`

	// Collection is a document collection name (count, missing).
	Collection string `yaml:"collection,omitempty"`

	// Ref is the record that must no longer exist (missing).
	Ref string `yaml:"ref,omitempty"`

	RPN       *int   `yaml:"rpn,omitempty"`
	Level     string `yaml:"level,omitempty"`
	PostRPN   *int   `yaml:"post_rpn,omitempty"`
	PostLevel string `yaml:"post_level,omitempty"`

	HighestRPN   *int `yaml:"highest_rpn,omitempty"`
	FailureModes *int `yaml:"failure_modes,omitempty"`
	OpenActions  *int `yaml:"open_actions,omitempty"`

	// Count is the expected number of records (count) or orphans (orphans).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRPN     = "rpn"
	AssertSummary = "summary"
	AssertCount   = "count"
	AssertMissing = "missing"
	AssertOrphans = "orphans"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
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

// validateScenario checks that required fields are present and that every
// ref an assertion uses is defined by a step.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.Backend {
	case "", config.BackendJSON, config.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	refs := make(map[string]bool)
	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := ops[step.Op]; !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.ExpectError != "" {
			if _, ok := expectedErrors[step.ExpectError]; !ok {
				return fmt.Errorf("steps[%d]: unknown expect_error %q", i, step.ExpectError)
			}
		}
		if step.Ref != "" {
			if refs[step.Ref] {
				return fmt.Errorf("steps[%d]: ref %q is already defined", i, step.Ref)
			}
			refs[step.Ref] = true
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], refs); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, refs map[string]bool) error {
	needRef := func(field, ref string) error {
		if ref == "" {
			return fmt.Errorf("assertions[%d]: %s is required for %s", index, field, a.Type)
		}
		if !refs[ref] {
			return fmt.Errorf("assertions[%d]: %s %q is not defined by any step", index, field, ref)
		}
		return nil
	}
	needCollection := func() error {
		if !slices.Contains(model.Collections, a.Collection) {
			return fmt.Errorf("assertions[%d]: unknown collection %q", index, a.Collection)
		}
		return nil
	}
	needCount := func() error {
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRPN:
		if err := needRef("failure_mode", a.FailureMode); err != nil {
			return err
		}
		if a.RPN == nil && a.Level == "" && a.PostRPN == nil && a.PostLevel == "" {
			return fmt.Errorf("assertions[%d]: rpn needs at least one of rpn, level, post_rpn, post_level", index)
		}
	case AssertSummary:
		if err := needRef("project", a.Project); err != nil {
			return err
		}
	case AssertCount:
		if err := needCollection(); err != nil {
			return err
		}
		return needCount()
	case AssertMissing:
		if err := needCollection(); err != nil {
			return err
		}
		return needRef("ref", a.Ref)
	case AssertOrphans:
		return needCount()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
