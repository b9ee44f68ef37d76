package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/fmea/internal/query"
)

// AssertionContext provides what assertions need to inspect the final state.
type AssertionContext struct {
	DB   *query.DB
	Ctx  context.Context
	Refs map[string]string
}

// AssertionError is returned when an assertion fails.
// It includes the executed steps to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepTrace // Executed steps for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, step := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", step.Index, step.Op)
			if step.Ref != "" {
				fmt.Fprintf(&buf, " %s=%s", step.Ref, step.ID)
			}
			if step.Error != "" {
				fmt.Fprintf(&buf, " (error: %s)", step.Error)
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// EvaluateAssertions runs all assertions and returns the failure messages.
// All assertions are evaluated even if an earlier one fails.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			var ae *AssertionError
			if errors.As(err, &ae) {
				ae.Trace = result.Trace
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertRPN:
		return assertRPN(a, actx)
	case AssertSummary:
		return assertSummary(a, actx)
	case AssertCount:
		return assertCount(a, actx)
	case AssertMissing:
		return assertMissing(a, actx)
	case AssertOrphans:
		return assertOrphans(a, actx)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// expectation collects the fields an assertion checks as "name=value" pairs.
// The assertion holds when the wanted and actual renderings are identical.
type expectation struct {
	want, got []string
}

func (e *expectation) check(name string, want, got any) {
	e.want = append(e.want, fmt.Sprintf("%s=%v", name, want))
	e.got = append(e.got, fmt.Sprintf("%s=%v", name, got))
}

func (e *expectation) result(typ string) error {
	want, got := strings.Join(e.want, " "), strings.Join(e.got, " ")
	if want == got {
		return nil
	}
	return &AssertionError{Type: typ, Expected: want, Actual: got}
}

// assertRPN checks a failure mode's pre- and post-mitigation risk.
func assertRPN(a Assertion, actx *AssertionContext) error {
	id := actx.Refs[a.FailureMode]
	risk, err := actx.DB.FailureModeRisk(actx.Ctx, id)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: "failure mode " + a.FailureMode, Actual: err.Error()}
	}

	var e expectation
	if a.RPN != nil {
		e.check("rpn", *a.RPN, risk.RPN)
	}
	if a.Level != "" {
		e.check("level", a.Level, risk.Level)
	}
	if a.PostRPN != nil {
		got := "unassessed"
		if risk.Residual.Assessed {
			got = fmt.Sprint(risk.Residual.RPN)
		}
		e.check("post_rpn", *a.PostRPN, got)
	}
	if a.PostLevel != "" {
		e.check("post_level", a.PostLevel, risk.PostLevel)
	}
	return e.result(a.Type)
}

// assertSummary checks a project's aggregate risk.
func assertSummary(a Assertion, actx *AssertionContext) error {
	id := actx.Refs[a.Project]
	report, err := actx.DB.ProjectRiskReport(actx.Ctx, id)
	if err != nil {
		return &AssertionError{Type: a.Type, Expected: "project " + a.Project, Actual: err.Error()}
	}

	var e expectation
	if a.HighestRPN != nil {
		e.check("highest_rpn", *a.HighestRPN, report.Summary.HighestRPN)
	}
	if a.FailureModes != nil {
		e.check("failure_modes", *a.FailureModes, report.Summary.FailureModes)
	}
	if a.OpenActions != nil {
		e.check("open_actions", *a.OpenActions, report.Summary.OpenActions)
	}
	return e.result(a.Type)
}

// assertCount checks the number of records in a collection.
func assertCount(a Assertion, actx *AssertionContext) error {
	counts, err := actx.DB.Counts(actx.Ctx)
	if err != nil {
		return err
	}
	if got := counts[a.Collection]; got != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s", *a.Count, a.Collection),
			Actual:   fmt.Sprintf("%d %s", got, a.Collection),
		}
	}
	return nil
}

// assertMissing checks that a record is gone from its collection.
func assertMissing(a Assertion, actx *AssertionContext) error {
	ids, err := collectionIDs(actx, a.Collection)
	if err != nil {
		return err
	}
	id := actx.Refs[a.Ref]
	for _, have := range ids {
		if have == id {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("no %s/%s (%s)", a.Collection, id, a.Ref),
				Actual:   "record still present",
			}
		}
	}
	return nil
}

// collectionIDs lists the record ids of one collection by name, using the
// document's JSON field names.
func collectionIDs(actx *AssertionContext, collection string) ([]string, error) {
	doc, err := actx.DB.Document(actx.Ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var cols map[string][]struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &cols); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(cols[collection]))
	for _, rec := range cols[collection] {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// assertOrphans checks the number of dangling references.
func assertOrphans(a Assertion, actx *AssertionContext) error {
	orphans, err := actx.DB.ValidateReferences(actx.Ctx)
	if err != nil {
		return err
	}
	if len(orphans) != *a.Count {
		got := make([]string, 0, len(orphans))
		for _, o := range orphans {
			got = append(got, fmt.Sprintf("%s/%s", o.Collection, o.ID))
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d orphans", *a.Count),
			Actual:   fmt.Sprintf("%d orphans [%s]", len(orphans), strings.Join(got, ", ")),
		}
	}
	return nil
}
