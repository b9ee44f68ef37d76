package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratedSteps = `
description: assertion failures
steps:
  - { op: create_project, ref: p, args: { name: P } }
  - { op: create_component, ref: c, args: { project: p, name: C } }
  - { op: create_failure_mode, ref: f, args: { component: c, name: F } }
  - { op: create_cause, args: { failure_mode: f, occurrence: 3 } }
  - { op: create_effect, args: { failure_mode: f, severity: 7 } }
  - { op: create_control, args: { failure_mode: f, detection: 6 } }
  - { op: create_action, ref: a, args: { failure_mode: f, description: Fix } }
`

func runAssertions(t *testing.T, assertions string) *Result {
	t.Helper()
	s := mustParse(t, "name: assertions\n"+ratedSteps+"assertions:\n"+assertions)
	result, err := Run(s)
	require.NoError(t, err)
	return result
}

func TestAssertions_Pass(t *testing.T) {
	result := runAssertions(t, `
  - { type: rpn, failure_mode: f, rpn: 126, level: high, post_level: high }
  - { type: summary, project: p, highest_rpn: 126, failure_modes: 1, open_actions: 1 }
  - { type: count, collection: actions, count: 1 }
  - { type: count, collection: sessions, count: 0 }
  - { type: orphans, count: 0 }
`)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		typ       string
		assertion string
		expected  string
		actual    string
	}{
		{
			name:      "rpn",
			typ:       "rpn",
			assertion: `{ type: rpn, failure_mode: f, rpn: 100, level: high }`,
			expected:  "Expected: rpn=100 level=high",
			actual:    "Actual: rpn=126 level=high",
		},
		{
			name:      "post rpn unassessed",
			typ:       "rpn",
			assertion: `{ type: rpn, failure_mode: f, post_rpn: 42 }`,
			expected:  "Expected: post_rpn=42",
			actual:    "Actual: post_rpn=unassessed",
		},
		{
			name:      "summary",
			typ:       "summary",
			assertion: `{ type: summary, project: p, open_actions: 0 }`,
			expected:  "Expected: open_actions=0",
			actual:    "Actual: open_actions=1",
		},
		{
			name:      "count",
			typ:       "count",
			assertion: `{ type: count, collection: causes, count: 2 }`,
			expected:  "Expected: 2 causes",
			actual:    "Actual: 1 causes",
		},
		{
			name:      "missing",
			typ:       "missing",
			assertion: `{ type: missing, collection: failureModes, ref: f }`,
			expected:  "Expected: no failureModes/",
			actual:    "Actual: record still present",
		},
		{
			name:      "orphans",
			typ:       "orphans",
			assertion: `{ type: orphans, count: 1 }`,
			expected:  "Expected: 1 orphans",
			actual:    "Actual: 0 orphans",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runAssertions(t, "  - "+tt.assertion+"\n")
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "assertions[0]: Assertion failed: "+tt.typ)
			assert.Contains(t, result.Errors[0], tt.expected)
			assert.Contains(t, result.Errors[0], tt.actual)
			assert.Contains(t, result.Errors[0], "Steps:")
		})
	}
}

func TestAssertions_RPNOnDeletedFailureMode(t *testing.T) {
	s := mustParse(t, `
name: deleted
description: rpn on a deleted failure mode fails with not found
steps:
  - { op: create_project, ref: p, args: { name: P } }
  - { op: create_failure_mode, ref: f, args: { project: p, name: F } }
  - { op: delete_failure_mode, args: { target: f } }
assertions:
  - { type: rpn, failure_mode: f, level: none }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not found")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCount,
		Expected: "1 projects",
		Actual:   "0 projects",
		Trace: []StepTrace{
			{Index: 0, Op: "create_project", Ref: "p", ID: "id-0002"},
			{Index: 1, Op: "delete_project", Error: "boom"},
		},
	}
	want := "Assertion failed: count\n" +
		"  Expected: 1 projects\n" +
		"  Actual: 0 projects\n" +
		"\nSteps:\n" +
		"  [0] create_project p=id-0002\n" +
		"  [1] delete_project (error: boom)\n"
	assert.Equal(t, want, err.Error())
}
