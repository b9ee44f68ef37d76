package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with: go test ./internal/harness -run TestGolden -update
func TestGolden_ScenarioReports(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, s.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestBuildSnapshot_UnnamedRecordsUseIDs(t *testing.T) {
	s := mustParse(t, `
name: unnamed
description: records without a ref are named by id
steps:
  - { op: create_project, args: { name: P } }
assertions:
  - { type: count, collection: projects, count: 1 }
`)
	_, snap, err := run(s)
	require.NoError(t, err)

	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "id-0002", snap.Projects[0].Ref)
	assert.Empty(t, snap.Projects[0].FailureModes)
	assert.Equal(t, map[string]int{"assets": 1, "projects": 1}, snap.Counts)
}

func TestReportSnapshot_Marshal(t *testing.T) {
	post := 42
	snap := &ReportSnapshot{
		Scenario: "s",
		Counts:   map[string]int{"projects": 1},
		Projects: []ProjectSnapshot{{
			Ref:          "p",
			Name:         "P",
			FailureModes: []FailureModeSnapshot{{Ref: "f", RPN: 126, Level: "high", PostRPN: &post, PostLevel: "low"}},
			MeanRPN:      62.5,
		}},
	}
	data, err := snap.Marshal()
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, `"post_rpn": 42`)
	assert.Contains(t, out, `"mean_rpn": 62.5`)
}
