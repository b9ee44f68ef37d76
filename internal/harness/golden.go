package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/fmea/internal/query"
	"github.com/roach88/fmea/internal/rpn"
)

// ReportSnapshot is the risk picture a scenario leaves behind. Records are
// named by scenario ref rather than id so snapshots read like the scenario.
type ReportSnapshot struct {
	Scenario string            `json:"scenario"`
	Counts   map[string]int    `json:"counts"`
	Projects []ProjectSnapshot `json:"projects"`
}

// ProjectSnapshot is one project's risk report.
type ProjectSnapshot struct {
	Ref            string                `json:"ref"`
	Name           string                `json:"name"`
	Thresholds     rpn.Thresholds        `json:"thresholds"`
	FailureModes   []FailureModeSnapshot `json:"failure_modes"`
	HighestRPN     int                   `json:"highest_rpn"`
	MeanRPN        float64               `json:"mean_rpn"`
	TotalReduction int                   `json:"total_reduction"`
	OpenActions    int                   `json:"open_actions"`
}

// FailureModeSnapshot is one assessed failure mode.
type FailureModeSnapshot struct {
	Ref         string    `json:"ref"`
	FailureMode string    `json:"failure_mode"`
	RPN         int       `json:"rpn"`
	Level       rpn.Level `json:"level"`
	PostRPN     *int      `json:"post_rpn,omitempty"`
	PostLevel   rpn.Level `json:"post_level"`
	OpenActions int       `json:"open_actions"`
}

// BuildSnapshot captures counts of non-empty collections and the risk report
// of every remaining project, in document order.
func BuildSnapshot(ctx context.Context, db *query.DB, name string, result *Result) (*ReportSnapshot, error) {
	counts, err := db.Counts(ctx)
	if err != nil {
		return nil, err
	}
	snap := &ReportSnapshot{
		Scenario: name,
		Counts:   make(map[string]int),
		Projects: []ProjectSnapshot{},
	}
	for collection, n := range counts {
		if n > 0 {
			snap.Counts[collection] = n
		}
	}

	doc, err := db.Document(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range doc.Projects {
		report, err := db.ProjectRiskReport(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		ps := ProjectSnapshot{
			Ref:            result.refFor(p.ID),
			Name:           p.Name,
			Thresholds:     report.Thresholds,
			FailureModes:   make([]FailureModeSnapshot, 0, len(report.Assessments)),
			HighestRPN:     report.Summary.HighestRPN,
			MeanRPN:        report.Summary.MeanRPN,
			TotalReduction: report.Summary.TotalReduction,
			OpenActions:    report.Summary.OpenActions,
		}
		for _, a := range report.Assessments {
			fs := FailureModeSnapshot{
				Ref:         result.refFor(a.FailureModeID),
				FailureMode: a.FailureMode,
				RPN:         a.RPN,
				Level:       a.Level,
				PostLevel:   a.PostLevel,
				OpenActions: a.OpenActions,
			}
			if a.Residual.Assessed {
				post := a.Residual.RPN
				fs.PostRPN = &post
			}
			ps.FailureModes = append(ps.FailureModes, fs)
		}
		snap.Projects = append(snap.Projects, ps)
	}
	return snap, nil
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
func (s *ReportSnapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its report snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the scenario result; a mismatch with the golden file fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, snapshot, err := run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, snapshot); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a snapshot against the golden file for name.
func AssertGolden(t *testing.T, name string, snapshot *ReportSnapshot) error {
	t.Helper()

	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
