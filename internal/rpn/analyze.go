package rpn

import (
	"sort"

	"github.com/roach88/fmea/internal/model"
)

// Assessment is the risk picture of one failure mode.
type Assessment struct {
	FailureModeID string `json:"failure_mode_id"`
	ComponentID   string `json:"component_id,omitempty"`
	FailureMode   string `json:"failure_mode"`

	RPN   int   `json:"rpn"`
	Level Level `json:"level"`
	Top   *Pair `json:"top,omitempty"`

	Residual  Residual `json:"residual"`
	PostLevel Level    `json:"post_level"`

	Causes      int `json:"causes"`
	Effects     int `json:"effects"`
	Controls    int `json:"controls"`
	Actions     int `json:"actions"`
	OpenActions int `json:"open_actions"`
}

// Analyze scores one failure mode against t.
func Analyze(g model.FailureModeGraph, t Thresholds) Assessment {
	a := Assessment{
		FailureModeID: g.FailureMode.ID,
		ComponentID:   g.FailureMode.ComponentID,
		FailureMode:   g.FailureMode.FailureMode,
		Causes:        len(g.Causes),
		Effects:       len(g.Effects),
		Controls:      len(g.Controls),
		Actions:       len(g.Actions),
	}
	if top, ok := TopPair(g.Causes, g.Effects, g.Controls); ok {
		a.RPN = top.RPN
		a.Top = &top
	}
	a.Level = Band(a.RPN, t)

	a.Residual = Mitigation(a.RPN, g.Actions)
	a.PostLevel = a.Level
	if a.Residual.Assessed {
		a.PostLevel = Band(a.Residual.RPN, t)
	}

	for _, act := range g.Actions {
		if act.Status != model.ActionCompleted {
			a.OpenActions++
		}
	}
	return a
}

// AnalyzeAll scores every graph and orders the result by RPN, highest first,
// then by failure mode id.
func AnalyzeAll(graphs []model.FailureModeGraph, t Thresholds) []Assessment {
	out := make([]Assessment, 0, len(graphs))
	for _, g := range graphs {
		out = append(out, Analyze(g, t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RPN != out[j].RPN {
			return out[i].RPN > out[j].RPN
		}
		return out[i].FailureModeID < out[j].FailureModeID
	})
	return out
}

// HeatMap counts failure modes by the severity band (row) and occurrence band
// (column) of their top pair. Index 0 is low, 2 is high.
type HeatMap [3][3]int

func bandIndex(l Level) (int, bool) {
	switch l {
	case LevelLow:
		return 0, true
	case LevelMedium:
		return 1, true
	case LevelHigh:
		return 2, true
	}
	return 0, false
}

// Summary aggregates the assessments of a project.
type Summary struct {
	FailureModes int           `json:"failure_modes"`
	ByLevel      map[Level]int `json:"by_level"`

	HighestRPN           int    `json:"highest_rpn"`
	HighestFailureModeID string `json:"highest_failure_mode_id,omitempty"`

	MeanRPN        float64 `json:"mean_rpn"`
	Assessed       int     `json:"assessed"`
	MeanPostRPN    float64 `json:"mean_post_rpn"`
	TotalReduction int     `json:"total_reduction"`
	OpenActions    int     `json:"open_actions"`

	HeatMap HeatMap `json:"heat_map"`
}

// Summarize aggregates assessments. Means are 0 when there is nothing to
// average; MeanPostRPN averages only assessed failure modes.
func Summarize(as []Assessment) Summary {
	s := Summary{
		FailureModes: len(as),
		ByLevel:      make(map[Level]int, len(Levels)),
	}
	for _, l := range Levels {
		s.ByLevel[l] = 0
	}

	preTotal, postTotal := 0, 0
	for _, a := range as {
		s.ByLevel[a.Level]++
		preTotal += a.RPN
		s.OpenActions += a.OpenActions
		if a.RPN > s.HighestRPN {
			s.HighestRPN = a.RPN
			s.HighestFailureModeID = a.FailureModeID
		}
		if a.Residual.Assessed {
			s.Assessed++
			postTotal += a.Residual.RPN
			s.TotalReduction += a.Residual.Reduction
		}
		if a.Top != nil {
			row, okRow := bandIndex(SeverityBand(a.Top.Severity))
			col, okCol := bandIndex(SeverityBand(a.Top.Occurrence))
			if okRow && okCol {
				s.HeatMap[row][col]++
			}
		}
	}

	if len(as) > 0 {
		s.MeanRPN = float64(preTotal) / float64(len(as))
	}
	if s.Assessed > 0 {
		s.MeanPostRPN = float64(postTotal) / float64(s.Assessed)
	}
	return s
}
