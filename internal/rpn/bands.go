package rpn

import (
	"errors"
	"fmt"

	"github.com/roach88/fmea/internal/model"
)

// Level is a risk classification.
type Level string

const (
	// LevelNone marks an RPN of 0: the failure mode has not been rated yet.
	LevelNone     Level = "none"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Levels lists RPN levels from most to least severe.
var Levels = []Level{LevelCritical, LevelHigh, LevelMedium, LevelLow, LevelNone}

// Default RPN thresholds.
const (
	DefaultCritical = 150
	DefaultHigh     = 100
	DefaultMedium   = 70
)

// Thresholds are the lower bounds (inclusive) of each RPN level.
type Thresholds struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
}

// DefaultThresholds returns 150 / 100 / 70.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: DefaultCritical, High: DefaultHigh, Medium: DefaultMedium}
}

// ThresholdsFrom converts organization settings, taking base for any bound
// that is unset or non-positive.
func ThresholdsFrom(rt *model.RiskThresholds, base Thresholds) Thresholds {
	if rt == nil {
		return base
	}
	t := base
	if rt.Critical > 0 {
		t.Critical = rt.Critical
	}
	if rt.High > 0 {
		t.High = rt.High
	}
	if rt.Medium > 0 {
		t.Medium = rt.Medium
	}
	return t
}

// ErrInvalidThresholds is returned by Validate.
var ErrInvalidThresholds = errors.New("invalid rpn thresholds")

// Validate checks 0 < medium < high < critical <= MaxScore.
func (t Thresholds) Validate() error {
	if t.Medium <= 0 || t.Medium >= t.High || t.High >= t.Critical || t.Critical > MaxScore {
		return fmt.Errorf("%w: need 0 < medium (%d) < high (%d) < critical (%d) <= %d",
			ErrInvalidThresholds, t.Medium, t.High, t.Critical, MaxScore)
	}
	return nil
}

// Band classifies an RPN. 0 (or less) is LevelNone.
func Band(rpn int, t Thresholds) Level {
	switch {
	case rpn <= 0:
		return LevelNone
	case rpn >= t.Critical:
		return LevelCritical
	case rpn >= t.High:
		return LevelHigh
	case rpn >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// SeverityBand buckets a single 1-10 rating: 1-3 low, 4-7 medium, 8-10 high.
// Ratings outside 1-10 are LevelNone.
func SeverityBand(rating int) Level {
	switch {
	case rating < MinRating || rating > MaxRating:
		return LevelNone
	case rating <= 3:
		return LevelLow
	case rating <= 7:
		return LevelMedium
	default:
		return LevelHigh
	}
}
