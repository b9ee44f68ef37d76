package rpn

import "github.com/roach88/fmea/internal/model"

// Rating bounds shared by severity, occurrence and detection.
const (
	MinRating = 1
	MaxRating = 10

	// NoControlDetection is the detection rating assumed when a failure mode
	// has no controls: nothing will catch it.
	NoControlDetection = 10

	// MaxScore is the largest possible RPN.
	MaxScore = MaxRating * MaxRating * MaxRating
)

// ValidRating reports whether r is a usable 1-10 rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Score returns s × o × d. Any non-positive rating yields 0.
func Score(severity, occurrence, detection int) int {
	if severity <= 0 || occurrence <= 0 || detection <= 0 {
		return 0
	}
	return severity * occurrence * detection
}

// Detection returns the lowest detection rating among controls, or
// NoControlDetection when there are none.
func Detection(controls []model.Control) int {
	if len(controls) == 0 {
		return NoControlDetection
	}
	best := controls[0].Detection
	for _, c := range controls[1:] {
		if c.Detection < best {
			best = c.Detection
		}
	}
	return best
}

// Pair is the (cause, effect) combination behind a failure mode's RPN.
type Pair struct {
	CauseID    string `json:"cause_id"`
	EffectID   string `json:"effect_id"`
	Severity   int    `json:"severity"`
	Occurrence int    `json:"occurrence"`
	Detection  int    `json:"detection"`
	RPN        int    `json:"rpn"`
}

// TopPair returns the highest-scoring (cause, effect) pair. Ties keep the
// earliest cause, then the earliest effect. ok is false when causes or effects
// is empty.
func TopPair(causes []model.Cause, effects []model.Effect, controls []model.Control) (top Pair, ok bool) {
	if len(causes) == 0 || len(effects) == 0 {
		return Pair{}, false
	}
	det := Detection(controls)
	for _, c := range causes {
		for _, e := range effects {
			score := Score(e.Severity, c.Occurrence, det)
			if !ok || score > top.RPN {
				top = Pair{
					CauseID:    c.ID,
					EffectID:   e.ID,
					Severity:   e.Severity,
					Occurrence: c.Occurrence,
					Detection:  det,
					RPN:        score,
				}
				ok = true
			}
		}
	}
	return top, true
}

// MaxRPN is the worst-case RPN of a failure mode. It is 0 when there are no
// causes or no effects.
func MaxRPN(causes []model.Cause, effects []model.Effect, controls []model.Control) int {
	top, _ := TopPair(causes, effects, controls)
	return top.RPN
}

// PostRPN returns the re-assessed RPN of a completed action. ok is false until
// all three post-action ratings are recorded; a stored rating below 1 counts
// as not recorded.
func PostRPN(a model.Action) (int, bool) {
	s, o, d := a.PostActionSeverity, a.PostActionOccurrence, a.PostActionDetection
	if s == nil || o == nil || d == nil || *s < 1 || *o < 1 || *d < 1 {
		return 0, false
	}
	return Score(*s, *o, *d), true
}

// MaxPostRPN returns the highest post-action RPN among actions that have one.
func MaxPostRPN(actions []model.Action) (int, bool) {
	best, found := 0, false
	for _, a := range actions {
		v, ok := PostRPN(a)
		if !ok {
			continue
		}
		if !found || v > best {
			best = v
		}
		found = true
	}
	return best, found
}

// Residual is the risk left after mitigation.
type Residual struct {
	// RPN is the highest post-action RPN; meaningful only when Assessed.
	RPN int `json:"rpn"`
	// Assessed is true when at least one action carries post-action ratings.
	Assessed bool `json:"assessed"`
	// Reduction is pre - RPN, floored at 0.
	Reduction int `json:"reduction"`
}

// Mitigation compares the pre-mitigation RPN with the actions' post ratings.
func Mitigation(pre int, actions []model.Action) Residual {
	post, ok := MaxPostRPN(actions)
	if !ok {
		return Residual{}
	}
	r := Residual{RPN: post, Assessed: true}
	if pre > post {
		r.Reduction = pre - post
	}
	return r
}
