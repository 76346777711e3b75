// Package grades implements the LetzGrade grade math: weighted averages,
// multi-level rollups (course -> semester -> year) and the target-grade solver.
// Every function here is pure and safe for concurrent use.
package grades

import "math"

// Entry is a single weighted grade. Weight is in a caller-defined unit that
// must be consistent within one aggregation call.
type Entry struct {
	Score  float64 `json:"score" yaml:"score"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Result is the outcome of a weighted aggregation.
// Average is nil when no valid weight contributed, which is distinct from a
// computed average of zero.
type Result struct {
	Average     *float64 `json:"average"`
	TotalWeight float64  `json:"total_weight"`
}

// Value returns the average and whether one exists.
func (r Result) Value() (float64, bool) {
	if r.Average == nil {
		return 0, false
	}
	return *r.Average, true
}

// Child is one lower-level result feeding a rollup, e.g. a course average
// weighted by its credits.
type Child struct {
	Average *float64 `json:"average"`
	Weight  float64  `json:"weight"`
}

// Scale bounds the raw grade range. The LetzGrade default is 0-60.
type Scale struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultScale is the Luxembourg secondary-school grading scale.
var DefaultScale = Scale{Min: 0, Max: 60}

// Contains reports whether v lies inside the scale (inclusive).
func (s Scale) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= s.Min && v <= s.Max
}

// IsZero reports whether the scale is unset.
func (s Scale) IsZero() bool {
	return s.Min == 0 && s.Max == 0
}

// YearRule selects how semester results roll up into a year result.
type YearRule string

const (
	// YearRuleCreditWeighted rolls semesters up with their total credits,
	// the same algorithm used from course to semester.
	YearRuleCreditWeighted YearRule = "credit_weighted"
	// YearRuleSemesterMean takes the plain mean of the non-nil semester averages.
	YearRuleSemesterMean YearRule = "semester_mean"
)

// Valid reports whether r is a known rule.
func (r YearRule) Valid() bool {
	return r == YearRuleCreditWeighted || r == YearRuleSemesterMean
}

// OrDefault returns r, or YearRuleCreditWeighted when r is empty.
func (r YearRule) OrDefault() YearRule {
	if r == "" {
		return YearRuleCreditWeighted
	}
	return r
}

func ptr(v float64) *float64 { return &v }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
