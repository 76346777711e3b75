package grades

import (
	"encoding/json"
	"math"
)

// Reason classifies a TargetResult.
type Reason string

const (
	ReasonNormal       Reason = "normal"
	ReasonAlreadyMet   Reason = "already_met"
	ReasonNoWeightLeft Reason = "no_weight_left"
	ReasonOverCap      Reason = "over_cap"
)

// TargetQuery asks which score is needed on the remaining weight to reach Target.
//
// Entry weights are expressed relative to TotalWeightPct (100 when unset).
// MinGrade and MaxGrade fall back to DefaultScale when both are zero.
// Target is expected to lie inside [MinGrade, MaxGrade]; callers validate it.
type TargetQuery struct {
	Entries        []Entry `json:"entries"`
	Target         float64 `json:"target"`
	TotalWeightPct float64 `json:"total_weight_pct"`
	MinGrade       float64 `json:"min_grade"`
	MaxGrade       float64 `json:"max_grade"`
}

// TargetResult is the solver outcome. Required is +Inf for ReasonNoWeightLeft
// and is left unclamped for ReasonOverCap so callers can show it.
type TargetResult struct {
	OK              bool    `json:"ok"`
	Reason          Reason  `json:"reason"`
	Required        float64 `json:"required"`
	CurrentWeighted float64 `json:"current_weighted"`
	RemainingWeight float64 `json:"remaining_weight"`
}

// Unreachable reports whether no remaining score can reach the target.
func (r TargetResult) Unreachable() bool {
	return !r.OK
}

// MarshalJSON encodes an infinite Required as null, since JSON has no infinity.
func (r TargetResult) MarshalJSON() ([]byte, error) {
	var required *float64
	if !math.IsInf(r.Required, 0) && !math.IsNaN(r.Required) {
		required = ptr(r.Required)
	}
	return json.Marshal(struct {
		OK              bool     `json:"ok"`
		Reason          Reason   `json:"reason"`
		Required        *float64 `json:"required"`
		Unreachable     bool     `json:"unreachable"`
		CurrentWeighted float64  `json:"current_weighted"`
		RemainingWeight float64  `json:"remaining_weight"`
	}{
		OK:              r.OK,
		Reason:          r.Reason,
		Required:        required,
		Unreachable:     r.Unreachable(),
		CurrentWeighted: r.CurrentWeighted,
		RemainingWeight: r.RemainingWeight,
	})
}

// UnmarshalJSON accepts the encoding produced by MarshalJSON.
func (r *TargetResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		OK              bool     `json:"ok"`
		Reason          Reason   `json:"reason"`
		Required        *float64 `json:"required"`
		CurrentWeighted float64  `json:"current_weighted"`
		RemainingWeight float64  `json:"remaining_weight"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = TargetResult{
		OK:              raw.OK,
		Reason:          raw.Reason,
		Required:        math.Inf(1),
		CurrentWeighted: raw.CurrentWeighted,
		RemainingWeight: raw.RemainingWeight,
	}
	if raw.Required != nil {
		r.Required = *raw.Required
	}
	return nil
}

// remainingPrecision rounds the remaining weight to absorb float drift,
// e.g. 0.3+0.3+0.4 summing to 0.9999999999999999.
const remainingPrecision = 1e6

// RequiredForTarget solves for the minimum score needed on the unallocated
// weight so that the final weighted grade reaches q.Target.
func RequiredForTarget(q TargetQuery) TargetResult {
	q = q.withDefaults()

	var current, used float64
	for _, e := range q.Entries {
		if !finite(e.Score) || !finite(e.Weight) {
			continue
		}
		w := e.Weight / q.TotalWeightPct
		current += e.Score * w
		used += w
	}
	remaining := math.Round((1-used)*remainingPrecision) / remainingPrecision

	if remaining <= 0 {
		if current >= q.Target {
			return TargetResult{OK: true, Reason: ReasonAlreadyMet, Required: q.MinGrade, CurrentWeighted: current}
		}
		return TargetResult{OK: false, Reason: ReasonNoWeightLeft, Required: math.Inf(1), CurrentWeighted: current}
	}

	required := (q.Target - current) / remaining
	res := TargetResult{
		OK:              true,
		Reason:          ReasonNormal,
		Required:        required,
		CurrentWeighted: current,
		RemainingWeight: remaining,
	}
	switch {
	case required <= q.MinGrade:
		res.Reason = ReasonAlreadyMet
		res.Required = q.MinGrade
	case required > q.MaxGrade:
		res.OK = false
		res.Reason = ReasonOverCap
	}
	return res
}

func (q TargetQuery) withDefaults() TargetQuery {
	if q.TotalWeightPct <= 0 || !finite(q.TotalWeightPct) {
		q.TotalWeightPct = 100
	}
	if q.MinGrade == 0 && q.MaxGrade == 0 {
		q.MinGrade, q.MaxGrade = DefaultScale.Min, DefaultScale.Max
	}
	return q
}

// Scale returns the grade bounds the query is solved against.
func (q TargetQuery) Scale() Scale {
	q = q.withDefaults()
	return Scale{Min: q.MinGrade, Max: q.MaxGrade}
}
