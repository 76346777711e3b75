// Package surface defines output rendering for LetzGrade results.
// Implementations handle different output targets: terminal and JSON.
package surface

import (
	"fmt"
	"io"
	"math"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// Renderer produces formatted output from computed grade results.
type Renderer interface {
	// RenderReport writes a year report with every course and semester.
	RenderReport(w io.Writer, report *grades.YearReport) error
	// RenderTarget writes the outcome of a target-grade query.
	RenderTarget(w io.Writer, query grades.TargetQuery, result grades.TargetResult) error
	// RenderAverage writes a single weighted average.
	RenderAverage(w io.Writer, result grades.Result) error
}

// New returns the renderer for an output format ("text" or "json").
func New(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// FormatAverage renders an average with two decimals, or "N/A" when the
// result has no average.
func FormatAverage(r grades.Result) string {
	v, ok := r.Value()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatScaled renders an average against the top of the scale, e.g. "32.50 / 60".
func FormatScaled(r grades.Result, scale grades.Scale) string {
	if r.Average == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s / %g", FormatAverage(r), scale.Max)
}

// TargetMessage is the user-facing sentence for a target result.
func TargetMessage(res grades.TargetResult, scale grades.Scale) string {
	switch res.Reason {
	case grades.ReasonAlreadyMet:
		return "You've already met or exceeded the target."
	case grades.ReasonNoWeightLeft:
		return "No weight left to improve the grade."
	case grades.ReasonOverCap:
		return fmt.Sprintf("Impossible: you'd need %.2f which exceeds %g.", res.Required, scale.Max)
	default:
		if math.IsInf(res.Required, 0) {
			return "No weight left to improve the grade."
		}
		return fmt.Sprintf("You need %.2f / %g on the remaining %.0f%% of the weight.",
			res.Required, scale.Max, res.RemainingWeight*100)
	}
}
