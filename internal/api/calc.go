package api

import (
	"fmt"
	"net/http"

	"github.com/letzgrade/letzgrade/pkg/grades"
	"github.com/letzgrade/letzgrade/pkg/surface"
)

type entryRequest struct {
	Score  *float64 `json:"score" validate:"required"`
	Weight *float64 `json:"weight" validate:"required,gt=0"`
}

type targetRequest struct {
	Entries        []entryRequest `json:"entries" validate:"dive"`
	Target         *float64       `json:"target" validate:"required"`
	TotalWeightPct float64        `json:"total_weight_pct" validate:"gte=0"`
	MinGrade       *float64       `json:"min_grade"`
	MaxGrade       *float64       `json:"max_grade"`
}

type averageRequest struct {
	Entries []entryRequest `json:"entries" validate:"dive"`
}

type averageResponse struct {
	grades.Result
	Formatted string `json:"formatted"`
}

type catalogYear struct {
	Year       string  `json:"year"`
	Courses    int     `json:"courses"`
	TotalCoeff float64 `json:"total_coeff"`
}

func (h *Handler) handleCatalogYears(w http.ResponseWriter, r *http.Request) {
	years := []catalogYear{}
	if h.catalog != nil {
		for _, y := range h.catalog.Years {
			years = append(years, catalogYear{Year: y.Year, Courses: len(y.Courses), TotalCoeff: y.TotalCoeff()})
		}
	}
	writeJSON(w, http.StatusOK, years)
}

func (h *Handler) handleTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !h.decode(w, r, &req) {
		return
	}

	scale := h.scale
	if req.MinGrade != nil {
		scale.Min = *req.MinGrade
	}
	if req.MaxGrade != nil {
		scale.Max = *req.MaxGrade
	}
	fields := map[string]string{}
	if scale.Max <= scale.Min {
		fields["max_grade"] = "must be greater than min_grade"
	} else {
		if !scale.Contains(*req.Target) {
			fields["target"] = fmt.Sprintf("must be between %g and %g", scale.Min, scale.Max)
		}
		for i, e := range req.Entries {
			if !scale.Contains(*e.Score) {
				fields[fmt.Sprintf("entries[%d].score", i)] = fmt.Sprintf("must be between %g and %g", scale.Min, scale.Max)
			}
		}
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	q := grades.TargetQuery{
		Entries:        toEntries(req.Entries),
		Target:         *req.Target,
		TotalWeightPct: req.TotalWeightPct,
		MinGrade:       scale.Min,
		MaxGrade:       scale.Max,
	}
	res := grades.RequiredForTarget(q)
	h.metrics.observeTarget(res.Reason)
	writeJSON(w, http.StatusOK, surface.NewTargetOutput(q, res))
}

func (h *Handler) handleAverage(w http.ResponseWriter, r *http.Request) {
	var req averageRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := grades.Aggregate(toEntries(req.Entries))
	writeJSON(w, http.StatusOK, averageResponse{Result: res, Formatted: surface.FormatScaled(res, h.scale)})
}

func toEntries(in []entryRequest) []grades.Entry {
	out := make([]grades.Entry, 0, len(in))
	for _, e := range in {
		out = append(out, grades.Entry{Score: *e.Score, Weight: *e.Weight})
	}
	return out
}
