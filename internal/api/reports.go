package api

import (
	"net/http"

	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

type archivedResponse struct {
	Meta   store.Report      `json:"meta"`
	Report grades.YearReport `json:"report"`
}

// handleReport computes the live report. ?rule= overrides the program's rule.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	rule := grades.YearRule(r.URL.Query().Get("rule"))
	if rule != "" && !rule.Valid() {
		writeFieldErrors(w, map[string]string{"rule": "must be credit_weighted or semester_mean"})
		return
	}
	report, err := h.reports.Build(r.Context(), p.ID, rule)
	if err != nil {
		h.writeStoreError(w, r, err, "program")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleArchiveReport(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	row, err := h.reports.Archive(r.Context(), p.ID)
	if err != nil {
		h.writeStoreError(w, r, err, "program")
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	rows, err := h.reports.List(r.Context(), p.ID)
	if err != nil {
		h.writeStoreError(w, r, err, "report")
		return
	}
	if rows == nil {
		rows = []store.Report{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleGetReport serves an archived report. Archived reports never change,
// so they are served from the cache once loaded.
func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	reportID := r.PathValue("reportID")

	entry, ok := h.cache.Get(reportID)
	if !ok {
		row, doc, err := h.reports.Load(r.Context(), reportID)
		if err != nil {
			h.writeStoreError(w, r, err, "report")
			return
		}
		entry = CachedReport{Row: *row, Report: doc.Report}
		h.cache.Put(entry)
	}

	if entry.Row.UserID != uid {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, archivedResponse{Meta: entry.Row, Report: entry.Report})
}
