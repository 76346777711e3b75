package api

import (
	"net/http"
	"strings"

	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

// gradeRequest is the body of the add and edit grade endpoints.
type gradeRequest struct {
	ExamName    string   `json:"exam_name" validate:"notblank,max=128"`
	Score       *float64 `json:"score" validate:"required,score"`
	Weight      *float64 `json:"weight" validate:"required,gt=0"`
	Description string   `json:"description" validate:"max=500"`
}

type courseGradesResponse struct {
	Course  store.Course  `json:"course"`
	Grades  []store.Grade `json:"grades"`
	Average grades.Result `json:"average"`
}

func (h *Handler) handleListGrades(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r, r.PathValue("courseID"))
	if !ok {
		return
	}
	list, err := h.store.ListGrades(r.Context(), c.ID)
	if err != nil {
		h.writeStoreError(w, r, err, "course")
		return
	}
	if list == nil {
		list = []store.Grade{}
	}
	writeJSON(w, http.StatusOK, courseGradesResponse{
		Course:  *c,
		Grades:  list,
		Average: courseAverage(list),
	})
}

func (h *Handler) handleAddGrade(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r, r.PathValue("courseID"))
	if !ok {
		return
	}
	var req gradeRequest
	if !h.decode(w, r, &req) {
		return
	}
	g, err := h.store.AddGrade(r.Context(), store.Grade{
		CourseID:    c.ID,
		ExamName:    strings.TrimSpace(req.ExamName),
		Score:       *req.Score,
		Weight:      *req.Weight,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		h.writeStoreError(w, r, err, "course")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// ownedGrade loads a grade and checks its course belongs to the caller.
func (h *Handler) ownedGrade(w http.ResponseWriter, r *http.Request) (*store.Grade, bool) {
	if _, ok := userID(w, r); !ok {
		return nil, false
	}
	g, err := h.store.GetGrade(r.Context(), r.PathValue("gradeID"))
	if err != nil {
		h.writeStoreError(w, r, err, "grade")
		return nil, false
	}
	if _, ok := h.ownedCourse(w, r, g.CourseID); !ok {
		return nil, false
	}
	return g, true
}

func (h *Handler) handleUpdateGrade(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.ownedGrade(w, r)
	if !ok {
		return
	}
	var req gradeRequest
	if !h.decode(w, r, &req) {
		return
	}
	g, err := h.store.UpdateGrade(r.Context(), store.Grade{
		ID:          existing.ID,
		ExamName:    strings.TrimSpace(req.ExamName),
		Score:       *req.Score,
		Weight:      *req.Weight,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		h.writeStoreError(w, r, err, "grade")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) handleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	g, ok := h.ownedGrade(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteGrade(r.Context(), g.ID); err != nil {
		h.writeStoreError(w, r, err, "grade")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
