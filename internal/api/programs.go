package api

import (
	"net/http"
	"strings"

	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

type createProgramRequest struct {
	Name        string   `json:"name" validate:"notblank,max=32"`
	YearRule    string   `json:"year_rule" validate:"yearrule"`
	FromCatalog bool     `json:"from_catalog"`
	Semesters   []string `json:"semesters" validate:"max=2,dive,notblank,max=32"`
}

type createSemesterRequest struct {
	Name string `json:"name" validate:"notblank,max=32"`
}

type createCourseRequest struct {
	Name       string  `json:"name" validate:"notblank,max=128"`
	Code       string  `json:"code" validate:"max=16"`
	Credits    float64 `json:"credits" validate:"gte=0"`
	SemesterID *string `json:"semester_id"`
}

type updateCourseRequest struct {
	Credits *float64 `json:"credits" validate:"required,gte=0"`
}

type courseResponse struct {
	store.Course
	GradeCount int           `json:"grade_count"`
	Average    grades.Result `json:"average"`
}

// ownedProgram loads a program and checks it belongs to the caller. Programs
// of other users are reported as missing.
func (h *Handler) ownedProgram(w http.ResponseWriter, r *http.Request, programID string) (*store.Program, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return nil, false
	}
	p, err := h.store.GetProgram(r.Context(), programID)
	if err != nil {
		h.writeStoreError(w, r, err, "program")
		return nil, false
	}
	if p.UserID != uid {
		writeError(w, http.StatusNotFound, "program not found")
		return nil, false
	}
	return p, true
}

// ownedCourse loads a course and checks its program belongs to the caller.
func (h *Handler) ownedCourse(w http.ResponseWriter, r *http.Request, courseID string) (*store.Course, bool) {
	if _, ok := userID(w, r); !ok {
		return nil, false
	}
	c, err := h.store.GetCourse(r.Context(), courseID)
	if err != nil {
		h.writeStoreError(w, r, err, "course")
		return nil, false
	}
	if _, ok := h.ownedProgram(w, r, c.ProgramID); !ok {
		return nil, false
	}
	return c, true
}

func (h *Handler) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req createProgramRequest
	if !h.decode(w, r, &req) {
		return
	}

	np := store.NewProgram{
		UserID:    uid,
		Name:      strings.TrimSpace(req.Name),
		YearRule:  grades.YearRule(req.YearRule),
		Semesters: req.Semesters,
	}
	if req.FromCatalog {
		if h.catalog == nil {
			writeError(w, http.StatusBadRequest, "no catalog configured")
			return
		}
		def, found := h.catalog.Find(np.Name)
		if !found {
			writeFieldErrors(w, map[string]string{"name": "year " + np.Name + " is not in the catalog"})
			return
		}
		np.Name = def.Year
		np.Courses = def.GradeCourses()
	}

	p, err := h.store.CreateProgram(r.Context(), np)
	if err != nil {
		h.writeStoreError(w, r, err, "program")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	programs, err := h.store.ListPrograms(r.Context(), uid)
	if err != nil {
		h.writeStoreError(w, r, err, "program")
		return
	}
	if programs == nil {
		programs = []store.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (h *Handler) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	if err := h.store.DeleteProgram(r.Context(), p.ID); err != nil {
		h.writeStoreError(w, r, err, "program")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleCreateSemester(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	var req createSemesterRequest
	if !h.decode(w, r, &req) {
		return
	}
	sem, err := h.store.CreateSemester(r.Context(), p.ID, strings.TrimSpace(req.Name))
	if err != nil {
		h.writeStoreError(w, r, err, "semester")
		return
	}
	writeJSON(w, http.StatusCreated, sem)
}

func (h *Handler) handleListSemesters(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	semesters, err := h.store.ListSemesters(r.Context(), p.ID)
	if err != nil {
		h.writeStoreError(w, r, err, "semester")
		return
	}
	if semesters == nil {
		semesters = []store.Semester{}
	}
	writeJSON(w, http.StatusOK, semesters)
}

func (h *Handler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	var req createCourseRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.store.CreateCourse(r.Context(), store.Course{
		ProgramID:  p.ID,
		SemesterID: req.SemesterID,
		Code:       strings.TrimSpace(req.Code),
		Name:       strings.TrimSpace(req.Name),
		Credits:    req.Credits,
	})
	if err != nil {
		h.writeStoreError(w, r, err, "course")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleListCourses returns every course of the program with its average.
func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedProgram(w, r, r.PathValue("programID"))
	if !ok {
		return
	}
	courses, err := h.store.ListCourses(r.Context(), p.ID)
	if err != nil {
		h.writeStoreError(w, r, err, "course")
		return
	}

	result := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		list, err := h.store.ListGrades(r.Context(), c.ID)
		if err != nil {
			h.writeStoreError(w, r, err, "course")
			return
		}
		result = append(result, courseResponse{
			Course:     c,
			GradeCount: len(list),
			Average:    courseAverage(list),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r, r.PathValue("courseID"))
	if !ok {
		return
	}
	var req updateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.store.UpdateCourseCredits(r.Context(), c.ID, *req.Credits); err != nil {
		h.writeStoreError(w, r, err, "course")
		return
	}
	c.Credits = *req.Credits
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r, r.PathValue("courseID"))
	if !ok {
		return
	}
	if err := h.store.DeleteCourse(r.Context(), c.ID); err != nil {
		h.writeStoreError(w, r, err, "course")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func courseAverage(list []store.Grade) grades.Result {
	entries := make([]grades.Entry, 0, len(list))
	for _, g := range list {
		entries = append(entries, g.Grade().Entry())
	}
	return grades.Aggregate(entries)
}
