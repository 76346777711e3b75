// Package api implements the LetzGrade REST API.
// It serves study programs, courses and grades from a store, computes
// averages and target grades, and archives reports to blob storage.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/letzgrade/letzgrade/internal/report"
	"github.com/letzgrade/letzgrade/internal/storage"
	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/catalog"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

// UserHeader carries the caller's identity, set by the upstream auth proxy.
const UserHeader = "X-User-ID"

// Options configures a Handler.
type Options struct {
	// Scale bounds accepted scores. Zero means grades.DefaultScale.
	Scale grades.Scale
	// Catalog seeds programs created with from_catalog. Optional.
	Catalog *catalog.Catalog
	// Cache holds archived reports. Nil creates one with the default size.
	Cache *ReportCache
	// Metrics records request and solver metrics. Optional.
	Metrics *Metrics
}

// Handler is the top-level API handler for the LetzGrade service.
type Handler struct {
	store    store.Store
	reports  *report.Service
	catalog  *catalog.Catalog
	cache    *ReportCache
	metrics  *Metrics
	scale    grades.Scale
	validate *requestValidator
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(st store.Store, reports *report.Service, opts Options, logger *zap.Logger) *Handler {
	if opts.Scale.IsZero() {
		opts.Scale = grades.DefaultScale
	}
	if opts.Cache == nil {
		opts.Cache = NewReportCache(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    st,
		reports:  reports,
		catalog:  opts.Catalog,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		scale:    opts.Scale,
		validate: newValidator(opts.Scale),
		logger:   logger,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Stateless endpoints
	mux.HandleFunc("GET /api/catalog/years", h.handleCatalogYears)
	mux.HandleFunc("POST /api/target", h.handleTarget)
	mux.HandleFunc("POST /api/average", h.handleAverage)

	// Programs
	mux.HandleFunc("POST /api/programs", h.handleCreateProgram)
	mux.HandleFunc("GET /api/programs", h.handleListPrograms)
	mux.HandleFunc("GET /api/programs/{programID}", h.handleGetProgram)
	mux.HandleFunc("DELETE /api/programs/{programID}", h.handleDeleteProgram)
	mux.HandleFunc("POST /api/programs/{programID}/semesters", h.handleCreateSemester)
	mux.HandleFunc("GET /api/programs/{programID}/semesters", h.handleListSemesters)
	mux.HandleFunc("POST /api/programs/{programID}/courses", h.handleCreateCourse)
	mux.HandleFunc("GET /api/programs/{programID}/courses", h.handleListCourses)

	// Courses and grades
	mux.HandleFunc("PATCH /api/courses/{courseID}", h.handleUpdateCourse)
	mux.HandleFunc("DELETE /api/courses/{courseID}", h.handleDeleteCourse)
	mux.HandleFunc("GET /api/courses/{courseID}/grades", h.handleListGrades)
	mux.HandleFunc("POST /api/courses/{courseID}/grades", h.handleAddGrade)
	mux.HandleFunc("PUT /api/grades/{gradeID}", h.handleUpdateGrade)
	mux.HandleFunc("DELETE /api/grades/{gradeID}", h.handleDeleteGrade)

	// Reports
	mux.HandleFunc("GET /api/programs/{programID}/report", h.handleReport)
	mux.HandleFunc("POST /api/programs/{programID}/reports", h.handleArchiveReport)
	mux.HandleFunc("GET /api/programs/{programID}/reports", h.handleListReports)
	mux.HandleFunc("GET /api/reports/{reportID}", h.handleGetReport)

	// Exam calendar
	mux.HandleFunc("POST /api/exams", h.handleCreateExam)
	mux.HandleFunc("GET /api/exams", h.handleListExams)
	mux.HandleFunc("DELETE /api/exams/{examID}", h.handleDeleteExam)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type fieldErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, fieldErrorResponse{Error: "validation failed", Fields: fields})
}

// writeStoreError maps store and storage errors to a status. Unexpected
// errors are logged and reported as 500 without details.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrTooManySemesters):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, what+" already exists")
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v and validates it. It writes the error
// response and returns false when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeFieldErrors(w, h.validate.translate(verrs))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// userID returns the caller identity, or writes 401.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(UserHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
		return "", false
	}
	return id, true
}
