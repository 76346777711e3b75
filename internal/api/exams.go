package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/letzgrade/letzgrade/internal/store"
)

type createExamRequest struct {
	Name        string `json:"name" validate:"notblank,max=128"`
	Description string `json:"description" validate:"max=500"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

// examRange holds the optional from and to query parameters of the exam list.
type examRange struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

// ownedExam loads an exam and checks it belongs to the caller. Exams of other
// users are reported as missing.
func (h *Handler) ownedExam(w http.ResponseWriter, r *http.Request, examID string) (*store.Exam, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return nil, false
	}
	e, err := h.store.GetExam(r.Context(), examID)
	if err != nil {
		h.writeStoreError(w, r, err, "exam")
		return nil, false
	}
	if e.UserID != uid {
		writeError(w, http.StatusNotFound, "exam not found")
		return nil, false
	}
	return e, true
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req createExamRequest
	if !h.decode(w, r, &req) {
		return
	}

	e, err := h.store.CreateExam(r.Context(), store.Exam{
		UserID:      uid,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Date:        req.Date,
	})
	if err != nil {
		h.writeStoreError(w, r, err, "exam")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// handleListExams lists the caller's exams by date, optionally limited to
// ?from= and ?to= (inclusive, YYYY-MM-DD).
func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	q := examRange{From: r.URL.Query().Get("from"), To: r.URL.Query().Get("to")}
	if err := h.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeFieldErrors(w, h.validate.translate(verrs))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.From != "" && q.To != "" && q.From > q.To {
		writeFieldErrors(w, map[string]string{"to": "must not be before from"})
		return
	}

	exams, err := h.store.ListExams(r.Context(), uid, q.From, q.To)
	if err != nil {
		h.writeStoreError(w, r, err, "exam")
		return
	}
	if exams == nil {
		exams = []store.Exam{}
	}
	writeJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	e, ok := h.ownedExam(w, r, r.PathValue("examID"))
	if !ok {
		return
	}
	if err := h.store.DeleteExam(r.Context(), e.ID); err != nil {
		h.writeStoreError(w, r, err, "exam")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
