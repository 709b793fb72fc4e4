package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/brightclass/quiz-service/internal/models"
)

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.requireEducator(w, r); !ok {
		return
	}

	var req models.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := uuid.Parse(req.StudentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student_id format")
		return
	}

	enrollment, err := h.enrollmentService.Enroll(r.Context(), quizID, req.StudentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, enrollment)
}

func (h *Handler) BulkEnroll(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.requireEducator(w, r); !ok {
		return
	}

	var req models.BulkEnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.StudentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "student_ids is required")
		return
	}
	for _, studentID := range req.StudentIDs {
		if _, err := uuid.Parse(studentID); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid student id format: "+studentID)
			return
		}
	}

	response, err := h.enrollmentService.BulkEnroll(r.Context(), quizID, req.StudentIDs)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}
