package httpd

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/brightclass/quiz-service/internal/models"
)

func (h *Handler) ReassignmentEligibility(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.requireEducator(w, r); !ok {
		return
	}

	raw := r.URL.Query().Get("student_ids")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "student_ids query parameter is required")
		return
	}
	studentIDs := strings.Split(raw, ",")
	for _, studentID := range studentIDs {
		if _, err := uuid.Parse(studentID); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid student id format: "+studentID)
			return
		}
	}

	results, err := h.reassignmentService.Eligibility(r.Context(), quizID, studentIDs)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, results)
}

func (h *Handler) Reassign(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.requireEducator(w, r); !ok {
		return
	}

	var req models.ReassignRequest
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

	response, err := h.reassignmentService.Reassign(r.Context(), quizID, req.StudentIDs, req.Reason)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}
