package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brightclass/quiz-service/internal/middleware"
	"github.com/brightclass/quiz-service/internal/models"
)

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := h.requireStudent(w, r)
	if !ok {
		return
	}

	response, err := h.attemptService.Start(r.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) AutoSave(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := h.requireStudent(w, r)
	if !ok {
		return
	}

	var req models.AutoSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.attemptService.AutoSave(r.Context(), studentID, attemptID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetAutoSave(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := h.requireStudent(w, r)
	if !ok {
		return
	}

	response, err := h.attemptService.Recovery(r.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := h.requireStudent(w, r)
	if !ok {
		return
	}

	var req models.SubmitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.attemptService.Submit(r.Context(), studentID, attemptID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) AbandonAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := h.requireStudent(w, r)
	if !ok {
		return
	}

	response, err := h.attemptService.Abandon(r.Context(), studentID, attemptID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	studentID, ok := h.requireStudent(w, r)
	if !ok {
		return
	}

	response, err := h.attemptService.ClearSession(r.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) requireStudent(w http.ResponseWriter, r *http.Request) (string, bool) {
	studentID, ok := middleware.StudentID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing student identity")
		return "", false
	}
	return studentID, true
}

func (h *Handler) requireEducator(w http.ResponseWriter, r *http.Request) (string, bool) {
	educatorID, ok := middleware.EducatorID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing educator identity")
		return "", false
	}
	return educatorID, true
}

func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := chi.URLParam(r, name)
	if value == "" {
		writeError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return "", false
	}
	return value, true
}
