package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/brightclass/quiz-service/internal/models"
)

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	educatorID, ok := h.requireEducator(w, r)
	if !ok {
		return
	}

	var req models.CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.DurationMinutes <= 0 {
		writeError(w, http.StatusBadRequest, "duration_minutes must be positive")
		return
	}
	for _, q := range req.Questions {
		if len(q.Options) < 2 {
			writeError(w, http.StatusBadRequest, "each question needs at least two options")
			return
		}
		if !hasOption(q.Options, q.CorrectOptionID) {
			writeError(w, http.StatusBadRequest, "correct_option_id must reference one of the options")
			return
		}
	}

	quiz, err := h.quizService.Create(r.Context(), educatorID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    quiz,
	})
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetByID(r.Context(), quizID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, quiz)
}

func (h *Handler) PublishQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.requireEducator(w, r); !ok {
		return
	}

	if err := h.quizService.Publish(r.Context(), quizID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Quiz published",
	})
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	quizID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	availability, err := h.quizService.Availability(r.Context(), quizID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, availability)
}

func hasOption(options []models.QuestionOption, optionID string) bool {
	for _, opt := range options {
		if opt.OptionID == optionID {
			return true
		}
	}
	return false
}
