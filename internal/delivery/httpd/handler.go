package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
	"github.com/brightclass/quiz-service/internal/service"
)

// StatusTooEarly is the 425 admission code for windows that have not opened.
const StatusTooEarly = 425

type Handler struct {
	quizService         service.QuizService
	enrollmentService   service.EnrollmentService
	attemptService      service.AttemptService
	reassignmentService service.ReassignmentService
	logger              zerolog.Logger
}

func NewHandler(
	quizService service.QuizService,
	enrollmentService service.EnrollmentService,
	attemptService service.AttemptService,
	reassignmentService service.ReassignmentService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		quizService:         quizService,
		enrollmentService:   enrollmentService,
		attemptService:      attemptService,
		reassignmentService: reassignmentService,
		logger:              logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/quizzes", func(r chi.Router) {
			r.Post("/", h.CreateQuiz)
			r.Get("/{id}", h.GetQuiz)
			r.Post("/{id}/publish", h.PublishQuiz)
			r.Get("/{id}/availability", h.GetAvailability)

			r.Post("/{id}/enrollments", h.Enroll)
			r.Post("/{id}/enrollments/bulk", h.BulkEnroll)

			r.Get("/{id}/reassignments/eligibility", h.ReassignmentEligibility)
			r.Post("/{id}/reassignments", h.Reassign)

			r.Post("/{id}/attempts/start", h.StartAttempt)
			r.Get("/{id}/autosave", h.GetAutoSave)
			r.Post("/{id}/session/clear", h.ClearSession)
		})

		api.Route("/attempts", func(r chi.Router) {
			r.Post("/{id}/autosave", h.AutoSave)
			r.Post("/{id}/submit", h.SubmitAttempt)
			r.Post("/{id}/abandon", h.AbandonAttempt)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "quiz-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleServiceError maps the domain error taxonomy onto HTTP statuses.
// Authorization failures stay opaque; unexpected errors log the detail and
// return a generic 500.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrQuizNotFound),
		errors.Is(err, models.ErrAttemptNotFound),
		errors.Is(err, models.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrQuizNotScheduled),
		errors.Is(err, models.ErrQuizNotStarted):
		writeError(w, StatusTooEarly, err.Error())
	case errors.Is(err, models.ErrQuizEnded),
		errors.Is(err, models.ErrQuizTimeExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, models.ErrAlreadyCompleted),
		errors.Is(err, models.ErrQuizNotPublished),
		errors.Is(err, models.ErrNoActiveEnrollment):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrAlreadyEnrolled),
		errors.Is(err, models.ErrAttemptNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
