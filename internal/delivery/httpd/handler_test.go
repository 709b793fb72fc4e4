package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightclass/quiz-service/internal/middleware"
	"github.com/brightclass/quiz-service/internal/models"
	"github.com/rs/zerolog"
)

const (
	testQuizID    = "8a2e9f6e-1f5e-4c64-9a3a-0f3c2b1d4e5f"
	testAttemptID = "3b1c7f2a-9d4e-4a8b-b6c5-2e1f0a9d8c7b"
)

// Service stubs with pluggable behaviour. Unset methods return zero values.

type stubAttemptService struct {
	start  func(ctx context.Context, quizID, studentID string) (*models.StartAttemptResponse, error)
	submit func(ctx context.Context, studentID, attemptID string, req *models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error)
}

func (s *stubAttemptService) Start(ctx context.Context, quizID, studentID string) (*models.StartAttemptResponse, error) {
	if s.start != nil {
		return s.start(ctx, quizID, studentID)
	}
	return &models.StartAttemptResponse{}, nil
}

func (s *stubAttemptService) AutoSave(ctx context.Context, studentID, attemptID string, req *models.AutoSaveRequest) (*models.AutoSaveResponse, error) {
	return &models.AutoSaveResponse{}, nil
}

func (s *stubAttemptService) Recovery(ctx context.Context, quizID, studentID string) (*models.RecoveryResponse, error) {
	return &models.RecoveryResponse{}, nil
}

func (s *stubAttemptService) Submit(ctx context.Context, studentID, attemptID string, req *models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error) {
	if s.submit != nil {
		return s.submit(ctx, studentID, attemptID, req)
	}
	return &models.SubmitAttemptResponse{}, nil
}

func (s *stubAttemptService) Abandon(ctx context.Context, studentID, attemptID string) (*models.AbandonResponse, error) {
	return &models.AbandonResponse{}, nil
}

func (s *stubAttemptService) ClearSession(ctx context.Context, quizID, studentID string) (*models.AbandonResponse, error) {
	return &models.AbandonResponse{}, nil
}

type stubQuizService struct{}

func (stubQuizService) Create(ctx context.Context, educatorID string, req *models.CreateQuizRequest) (*models.Quiz, error) {
	return &models.Quiz{}, nil
}
func (stubQuizService) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	return &models.Quiz{ID: id}, nil
}
func (stubQuizService) Publish(ctx context.Context, id string) error { return nil }
func (stubQuizService) Availability(ctx context.Context, id string) (*models.AvailabilityResponse, error) {
	return &models.AvailabilityResponse{}, nil
}

type stubEnrollmentService struct{}

func (stubEnrollmentService) Enroll(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	return &models.Enrollment{}, nil
}
func (stubEnrollmentService) BulkEnroll(ctx context.Context, quizID string, studentIDs []string) (*models.BulkEnrollResponse, error) {
	return &models.BulkEnrollResponse{}, nil
}
func (stubEnrollmentService) EnsureEnrolled(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	return &models.Enrollment{}, nil
}

type stubReassignmentService struct{}

func (stubReassignmentService) Eligibility(ctx context.Context, quizID string, studentIDs []string) ([]models.EligibilityResult, error) {
	return nil, nil
}
func (stubReassignmentService) Reassign(ctx context.Context, quizID string, studentIDs []string, reason string) (*models.ReassignResponse, error) {
	return &models.ReassignResponse{}, nil
}

func newTestRouter(attempts *stubAttemptService) http.Handler {
	handler := NewHandler(
		stubQuizService{},
		stubEnrollmentService{},
		attempts,
		stubReassignmentService{},
		zerolog.Nop(),
	)
	router := chi.NewRouter()
	router.Use(middleware.Identity)
	handler.RegisterRoutes(router)
	return router
}

func doStart(t *testing.T, router http.Handler, studentID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/"+testQuizID+"/attempts/start", nil)
	if studentID != "" {
		req.Header.Set(middleware.HeaderStudentID, studentID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"quiz not found", models.ErrQuizNotFound, http.StatusNotFound},
		{"attempt not found", models.ErrAttemptNotFound, http.StatusNotFound},
		{"not scheduled", models.ErrQuizNotScheduled, StatusTooEarly},
		{"not started", models.ErrQuizNotStarted, StatusTooEarly},
		{"window ended", models.ErrQuizEnded, http.StatusGone},
		{"time expired", models.ErrQuizTimeExpired, http.StatusGone},
		{"already completed", models.ErrAlreadyCompleted, http.StatusForbidden},
		{"not published", models.ErrQuizNotPublished, http.StatusForbidden},
		{"already enrolled", models.ErrAlreadyEnrolled, http.StatusConflict},
		{"not active", models.ErrAttemptNotActive, http.StatusConflict},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubAttemptService{
				start: func(ctx context.Context, quizID, studentID string) (*models.StartAttemptResponse, error) {
					return nil, tt.err
				},
			})

			rec := doStart(t, router, "student-1")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestStartRequiresStudentIdentity(t *testing.T) {
	router := newTestRouter(&stubAttemptService{})

	rec := doStart(t, router, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartRejectsMalformedQuizID(t *testing.T) {
	router := newTestRouter(&stubAttemptService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes/not-a-uuid/attempts/start", nil)
	req.Header.Set(middleware.HeaderStudentID, "student-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResponseCarriesNoScore(t *testing.T) {
	router := newTestRouter(&stubAttemptService{
		submit: func(ctx context.Context, studentID, attemptID string, req *models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error) {
			return &models.SubmitAttemptResponse{AttemptID: attemptID, Acknowledged: true}, nil
		},
	})

	body := strings.NewReader(`{"answers":[{"question_id":"q1","selected_option_id":"b"}],"time_spent":600}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attempts/"+testAttemptID+"/submit", body)
	req.Header.Set(middleware.HeaderStudentID, "student-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, testAttemptID, envelope.Data["attempt_id"])
	assert.Equal(t, true, envelope.Data["acknowledged"])
	assert.NotContains(t, envelope.Data, "score")
	assert.NotContains(t, envelope.Data, "correct_count")
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&stubAttemptService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quiz-service")
}
