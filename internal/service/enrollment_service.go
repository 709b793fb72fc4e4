package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
	"github.com/brightclass/quiz-service/internal/repository"
	"github.com/brightclass/quiz-service/internal/service/integration"
	"github.com/brightclass/quiz-service/internal/service/policy"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, quizID, studentID string) (*models.Enrollment, error)
	BulkEnroll(ctx context.Context, quizID string, studentIDs []string) (*models.BulkEnrollResponse, error)
	EnsureEnrolled(ctx context.Context, quizID, studentID string) (*models.Enrollment, error)
}

type enrollmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	quizRepo       repository.QuizRepository
	window         policy.TimeWindow
	notifier       integration.NotifierClient
	logger         zerolog.Logger
	now            func() time.Time
}

func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	quizRepo repository.QuizRepository,
	window policy.TimeWindow,
	notifier integration.NotifierClient,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		quizRepo:       quizRepo,
		window:         window,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	quiz, err := s.requireOpenQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	existing, err := s.enrollmentRepo.GetActive(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing != nil {
		return nil, models.ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		ID:         uuid.New().String(),
		QuizID:     quiz.ID,
		StudentID:  studentID,
		Status:     models.EnrollmentStatusEnrolled.String(),
		EnrolledAt: s.now(),
	}

	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info().
		Str("enrollment_id", enrollment.ID).
		Str("quiz_id", quizID).
		Str("student_id", studentID).
		Msg("Student enrolled")

	s.notifyEnrollmentCreated(ctx, enrollment)

	return enrollment, nil
}

func (s *enrollmentService) BulkEnroll(ctx context.Context, quizID string, studentIDs []string) (*models.BulkEnrollResponse, error) {
	quiz, err := s.requireOpenQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	already, err := s.enrollmentRepo.GetEnrolledStudentIDs(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing enrollments: %w", err)
	}

	resp := &models.BulkEnrollResponse{}
	seen := make(map[string]bool, len(studentIDs))
	for _, studentID := range studentIDs {
		if seen[studentID] {
			continue
		}
		seen[studentID] = true

		if already[studentID] {
			resp.AlreadyEnrolled++
			continue
		}

		enrollment := &models.Enrollment{
			ID:         uuid.New().String(),
			QuizID:     quiz.ID,
			StudentID:  studentID,
			Status:     models.EnrollmentStatusEnrolled.String(),
			EnrolledAt: s.now(),
		}

		if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
			if repository.IsUniqueViolation(err) {
				resp.AlreadyEnrolled++
				continue
			}
			return nil, fmt.Errorf("failed to create enrollment for student %s: %w", studentID, err)
		}

		resp.Enrolled++
		resp.EnrolledIDs = append(resp.EnrolledIDs, studentID)
		s.notifyEnrollmentCreated(ctx, enrollment)
	}

	s.logger.Info().
		Str("quiz_id", quizID).
		Int("enrolled", resp.Enrolled).
		Int("already_enrolled", resp.AlreadyEnrolled).
		Msg("Bulk enrollment finished")

	return resp, nil
}

// EnsureEnrolled is the explicit form of the share-link implicit enrollment:
// it returns the student's active enrollment, creating one when none exists.
// Idempotent under concurrent calls; the loser of a duplicate insert reads
// the winner's row instead of failing.
func (s *enrollmentService) EnsureEnrolled(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	existing, err := s.enrollmentRepo.GetActive(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, models.ErrQuizNotFound
	}
	if quiz.Status != models.QuizStatusPublished.String() {
		return nil, models.ErrQuizNotPublished
	}

	enrollment := &models.Enrollment{
		ID:         uuid.New().String(),
		QuizID:     quizID,
		StudentID:  studentID,
		Status:     models.EnrollmentStatusEnrolled.String(),
		EnrolledAt: s.now(),
	}

	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			winner, readErr := s.enrollmentRepo.GetActive(ctx, quizID, studentID)
			if readErr != nil {
				return nil, fmt.Errorf("failed to re-read enrollment after race: %w", readErr)
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info().
		Str("enrollment_id", enrollment.ID).
		Str("quiz_id", quizID).
		Str("student_id", studentID).
		Msg("Student implicitly enrolled via quiz access")

	s.notifyEnrollmentCreated(ctx, enrollment)

	return enrollment, nil
}

// requireOpenQuiz loads the quiz and verifies it accepts new enrollments:
// published and not past its nominal window. Expired quizzes reject with a
// hint to use reassignment instead.
func (s *enrollmentService) requireOpenQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, models.ErrQuizNotFound
	}
	if quiz.Status != models.QuizStatusPublished.String() {
		return nil, models.ErrQuizNotPublished
	}
	if s.window.Availability(quiz, s.now()).Status == policy.StatusEnded {
		return nil, models.ErrQuizEnded
	}
	return quiz, nil
}

func (s *enrollmentService) notifyEnrollmentCreated(ctx context.Context, enrollment *models.Enrollment) {
	if s.notifier == nil {
		return
	}

	event := &models.EnrollmentCreatedEvent{
		EnrollmentID:   enrollment.ID,
		QuizID:         enrollment.QuizID,
		StudentID:      enrollment.StudentID,
		IsReassignment: enrollment.IsReassignment,
		Timestamp:      s.now().Unix(),
	}

	if err := s.notifier.PublishEnrollmentCreated(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("enrollment_id", enrollment.ID).
			Msg("Failed to publish enrollment created event")
	}
}
