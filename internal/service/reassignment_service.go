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
)

// ReassignmentService grants fresh enrollments that bypass the original
// schedule. It is additive and auditable: the original completed attempt and
// enrollment are never mutated.
type ReassignmentService interface {
	Eligibility(ctx context.Context, quizID string, studentIDs []string) ([]models.EligibilityResult, error)
	Reassign(ctx context.Context, quizID string, studentIDs []string, reason string) (*models.ReassignResponse, error)
}

type reassignmentService struct {
	enrollmentRepo repository.EnrollmentRepository
	quizRepo       repository.QuizRepository
	notifier       integration.NotifierClient
	logger         zerolog.Logger
	now            func() time.Time
}

func NewReassignmentService(
	enrollmentRepo repository.EnrollmentRepository,
	quizRepo repository.QuizRepository,
	notifier integration.NotifierClient,
	logger zerolog.Logger,
) ReassignmentService {
	return &reassignmentService{
		enrollmentRepo: enrollmentRepo,
		quizRepo:       quizRepo,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// Eligibility computes, without mutating anything, whether each student may
// be reassigned: eligible iff no currently-active enrollment, regardless of
// how any prior enrollment ended.
func (s *reassignmentService) Eligibility(ctx context.Context, quizID string, studentIDs []string) ([]models.EligibilityResult, error) {
	exists, err := s.quizRepo.Exists(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz: %w", err)
	}
	if !exists {
		return nil, models.ErrQuizNotFound
	}

	results := make([]models.EligibilityResult, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		result, err := s.eligibility(ctx, quizID, studentID)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *reassignmentService) eligibility(ctx context.Context, quizID, studentID string) (models.EligibilityResult, error) {
	active, err := s.enrollmentRepo.GetActive(ctx, quizID, studentID)
	if err != nil {
		return models.EligibilityResult{}, fmt.Errorf("failed to check active enrollment: %w", err)
	}
	if active != nil {
		return models.EligibilityResult{
			StudentID: studentID,
			Eligible:  false,
			Reason:    fmt.Sprintf("student has an active enrollment (status: %s)", active.Status),
		}, nil
	}

	latest, err := s.enrollmentRepo.GetLatest(ctx, quizID, studentID)
	if err != nil {
		return models.EligibilityResult{}, fmt.Errorf("failed to check prior enrollments: %w", err)
	}

	reason := "student has no prior enrollment"
	if latest != nil {
		reason = "student completed the quiz and may be granted a retake"
	}
	return models.EligibilityResult{StudentID: studentID, Eligible: true, Reason: reason}, nil
}

func (s *reassignmentService) Reassign(ctx context.Context, quizID string, studentIDs []string, reason string) (*models.ReassignResponse, error) {
	exists, err := s.quizRepo.Exists(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to check quiz: %w", err)
	}
	if !exists {
		return nil, models.ErrQuizNotFound
	}

	resp := &models.ReassignResponse{}
	for _, studentID := range studentIDs {
		result, err := s.reassignOne(ctx, quizID, studentID, reason)
		if err != nil {
			return nil, err
		}
		if result.Reassigned {
			resp.Reassigned++
		} else {
			resp.Skipped++
		}
		resp.Results = append(resp.Results, result)
	}

	s.logger.Info().
		Str("quiz_id", quizID).
		Int("reassigned", resp.Reassigned).
		Int("skipped", resp.Skipped).
		Msg("Reassignment finished")

	return resp, nil
}

func (s *reassignmentService) reassignOne(ctx context.Context, quizID, studentID, reason string) (models.ReassignResult, error) {
	eligibility, err := s.eligibility(ctx, quizID, studentID)
	if err != nil {
		return models.ReassignResult{}, err
	}
	if !eligibility.Eligible {
		return models.ReassignResult{StudentID: studentID, Reassigned: false, Reason: eligibility.Reason}, nil
	}

	var parentID *string
	latest, err := s.enrollmentRepo.GetLatest(ctx, quizID, studentID)
	if err != nil {
		return models.ReassignResult{}, fmt.Errorf("failed to load prior enrollment: %w", err)
	}
	if latest != nil {
		parentID = &latest.ID
	}

	enrollment := &models.Enrollment{
		ID:                 uuid.New().String(),
		QuizID:             quizID,
		StudentID:          studentID,
		Status:             models.EnrollmentStatusEnrolled.String(),
		EnrolledAt:         s.now(),
		IsReassignment:     true,
		ParentEnrollmentID: parentID,
	}
	if reason != "" {
		enrollment.Reason = &reason
	}

	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		if repository.IsUniqueViolation(err) {
			// Someone re-enrolled the student between the eligibility read
			// and the insert.
			return models.ReassignResult{
				StudentID:  studentID,
				Reassigned: false,
				Reason:     "student was enrolled concurrently",
			}, nil
		}
		return models.ReassignResult{}, fmt.Errorf("failed to create reassignment enrollment: %w", err)
	}

	s.logger.Info().
		Str("enrollment_id", enrollment.ID).
		Str("quiz_id", quizID).
		Str("student_id", studentID).
		Msg("Student reassigned")

	s.notifyReassigned(ctx, enrollment, reason)

	return models.ReassignResult{
		StudentID:    studentID,
		EnrollmentID: enrollment.ID,
		Reassigned:   true,
	}, nil
}

func (s *reassignmentService) notifyReassigned(ctx context.Context, enrollment *models.Enrollment, reason string) {
	if s.notifier == nil {
		return
	}

	event := &models.StudentReassignedEvent{
		EnrollmentID: enrollment.ID,
		QuizID:       enrollment.QuizID,
		StudentID:    enrollment.StudentID,
		Reason:       reason,
		Timestamp:    s.now().Unix(),
	}
	if enrollment.ParentEnrollmentID != nil {
		event.ParentEnrollmentID = *enrollment.ParentEnrollmentID
	}

	if err := s.notifier.PublishStudentReassigned(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("enrollment_id", enrollment.ID).
			Msg("Failed to publish student reassigned event")
	}
}
