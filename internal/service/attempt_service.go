package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/cache"
	"github.com/brightclass/quiz-service/internal/models"
	"github.com/brightclass/quiz-service/internal/repository"
	"github.com/brightclass/quiz-service/internal/service/grading"
	"github.com/brightclass/quiz-service/internal/service/integration"
	"github.com/brightclass/quiz-service/internal/service/policy"
	"github.com/brightclass/quiz-service/pkg/shuffle"
)

// AttemptService drives the attempt lifecycle:
// NONE -> IN_PROGRESS -> {COMPLETED | ABANDONED}.
type AttemptService interface {
	Start(ctx context.Context, quizID, studentID string) (*models.StartAttemptResponse, error)
	AutoSave(ctx context.Context, studentID, attemptID string, req *models.AutoSaveRequest) (*models.AutoSaveResponse, error)
	Recovery(ctx context.Context, quizID, studentID string) (*models.RecoveryResponse, error)
	Submit(ctx context.Context, studentID, attemptID string, req *models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error)
	Abandon(ctx context.Context, studentID, attemptID string) (*models.AbandonResponse, error)
	ClearSession(ctx context.Context, quizID, studentID string) (*models.AbandonResponse, error)
}

type attemptService struct {
	attemptRepo    repository.AttemptRepository
	enrollmentRepo repository.EnrollmentRepository
	quizRepo       repository.QuizRepository
	enrollments    EnrollmentService
	window         policy.TimeWindow
	recovery       cache.RecoveryCache
	notifier       integration.NotifierClient
	logger         zerolog.Logger
	now            func() time.Time
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	enrollmentRepo repository.EnrollmentRepository,
	quizRepo repository.QuizRepository,
	enrollments EnrollmentService,
	window policy.TimeWindow,
	recovery cache.RecoveryCache,
	notifier integration.NotifierClient,
	logger zerolog.Logger,
) AttemptService {
	return &attemptService{
		attemptRepo:    attemptRepo,
		enrollmentRepo: enrollmentRepo,
		quizRepo:       quizRepo,
		enrollments:    enrollments,
		window:         window,
		recovery:       recovery,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *attemptService) Start(ctx context.Context, quizID, studentID string) (*models.StartAttemptResponse, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, models.ErrQuizNotFound
	}

	enrollment, err := s.enrollments.EnsureEnrolled(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	// One graded pass per enrollment. Retakes need a fresh enrollment via
	// reassignment, never a second attempt here.
	completed, err := s.attemptRepo.GetCompletedByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check completed attempts: %w", err)
	}
	if completed != nil {
		return nil, models.ErrAlreadyCompleted
	}

	existing, err := s.attemptRepo.GetInProgressByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check in-progress attempts: %w", err)
	}
	if existing != nil {
		return s.resume(ctx, quiz, enrollment, existing)
	}

	// Reassignments are exempt from the window, not from publication: an
	// unpublished quiz admits nobody.
	if quiz.Status != models.QuizStatusPublished.String() {
		return nil, models.ErrQuizNotPublished
	}
	if !enrollment.IsReassignment {
		if err := s.window.CanStart(quiz, s.now()); err != nil {
			return nil, err
		}
	}

	return s.create(ctx, quiz, enrollment)
}

func (s *attemptService) resume(ctx context.Context, quiz *models.Quiz, enrollment *models.Enrollment, attempt *models.QuizAttempt) (*models.StartAttemptResponse, error) {
	elapsed := int(s.now().Sub(attempt.StartedAt).Seconds())
	remaining := quiz.DurationMinutes*60 - elapsed

	if remaining <= 0 {
		if err := s.expire(ctx, quiz, enrollment, attempt); err != nil {
			return nil, err
		}
		return nil, models.ErrQuizTimeExpired
	}

	order := attempt.QuestionOrder
	if len(order) == 0 {
		// Legacy attempt without a stored order: re-derive it from the seed.
		questions, err := s.quizRepo.GetQuestions(ctx, quiz.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions: %w", err)
		}
		order = s.computeOrder(quiz, questions, shuffleSeed(attempt.ID, enrollment))
	}

	questions, err := s.studentQuestions(ctx, quiz.ID, order)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("attempt_id", attempt.ID).
		Str("quiz_id", quiz.ID).
		Int("remaining_seconds", remaining).
		Msg("Attempt resumed")

	return &models.StartAttemptResponse{
		Quiz:                 quiz,
		Questions:            questions,
		AttemptID:            attempt.ID,
		RemainingTimeSeconds: remaining,
		Resumed:              true,
		IsReassignment:       enrollment.IsReassignment,
		CurrentQuestionIndex: attempt.CurrentQuestionIndex,
	}, nil
}

func (s *attemptService) create(ctx context.Context, quiz *models.Quiz, enrollment *models.Enrollment) (*models.StartAttemptResponse, error) {
	allQuestions, err := s.quizRepo.GetQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	now := s.now()
	attempt := &models.QuizAttempt{
		ID:           uuid.New().String(),
		QuizID:       quiz.ID,
		StudentID:    enrollment.StudentID,
		EnrollmentID: enrollment.ID,
		Status:       models.AttemptStatusInProgress.String(),
		Answers:      []models.Answer{},
		StartedAt:    now,
	}
	attempt.QuestionOrder = s.computeOrder(quiz, allQuestions, shuffleSeed(attempt.ID, enrollment))
	attempt.TimeRemaining = quiz.DurationMinutes * 60

	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a duplicate-start race; the winner's attempt is the one.
			winner, readErr := s.attemptRepo.GetInProgressByEnrollment(ctx, enrollment.ID)
			if readErr != nil {
				return nil, fmt.Errorf("failed to re-read attempt after race: %w", readErr)
			}
			if winner != nil {
				return s.resume(ctx, quiz, enrollment, winner)
			}
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.recovery.Set(ctx, quiz.ID, enrollment.StudentID, &models.AutoSaveSnapshot{
		AttemptID:     attempt.ID,
		Answers:       []models.Answer{},
		TimeRemaining: attempt.TimeRemaining,
		SavedAt:       now,
	})

	questions := buildStudentQuestions(allQuestions, attempt.QuestionOrder)

	s.logger.Info().
		Str("attempt_id", attempt.ID).
		Str("quiz_id", quiz.ID).
		Str("student_id", enrollment.StudentID).
		Bool("is_reassignment", enrollment.IsReassignment).
		Msg("Attempt started")

	return &models.StartAttemptResponse{
		Quiz:                 quiz,
		Questions:            questions,
		AttemptID:            attempt.ID,
		RemainingTimeSeconds: attempt.TimeRemaining,
		Resumed:              false,
		IsReassignment:       enrollment.IsReassignment,
	}, nil
}

func (s *attemptService) AutoSave(ctx context.Context, studentID, attemptID string, req *models.AutoSaveRequest) (*models.AutoSaveResponse, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptStatusInProgress.String() {
		return nil, models.ErrAttemptNotActive
	}

	snapshot := &models.AutoSaveSnapshot{
		AttemptID:            attemptID,
		Answers:              req.Answers,
		CurrentQuestionIndex: req.CurrentQuestionIndex,
		TimeRemaining:        req.TimeRemaining,
		SavedAt:              s.now(),
	}

	saved, err := s.attemptRepo.SaveSnapshot(ctx, attemptID, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	if !saved {
		// A submit won the race: the row already left in_progress.
		return nil, models.ErrAttemptNotActive
	}

	s.recovery.Set(ctx, attempt.QuizID, studentID, snapshot)

	return &models.AutoSaveResponse{SavedAt: snapshot.SavedAt}, nil
}

func (s *attemptService) Recovery(ctx context.Context, quizID, studentID string) (*models.RecoveryResponse, error) {
	if snapshot, ok := s.recovery.Get(ctx, quizID, studentID); ok {
		return &models.RecoveryResponse{HasAutoSave: true, AutoSaveData: snapshot}, nil
	}

	attempt, err := s.attemptRepo.GetLatestInProgress(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load in-progress attempt: %w", err)
	}
	if attempt == nil {
		return &models.RecoveryResponse{HasAutoSave: false}, nil
	}

	savedAt := attempt.StartedAt
	if attempt.LastSavedAt != nil {
		savedAt = *attempt.LastSavedAt
	}
	snapshot := &models.AutoSaveSnapshot{
		AttemptID:            attempt.ID,
		Answers:              attempt.Answers,
		CurrentQuestionIndex: attempt.CurrentQuestionIndex,
		TimeRemaining:        attempt.TimeRemaining,
		SavedAt:              savedAt,
	}
	s.recovery.Set(ctx, quizID, studentID, snapshot)

	return &models.RecoveryResponse{HasAutoSave: true, AutoSaveData: snapshot}, nil
}

func (s *attemptService) Submit(ctx context.Context, studentID, attemptID string, req *models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == models.AttemptStatusCompleted.String() {
		return nil, models.ErrAlreadyCompleted
	}
	if attempt.Status != models.AttemptStatusInProgress.String() {
		return nil, models.ErrAttemptNotActive
	}

	quiz, err := s.quizRepo.GetByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, models.ErrQuizNotFound
	}

	enrollment, err := s.enrollmentRepo.GetByID(ctx, attempt.EnrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if enrollment == nil || !enrollment.IsReassignment {
		if err := s.window.CanSubmit(quiz, s.now()); err != nil {
			return nil, err
		}
	}

	questions, err := s.quizRepo.GetQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	result := grading.Score(req.Answers, questions)
	completedAt := s.now()
	attempt.Answers = req.Answers
	attempt.Score = result.Percentage
	attempt.CorrectCount = result.CorrectCount
	attempt.TimeSpent = req.TimeSpent
	attempt.CompletedAt = &completedAt

	responses := s.buildResponses(attempt, req.Answers, questions, completedAt)
	done, err := s.attemptRepo.Finalize(ctx, attempt, responses)
	if err != nil {
		// Everything rolled back; the attempt is still in progress and the
		// client may retry.
		return nil, fmt.Errorf("failed to complete attempt: %w", err)
	}
	if !done {
		// Another submit got there first; the stored score stands untouched.
		return nil, models.ErrAlreadyCompleted
	}

	s.recovery.Delete(ctx, attempt.QuizID, studentID)
	s.notifyAttemptCompleted(ctx, attempt)

	s.logger.Info().
		Str("attempt_id", attempt.ID).
		Str("quiz_id", attempt.QuizID).
		Str("student_id", studentID).
		Msg("Attempt submitted")

	// No score, no per-question correctness: peers in the same cohort may
	// still be testing.
	return &models.SubmitAttemptResponse{AttemptID: attempt.ID, Acknowledged: true}, nil
}

func (s *attemptService) Abandon(ctx context.Context, studentID, attemptID string) (*models.AbandonResponse, error) {
	attempt, err := s.ownedAttempt(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == models.AttemptStatusCompleted.String() {
		return nil, models.ErrAlreadyCompleted
	}

	abandoned, err := s.attemptRepo.Abandon(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to abandon attempt: %w", err)
	}
	if !abandoned {
		return &models.AbandonResponse{Abandoned: 0}, nil
	}

	if err := s.enrollmentRepo.UpdateStatus(ctx, attempt.EnrollmentID, models.EnrollmentStatusEnrolled.String()); err != nil {
		return nil, fmt.Errorf("failed to reset enrollment status: %w", err)
	}
	s.recovery.Delete(ctx, attempt.QuizID, studentID)

	s.logger.Info().
		Str("attempt_id", attemptID).
		Str("student_id", studentID).
		Msg("Attempt abandoned")

	return &models.AbandonResponse{Abandoned: 1}, nil
}

func (s *attemptService) ClearSession(ctx context.Context, quizID, studentID string) (*models.AbandonResponse, error) {
	count, err := s.attemptRepo.AbandonAllInProgress(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to abandon attempts: %w", err)
	}

	if count > 0 {
		enrollment, err := s.enrollmentRepo.GetActive(ctx, quizID, studentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get active enrollment: %w", err)
		}
		if enrollment != nil {
			if err := s.enrollmentRepo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusEnrolled.String()); err != nil {
				return nil, fmt.Errorf("failed to reset enrollment status: %w", err)
			}
		}
	}

	s.recovery.Delete(ctx, quizID, studentID)

	return &models.AbandonResponse{Abandoned: count}, nil
}

// expire completes a timed-out attempt server-side, grading whatever answers
// the last autosave captured.
func (s *attemptService) expire(ctx context.Context, quiz *models.Quiz, enrollment *models.Enrollment, attempt *models.QuizAttempt) error {
	questions, err := s.quizRepo.GetQuestions(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}

	result := grading.Score(attempt.Answers, questions)
	completedAt := s.now()
	attempt.Score = result.Percentage
	attempt.CorrectCount = result.CorrectCount
	attempt.TimeSpent = quiz.DurationMinutes * 60
	attempt.CompletedAt = &completedAt

	responses := s.buildResponses(attempt, attempt.Answers, questions, completedAt)
	done, err := s.attemptRepo.Finalize(ctx, attempt, responses)
	if err != nil {
		return fmt.Errorf("failed to complete expired attempt: %w", err)
	}
	if done {
		s.recovery.Delete(ctx, quiz.ID, enrollment.StudentID)
		s.notifyAttemptCompleted(ctx, attempt)

		s.logger.Info().
			Str("attempt_id", attempt.ID).
			Str("quiz_id", quiz.ID).
			Msg("Attempt completed server-side after time expiry")
	}
	return nil
}

// ownedAttempt loads an attempt and enforces ownership. Foreign and missing
// attempts are indistinguishable to the caller.
func (s *attemptService) ownedAttempt(ctx context.Context, studentID, attemptID string) (*models.QuizAttempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt == nil || attempt.StudentID != studentID {
		return nil, models.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *attemptService) studentQuestions(ctx context.Context, quizID string, order []models.QuestionOrder) ([]models.StudentQuestion, error) {
	questions, err := s.quizRepo.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return buildStudentQuestions(questions, order), nil
}

// computeOrder produces the realized per-attempt order. Question sequence is
// shuffled only when the quiz asks for it; option order is always shuffled
// per question with a question-scoped seed.
func (s *attemptService) computeOrder(quiz *models.Quiz, questions []models.Question, seed string) []models.QuestionOrder {
	ordered := questions
	if quiz.ShuffleQuestions {
		ordered = shuffle.Shuffle(questions, seed)
	}

	order := make([]models.QuestionOrder, 0, len(ordered))
	for _, q := range ordered {
		optionIDs := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			optionIDs = append(optionIDs, opt.OptionID)
		}
		order = append(order, models.QuestionOrder{
			QuestionID:  q.ID,
			OptionOrder: shuffle.Shuffle(optionIDs, seed+":"+q.ID),
		})
	}
	return order
}

// shuffleSeed decorrelates reassigned attempts from the original: a
// reassignment seeds with attempt id plus enrollment id so the orders can
// never coincide even for identical attempt ids.
func shuffleSeed(attemptID string, enrollment *models.Enrollment) string {
	if enrollment.IsReassignment {
		return attemptID + enrollment.ID
	}
	return attemptID
}

// buildStudentQuestions arranges the answer-key-free question views in the
// attempt's stored order, options included.
func buildStudentQuestions(questions []models.Question, order []models.QuestionOrder) []models.StudentQuestion {
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	out := make([]models.StudentQuestion, 0, len(order))
	for i, entry := range order {
		q, ok := byID[entry.QuestionID]
		if !ok {
			continue
		}

		optByID := make(map[string]models.QuestionOption, len(q.Options))
		for _, opt := range q.Options {
			optByID[opt.OptionID] = opt
		}
		options := make([]models.QuestionOption, 0, len(entry.OptionOrder))
		for _, optionID := range entry.OptionOrder {
			if opt, ok := optByID[optionID]; ok {
				options = append(options, opt)
			}
		}

		out = append(out, models.StudentQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Options:  options,
			Position: i,
		})
	}
	return out
}

func (s *attemptService) buildResponses(attempt *models.QuizAttempt, answers []models.Answer, questions []models.Question, createdAt time.Time) []models.QuestionResponse {
	results := grading.Grade(answers, questions)
	responses := make([]models.QuestionResponse, 0, len(results))
	for _, r := range results {
		resp := models.QuestionResponse{
			ID:         uuid.New().String(),
			AttemptID:  attempt.ID,
			QuestionID: r.QuestionID,
			IsCorrect:  r.IsCorrect,
			TimeSpent:  r.TimeSpent,
			Flagged:    r.Flagged,
			CreatedAt:  createdAt,
		}
		if r.SelectedOptionID != "" {
			selected := r.SelectedOptionID
			resp.SelectedOptionID = &selected
		}
		responses = append(responses, resp)
	}
	return responses
}

func (s *attemptService) notifyAttemptCompleted(ctx context.Context, attempt *models.QuizAttempt) {
	if s.notifier == nil {
		return
	}

	event := &models.AttemptCompletedEvent{
		AttemptID:    attempt.ID,
		QuizID:       attempt.QuizID,
		StudentID:    attempt.StudentID,
		EnrollmentID: attempt.EnrollmentID,
		Timestamp:    s.now().Unix(),
	}

	if err := s.notifier.PublishAttemptCompleted(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("attempt_id", attempt.ID).
			Msg("Failed to publish attempt completed event")
	}
}
