package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
	"github.com/brightclass/quiz-service/internal/repository"
	"github.com/brightclass/quiz-service/internal/service/policy"
)

// QuizService is the read/write glue around quiz definitions. Question
// authoring itself (document ingestion, generation) lives outside this
// service; the payload arrives ready-made.
type QuizService interface {
	Create(ctx context.Context, educatorID string, req *models.CreateQuizRequest) (*models.Quiz, error)
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	Publish(ctx context.Context, id string) error
	Availability(ctx context.Context, id string) (*models.AvailabilityResponse, error)
}

type quizService struct {
	quizRepo repository.QuizRepository
	window   policy.TimeWindow
	logger   zerolog.Logger
	now      func() time.Time
}

func NewQuizService(quizRepo repository.QuizRepository, window policy.TimeWindow, logger zerolog.Logger) QuizService {
	return &quizService{
		quizRepo: quizRepo,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *quizService) Create(ctx context.Context, educatorID string, req *models.CreateQuizRequest) (*models.Quiz, error) {
	now := s.now()
	quiz := &models.Quiz{
		ID:               uuid.New().String(),
		EducatorID:       educatorID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           models.QuizStatusDraft.String(),
		DurationMinutes:  req.DurationMinutes,
		StartTime:        req.StartTime,
		Timezone:         req.Timezone,
		ShuffleQuestions: req.ShuffleQuestions,
		QuestionCount:    len(req.Questions),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		questions = append(questions, models.Question{
			ID:              uuid.New().String(),
			QuizID:          quiz.ID,
			Text:            q.Text,
			Options:         q.Options,
			CorrectOptionID: q.CorrectOptionID,
			Position:        i,
		})
	}

	if err := s.quizRepo.Create(ctx, quiz, questions); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info().
		Str("quiz_id", quiz.ID).
		Str("educator_id", educatorID).
		Int("questions", len(questions)).
		Msg("Quiz created")

	return quiz, nil
}

func (s *quizService) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, models.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *quizService) Publish(ctx context.Context, id string) error {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return models.ErrQuizNotFound
	}

	return s.quizRepo.UpdateStatus(ctx, id, models.QuizStatusPublished.String())
}

func (s *quizService) Availability(ctx context.Context, id string) (*models.AvailabilityResponse, error) {
	quiz, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	av := s.window.Availability(quiz, s.now())
	return &models.AvailabilityResponse{
		Status:    av.Status,
		StartTime: av.StartTime,
		EndTime:   av.EndTime,
	}, nil
}
