package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
)

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz, questions []models.Question) error
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	GetQuestions(ctx context.Context, quizID string) ([]models.Question, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type quizRepository struct {
	*PostgresRepository
}

func NewQuizRepository(db *sql.DB, logger zerolog.Logger) QuizRepository {
	return &quizRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz, questions []models.Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quizQuery := `
		INSERT INTO quizzes (id, educator_id, title, description, status, duration_minutes,
			start_time, timezone, shuffle_questions, question_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, quizQuery,
		quiz.ID,
		quiz.EducatorID,
		quiz.Title,
		quiz.Description,
		quiz.Status,
		quiz.DurationMinutes,
		quiz.StartTime,
		quiz.Timezone,
		quiz.ShuffleQuestions,
		quiz.QuestionCount,
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}

	questionQuery := `
		INSERT INTO questions (id, quiz_id, text, options, correct_option_id, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to marshal options: %w", err)
		}

		_, err = tx.ExecContext(ctx, questionQuery,
			q.ID,
			quiz.ID,
			q.Text,
			optionsJSON,
			q.CorrectOptionID,
			q.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
	}

	return tx.Commit()
}

func (r *quizRepository) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	query := `
		SELECT id, educator_id, title, description, status, duration_minutes,
			start_time, timezone, shuffle_questions, question_count, created_at, updated_at
		FROM quizzes
		WHERE id = $1
	`

	quiz := &models.Quiz{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&quiz.ID,
		&quiz.EducatorID,
		&quiz.Title,
		&quiz.Description,
		&quiz.Status,
		&quiz.DurationMinutes,
		&quiz.StartTime,
		&quiz.Timezone,
		&quiz.ShuffleQuestions,
		&quiz.QuestionCount,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return quiz, err
}

func (r *quizRepository) GetQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	query := `
		SELECT id, quiz_id, text, options, correct_option_id, position
		FROM questions
		WHERE quiz_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var optionsJSON []byte
		err := rows.Scan(
			&q.ID,
			&q.QuizID,
			&q.Text,
			&optionsJSON,
			&q.CorrectOptionID,
			&q.Position,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (r *quizRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM quizzes WHERE id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *quizRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE quizzes
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}
