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

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id string) (*models.QuizAttempt, error)
	GetInProgressByEnrollment(ctx context.Context, enrollmentID string) (*models.QuizAttempt, error)
	GetCompletedByEnrollment(ctx context.Context, enrollmentID string) (*models.QuizAttempt, error)
	GetLatestInProgress(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error)
	SaveSnapshot(ctx context.Context, attemptID string, snapshot *models.AutoSaveSnapshot) (bool, error)
	Finalize(ctx context.Context, attempt *models.QuizAttempt, responses []models.QuestionResponse) (bool, error)
	Abandon(ctx context.Context, attemptID string) (bool, error)
	AbandonAllInProgress(ctx context.Context, quizID, studentID string) (int, error)
}

type attemptRepository struct {
	*PostgresRepository
}

func NewAttemptRepository(db *sql.DB, logger zerolog.Logger) AttemptRepository {
	return &attemptRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const attemptColumns = `id, quiz_id, student_id, enrollment_id, status, question_order, answers,
	current_question_index, time_remaining, score, correct_count, time_spent,
	started_at, completed_at, last_saved_at`

// Create inserts a new in-progress attempt and moves its enrollment to
// in_progress in the same transaction. A partial unique index on
// (enrollment_id) WHERE status = 'in_progress' makes duplicate starts lose
// with a unique violation instead of creating a second row.
func (r *attemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	orderJSON, err := json.Marshal(attempt.QuestionOrder)
	if err != nil {
		return fmt.Errorf("failed to marshal question order: %w", err)
	}
	answersJSON, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO quiz_attempts (id, quiz_id, student_id, enrollment_id, status,
			question_order, answers, current_question_index, time_remaining,
			score, correct_count, time_spent, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = tx.ExecContext(ctx, query,
		attempt.ID,
		attempt.QuizID,
		attempt.StudentID,
		attempt.EnrollmentID,
		attempt.Status,
		orderJSON,
		answersJSON,
		attempt.CurrentQuestionIndex,
		attempt.TimeRemaining,
		attempt.Score,
		attempt.CorrectCount,
		attempt.TimeSpent,
		attempt.StartedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE enrollments SET status = 'in_progress' WHERE id = $1`,
		attempt.EnrollmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}

	return tx.Commit()
}

func (r *attemptRepository) GetByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *attemptRepository) GetInProgressByEnrollment(ctx context.Context, enrollmentID string) (*models.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + `
		FROM quiz_attempts
		WHERE enrollment_id = $1 AND status = 'in_progress'`

	return r.scanOne(r.db.QueryRowContext(ctx, query, enrollmentID))
}

func (r *attemptRepository) GetCompletedByEnrollment(ctx context.Context, enrollmentID string) (*models.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + `
		FROM quiz_attempts
		WHERE enrollment_id = $1 AND status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, enrollmentID))
}

func (r *attemptRepository) GetLatestInProgress(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + `
		FROM quiz_attempts
		WHERE quiz_id = $1 AND student_id = $2 AND status = 'in_progress'
		ORDER BY started_at DESC
		LIMIT 1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, quizID, studentID))
}

// SaveSnapshot overwrites the autosave state (last-write-wins). The status
// guard makes a racing submit win: once the row left in_progress the update
// touches nothing and the caller sees false.
func (r *attemptRepository) SaveSnapshot(ctx context.Context, attemptID string, snapshot *models.AutoSaveSnapshot) (bool, error) {
	answersJSON, err := json.Marshal(snapshot.Answers)
	if err != nil {
		return false, fmt.Errorf("failed to marshal answers: %w", err)
	}

	query := `
		UPDATE quiz_attempts
		SET answers = $1, current_question_index = $2, time_remaining = $3, last_saved_at = $4
		WHERE id = $5 AND status = 'in_progress'
	`

	result, err := r.db.ExecContext(ctx, query,
		answersJSON,
		snapshot.CurrentQuestionIndex,
		snapshot.TimeRemaining,
		snapshot.SavedAt,
		attemptID,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

const responseColumns = `id, attempt_id, question_id, selected_option_id, is_correct, time_spent, flagged, created_at`

// Finalize transitions an in-progress attempt to completed with its final
// score, records the graded per-question responses, and marks the
// enrollment completed, all in one transaction: a failure anywhere rolls
// every write back so a retry can finish the submit. The status guard makes
// the transition idempotent; a second submit updates zero rows and the
// caller sees false.
func (r *attemptRepository) Finalize(ctx context.Context, attempt *models.QuizAttempt, responses []models.QuestionResponse) (bool, error) {
	answersJSON, err := json.Marshal(attempt.Answers)
	if err != nil {
		return false, fmt.Errorf("failed to marshal answers: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	completeQuery := `
		UPDATE quiz_attempts
		SET status = 'completed', answers = $1, score = $2, correct_count = $3,
			time_spent = $4, completed_at = $5
		WHERE id = $6 AND status = 'in_progress'
	`

	result, err := tx.ExecContext(ctx, completeQuery,
		answersJSON,
		attempt.Score,
		attempt.CorrectCount,
		attempt.TimeSpent,
		attempt.CompletedAt,
		attempt.ID,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	insertQuery := `
		INSERT INTO question_responses (` + responseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, resp := range responses {
		_, err := tx.ExecContext(ctx, insertQuery,
			resp.ID,
			resp.AttemptID,
			resp.QuestionID,
			resp.SelectedOptionID,
			resp.IsCorrect,
			resp.TimeSpent,
			resp.Flagged,
			resp.CreatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert response: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE enrollments SET status = 'completed' WHERE id = $1`,
		attempt.EnrollmentID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update enrollment status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *attemptRepository) Abandon(ctx context.Context, attemptID string) (bool, error) {
	query := `
		UPDATE quiz_attempts
		SET status = 'abandoned', answers = '[]', completed_at = $1
		WHERE id = $2 AND status = 'in_progress'
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), attemptID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	return rows > 0, err
}

func (r *attemptRepository) AbandonAllInProgress(ctx context.Context, quizID, studentID string) (int, error) {
	query := `
		UPDATE quiz_attempts
		SET status = 'abandoned', answers = '[]', completed_at = $1
		WHERE quiz_id = $2 AND student_id = $3 AND status = 'in_progress'
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), quizID, studentID)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	return int(rows), err
}

func (r *attemptRepository) scanOne(row *sql.Row) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	var orderJSON, answersJSON []byte
	err := row.Scan(
		&a.ID,
		&a.QuizID,
		&a.StudentID,
		&a.EnrollmentID,
		&a.Status,
		&orderJSON,
		&answersJSON,
		&a.CurrentQuestionIndex,
		&a.TimeRemaining,
		&a.Score,
		&a.CorrectCount,
		&a.TimeSpent,
		&a.StartedAt,
		&a.CompletedAt,
		&a.LastSavedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(orderJSON, &a.QuestionOrder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal question order: %w", err)
	}
	if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}

	return a, nil
}
