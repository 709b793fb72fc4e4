package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	GetActive(ctx context.Context, quizID, studentID string) (*models.Enrollment, error)
	GetLatest(ctx context.Context, quizID, studentID string) (*models.Enrollment, error)
	GetEnrolledStudentIDs(ctx context.Context, quizID string) (map[string]bool, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type enrollmentRepository struct {
	*PostgresRepository
}

func NewEnrollmentRepository(db *sql.DB, logger zerolog.Logger) EnrollmentRepository {
	return &enrollmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// Create inserts a new enrollment. A partial unique index on
// (quiz_id, student_id) WHERE status <> 'completed' guarantees at most one
// active enrollment per student per quiz; a concurrent duplicate insert
// surfaces as a unique violation for the loser.
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (id, quiz_id, student_id, status, enrolled_at,
			is_reassignment, parent_enrollment_id, group_enrollment_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		enrollment.ID,
		enrollment.QuizID,
		enrollment.StudentID,
		enrollment.Status,
		enrollment.EnrolledAt,
		enrollment.IsReassignment,
		enrollment.ParentEnrollmentID,
		enrollment.GroupEnrollmentID,
		enrollment.Reason,
	)

	return err
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `
		SELECT id, quiz_id, student_id, status, enrolled_at,
			is_reassignment, parent_enrollment_id, group_enrollment_id, reason
		FROM enrollments
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *enrollmentRepository) GetActive(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	query := `
		SELECT id, quiz_id, student_id, status, enrolled_at,
			is_reassignment, parent_enrollment_id, group_enrollment_id, reason
		FROM enrollments
		WHERE quiz_id = $1 AND student_id = $2 AND status != 'completed'
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, quizID, studentID))
}

func (r *enrollmentRepository) GetLatest(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	query := `
		SELECT id, quiz_id, student_id, status, enrolled_at,
			is_reassignment, parent_enrollment_id, group_enrollment_id, reason
		FROM enrollments
		WHERE quiz_id = $1 AND student_id = $2
		ORDER BY enrolled_at DESC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, quizID, studentID))
}

func (r *enrollmentRepository) GetEnrolledStudentIDs(ctx context.Context, quizID string) (map[string]bool, error) {
	query := `SELECT DISTINCT student_id FROM enrollments WHERE quiz_id = $1`

	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrolled := make(map[string]bool)
	for rows.Next() {
		var studentID string
		if err := rows.Scan(&studentID); err != nil {
			return nil, err
		}
		enrolled[studentID] = true
	}

	return enrolled, rows.Err()
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE enrollments
		SET status = $1
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *enrollmentRepository) scanOne(row *sql.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	var enrolledAt time.Time
	err := row.Scan(
		&e.ID,
		&e.QuizID,
		&e.StudentID,
		&e.Status,
		&enrolledAt,
		&e.IsReassignment,
		&e.ParentEnrollmentID,
		&e.GroupEnrollmentID,
		&e.Reason,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.EnrolledAt = enrolledAt
	return e, nil
}
