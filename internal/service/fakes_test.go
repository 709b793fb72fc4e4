package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/brightclass/quiz-service/internal/models"
)

// In-memory repository doubles. They emulate the two partial unique indexes
// that the race-resolution paths depend on: at most one non-completed
// enrollment per (quiz, student), at most one in-progress attempt per
// enrollment. Violations surface as *pq.Error 23505, same as the driver.

func uniqueViolation() error {
	return &pq.Error{Code: "23505"}
}

var testLogger = zerolog.Nop()

type fakeQuizRepo struct {
	mu        sync.Mutex
	quizzes   map[string]*models.Quiz
	questions map[string][]models.Question
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{
		quizzes:   make(map[string]*models.Quiz),
		questions: make(map[string][]models.Question),
	}
}

func (r *fakeQuizRepo) Create(ctx context.Context, quiz *models.Quiz, questions []models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := *quiz
	r.quizzes[quiz.ID] = &q
	r.questions[quiz.ID] = append([]models.Question(nil), questions...)
	return nil
}

func (r *fakeQuizRepo) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return nil, nil
	}
	q := *quiz
	return &q, nil
}

func (r *fakeQuizRepo) GetQuestions(ctx context.Context, quizID string) ([]models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Question(nil), r.questions[quizID]...), nil
}

func (r *fakeQuizRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.quizzes[id]
	return ok, nil
}

func (r *fakeQuizRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	quiz, ok := r.quizzes[id]
	if !ok {
		return fmt.Errorf("quiz %s not found", id)
	}
	quiz.Status = status
	return nil
}

type fakeEnrollmentRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Enrollment

	// beforeCreate runs inside Create before the insert, with the lock
	// held. Tests use it to sneak a competing row in and force the
	// unique-violation path.
	beforeCreate func()
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{rows: make(map[string]*models.Enrollment)}
}

func (r *fakeEnrollmentRepo) insertLocked(enrollment *models.Enrollment) error {
	for _, row := range r.rows {
		if row.QuizID == enrollment.QuizID &&
			row.StudentID == enrollment.StudentID &&
			row.Status != models.EnrollmentStatusCompleted.String() {
			return uniqueViolation()
		}
	}
	e := *enrollment
	r.rows[enrollment.ID] = &e
	return nil
}

func (r *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	return r.insertLocked(enrollment)
}

func (r *fakeEnrollmentRepo) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	e := *row
	return &e, nil
}

func (r *fakeEnrollmentRepo) GetActive(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.QuizID == quizID && row.StudentID == studentID &&
			row.Status != models.EnrollmentStatusCompleted.String() {
			e := *row
			return &e, nil
		}
	}
	return nil, nil
}

func (r *fakeEnrollmentRepo) GetLatest(ctx context.Context, quizID, studentID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*models.Enrollment
	for _, row := range r.rows {
		if row.QuizID == quizID && row.StudentID == studentID {
			matches = append(matches, row)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EnrolledAt.After(matches[j].EnrolledAt)
	})
	e := *matches[0]
	return &e, nil
}

func (r *fakeEnrollmentRepo) GetEnrolledStudentIDs(ctx context.Context, quizID string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enrolled := make(map[string]bool)
	for _, row := range r.rows {
		if row.QuizID == quizID {
			enrolled[row.StudentID] = true
		}
	}
	return enrolled, nil
}

func (r *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("enrollment %s not found", id)
	}
	row.Status = status
	return nil
}

type fakeAttemptRepo struct {
	mu        sync.Mutex
	rows      map[string]*models.QuizAttempt
	responses []models.QuestionResponse

	// enrollments receives the enrollment status writes that the real
	// repository performs inside the attempt transactions.
	enrollments *fakeEnrollmentRepo

	beforeCreate func()

	// finalizeErr, when set, fails the next Finalize before any state
	// changes, emulating a rolled-back transaction. Cleared after one use.
	finalizeErr error
}

func newFakeAttemptRepo(enrollments *fakeEnrollmentRepo) *fakeAttemptRepo {
	return &fakeAttemptRepo{
		rows:        make(map[string]*models.QuizAttempt),
		enrollments: enrollments,
	}
}

func (r *fakeAttemptRepo) insertLocked(attempt *models.QuizAttempt) error {
	for _, row := range r.rows {
		if row.EnrollmentID == attempt.EnrollmentID &&
			row.Status == models.AttemptStatusInProgress.String() {
			return uniqueViolation()
		}
	}
	a := *attempt
	r.rows[attempt.ID] = &a
	return nil
}

func (r *fakeAttemptRepo) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	if err := r.insertLocked(attempt); err != nil {
		return err
	}
	if r.enrollments != nil {
		if err := r.enrollments.UpdateStatus(ctx, attempt.EnrollmentID,
			models.EnrollmentStatusInProgress.String()); err != nil {
			delete(r.rows, attempt.ID)
			return err
		}
	}
	return nil
}

func (r *fakeAttemptRepo) GetByID(ctx context.Context, id string) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	a := *row
	return &a, nil
}

func (r *fakeAttemptRepo) GetInProgressByEnrollment(ctx context.Context, enrollmentID string) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EnrollmentID == enrollmentID && row.Status == models.AttemptStatusInProgress.String() {
			a := *row
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) GetCompletedByEnrollment(ctx context.Context, enrollmentID string) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EnrollmentID == enrollmentID && row.Status == models.AttemptStatusCompleted.String() {
			a := *row
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) GetLatestInProgress(ctx context.Context, quizID, studentID string) (*models.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.QuizAttempt
	for _, row := range r.rows {
		if row.QuizID == quizID && row.StudentID == studentID &&
			row.Status == models.AttemptStatusInProgress.String() {
			if latest == nil || row.StartedAt.After(latest.StartedAt) {
				latest = row
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	a := *latest
	return &a, nil
}

func (r *fakeAttemptRepo) SaveSnapshot(ctx context.Context, attemptID string, snapshot *models.AutoSaveSnapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[attemptID]
	if !ok || row.Status != models.AttemptStatusInProgress.String() {
		return false, nil
	}
	row.Answers = append([]models.Answer(nil), snapshot.Answers...)
	row.CurrentQuestionIndex = snapshot.CurrentQuestionIndex
	row.TimeRemaining = snapshot.TimeRemaining
	savedAt := snapshot.SavedAt
	row.LastSavedAt = &savedAt
	return true, nil
}

func (r *fakeAttemptRepo) Finalize(ctx context.Context, attempt *models.QuizAttempt, responses []models.QuestionResponse) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.finalizeErr; err != nil {
		r.finalizeErr = nil
		return false, err
	}
	row, ok := r.rows[attempt.ID]
	if !ok || row.Status != models.AttemptStatusInProgress.String() {
		return false, nil
	}
	row.Status = models.AttemptStatusCompleted.String()
	row.Answers = append([]models.Answer(nil), attempt.Answers...)
	row.Score = attempt.Score
	row.CorrectCount = attempt.CorrectCount
	row.TimeSpent = attempt.TimeSpent
	row.CompletedAt = attempt.CompletedAt
	r.responses = append(r.responses, responses...)
	if r.enrollments != nil {
		if err := r.enrollments.UpdateStatus(ctx, row.EnrollmentID,
			models.EnrollmentStatusCompleted.String()); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *fakeAttemptRepo) Abandon(ctx context.Context, attemptID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[attemptID]
	if !ok || row.Status != models.AttemptStatusInProgress.String() {
		return false, nil
	}
	row.Status = models.AttemptStatusAbandoned.String()
	row.Answers = []models.Answer{}
	return true, nil
}

func (r *fakeAttemptRepo) AbandonAllInProgress(ctx context.Context, quizID, studentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.QuizID == quizID && row.StudentID == studentID &&
			row.Status == models.AttemptStatusInProgress.String() {
			row.Status = models.AttemptStatusAbandoned.String()
			row.Answers = []models.Answer{}
			count++
		}
	}
	return count, nil
}

type memoryRecoveryCache struct {
	mu        sync.Mutex
	snapshots map[string]*models.AutoSaveSnapshot
}

func newMemoryRecoveryCache() *memoryRecoveryCache {
	return &memoryRecoveryCache{snapshots: make(map[string]*models.AutoSaveSnapshot)}
}

func cacheKey(quizID, studentID string) string {
	return quizID + ":" + studentID
}

func (c *memoryRecoveryCache) Get(ctx context.Context, quizID, studentID string) (*models.AutoSaveSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.snapshots[cacheKey(quizID, studentID)]
	return snapshot, ok
}

func (c *memoryRecoveryCache) Set(ctx context.Context, quizID, studentID string, snapshot *models.AutoSaveSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[cacheKey(quizID, studentID)] = snapshot
}

func (c *memoryRecoveryCache) Delete(ctx context.Context, quizID, studentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, cacheKey(quizID, studentID))
}

type fakeNotifier struct {
	mu          sync.Mutex
	enrollments []*models.EnrollmentCreatedEvent
	reassigns   []*models.StudentReassignedEvent
	completions []*models.AttemptCompletedEvent
}

func (n *fakeNotifier) PublishEnrollmentCreated(ctx context.Context, event *models.EnrollmentCreatedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enrollments = append(n.enrollments, event)
	return nil
}

func (n *fakeNotifier) PublishStudentReassigned(ctx context.Context, event *models.StudentReassignedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reassigns = append(n.reassigns, event)
	return nil
}

func (n *fakeNotifier) PublishAttemptCompleted(ctx context.Context, event *models.AttemptCompletedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, event)
	return nil
}

func (n *fakeNotifier) Close() error { return nil }
