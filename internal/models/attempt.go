package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
	AttemptStatusAbandoned  AttemptStatus = "abandoned"
)

func (as AttemptStatus) String() string {
	return string(as)
}

// QuestionOrder is the realized shuffle captured once at attempt creation:
// the question sequence the student saw, with the option order per question.
// It is persisted so resume keeps showing the original order even if the
// shuffle algorithm changes later.
type QuestionOrder struct {
	QuestionID  string   `json:"question_id"`
	OptionOrder []string `json:"option_order"`
}

type Answer struct {
	QuestionID       string `json:"question_id"`
	SelectedOptionID string `json:"selected_option_id"`
	TimeSpent        int    `json:"time_spent,omitempty"` // seconds
	Flagged          bool   `json:"flagged,omitempty"`
}

type QuizAttempt struct {
	ID                   string          `json:"id" db:"id"`
	QuizID               string          `json:"quiz_id" db:"quiz_id"`
	StudentID            string          `json:"student_id" db:"student_id"`
	EnrollmentID         string          `json:"enrollment_id" db:"enrollment_id"`
	Status               string          `json:"status" db:"status"` // in_progress, completed, abandoned
	QuestionOrder        []QuestionOrder `json:"question_order" db:"question_order"`
	Answers              []Answer        `json:"answers" db:"answers"`
	CurrentQuestionIndex int             `json:"current_question_index" db:"current_question_index"`
	TimeRemaining        int             `json:"time_remaining" db:"time_remaining"` // seconds, autosave snapshot
	Score                int             `json:"score" db:"score"`                   // percentage, 0-100
	CorrectCount         int             `json:"correct_count" db:"correct_count"`
	TimeSpent            int             `json:"time_spent" db:"time_spent"` // seconds
	StartedAt            time.Time       `json:"started_at" db:"started_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	LastSavedAt          *time.Time      `json:"last_saved_at,omitempty" db:"last_saved_at"`
}

func (a *QuizAttempt) Terminal() bool {
	return a.Status == AttemptStatusCompleted.String() || a.Status == AttemptStatusAbandoned.String()
}

// QuestionResponse records one graded answer. Rows are written once at submit
// and never mutated afterwards.
type QuestionResponse struct {
	ID               string    `json:"id" db:"id"`
	AttemptID        string    `json:"attempt_id" db:"attempt_id"`
	QuestionID       string    `json:"question_id" db:"question_id"`
	SelectedOptionID *string   `json:"selected_option_id" db:"selected_option_id"`
	IsCorrect        bool      `json:"is_correct" db:"is_correct"`
	TimeSpent        int       `json:"time_spent" db:"time_spent"`
	Flagged          bool      `json:"flagged" db:"flagged"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// AutoSaveSnapshot carries the last-write-wins autosave state. Positional
// metadata lives in named fields rather than sentinel records inside the
// answer list.
type AutoSaveSnapshot struct {
	AttemptID            string    `json:"attempt_id"`
	Answers              []Answer  `json:"answers"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	TimeRemaining        int       `json:"time_remaining"`
	SavedAt              time.Time `json:"saved_at"`
}
