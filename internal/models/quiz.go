package models

import (
	"time"
)

type Quiz struct {
	ID               string     `json:"id" db:"id"`
	EducatorID       string     `json:"educator_id" db:"educator_id"`
	Title            string     `json:"title" db:"title"`
	Description      string     `json:"description" db:"description"`
	Status           string     `json:"status" db:"status"` // draft, published, archived
	DurationMinutes  int        `json:"duration_minutes" db:"duration_minutes"`
	StartTime        *time.Time `json:"start_time" db:"start_time"` // nil until scheduled
	Timezone         string     `json:"timezone" db:"timezone"`     // IANA name, display only
	ShuffleQuestions bool       `json:"shuffle_questions" db:"shuffle_questions"`
	QuestionCount    int        `json:"question_count" db:"question_count"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusArchived  QuizStatus = "archived"
)

func (qs QuizStatus) String() string {
	return string(qs)
}

func IsValidQuizStatus(status string) bool {
	switch status {
	case "draft", "published", "archived":
		return true
	default:
		return false
	}
}

type QuestionOption struct {
	OptionID string `json:"option_id"`
	Text     string `json:"text"`
}

// Question content is owned by the authoring subsystem; this service only
// reads it and reorders copies of the option list per attempt.
type Question struct {
	ID              string           `json:"id" db:"id"`
	QuizID          string           `json:"quiz_id" db:"quiz_id"`
	Text            string           `json:"text" db:"text"`
	Options         []QuestionOption `json:"options" db:"options"`
	CorrectOptionID string           `json:"correct_option_id,omitempty" db:"correct_option_id"`
	Position        int              `json:"position" db:"position"`
}

// StudentQuestion is the answer-key-free view served to a student, with the
// options already arranged in the attempt's stored order.
type StudentQuestion struct {
	ID       string           `json:"id"`
	Text     string           `json:"text"`
	Options  []QuestionOption `json:"options"`
	Position int              `json:"position"`
}
