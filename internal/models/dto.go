package models

import "time"

// Data Transfer Objects

type CreateQuizRequest struct {
	Title            string                  `json:"title" validate:"required,min=3,max=255"`
	Description      string                  `json:"description" validate:"max=2000"`
	DurationMinutes  int                     `json:"duration_minutes" validate:"required,min=1"`
	StartTime        *time.Time              `json:"start_time"`
	Timezone         string                  `json:"timezone"`
	ShuffleQuestions bool                    `json:"shuffle_questions"`
	Questions        []CreateQuestionRequest `json:"questions"`
}

type CreateQuestionRequest struct {
	Text            string           `json:"text" validate:"required"`
	Options         []QuestionOption `json:"options" validate:"required,min=2"`
	CorrectOptionID string           `json:"correct_option_id" validate:"required"`
}

type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

type BulkEnrollRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
}

type BulkEnrollResponse struct {
	Enrolled        int      `json:"enrolled"`
	AlreadyEnrolled int      `json:"already_enrolled"`
	EnrolledIDs     []string `json:"enrolled_ids"`
}

type StartAttemptResponse struct {
	Quiz                 *Quiz             `json:"quiz"`
	Questions            []StudentQuestion `json:"questions"`
	AttemptID            string            `json:"attempt_id"`
	RemainingTimeSeconds int               `json:"remaining_time_seconds"`
	Resumed              bool              `json:"resumed"`
	IsReassignment       bool              `json:"is_reassignment"`
	CurrentQuestionIndex int               `json:"current_question_index"`
}

type AutoSaveRequest struct {
	Answers              []Answer `json:"answers"`
	CurrentQuestionIndex int      `json:"current_question_index"`
	TimeRemaining        int      `json:"time_remaining"`
}

type AutoSaveResponse struct {
	SavedAt time.Time `json:"saved_at"`
}

type RecoveryResponse struct {
	HasAutoSave  bool              `json:"has_auto_save"`
	AutoSaveData *AutoSaveSnapshot `json:"auto_save_data,omitempty"`
}

type SubmitAttemptRequest struct {
	Answers   []Answer `json:"answers"`
	TimeSpent int      `json:"time_spent"`
}

// SubmitAttemptResponse deliberately carries no score and no per-question
// correctness: peers in the same cohort may still be testing.
type SubmitAttemptResponse struct {
	AttemptID    string `json:"attempt_id"`
	Acknowledged bool   `json:"acknowledged"`
}

type AbandonResponse struct {
	Abandoned int `json:"abandoned"`
}

type ReassignRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
	Reason     string   `json:"reason" validate:"max=1000"`
}

type ReassignResult struct {
	StudentID    string `json:"student_id"`
	EnrollmentID string `json:"enrollment_id,omitempty"`
	Reassigned   bool   `json:"reassigned"`
	Reason       string `json:"reason,omitempty"` // why the student was skipped
}

type ReassignResponse struct {
	Reassigned int              `json:"reassigned"`
	Skipped    int              `json:"skipped"`
	Results    []ReassignResult `json:"results"`
}

type EligibilityResult struct {
	StudentID string `json:"student_id"`
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason"`
}

type AvailabilityResponse struct {
	Status    string     `json:"status"` // not_scheduled, not_started, open, ended
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}
