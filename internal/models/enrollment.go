package models

import (
	"time"
)

type Enrollment struct {
	ID                 string    `json:"id" db:"id"`
	QuizID             string    `json:"quiz_id" db:"quiz_id"`
	StudentID          string    `json:"student_id" db:"student_id"`
	Status             string    `json:"status" db:"status"` // enrolled, in_progress, completed
	EnrolledAt         time.Time `json:"enrolled_at" db:"enrolled_at"`
	IsReassignment     bool      `json:"is_reassignment" db:"is_reassignment"`
	ParentEnrollmentID *string   `json:"parent_enrollment_id,omitempty" db:"parent_enrollment_id"`
	GroupEnrollmentID  *string   `json:"group_enrollment_id,omitempty" db:"group_enrollment_id"`
	Reason             *string   `json:"reason,omitempty" db:"reason"`
}

type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentStatusInProgress EnrollmentStatus = "in_progress"
	EnrollmentStatusCompleted  EnrollmentStatus = "completed"
)

func (es EnrollmentStatus) String() string {
	return string(es)
}

// Active means the student is still working against this enrollment. At most
// one active enrollment may exist per (quiz, student) pair.
func (e *Enrollment) Active() bool {
	return e.Status != EnrollmentStatusCompleted.String()
}
