package models

// Events published to the notification exchange. Delivery is best-effort:
// a failed publish is logged and never rolls back the owning transaction.

type EnrollmentCreatedEvent struct {
	EnrollmentID   string `json:"enrollment_id"`
	QuizID         string `json:"quiz_id"`
	StudentID      string `json:"student_id"`
	IsReassignment bool   `json:"is_reassignment"`
	Timestamp      int64  `json:"timestamp"`
}

type StudentReassignedEvent struct {
	EnrollmentID       string `json:"enrollment_id"`
	ParentEnrollmentID string `json:"parent_enrollment_id,omitempty"`
	QuizID             string `json:"quiz_id"`
	StudentID          string `json:"student_id"`
	Reason             string `json:"reason"`
	Timestamp          int64  `json:"timestamp"`
}

type AttemptCompletedEvent struct {
	AttemptID    string `json:"attempt_id"`
	QuizID       string `json:"quiz_id"`
	StudentID    string `json:"student_id"`
	EnrollmentID string `json:"enrollment_id"`
	Timestamp    int64  `json:"timestamp"`
}
