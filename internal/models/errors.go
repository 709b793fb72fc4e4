package models

import "errors"

// Admission errors: client-correctable, surfaced verbatim.
var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizNotPublished = errors.New("quiz is not published")
	ErrQuizNotScheduled = errors.New("quiz has not been scheduled yet")
	ErrQuizNotStarted   = errors.New("quiz has not started yet")
	ErrQuizEnded        = errors.New("quiz window has ended; use reassignment to grant access again")
)

// State-conflict errors: the client holds stale state.
var (
	ErrAlreadyEnrolled    = errors.New("student already has an active enrollment for this quiz")
	ErrNoActiveEnrollment = errors.New("no active enrollment for this quiz")
	ErrAlreadyCompleted   = errors.New("attempt already completed")
	ErrAttemptNotActive   = errors.New("attempt is not in progress")
	ErrQuizTimeExpired    = errors.New("quiz time has expired")
)

// Authorization / existence errors: kept opaque so one student can never
// enumerate another student's attempts.
var (
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrUnauthorized    = errors.New("unauthorized")
)

var ErrStudentNotFound = errors.New("student not found")
