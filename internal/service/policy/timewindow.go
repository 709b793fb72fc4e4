package policy

import (
	"time"

	"github.com/brightclass/quiz-service/internal/models"
)

// Availability statuses for a quiz window.
const (
	StatusNotScheduled = "not_scheduled"
	StatusNotStarted   = "not_started"
	StatusOpen         = "open"
	StatusEnded        = "ended"
)

// DefaultGracePeriod extends the window for submitting an already-started
// attempt, to tolerate network delay. Starting a new attempt never benefits
// from it.
const DefaultGracePeriod = 5 * time.Minute

type Availability struct {
	Status    string
	StartTime *time.Time
	EndTime   *time.Time
}

// TimeWindow evaluates quiz admission windows against an injected clock.
// Decisions always use server time; the client's timezone is display-only.
type TimeWindow struct {
	grace time.Duration
}

func NewTimeWindow(grace time.Duration) TimeWindow {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return TimeWindow{grace: grace}
}

// Availability reports where now falls relative to the quiz's nominal window
// [start, start+duration]. The grace period is not part of the reported
// window; it only matters for CanSubmit.
func (p TimeWindow) Availability(quiz *models.Quiz, now time.Time) Availability {
	if quiz.StartTime == nil {
		return Availability{Status: StatusNotScheduled}
	}

	start := *quiz.StartTime
	end := start.Add(time.Duration(quiz.DurationMinutes) * time.Minute)

	av := Availability{StartTime: &start, EndTime: &end}
	switch {
	case now.Before(start):
		av.Status = StatusNotStarted
	case now.After(end):
		av.Status = StatusEnded
	default:
		av.Status = StatusOpen
	}
	return av
}

// CanStart decides whether a new attempt may begin now. Reassigned
// enrollments are exempt and never reach this check.
func (p TimeWindow) CanStart(quiz *models.Quiz, now time.Time) error {
	if quiz.Status != models.QuizStatusPublished.String() {
		return models.ErrQuizNotPublished
	}
	switch p.Availability(quiz, now).Status {
	case StatusNotScheduled:
		return models.ErrQuizNotScheduled
	case StatusNotStarted:
		return models.ErrQuizNotStarted
	case StatusEnded:
		return models.ErrQuizEnded
	}
	return nil
}

// CanSubmit decides whether an already-started attempt may still be turned
// in. The window is extended by the grace period.
func (p TimeWindow) CanSubmit(quiz *models.Quiz, now time.Time) error {
	if quiz.StartTime == nil {
		return models.ErrQuizNotScheduled
	}

	start := *quiz.StartTime
	deadline := start.Add(time.Duration(quiz.DurationMinutes)*time.Minute + p.grace)

	if now.Before(start) {
		return models.ErrQuizNotStarted
	}
	if now.After(deadline) {
		return models.ErrQuizEnded
	}
	return nil
}
