package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightclass/quiz-service/internal/models"
)

func scheduledQuiz(start time.Time, durationMinutes int) *models.Quiz {
	return &models.Quiz{
		ID:              "quiz-1",
		Status:          models.QuizStatusPublished.String(),
		DurationMinutes: durationMinutes,
		StartTime:       &start,
		Timezone:        "America/New_York",
	}
}

func TestAvailabilityNotScheduled(t *testing.T) {
	p := NewTimeWindow(DefaultGracePeriod)
	quiz := &models.Quiz{Status: models.QuizStatusPublished.String()}

	av := p.Availability(quiz, time.Now())

	assert.Equal(t, StatusNotScheduled, av.Status)
	assert.Nil(t, av.StartTime)
}

func TestAvailabilityWindow(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	quiz := scheduledQuiz(start, 30)
	p := NewTimeWindow(5 * time.Minute)

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"one second before start", start.Add(-time.Second), StatusNotStarted},
		{"exactly at start", start, StatusOpen},
		{"mid window", start.Add(15 * time.Minute), StatusOpen},
		{"exactly at end", start.Add(30 * time.Minute), StatusOpen},
		{"one second past end", start.Add(30*time.Minute + time.Second), StatusEnded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Availability(quiz, tc.now).Status)
		})
	}
}

func TestCanStartBlockedAfterNominalEnd(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	quiz := scheduledQuiz(start, 30)
	p := NewTimeWindow(5 * time.Minute)

	// Starting gets no grace: blocked one second past the nominal end.
	err := p.CanStart(quiz, start.Add(30*time.Minute+time.Second))
	require.ErrorIs(t, err, models.ErrQuizEnded)

	require.NoError(t, p.CanStart(quiz, start.Add(10*time.Minute)))
}

func TestCanStartRequiresPublished(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	quiz := scheduledQuiz(start, 30)
	quiz.Status = models.QuizStatusDraft.String()
	p := NewTimeWindow(DefaultGracePeriod)

	assert.ErrorIs(t, p.CanStart(quiz, time.Now()), models.ErrQuizNotPublished)
}

func TestCanStartBeforeSchedule(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	quiz := scheduledQuiz(start, 30)
	p := NewTimeWindow(DefaultGracePeriod)

	assert.ErrorIs(t, p.CanStart(quiz, start.Add(-time.Second)), models.ErrQuizNotStarted)

	quiz.StartTime = nil
	assert.ErrorIs(t, p.CanStart(quiz, start), models.ErrQuizNotScheduled)
}

func TestCanSubmitGracePeriod(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	quiz := scheduledQuiz(start, 30)
	p := NewTimeWindow(5 * time.Minute)

	// Submitting at T+34m is inside the grace window.
	assert.NoError(t, p.CanSubmit(quiz, start.Add(34*time.Minute)))

	// Submitting at T+36m is past grace.
	assert.ErrorIs(t, p.CanSubmit(quiz, start.Add(36*time.Minute)), models.ErrQuizEnded)
}
