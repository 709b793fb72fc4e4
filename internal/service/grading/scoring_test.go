package grading

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightclass/quiz-service/internal/models"
)

func mcq(id, correct string) models.Question {
	return models.Question{
		ID: id,
		Options: []models.QuestionOption{
			{OptionID: "a", Text: "A"},
			{OptionID: "b", Text: "B"},
			{OptionID: "c", Text: "C"},
		},
		CorrectOptionID: correct,
	}
}

func TestScoreAllCorrect(t *testing.T) {
	questions := []models.Question{mcq("q1", "a"), mcq("q2", "b")}
	answers := []models.Answer{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q2", SelectedOptionID: "b"},
	}

	res := Score(answers, questions)

	assert.Equal(t, Result{CorrectCount: 2, Total: 2, Percentage: 100}, res)
}

func TestScoreUnansweredCountsIncorrect(t *testing.T) {
	questions := []models.Question{mcq("q1", "a"), mcq("q2", "b"), mcq("q3", "c")}
	answers := []models.Answer{{QuestionID: "q1", SelectedOptionID: "a"}}

	res := Score(answers, questions)

	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 33, res.Percentage)
}

func TestScoreRoundsToNearest(t *testing.T) {
	// 2 of 3 correct → 66.67% → 67.
	questions := []models.Question{mcq("q1", "a"), mcq("q2", "b"), mcq("q3", "c")}
	answers := []models.Answer{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q2", SelectedOptionID: "b"},
		{QuestionID: "q3", SelectedOptionID: "a"},
	}

	assert.Equal(t, 67, Score(answers, questions).Percentage)
}

func TestScoreEmptyQuestionSet(t *testing.T) {
	res := Score(nil, nil)

	assert.Equal(t, Result{}, res)
}

func TestGradeProducesOneResultPerQuestion(t *testing.T) {
	questions := make([]models.Question, 0, 5)
	for i := 1; i <= 5; i++ {
		questions = append(questions, mcq(fmt.Sprintf("q%d", i), "b"))
	}
	// Answers include a question the quiz does not contain; it must be ignored.
	answers := []models.Answer{
		{QuestionID: "q2", SelectedOptionID: "b", TimeSpent: 12, Flagged: true},
		{QuestionID: "not-in-quiz", SelectedOptionID: "b"},
	}

	results := Grade(answers, questions)

	require.Len(t, results, 5)
	assert.Equal(t, "q2", results[1].QuestionID)
	assert.True(t, results[1].IsCorrect)
	assert.True(t, results[1].Flagged)
	assert.Equal(t, 12, results[1].TimeSpent)
	assert.False(t, results[0].IsCorrect)
	assert.Empty(t, results[0].SelectedOptionID)
}

func TestGradeEmptySelectionNeverCorrect(t *testing.T) {
	questions := []models.Question{{ID: "q1", CorrectOptionID: ""}}
	answers := []models.Answer{{QuestionID: "q1", SelectedOptionID: ""}}

	results := Grade(answers, questions)

	require.Len(t, results, 1)
	assert.False(t, results[0].IsCorrect)
}
