package grading

import (
	"math"

	"github.com/brightclass/quiz-service/internal/models"
)

// PassingThreshold is the percentage a reporting layer treats as a pass.
// The engine itself never consults it.
const PassingThreshold = 70

type Result struct {
	CorrectCount int `json:"correct_count"`
	Total        int `json:"total"`
	Percentage   int `json:"percentage"`
}

type QuestionResult struct {
	QuestionID       string
	SelectedOptionID string
	IsCorrect        bool
	TimeSpent        int
	Flagged          bool
}

// Grade compares every question's stored correct option against the
// submitted answer. Unanswered questions grade as incorrect. Exactly one
// result is produced per quiz question regardless of what the client sent.
func Grade(answers []models.Answer, questions []models.Question) []QuestionResult {
	byQuestion := make(map[string]models.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	results := make([]QuestionResult, 0, len(questions))
	for _, q := range questions {
		r := QuestionResult{QuestionID: q.ID}
		if a, ok := byQuestion[q.ID]; ok {
			r.SelectedOptionID = a.SelectedOptionID
			r.IsCorrect = a.SelectedOptionID != "" && a.SelectedOptionID == q.CorrectOptionID
			r.TimeSpent = a.TimeSpent
			r.Flagged = a.Flagged
		}
		results = append(results, r)
	}
	return results
}

// Score reduces graded results to the attempt-level totals. Percentage is
// rounded to the nearest integer.
func Score(answers []models.Answer, questions []models.Question) Result {
	res := Result{Total: len(questions)}
	if res.Total == 0 {
		return res
	}

	for _, r := range Grade(answers, questions) {
		if r.IsCorrect {
			res.CorrectCount++
		}
	}
	res.Percentage = int(math.Round(100 * float64(res.CorrectCount) / float64(res.Total)))
	return res
}
