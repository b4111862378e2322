package services

import (
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanAttemptNow(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	base := func() *models.Quiz {
		return &models.Quiz{
			Description:     "Midterm",
			StartDateTime:   now.Add(-time.Hour),
			EndDateTime:     now.Add(time.Hour),
			Active:          true,
			AttemptsAllowed: 2,
		}
	}

	tests := []struct {
		name    string
		mutate  func(q *models.Quiz)
		history attemptHistory
		ok      bool
		reason  string
	}{
		{name: "first attempt", ok: true},
		{
			name:   "inactive",
			mutate: func(q *models.Quiz) { q.Active = false },
			reason: "Midterm is not active",
		},
		{
			name:   "expired",
			mutate: func(q *models.Quiz) { q.EndDateTime = now.Add(-time.Minute) },
			reason: "Midterm has expired",
		},
		{
			name:    "attempts exhausted",
			history: attemptHistory{Count: 2},
			reason:  "You cannot attempt Midterm quiz more than 2 time(s)",
		},
		{
			name:    "unlimited attempts",
			mutate:  func(q *models.Quiz) { q.AttemptsAllowed = models.UnlimitedAttempts },
			history: attemptHistory{Count: 50},
			ok:      true,
		},
		{
			name:    "gap not elapsed",
			mutate:  func(q *models.Quiz) { q.TimeBetweenAttempts = 1.5 },
			history: attemptHistory{Count: 1, Last: &models.AnswerPaper{StartTime: now.Add(-time.Hour)}},
			reason:  "You cannot start the next attempt for this quiz before 1.5 hour(s)",
		},
		{
			name:    "gap elapsed",
			mutate:  func(q *models.Quiz) { q.TimeBetweenAttempts = 1 },
			history: attemptHistory{Count: 1, Last: &models.AnswerPaper{StartTime: now.Add(-2 * time.Hour)}},
			ok:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := base()
			if tt.mutate != nil {
				tt.mutate(quiz)
			}
			ok, reason := canAttemptNow(now, quiz, tt.history)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestCanAttemptNow_NotStarted(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	quiz := &models.Quiz{
		Description:     "Final",
		StartDateTime:   now.Add(time.Hour),
		EndDateTime:     now.Add(2 * time.Hour),
		Active:          true,
		AttemptsAllowed: models.UnlimitedAttempts,
	}

	ok, reason := canAttemptNow(now, quiz, attemptHistory{})
	assert.False(t, ok)
	assert.Equal(t, "Final has not started yet. It will be available from Mon, 02 Mar 2026 10:00:00 UTC", reason)
}

func TestBestMarksAndTotal(t *testing.T) {
	answers := []models.Answer{
		{QuestionID: 1, Marks: 0},
		{QuestionID: 1, Marks: 2},
		{QuestionID: 2, Marks: 1.5},
		{QuestionID: 1, Marks: 1},
	}
	assert.Equal(t, 3.5, bestMarks(answers))
	assert.Zero(t, bestMarks(nil))

	paper := &models.AnswerPaper{
		Questions:     []models.Question{{ID: 1, Points: 2}, {ID: 2, Points: 3}},
		QuestionPaper: &models.QuestionPaper{TotalMarks: 10},
	}
	assert.Equal(t, 5.0, paperTotal(paper))

	paper.Questions = nil
	assert.Equal(t, 10.0, paperTotal(paper))
}
