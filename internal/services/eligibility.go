package services

import (
	"fmt"
	"math"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// attemptHistory is what the eligibility check needs to know about prior attempts.
type attemptHistory struct {
	Count int64
	Last  *models.AnswerPaper
}

// canAttemptNow returns an empty reason when a new attempt may start.
func canAttemptNow(now time.Time, quiz *models.Quiz, history attemptHistory) (bool, string) {
	if !quiz.Active {
		return false, fmt.Sprintf("%s is not active", quiz.Description)
	}
	if !quiz.HasStarted(now) {
		return false, fmt.Sprintf("%s has not started yet. It will be available from %s",
			quiz.Description, quiz.StartDateTime.Format(time.RFC1123))
	}
	if quiz.IsExpired(now) {
		return false, fmt.Sprintf("%s has expired", quiz.Description)
	}
	if quiz.AttemptsAllowed != models.UnlimitedAttempts && history.Count >= int64(quiz.AttemptsAllowed) {
		return false, fmt.Sprintf("You cannot attempt %s quiz more than %d time(s)",
			quiz.Description, quiz.AttemptsAllowed)
	}
	if quiz.TimeBetweenAttempts > 0 && history.Last != nil {
		gap := time.Duration(quiz.TimeBetweenAttempts * float64(time.Hour))
		if now.Sub(history.Last.StartTime) < gap {
			return false, fmt.Sprintf("You cannot start the next attempt for this quiz before %s hour(s)",
				formatHours(quiz.TimeBetweenAttempts))
		}
	}
	return true, ""
}

func formatHours(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%d", int64(h))
	}
	return fmt.Sprintf("%.1f", h)
}
