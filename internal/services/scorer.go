package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// scorer recomputes answer paper aggregates. Both the attempt and grading
// services use it.
type scorer struct {
	repo repositories.Repository
	now  func() time.Time
}

// updateMarks recomputes the aggregate score. A completed state closes the
// paper at the current time; an in-progress state never reopens it.
func (s scorer) updateMarks(ctx context.Context, tx *gorm.DB, answerPaperID uint, state models.AnswerPaperStatus) (*models.AnswerPaper, error) {
	return s.apply(ctx, tx, answerPaperID, state, s.now())
}

// closeAt completes the paper with the given end time.
func (s scorer) closeAt(ctx context.Context, tx *gorm.DB, answerPaperID uint, end time.Time) (*models.AnswerPaper, error) {
	return s.apply(ctx, tx, answerPaperID, models.AnswerPaperCompleted, end)
}

func (s scorer) apply(ctx context.Context, tx *gorm.DB, answerPaperID uint, state models.AnswerPaperStatus, end time.Time) (*models.AnswerPaper, error) {
	paper, err := s.repo.AnswerPaper().GetByIDWithAnswers(ctx, tx, answerPaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerPaperNotFound
		}
		return nil, fmt.Errorf("failed to get answer paper: %w", err)
	}

	marks := bestMarks(paper.Answers)
	total := paperTotal(paper)
	paper.MarksObtained = marks
	paper.Percent = 0
	if total > 0 {
		paper.Percent = math.Round(marks/total*10000) / 100
	}
	passCriteria := 0.0
	if paper.QuestionPaper != nil && paper.QuestionPaper.Quiz != nil {
		passCriteria = paper.QuestionPaper.Quiz.PassCriteria
	}
	paper.Passed = total > 0 && paper.Percent >= passCriteria

	if state == models.AnswerPaperCompleted && paper.Status != models.AnswerPaperCompleted {
		paper.Status = models.AnswerPaperCompleted
		paper.EndTime = &end
	}

	if err := s.repo.AnswerPaper().UpdateResult(ctx, tx, paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// bestMarks sums the highest mark per question, so resubmissions never add up.
func bestMarks(answers []models.Answer) float64 {
	best := make(map[uint]float64)
	for _, a := range answers {
		if m, seen := best[a.QuestionID]; !seen || a.Marks > m {
			best[a.QuestionID] = a.Marks
		}
	}
	marks := 0.0
	for _, m := range best {
		marks += m
	}
	return marks
}

// paperTotal is the points of the questions selected for this attempt,
// falling back to the question paper's stored total.
func paperTotal(paper *models.AnswerPaper) float64 {
	total := 0.0
	for _, q := range paper.Questions {
		total += q.Points
	}
	if total == 0 && paper.QuestionPaper != nil {
		total = paper.QuestionPaper.TotalMarks
	}
	return total
}
