package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerPaperPostgreSQL struct {
	base
}

func NewAnswerPaperPostgreSQL(db *gorm.DB) repositories.AnswerPaperRepository {
	return &AnswerPaperPostgreSQL{base{db: db}}
}

// Create inserts the paper and links its selected questions.
func (a *AnswerPaperPostgreSQL) Create(ctx context.Context, tx *gorm.DB, paper *models.AnswerPaper) error {
	if err := a.getDB(ctx, tx).
		Omit("User", "QuestionPaper", "Course", "Answers", "Questions.*").
		Create(paper).Error; err != nil {
		return fmt.Errorf("failed to create answer paper: %w", err)
	}
	return nil
}

func (a *AnswerPaperPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AnswerPaper, error) {
	var paper models.AnswerPaper
	if err := a.getDB(ctx, tx).
		Preload("Questions").
		Preload("Questions.TestCases").
		Preload("QuestionPaper").
		Preload("QuestionPaper.Quiz").
		First(&paper, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get answer paper %d: %w", id, err)
	}
	return &paper, nil
}

// lockAnswerPaper takes the paper's row lock for the rest of the transaction.
func lockAnswerPaper(db *gorm.DB, id uint) *gorm.DB {
	var locked models.AnswerPaper
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Take(&locked)
}

func (a *AnswerPaperPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.AnswerPaper, error) {
	if tx != nil {
		if err := lockAnswerPaper(a.getDB(ctx, tx), id).Error; err != nil {
			return nil, fmt.Errorf("failed to lock answer paper %d: %w", id, err)
		}
	}

	var paper models.AnswerPaper
	if err := a.getDB(ctx, tx).
		Preload("Questions").
		Preload("QuestionPaper").
		Preload("QuestionPaper.Quiz").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&paper, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get answer paper %d: %w", id, err)
	}
	return &paper, nil
}

func (a *AnswerPaperPostgreSQL) tupleQuery(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) *gorm.DB {
	return a.getDB(ctx, tx).
		Where("user_id = ? AND question_paper_id = ? AND course_id = ?", userID, questionPaperID, courseID)
}

// GetInProgress locks the row when called inside a transaction.
func (a *AnswerPaperPostgreSQL) GetInProgress(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (*models.AnswerPaper, error) {
	var paper models.AnswerPaper
	query := a.tupleQuery(ctx, tx, userID, questionPaperID, courseID).
		Where("status = ?", models.AnswerPaperInProgress)
	if tx != nil {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Order("attempt_number DESC").First(&paper).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get in-progress answer paper: %w", err)
	}
	return &paper, nil
}

func (a *AnswerPaperPostgreSQL) GetLastAttempt(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (*models.AnswerPaper, error) {
	var paper models.AnswerPaper
	if err := a.tupleQuery(ctx, tx, userID, questionPaperID, courseID).
		Order("attempt_number DESC").
		First(&paper).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last attempt: %w", err)
	}
	return &paper, nil
}

func (a *AnswerPaperPostgreSQL) CountAttempts(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (int64, error) {
	var count int64
	if err := a.tupleQuery(ctx, tx, userID, questionPaperID, courseID).
		Model(&models.AnswerPaper{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}

// UpdateResult persists status, end time and the aggregate score.
func (a *AnswerPaperPostgreSQL) UpdateResult(ctx context.Context, tx *gorm.DB, paper *models.AnswerPaper) error {
	if err := a.getDB(ctx, tx).Model(paper).
		Select("status", "end_time", "marks_obtained", "percent", "passed").
		Updates(paper).Error; err != nil {
		return fmt.Errorf("failed to update answer paper: %w", err)
	}
	return nil
}

func completeAnswerPaper(db *gorm.DB, id uint, end time.Time) *gorm.DB {
	return db.Model(&models.AnswerPaper{}).
		Where("id = ? AND status = ?", id, models.AnswerPaperInProgress).
		Updates(map[string]interface{}{
			"status":   models.AnswerPaperCompleted,
			"end_time": end,
		})
}

func (a *AnswerPaperPostgreSQL) Complete(ctx context.Context, tx *gorm.DB, id uint, end time.Time) (bool, error) {
	result := completeAnswerPaper(a.getDB(ctx, tx), id, end)
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete answer paper %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// List returns papers for quizzes created by creatorID.
func (a *AnswerPaperPostgreSQL) List(ctx context.Context, tx *gorm.DB, creatorID uint, filters repositories.AnswerPaperFilters) ([]*models.AnswerPaper, int64, error) {
	var papers []*models.AnswerPaper
	var total int64

	query := a.getDB(ctx, tx).Model(&models.AnswerPaper{}).
		Joins("JOIN question_papers qp ON qp.id = answer_papers.question_paper_id").
		Joins("JOIN quizzes q ON q.id = qp.quiz_id").
		Where("q.creator_id = ?", creatorID)
	if filters.QuizID != nil {
		query = query.Where("q.id = ?", *filters.QuizID)
	}
	if filters.UserID != nil {
		query = query.Where("answer_papers.user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("answer_papers.status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count answer papers: %w", err)
	}

	query = paginate(query.Order("answer_papers.id DESC"), filters.Limit, filters.Offset)
	if err := query.Preload("User").Find(&papers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list answer papers: %w", err)
	}
	return papers, total, nil
}

func (a *AnswerPaperPostgreSQL) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.AnswerPaper, error) {
	var papers []*models.AnswerPaper
	if err := a.getDB(ctx, tx).
		Joins("JOIN question_papers qp ON qp.id = answer_papers.question_paper_id").
		Where("qp.quiz_id = ?", quizID).
		Preload("User").
		Preload("Course").
		Order("answer_papers.user_id, answer_papers.attempt_number").
		Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("failed to list answer papers for quiz %d: %w", quizID, err)
	}
	return papers, nil
}
