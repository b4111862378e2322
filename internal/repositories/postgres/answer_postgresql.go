package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	base
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{base{db: db}}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	if err := a.getDB(ctx, tx).Omit("Question").Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := a.getDB(ctx, tx).
		Preload("Question").
		Preload("Question.TestCases").
		First(&answer, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get answer %d: %w", id, err)
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) ListByAnswerPaper(ctx context.Context, tx *gorm.DB, answerPaperID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := a.getDB(ctx, tx).
		Where("answer_paper_id = ?", answerPaperID).
		Order("id").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) ApplyGrade(ctx context.Context, tx *gorm.DB, id uint, correct bool, marks float64, errData datatypes.JSON) (bool, error) {
	result := a.getDB(ctx, tx).Model(&models.Answer{}).
		Where("id = ? AND grading_state = ?", id, models.GradingPending).
		Updates(map[string]interface{}{
			"correct":       correct,
			"marks":         marks,
			"error":         errData,
			"grading_state": models.GradingDone,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to grade answer %d: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (a *AnswerPostgreSQL) SetError(ctx context.Context, tx *gorm.DB, id uint, errData datatypes.JSON) error {
	if err := a.getDB(ctx, tx).Model(&models.Answer{}).
		Where("id = ? AND grading_state = ?", id, models.GradingPending).
		Update("error", errData).Error; err != nil {
		return fmt.Errorf("failed to record answer error: %w", err)
	}
	return nil
}
