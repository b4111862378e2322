package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionSetPostgreSQL struct {
	base
}

func NewQuestionSetPostgreSQL(db *gorm.DB) repositories.QuestionSetRepository {
	return &QuestionSetPostgreSQL{base{db: db}}
}

func (q *QuestionSetPostgreSQL) Create(ctx context.Context, tx *gorm.DB, set *models.QuestionSet) error {
	if err := q.getDB(ctx, tx).Omit("Questions.*").Create(set).Error; err != nil {
		return fmt.Errorf("failed to create question set: %w", err)
	}
	return nil
}

func (q *QuestionSetPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.QuestionSet, error) {
	var sets []models.QuestionSet
	if len(ids) == 0 {
		return sets, nil
	}
	if err := q.getDB(ctx, tx).Preload("Questions").Where("id IN ?", ids).Find(&sets).Error; err != nil {
		return nil, fmt.Errorf("failed to get question sets: %w", err)
	}
	return sets, nil
}

func (q *QuestionSetPostgreSQL) CountOwned(ctx context.Context, tx *gorm.DB, ids []uint, creatorID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := q.getDB(ctx, tx).Model(&models.QuestionSet{}).
		Where("id IN ? AND creator_id = ?", ids, creatorID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count question sets: %w", err)
	}
	return count, nil
}
