package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AssignmentUploadPostgreSQL struct {
	base
}

func NewAssignmentUploadPostgreSQL(db *gorm.DB) repositories.AssignmentUploadRepository {
	return &AssignmentUploadPostgreSQL{base{db: db}}
}

func (a *AssignmentUploadPostgreSQL) Create(ctx context.Context, tx *gorm.DB, upload *models.AssignmentUpload) error {
	if err := a.getDB(ctx, tx).Create(upload).Error; err != nil {
		return fmt.Errorf("failed to create assignment upload: %w", err)
	}
	return nil
}

func (a *AssignmentUploadPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssignmentUpload, error) {
	var upload models.AssignmentUpload
	if err := a.getDB(ctx, tx).First(&upload, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get assignment upload %d: %w", id, err)
	}
	return &upload, nil
}

func (a *AssignmentUploadPostgreSQL) ListFor(ctx context.Context, tx *gorm.DB, answerPaperID, questionID uint) ([]*models.AssignmentUpload, error) {
	var uploads []*models.AssignmentUpload
	if err := a.getDB(ctx, tx).
		Where("answer_paper_id = ? AND question_id = ?", answerPaperID, questionID).
		Order("id").
		Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignment uploads: %w", err)
	}
	return uploads, nil
}
