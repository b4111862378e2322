package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	base
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{base{db: db}}
}

// Create inserts the question and its test cases.
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(ctx, tx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.getDB(ctx, tx).
		Preload("TestCases", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&question, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", id, err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) ListByOwner(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.getDB(ctx, tx).Model(&models.Question{}).Where("user_id = ?", userID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = paginate(query.Order("id DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

// Update saves the question fields and replaces its test cases.
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(ctx, tx)
	if err := db.Omit("TestCases").Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if err := db.Where("question_id = ?", question.ID).Delete(&models.TestCase{}).Error; err != nil {
		return fmt.Errorf("failed to clear test cases: %w", err)
	}
	if len(question.TestCases) == 0 {
		return nil
	}
	for i := range question.TestCases {
		question.TestCases[i].ID = 0
		question.TestCases[i].QuestionID = question.ID
	}
	if err := db.Create(&question.TestCases).Error; err != nil {
		return fmt.Errorf("failed to create test cases: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := q.getDB(ctx, tx).Delete(&models.Question{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete question %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (q *QuestionPostgreSQL) CountOwned(ctx context.Context, tx *gorm.DB, ids []uint, userID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := q.getDB(ctx, tx).Model(&models.Question{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}
