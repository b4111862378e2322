package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPaperPostgreSQL struct {
	base
}

func NewQuestionPaperPostgreSQL(db *gorm.DB) repositories.QuestionPaperRepository {
	return &QuestionPaperPostgreSQL{base{db: db}}
}

func (q *QuestionPaperPostgreSQL) Create(ctx context.Context, tx *gorm.DB, paper *models.QuestionPaper) error {
	if err := q.getDB(ctx, tx).
		Omit("Quiz", "FixedQuestions.*", "RandomQuestions.*").
		Create(paper).Error; err != nil {
		return fmt.Errorf("failed to create question paper: %w", err)
	}
	return nil
}

func (q *QuestionPaperPostgreSQL) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Quiz").
		Preload("FixedQuestions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id") }).
		Preload("FixedQuestions.TestCases").
		Preload("RandomQuestions").
		Preload("RandomQuestions.Questions", func(db *gorm.DB) *gorm.DB { return db.Where("active = ?", true) }).
		Preload("RandomQuestions.Questions.TestCases")
}

// GetByID loads the paper with its quiz, fixed questions and question sets.
func (q *QuestionPaperPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionPaper, error) {
	var paper models.QuestionPaper
	if err := q.withDetails(q.getDB(ctx, tx)).First(&paper, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get question paper %d: %w", id, err)
	}
	return &paper, nil
}

func (q *QuestionPaperPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (*models.QuestionPaper, error) {
	var paper models.QuestionPaper
	if err := q.withDetails(q.getDB(ctx, tx)).Where("quiz_id = ?", quizID).First(&paper).Error; err != nil {
		return nil, fmt.Errorf("failed to get question paper for quiz %d: %w", quizID, err)
	}
	return &paper, nil
}

func (q *QuestionPaperPostgreSQL) ExistsForQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error) {
	var count int64
	if err := q.getDB(ctx, tx).Model(&models.QuestionPaper{}).Where("quiz_id = ?", quizID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check question paper: %w", err)
	}
	return count > 0, nil
}

func (q *QuestionPaperPostgreSQL) ListByCreator(ctx context.Context, tx *gorm.DB, creatorID uint) ([]*models.QuestionPaper, error) {
	var papers []*models.QuestionPaper
	if err := q.getDB(ctx, tx).
		Joins("JOIN quizzes ON quizzes.id = question_papers.quiz_id AND quizzes.deleted_at IS NULL").
		Where("quizzes.creator_id = ?", creatorID).
		Preload("Quiz").
		Order("question_papers.id DESC").
		Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("failed to list question papers: %w", err)
	}
	return papers, nil
}

// Update saves the paper fields and replaces both question associations.
func (q *QuestionPaperPostgreSQL) Update(ctx context.Context, tx *gorm.DB, paper *models.QuestionPaper) error {
	db := q.getDB(ctx, tx)
	if err := db.Omit("Quiz", "FixedQuestions", "RandomQuestions").Save(paper).Error; err != nil {
		return fmt.Errorf("failed to update question paper: %w", err)
	}
	if err := db.Model(paper).Association("FixedQuestions").Replace(paper.FixedQuestions); err != nil {
		return fmt.Errorf("failed to update fixed questions: %w", err)
	}
	if err := db.Model(paper).Association("RandomQuestions").Replace(paper.RandomQuestions); err != nil {
		return fmt.Errorf("failed to update question sets: %w", err)
	}
	return nil
}

func (q *QuestionPaperPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(ctx, tx)
	paper := &models.QuestionPaper{ID: id}
	if err := db.Model(paper).Association("FixedQuestions").Clear(); err != nil {
		return fmt.Errorf("failed to clear fixed questions: %w", err)
	}
	if err := db.Model(paper).Association("RandomQuestions").Clear(); err != nil {
		return fmt.Errorf("failed to clear question sets: %w", err)
	}
	result := db.Delete(paper)
	if result.Error != nil {
		return fmt.Errorf("failed to delete question paper: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete question paper %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
