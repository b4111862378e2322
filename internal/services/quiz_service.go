package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	svcLogger *ServiceLogger
	validator *validator.Validator
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		svcLogger: NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "quiz"}),
		validator: validator,
	}
}

func (s *quizService) Create(ctx context.Context, req *QuizRequest, creatorID uint) (*models.Quiz, error) {
	op := s.svcLogger.WithOperation(ctx, "create_quiz", creatorID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(0, "quiz", err)
		return nil, err
	}

	quiz := &models.Quiz{CreatorID: creatorID, Active: true, AllowSkip: true}
	applyQuizRequest(quiz, req)
	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		op.LogResult(0, "quiz", err)
		return nil, err
	}

	op.LogAudit(AuditEventCreate, quiz.ID, "quiz", nil, map[string]interface{}{"description": quiz.Description})
	op.LogResult(quiz.ID, "quiz", nil)
	return quiz, nil
}

func (s *quizService) GetByID(ctx context.Context, id uint, userID uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatorID != userID {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (s *quizService) List(ctx context.Context, creatorID uint) ([]*models.Quiz, error) {
	return s.repo.Quiz().ListByCreator(ctx, nil, creatorID)
}

func (s *quizService) Update(ctx context.Context, id uint, req *QuizRequest, userID uint) (*models.Quiz, error) {
	op := s.svcLogger.WithOperation(ctx, "update_quiz", userID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(id, "quiz", err)
		return nil, err
	}
	quiz, err := s.owned(ctx, id, userID, "update")
	if err != nil {
		op.LogResult(id, "quiz", err)
		return nil, err
	}

	applyQuizRequest(quiz, req)
	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		op.LogResult(id, "quiz", err)
		return nil, err
	}
	op.LogResult(id, "quiz", nil)
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, id uint, userID uint) error {
	op := s.svcLogger.WithOperation(ctx, "delete_quiz", userID)

	if _, err := s.owned(ctx, id, userID, "delete"); err != nil {
		op.LogResult(id, "quiz", err)
		return err
	}
	if err := s.repo.Quiz().Delete(ctx, nil, id); err != nil {
		op.LogResult(id, "quiz", err)
		return err
	}
	op.LogAudit(AuditEventDelete, id, "quiz", nil, nil)
	op.LogResult(id, "quiz", nil)
	return nil
}

func (s *quizService) owned(ctx context.Context, id, userID uint, action string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatorID != userID {
		return nil, NewPermissionError(userID, id, "quiz", action, "not the quiz creator")
	}
	return quiz, nil
}

func applyQuizRequest(quiz *models.Quiz, req *QuizRequest) {
	quiz.Description = req.Description
	quiz.Instructions = req.Instructions
	quiz.StartDateTime = req.StartDateTime
	quiz.EndDateTime = req.EndDateTime
	quiz.Duration = req.Duration
	quiz.PassCriteria = req.PassCriteria
	quiz.AttemptsAllowed = req.AttemptsAllowed
	quiz.TimeBetweenAttempts = req.TimeBetweenAttempts
	if req.Active != nil {
		quiz.Active = *req.Active
	}
	if req.AllowSkip != nil {
		quiz.AllowSkip = *req.AllowSkip
	}
}
