package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

const questionCacheTTL = 10 * time.Minute

type questionService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	svcLogger *ServiceLogger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		svcLogger: NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "question"}),
		validator: validator,
	}
}

func questionCacheKey(id uint) string {
	return fmt.Sprintf("question:%d", id)
}

func (s *questionService) Create(ctx context.Context, req *QuestionRequest, userID uint) (*models.Question, error) {
	op := s.svcLogger.WithOperation(ctx, "create_question", userID)

	question, err := s.build(req, userID)
	if err != nil {
		op.LogResult(0, "question", err)
		return nil, err
	}
	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		op.LogResult(0, "question", err)
		return nil, err
	}

	op.LogAudit(AuditEventCreate, question.ID, "question", nil, map[string]interface{}{"type": question.Type, "summary": question.Summary})
	op.LogResult(question.ID, "question", nil)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, userID uint) (*models.Question, error) {
	var question models.Question
	err := s.cache.Get(ctx, questionCacheKey(id), &question)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Debug("Question cache unavailable", "question_id", id, "error", err)
		}
		loaded, err := s.repo.Question().GetByID(ctx, nil, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuestionNotFound
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		question = *loaded
		_ = s.cache.Set(ctx, questionCacheKey(id), loaded, questionCacheTTL)
	}

	if question.UserID != userID {
		return nil, ErrQuestionNotFound
	}
	return &question, nil
}

func (s *questionService) List(ctx context.Context, userID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return s.repo.Question().ListByOwner(ctx, nil, userID, filters)
}

func (s *questionService) Update(ctx context.Context, id uint, req *QuestionRequest, userID uint) (*models.Question, error) {
	op := s.svcLogger.WithOperation(ctx, "update_question", userID)

	existing, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrQuestionNotFound
		}
		op.LogResult(id, "question", err)
		return nil, err
	}
	if existing.UserID != userID {
		err := NewPermissionError(userID, id, "question", "update", "not the question owner")
		op.LogResult(id, "question", err)
		return nil, err
	}

	question, err := s.build(req, userID)
	if err != nil {
		op.LogResult(id, "question", err)
		return nil, err
	}
	question.ID = existing.ID
	question.CreatedAt = existing.CreatedAt

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		op.LogResult(id, "question", err)
		return nil, err
	}
	s.invalidate(ctx, id)

	op.LogAudit(AuditEventUpdate, id, "question", map[string]interface{}{"summary": existing.Summary}, map[string]interface{}{"summary": question.Summary})
	op.LogResult(id, "question", nil)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID uint) error {
	op := s.svcLogger.WithOperation(ctx, "delete_question", userID)

	existing, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrQuestionNotFound
		}
		op.LogResult(id, "question", err)
		return err
	}
	if existing.UserID != userID {
		err := NewPermissionError(userID, id, "question", "delete", "not the question owner")
		op.LogResult(id, "question", err)
		return err
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		op.LogResult(id, "question", err)
		return err
	}
	s.invalidate(ctx, id)

	op.LogAudit(AuditEventDelete, id, "question", map[string]interface{}{"summary": existing.Summary}, nil)
	op.LogResult(id, "question", nil)
	return nil
}

func (s *questionService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, questionCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate question cache", "question_id", id, "error", err)
	}
}

// build validates the request shape, then the test cases against the type.
func (s *questionService) build(req *QuestionRequest, userID uint) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question := &models.Question{
		UserID:         userID,
		Summary:        req.Summary,
		Description:    req.Description,
		Points:         req.Points,
		Language:       req.Language,
		Type:           req.Type,
		Active:         true,
		Snippet:        req.Snippet,
		PartialGrading: req.PartialGrading,
	}
	if req.Active != nil {
		question.Active = *req.Active
	}
	for _, tc := range req.TestCases {
		weight := 1.0
		if tc.Weight != nil {
			weight = *tc.Weight
		}
		question.TestCases = append(question.TestCases, models.TestCase{
			Type:           tc.Type,
			Options:        tc.Options,
			Correct:        tc.Correct,
			IntegerCorrect: tc.IntegerCorrect,
			FloatCorrect:   tc.FloatCorrect,
			ErrorMargin:    tc.ErrorMargin,
			StringCorrect:  tc.StringCorrect,
			StringCheck:    tc.StringCheck,
			TestCase:       tc.TestCase,
			TestCaseArgs:   tc.TestCaseArgs,
			ExpectedInput:  tc.ExpectedInput,
			ExpectedOutput: tc.ExpectedOutput,
			HookCode:       tc.HookCode,
			Weight:         weight,
			Hidden:         tc.Hidden,
		})
	}

	if err := s.validator.Question().ValidateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}
