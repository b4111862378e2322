package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"gorm.io/gorm"
)

type questionPaperService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	svcLogger *ServiceLogger
	validator *validator.Validator
}

func NewQuestionPaperService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionPaperService {
	return &questionPaperService{
		repo:      repo,
		logger:    logger,
		svcLogger: NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "question_paper"}),
		validator: validator,
	}
}

func (s *questionPaperService) Create(ctx context.Context, req *QuestionPaperRequest, userID uint) (*models.QuestionPaper, error) {
	op := s.svcLogger.WithOperation(ctx, "create_question_paper", userID)

	if err := s.check(ctx, req, userID); err != nil {
		op.LogResult(req.QuizID, "quiz", err)
		return nil, err
	}
	exists, err := s.repo.QuestionPaper().ExistsForQuiz(ctx, nil, req.QuizID)
	if err != nil {
		return nil, err
	}
	if exists {
		op.LogResult(req.QuizID, "quiz", ErrQuestionPaperAlreadyExists)
		return nil, ErrQuestionPaperAlreadyExists
	}

	var paperID uint
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		paper := &models.QuestionPaper{QuizID: req.QuizID}
		if err := s.assemble(ctx, tx, paper, req, userID); err != nil {
			return err
		}
		if err := s.repo.QuestionPaper().Create(ctx, tx, paper); err != nil {
			return err
		}
		paperID = paper.ID
		return s.refreshTotal(ctx, tx, paper.ID)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			err = ErrQuestionPaperAlreadyExists
		}
		op.LogResult(req.QuizID, "quiz", err)
		return nil, err
	}

	op.LogAudit(AuditEventCreate, paperID, "question_paper", nil, map[string]interface{}{"quiz_id": req.QuizID})
	op.LogResult(paperID, "question_paper", nil)
	return s.repo.QuestionPaper().GetByID(ctx, nil, paperID)
}

func (s *questionPaperService) GetByID(ctx context.Context, id uint, userID uint) (*models.QuestionPaper, error) {
	paper, err := s.repo.QuestionPaper().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionPaperNotFound
		}
		return nil, fmt.Errorf("failed to get question paper: %w", err)
	}
	if paper.Quiz == nil || paper.Quiz.CreatorID != userID {
		return nil, ErrQuestionPaperNotFound
	}
	return paper, nil
}

func (s *questionPaperService) List(ctx context.Context, userID uint) ([]*models.QuestionPaper, error) {
	return s.repo.QuestionPaper().ListByCreator(ctx, nil, userID)
}

func (s *questionPaperService) Update(ctx context.Context, id uint, req *QuestionPaperRequest, userID uint) (*models.QuestionPaper, error) {
	op := s.svcLogger.WithOperation(ctx, "update_question_paper", userID)

	paper, err := s.owned(ctx, id, userID, "update")
	if err != nil {
		op.LogResult(id, "question_paper", err)
		return nil, err
	}
	if req.QuizID != paper.QuizID {
		err := ValidationErrors{{Field: "quiz_id", Message: "cannot be changed", Value: req.QuizID}}
		op.LogResult(id, "question_paper", err)
		return nil, err
	}
	if err := s.check(ctx, req, userID); err != nil {
		op.LogResult(id, "question_paper", err)
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.assemble(ctx, tx, paper, req, userID); err != nil {
			return err
		}
		if err := s.repo.QuestionPaper().Update(ctx, tx, paper); err != nil {
			return err
		}
		return s.refreshTotal(ctx, tx, paper.ID)
	})
	if err != nil {
		op.LogResult(id, "question_paper", err)
		return nil, err
	}

	op.LogResult(id, "question_paper", nil)
	return s.repo.QuestionPaper().GetByID(ctx, nil, id)
}

func (s *questionPaperService) Delete(ctx context.Context, id uint, userID uint) error {
	op := s.svcLogger.WithOperation(ctx, "delete_question_paper", userID)

	if _, err := s.owned(ctx, id, userID, "delete"); err != nil {
		op.LogResult(id, "question_paper", err)
		return err
	}
	if err := s.repo.QuestionPaper().Delete(ctx, nil, id); err != nil {
		op.LogResult(id, "question_paper", err)
		return err
	}
	op.LogAudit(AuditEventDelete, id, "question_paper", nil, nil)
	op.LogResult(id, "question_paper", nil)
	return nil
}

func (s *questionPaperService) owned(ctx context.Context, id, userID uint, action string) (*models.QuestionPaper, error) {
	paper, err := s.repo.QuestionPaper().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionPaperNotFound
		}
		return nil, fmt.Errorf("failed to get question paper: %w", err)
	}
	if paper.Quiz == nil || paper.Quiz.CreatorID != userID {
		return nil, NewPermissionError(userID, id, "question_paper", action, "not the quiz creator")
	}
	return paper, nil
}

// check validates the request, quiz ownership and ownership of every
// referenced question.
func (s *questionPaperService) check(ctx context.Context, req *QuestionPaperRequest, userID uint) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatorID != userID {
		return NewPermissionError(userID, quiz.ID, "quiz", "add_question_paper", "not the quiz creator")
	}

	ids := referencedQuestions(req)
	if len(ids) == 0 {
		return ValidationErrors{{Field: "fixed_questions", Message: "at least one question is required"}}
	}
	owned, err := s.repo.Question().CountOwned(ctx, nil, ids, userID)
	if err != nil {
		return err
	}
	if owned != int64(len(ids)) {
		return ErrQuestionPaperQuestionsOwner
	}
	return nil
}

// assemble creates the question sets and points paper at them.
func (s *questionPaperService) assemble(ctx context.Context, tx *gorm.DB, paper *models.QuestionPaper, req *QuestionPaperRequest, userID uint) error {
	paper.ShuffleQuestions = req.ShuffleQuestions
	paper.FixedQuestionOrder = req.FixedQuestionOrder
	paper.FixedQuestions = questionRefs(req.FixedQuestionIDs)
	paper.RandomQuestions = paper.RandomQuestions[:0]

	for _, setReq := range req.QuestionSets {
		set := &models.QuestionSet{
			CreatorID:    userID,
			Marks:        setReq.Marks,
			NumQuestions: setReq.NumQuestions,
			Questions:    questionRefs(setReq.QuestionIDs),
		}
		if err := s.repo.QuestionSet().Create(ctx, tx, set); err != nil {
			return err
		}
		paper.RandomQuestions = append(paper.RandomQuestions, *set)
	}
	return nil
}

func (s *questionPaperService) refreshTotal(ctx context.Context, tx *gorm.DB, id uint) error {
	paper, err := s.repo.QuestionPaper().GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	paper.TotalMarks = paper.ComputeTotalMarks()
	return s.repo.QuestionPaper().Update(ctx, tx, paper)
}

func referencedQuestions(req *QuestionPaperRequest) []uint {
	seen := make(map[uint]struct{})
	var ids []uint
	add := func(list []uint) {
		for _, id := range list {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	add(req.FixedQuestionIDs)
	for _, set := range req.QuestionSets {
		add(set.QuestionIDs)
	}
	return ids
}

func questionRefs(ids []uint) []models.Question {
	refs := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.Question{ID: id})
	}
	return refs
}
