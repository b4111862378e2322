package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/codeserver"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/storage"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dispatchFailedMessage = "Unable to reach the code server. Please submit again."

type gradingService struct {
	repo        repositories.Repository
	client      codeserver.Client
	storage     storage.Provider
	events      AttemptEventService
	metrics     *metrics.Metrics
	logger      *slog.Logger
	userDirRoot string
	scorer      scorer
}

func NewGradingService(
	repo repositories.Repository,
	client codeserver.Client,
	store storage.Provider,
	events AttemptEventService,
	m *metrics.Metrics,
	logger *slog.Logger,
	userDirRoot string,
) GradingService {
	return &gradingService{
		repo:        repo,
		client:      client,
		storage:     store,
		events:      events,
		metrics:     m,
		logger:      logger,
		userDirRoot: userDirRoot,
		scorer:      scorer{repo: repo, now: time.Now},
	}
}

func (s *gradingService) ValidateAnswer(ctx context.Context, paper *models.AnswerPaper, answer *models.Answer, question *models.Question, value interface{}) (*grading.Result, error) {
	kind := grading.Lookup(question.Type)
	if !kind.Async() {
		result := kind.Check(question, value)
		return &result, nil
	}

	var files []string
	if kind.Has(grading.FileAttachments) {
		uploads, err := s.repo.AssignmentUpload().ListFor(ctx, nil, paper.ID, question.ID)
		if err != nil {
			return nil, err
		}
		for _, u := range uploads {
			location, err := s.storage.Locate(ctx, u.ObjectKey)
			if err != nil {
				return nil, fmt.Errorf("failed to locate assignment %d: %w", u.ID, err)
			}
			files = append(files, location)
		}
	}

	data, err := grading.Consolidate(question, value, files)
	if err != nil {
		return nil, fmt.Errorf("failed to build submission: %w", err)
	}

	userDir := filepath.Join(s.userDirRoot, strconv.FormatUint(uint64(paper.UserID), 10))
	err = s.client.Dispatch(ctx, answer.ID, data, userDir)
	s.metrics.CodeServerCall("dispatch", err)
	if err != nil {
		s.logger.Error("Failed to dispatch answer", "answer_id", answer.ID, "question_id", question.ID, "error", err)
		diag, _ := json.Marshal([]string{dispatchFailedMessage})
		if serr := s.repo.Answer().SetError(ctx, nil, answer.ID, datatypes.JSON(diag)); serr != nil {
			s.logger.Warn("Failed to record dispatch error", "answer_id", answer.ID, "error", serr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCodeServerUnavailable, err)
	}

	s.events.AnswerDispatched(ctx, paper, answer, question.Type)
	result := grading.Pending(answer.ID)
	return &result, nil
}

// PollResult reports the code server's status for an answer and applies the
// grade once. Later polls of a graded answer return the stored outcome.
func (s *gradingService) PollResult(ctx context.Context, answerID, userID uint) (*codeserver.Result, error) {
	answer, err := s.repo.Answer().GetByID(ctx, nil, answerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	paper, err := s.repo.AnswerPaper().GetByID(ctx, nil, answer.AnswerPaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer paper: %w", err)
	}
	if paper.UserID != userID {
		return nil, ErrAnswerNotFound
	}

	question := answer.Question
	if question == nil {
		if question, err = s.repo.Question().GetByID(ctx, nil, answer.QuestionID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuestionNotFound
			}
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
	}
	if !grading.Lookup(question.Type).Async() {
		return nil, ErrNotAsyncGraded
	}

	if answer.IsGraded() {
		return storedResult(answer)
	}

	res, err := s.client.FetchResult(ctx, answer.ID)
	s.metrics.CodeServerCall("status", err)
	if err != nil {
		if errors.Is(err, codeserver.ErrBadResponse) {
			return nil, fmt.Errorf("%w: %v", ErrCodeServerBadResponse, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCodeServerUnavailable, err)
	}
	if !res.IsDone() {
		return res, nil
	}

	outcome, err := res.Outcome()
	if err != nil {
		s.logger.Error("Unparseable code server result", "answer_id", answer.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCodeServerBadResponse, err)
	}

	marks := awardedMarks(question, outcome)
	var applied bool
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		applied, err = s.repo.Answer().ApplyGrade(ctx, tx, answer.ID, outcome.Success, marks, datatypes.JSON(outcome.Error))
		if err != nil || !applied {
			return err
		}
		_, err = s.scorer.updateMarks(ctx, tx, paper.ID, models.AnswerPaperInProgress)
		return err
	})
	if err != nil {
		return nil, err
	}

	if applied {
		answer.Correct, answer.Marks, answer.Error, answer.GradingState = outcome.Success, marks, datatypes.JSON(outcome.Error), models.GradingDone
		s.events.AnswerGraded(ctx, paper.UserID, answer, question.Type)
		s.metrics.AnswerGraded(string(question.Type), outcome.Success)
	}
	return res, nil
}

// awardedMarks gives full points on success and, for partially graded
// questions, the reported weight capped at the question's points.
func awardedMarks(q *models.Question, outcome *codeserver.Outcome) float64 {
	if outcome.Success {
		return q.Points
	}
	if q.PartialGrading && outcome.Weight > 0 {
		return min(outcome.Weight, q.Points)
	}
	return 0
}

func storedResult(answer *models.Answer) (*codeserver.Result, error) {
	errData := json.RawMessage(answer.Error)
	if len(errData) == 0 {
		errData = json.RawMessage("[]")
	}
	body, err := json.Marshal(codeserver.Outcome{Success: answer.Correct, Error: errData, Weight: answer.Marks})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stored result: %w", err)
	}
	return &codeserver.Result{Status: codeserver.StatusDone, Result: string(body)}, nil
}
