package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/storage"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	attemptLockWait   = 2 * time.Second
	notEnrolledReason = "You are not enrolled in this course"
)

type attemptService struct {
	repo      repositories.Repository
	grader    GradingService
	storage   storage.Provider
	locker    cache.Locker
	events    AttemptEventService
	metrics   *metrics.Metrics
	logger    *slog.Logger
	svcLogger *ServiceLogger
	validator *validator.Validator
	lockTTL   time.Duration
	now       func() time.Time
	scorer    scorer
}

func NewAttemptService(
	repo repositories.Repository,
	grader GradingService,
	store storage.Provider,
	locker cache.Locker,
	events AttemptEventService,
	m *metrics.Metrics,
	logger *slog.Logger,
	validator *validator.Validator,
	lockTTL time.Duration,
) AttemptService {
	s := &attemptService{
		repo:      repo,
		grader:    grader,
		storage:   store,
		locker:    locker,
		events:    events,
		metrics:   m,
		logger:    logger,
		svcLogger: NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "attempt"}),
		validator: validator,
		lockTTL:   lockTTL,
		now:       time.Now,
	}
	s.scorer = scorer{repo: repo, now: func() time.Time { return s.now() }}
	return s
}

// ===== START / RESUME =====

func (s *attemptService) StartOrResume(ctx context.Context, req *StartAttemptRequest) (*StartResult, error) {
	op := s.svcLogger.WithOperation(ctx, "start_or_resume", req.UserID)

	qp, err := s.repo.QuestionPaper().GetByQuiz(ctx, nil, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrQuestionPaperNotFound
		}
		op.LogResult(req.QuizID, "quiz", err)
		return nil, err
	}

	result, err := s.begin(ctx, req.UserID, qp, req.CourseID, req.IPAddress)
	op.LogResult(qp.ID, "question_paper", err)
	return result, err
}

func (s *attemptService) CreateAnswerPaper(ctx context.Context, req *CreateAnswerPaperRequest) (*StartResult, error) {
	op := s.svcLogger.WithOperation(ctx, "create_answer_paper", req.UserID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(0, "question_paper", err)
		return nil, err
	}

	qp, err := s.repo.QuestionPaper().GetByID(ctx, nil, req.QuestionPaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrQuestionPaperNotFound
		}
		op.LogResult(req.QuestionPaperID, "question_paper", err)
		return nil, err
	}

	result, err := s.begin(ctx, req.UserID, qp, req.CourseID, req.IPAddress)
	op.LogResult(qp.ID, "question_paper", err)
	return result, err
}

// begin resumes the user's open attempt or creates the next one. The lock
// serializes concurrent starts across instances; the partial unique index on
// in-progress papers is the backstop.
func (s *attemptService) begin(ctx context.Context, userID uint, qp *models.QuestionPaper, courseID uint, ip string) (*StartResult, error) {
	quiz := qp.Quiz
	if quiz == nil {
		q, err := s.repo.Quiz().GetByID(ctx, nil, qp.QuizID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrQuizNotFound
			}
			return nil, fmt.Errorf("failed to get quiz: %w", err)
		}
		quiz = q
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	member, err := s.repo.Course().IsMember(ctx, nil, courseID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		s.metrics.AttemptStarted("denied")
		return &StartResult{Message: notEnrolledReason}, nil
	}

	lockKey := fmt.Sprintf("attempt:%d:%d:%d", userID, qp.ID, courseID)
	release, err := s.locker.Acquire(ctx, lockKey, s.lockTTL, attemptLockWait)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return nil, ErrAttemptBusy
		}
		return nil, fmt.Errorf("failed to acquire attempt lock: %w", err)
	}
	defer release()

	var (
		paperID uint
		created bool
		denial  string
		expired *models.AnswerPaper
	)
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		now := s.now()

		current, err := s.repo.AnswerPaper().GetInProgress(ctx, tx, userID, qp.ID, courseID)
		if err != nil {
			return err
		}
		if current != nil {
			if current.IsAttemptInProgress(now, quiz.DurationTime()) {
				paperID = current.ID
				return nil
			}
			closed, err := s.scorer.closeAt(ctx, tx, current.ID, current.StartTime.Add(quiz.DurationTime()))
			if err != nil {
				return err
			}
			expired = closed
		}

		count, err := s.repo.AnswerPaper().CountAttempts(ctx, tx, userID, qp.ID, courseID)
		if err != nil {
			return err
		}
		last, err := s.repo.AnswerPaper().GetLastAttempt(ctx, tx, userID, qp.ID, courseID)
		if err != nil {
			return err
		}
		if ok, reason := canAttemptNow(now, quiz, attemptHistory{Count: count, Last: last}); !ok {
			denial = reason
			return nil
		}

		questions := selectQuestions(qp)
		if len(questions) == 0 {
			return NewBusinessRuleError("empty_question_paper", "The question paper has no questions",
				map[string]interface{}{"question_paper_id": qp.ID})
		}

		number := 1
		if last != nil {
			number = last.AttemptNumber + 1
		}
		paper := &models.AnswerPaper{
			UserID:          userID,
			QuestionPaperID: qp.ID,
			CourseID:        courseID,
			AttemptNumber:   number,
			StartTime:       now,
			Status:          models.AnswerPaperInProgress,
			IPAddress:       ip,
		}
		paper.SetQuestions(questions)
		if err := s.repo.AnswerPaper().Create(ctx, tx, paper); err != nil {
			return err
		}
		paperID = paper.ID
		created = true
		return nil
	})
	if err != nil {
		if !repositories.IsDuplicateKeyError(err) {
			return nil, err
		}
		// another instance created the paper between our read and insert
		current, rerr := s.repo.AnswerPaper().GetInProgress(ctx, nil, userID, qp.ID, courseID)
		if rerr != nil {
			return nil, rerr
		}
		if current == nil {
			return nil, ErrAttemptBusy
		}
		paperID, created, denial, expired = current.ID, false, "", nil
	}

	if expired != nil {
		s.events.AttemptExpired(ctx, expired)
		s.metrics.AttemptCompleted("expired")
	}
	if denial != "" {
		s.metrics.AttemptStarted("denied")
		return &StartResult{Message: denial}, nil
	}

	view, err := s.view(ctx, paperID, false)
	if err != nil {
		return nil, err
	}
	if created {
		s.events.AttemptStarted(ctx, view.AnswerPaper)
		s.metrics.AttemptStarted("created")
	} else {
		s.events.AttemptResumed(ctx, view.AnswerPaper)
		s.metrics.AttemptStarted("resumed")
	}
	return &StartResult{View: view, Created: created}, nil
}

// selectQuestions takes the fixed questions in their configured order, then a
// random sample from each question set.
func selectQuestions(qp *models.QuestionPaper) []models.Question {
	selected := append([]models.Question(nil), qp.OrderedFixedQuestions()...)
	seen := make(map[uint]struct{}, len(selected))
	for _, q := range selected {
		seen[q.ID] = struct{}{}
	}

	for _, set := range qp.RandomQuestions {
		pool := make([]models.Question, 0, len(set.Questions))
		for _, q := range set.Questions {
			if _, dup := seen[q.ID]; !dup {
				pool = append(pool, q)
			}
		}
		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		n := min(set.NumQuestions, len(pool))
		for _, q := range pool[:n] {
			seen[q.ID] = struct{}{}
			selected = append(selected, q)
		}
	}

	if qp.ShuffleQuestions {
		rand.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	}
	return selected
}

// ===== ANSWERS =====

func (s *attemptService) RecordAnswer(ctx context.Context, req *RecordAnswerRequest) (*grading.Result, error) {
	op := s.svcLogger.WithOperation(ctx, "record_answer", req.UserID)

	paper, question, err := s.openPaper(ctx, req.AnswerPaperID, req.UserID, req.QuestionID)
	if err != nil {
		op.LogResult(req.AnswerPaperID, "answer_paper", err)
		return nil, err
	}

	kind := grading.Lookup(question.Type)
	value, err := coerceAnswer(kind, req.Payload)
	if err != nil {
		op.LogResult(req.AnswerPaperID, "answer_paper", err)
		return nil, err
	}
	stored, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}

	answer := &models.Answer{
		AnswerPaperID: paper.ID,
		QuestionID:    question.ID,
		Answer:        datatypes.JSON(stored),
		GradingState:  models.GradingPending,
	}
	if err := s.repo.Answer().Create(ctx, nil, answer); err != nil {
		op.LogResult(req.AnswerPaperID, "answer_paper", err)
		return nil, err
	}
	s.events.AnswerRecorded(ctx, paper, answer, question.Type)

	result, err := s.grader.ValidateAnswer(ctx, paper, answer, question, value)
	if err != nil {
		op.LogResult(answer.ID, "answer", err)
		return nil, err
	}
	if kind.Async() {
		op.LogResult(answer.ID, "answer", nil)
		return result, nil
	}

	marks := 0.0
	if result.Success {
		marks = question.Points
	}
	errData, err := json.Marshal(result.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to encode grading result: %w", err)
	}
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Answer().ApplyGrade(ctx, tx, answer.ID, result.Success, marks, datatypes.JSON(errData)); err != nil {
			return err
		}
		_, err := s.scorer.updateMarks(ctx, tx, paper.ID, models.AnswerPaperInProgress)
		return err
	})
	if err != nil {
		op.LogResult(answer.ID, "answer", err)
		return nil, err
	}

	answer.Correct, answer.Marks, answer.Error, answer.GradingState = result.Success, marks, datatypes.JSON(errData), models.GradingDone
	s.events.AnswerGraded(ctx, paper.UserID, answer, question.Type)
	s.metrics.AnswerGraded(string(question.Type), result.Success)

	op.LogResult(answer.ID, "answer", nil)
	return result, nil
}

func coerceAnswer(kind grading.Kind, payload json.RawMessage) (interface{}, error) {
	raw, err := grading.DecodePayload(payload)
	if err == nil {
		var value interface{}
		if value, err = kind.Coerce(raw); err == nil {
			return value, nil
		}
	}
	var ce *grading.CoercionError
	if errors.As(err, &ce) {
		return nil, ValidationErrors{{Field: "answer", Message: ce.Reason, Value: ce.Value, Rule: string(kind.Type)}}
	}
	return nil, err
}

// openPaper loads a paper the user owns that still accepts input, along with
// one of its questions. A paper found past its time limit is closed first.
func (s *attemptService) openPaper(ctx context.Context, answerPaperID, userID, questionID uint) (*models.AnswerPaper, *models.Question, error) {
	paper, err := s.ownedPaper(ctx, answerPaperID, userID)
	if err != nil {
		return nil, nil, err
	}
	if paper.Status == models.AnswerPaperCompleted {
		return nil, nil, ErrAttemptNotActive
	}

	duration := paperDuration(paper)
	if !paper.IsAttemptInProgress(s.now(), duration) {
		var closed *models.AnswerPaper
		err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
			var err error
			closed, err = s.scorer.closeAt(ctx, tx, paper.ID, paper.StartTime.Add(duration))
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		s.events.AttemptExpired(ctx, closed)
		s.metrics.AttemptCompleted("expired")
		return nil, nil, ErrAttemptTimeExpired
	}

	for i := range paper.Questions {
		if paper.Questions[i].ID == questionID {
			return paper, &paper.Questions[i], nil
		}
	}
	return nil, nil, ErrQuestionNotFound
}

func (s *attemptService) ownedPaper(ctx context.Context, answerPaperID, userID uint) (*models.AnswerPaper, error) {
	paper, err := s.repo.AnswerPaper().GetByID(ctx, nil, answerPaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerPaperNotFound
		}
		return nil, fmt.Errorf("failed to get answer paper: %w", err)
	}
	if paper.UserID != userID {
		return nil, ErrAnswerPaperNotFound
	}
	return paper, nil
}

func paperDuration(paper *models.AnswerPaper) time.Duration {
	if paper.QuestionPaper == nil || paper.QuestionPaper.Quiz == nil {
		return 0
	}
	return paper.QuestionPaper.Quiz.DurationTime()
}

// ===== COMPLETION =====

// Quit closes the attempt without regrading it.
func (s *attemptService) Quit(ctx context.Context, answerPaperID, userID uint) (*AttemptView, error) {
	op := s.svcLogger.WithOperation(ctx, "quit", userID)

	paper, err := s.ownedPaper(ctx, answerPaperID, userID)
	if err != nil {
		op.LogResult(answerPaperID, "answer_paper", err)
		return nil, err
	}

	closed := false
	if paper.Status != models.AnswerPaperCompleted {
		// status only; marks written concurrently by grading stay intact
		closed, err = s.repo.AnswerPaper().Complete(ctx, nil, paper.ID, s.now())
		if err != nil {
			op.LogResult(answerPaperID, "answer_paper", err)
			return nil, err
		}
	}

	view, err := s.view(ctx, paper.ID, false)
	if err == nil && closed {
		s.events.AttemptCompleted(ctx, view.AnswerPaper)
		s.metrics.AttemptCompleted("quit")
	}
	op.LogResult(answerPaperID, "answer_paper", err)
	return view, err
}

func (s *attemptService) UpdateMarks(ctx context.Context, answerPaperID uint, state models.AnswerPaperStatus) (*models.AnswerPaper, error) {
	if state != models.AnswerPaperInProgress && state != models.AnswerPaperCompleted {
		return nil, ValidationErrors{{Field: "state", Message: "must be inprogress or completed", Value: state}}
	}

	var paper *models.AnswerPaper
	var wasOpen bool
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.AnswerPaper().GetByID(ctx, tx, answerPaperID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAnswerPaperNotFound
			}
			return err
		}
		wasOpen = current.Status == models.AnswerPaperInProgress
		paper, err = s.scorer.updateMarks(ctx, tx, answerPaperID, state)
		return err
	})
	if err != nil {
		return nil, err
	}

	if wasOpen && paper.Status == models.AnswerPaperCompleted {
		s.events.AttemptCompleted(ctx, paper)
		s.metrics.AttemptCompleted("submitted")
	}
	return paper, nil
}

// ===== READS =====

// GetAnswerPaper is visible to the attempt owner and to the quiz creator.
func (s *attemptService) GetAnswerPaper(ctx context.Context, answerPaperID, userID uint) (*AttemptView, error) {
	paper, err := s.repo.AnswerPaper().GetByID(ctx, nil, answerPaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerPaperNotFound
		}
		return nil, fmt.Errorf("failed to get answer paper: %w", err)
	}

	creator := paper.QuestionPaper != nil && paper.QuestionPaper.Quiz != nil && paper.QuestionPaper.Quiz.CreatorID == userID
	if paper.UserID != userID && !creator {
		return nil, ErrAnswerPaperNotFound
	}
	return s.view(ctx, answerPaperID, true)
}

func (s *attemptService) ListAnswerPapers(ctx context.Context, userID uint, filters repositories.AnswerPaperFilters) ([]*models.AnswerPaper, int64, error) {
	papers, total, err := s.repo.AnswerPaper().List(ctx, nil, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list answer papers: %w", err)
	}
	return papers, total, nil
}

// view builds the attempt view with questions in selection order and answer
// keys stripped.
func (s *attemptService) view(ctx context.Context, answerPaperID uint, withAnswers bool) (*AttemptView, error) {
	paper, err := s.repo.AnswerPaper().GetByID(ctx, nil, answerPaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerPaperNotFound
		}
		return nil, fmt.Errorf("failed to get answer paper: %w", err)
	}
	if withAnswers {
		answers, err := s.repo.Answer().ListByAnswerPaper(ctx, nil, answerPaperID)
		if err != nil {
			return nil, fmt.Errorf("failed to list answers: %w", err)
		}
		paper.Answers = make([]models.Answer, 0, len(answers))
		for _, a := range answers {
			a.Question = nil
			paper.Answers = append(paper.Answers, *a)
		}
	}

	ordered := paper.OrderedQuestions()
	public := make([]models.Question, 0, len(ordered))
	for _, q := range ordered {
		public = append(public, q.Public())
	}
	paper.Questions = public

	timeLeft := 0
	if paper.Status == models.AnswerPaperInProgress {
		timeLeft = paper.TimeLeft(s.now(), paperDuration(paper))
	}
	return &AttemptView{TimeLeft: timeLeft, AnswerPaper: paper}, nil
}

// ===== ASSIGNMENT UPLOADS =====

func (s *attemptService) UploadAssignment(ctx context.Context, req *UploadAssignmentRequest) (*models.AssignmentUpload, error) {
	op := s.svcLogger.WithOperation(ctx, "upload_assignment", req.UserID)

	paper, question, err := s.openPaper(ctx, req.AnswerPaperID, req.UserID, req.QuestionID)
	if err != nil {
		op.LogResult(req.AnswerPaperID, "answer_paper", err)
		return nil, err
	}
	if !grading.Lookup(question.Type).Has(grading.FileAttachments) {
		op.LogResult(question.ID, "question", ErrUploadNotAllowed)
		return nil, ErrUploadNotAllowed
	}

	name := path.Base(strings.ReplaceAll(req.FileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		err := ValidationErrors{{Field: "file", Message: "must have a file name", Value: req.FileName}}
		op.LogResult(question.ID, "question", err)
		return nil, err
	}

	key := fmt.Sprintf("assignments/%d/%d/%d/%s-%s", paper.CourseID, paper.ID, question.ID, uuid.NewString()[:8], name)
	url, err := s.storage.Upload(ctx, key, req.Reader, req.Size, req.ContentType)
	if err != nil {
		op.LogResult(question.ID, "question", err)
		return nil, fmt.Errorf("failed to store assignment: %w", err)
	}

	upload := &models.AssignmentUpload{
		AnswerPaperID: paper.ID,
		QuestionID:    question.ID,
		UserID:        req.UserID,
		CourseID:      paper.CourseID,
		FileName:      name,
		ObjectKey:     key,
		URL:           url,
		Size:          req.Size,
	}
	if err := s.repo.AssignmentUpload().Create(ctx, nil, upload); err != nil {
		if derr := s.storage.Delete(ctx, key); derr != nil {
			s.logger.Warn("Failed to remove orphaned assignment", "key", key, "error", derr)
		}
		op.LogResult(question.ID, "question", err)
		return nil, err
	}

	op.LogAudit(AuditEventCreate, upload.ID, "assignment_upload", nil, map[string]interface{}{"file_name": name, "size": req.Size})
	op.LogResult(upload.ID, "assignment_upload", nil)
	return upload, nil
}

func (s *attemptService) OpenAssignment(ctx context.Context, uploadID, userID uint) (*models.AssignmentUpload, io.ReadCloser, error) {
	op := s.svcLogger.WithOperation(ctx, "open_assignment", userID)

	upload, err := s.readableUpload(ctx, uploadID, userID)
	if err != nil {
		op.LogResult(uploadID, "assignment_upload", err)
		return nil, nil, err
	}
	rc, err := s.storage.Open(ctx, upload.ObjectKey)
	if err != nil {
		err = fmt.Errorf("failed to open assignment: %w", err)
		op.LogResult(uploadID, "assignment_upload", err)
		return nil, nil, err
	}
	op.LogResult(uploadID, "assignment_upload", nil)
	return upload, rc, nil
}

// readableUpload hides uploads from everyone but the submitter and the
// creator of the quiz they were submitted to.
func (s *attemptService) readableUpload(ctx context.Context, uploadID, userID uint) (*models.AssignmentUpload, error) {
	upload, err := s.repo.AssignmentUpload().GetByID(ctx, nil, uploadID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment upload: %w", err)
	}
	if upload.UserID == userID {
		return upload, nil
	}

	paper, err := s.repo.AnswerPaper().GetByID(ctx, nil, upload.AnswerPaperID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get answer paper: %w", err)
	}
	if paper.QuestionPaper == nil || paper.QuestionPaper.Quiz == nil || paper.QuestionPaper.Quiz.CreatorID != userID {
		return nil, ErrAssignmentNotFound
	}
	return upload, nil
}
