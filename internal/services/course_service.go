package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	svcLogger *ServiceLogger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		logger:    logger,
		svcLogger: NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "course"}),
		validator: validator,
	}
}

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest, creatorID uint) (*models.Course, error) {
	op := s.svcLogger.WithOperation(ctx, "create_course", creatorID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(0, "course", err)
		return nil, err
	}

	course := &models.Course{
		Name:      req.Name,
		Code:      req.Code,
		Active:    true,
		CreatorID: creatorID,
	}
	if req.Active != nil {
		course.Active = *req.Active
	}
	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		op.LogResult(0, "course", err)
		return nil, err
	}

	op.LogAudit(AuditEventCreate, course.ID, "course", nil, course)
	op.LogResult(course.ID, "course", nil)
	return course, nil
}

// GetByID hides courses the user is not part of.
func (s *courseService) GetByID(ctx context.Context, id uint, userID uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	member, err := s.repo.Course().IsMember(ctx, nil, id, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *courseService) ListEnrolled(ctx context.Context, userID uint) ([]*models.Course, error) {
	return s.repo.Course().ListForStudent(ctx, nil, userID)
}

func (s *courseService) EnrollStudent(ctx context.Context, courseID, studentID, requesterID uint) error {
	op := s.svcLogger.WithOperation(ctx, "enroll_student", requesterID)

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrCourseNotFound
		}
		op.LogResult(courseID, "course", err)
		return err
	}
	if course.CreatorID != requesterID {
		err := NewPermissionError(requesterID, courseID, "course", "enroll", "not the course creator")
		op.LogResult(courseID, "course", err)
		return err
	}
	if _, err := s.repo.User().GetByID(ctx, nil, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			err = ErrUserNotFound
		}
		op.LogResult(courseID, "course", err)
		return err
	}

	if err := s.repo.Course().AddStudent(ctx, nil, courseID, studentID); err != nil {
		op.LogResult(courseID, "course", err)
		return err
	}
	op.LogAudit(AuditEventUpdate, courseID, "course", nil, map[string]interface{}{"student_id": studentID})
	op.LogResult(courseID, "course", nil)
	return nil
}
