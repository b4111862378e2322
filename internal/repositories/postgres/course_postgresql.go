package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	base
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{base{db: db}}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := c.getDB(ctx, tx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.getDB(ctx, tx).First(&course, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return &course, nil
}

func (c *CoursePostgreSQL) ListForStudent(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Course, error) {
	var courses []*models.Course
	if err := c.getDB(ctx, tx).
		Joins("JOIN course_students cs ON cs.course_id = courses.id").
		Where("cs.user_id = ?", userID).
		Order("courses.id").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// IsMember reports whether the user is enrolled in, teaches or created the course.
func (c *CoursePostgreSQL) IsMember(ctx context.Context, tx *gorm.DB, courseID, userID uint) (bool, error) {
	var count int64
	err := c.getDB(ctx, tx).Raw(`
		SELECT COUNT(*) FROM courses c
		WHERE c.id = ? AND c.deleted_at IS NULL AND (
			c.creator_id = ?
			OR EXISTS (SELECT 1 FROM course_students s WHERE s.course_id = c.id AND s.user_id = ?)
			OR EXISTS (SELECT 1 FROM course_teachers t WHERE t.course_id = c.id AND t.user_id = ?)
		)`, courseID, userID, userID, userID).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course membership: %w", err)
	}
	return count > 0, nil
}

func (c *CoursePostgreSQL) AddStudent(ctx context.Context, tx *gorm.DB, courseID, userID uint) error {
	course := models.Course{ID: courseID}
	if err := c.getDB(ctx, tx).Model(&course).Association("Students").Append(&models.User{ID: userID}); err != nil {
		return fmt.Errorf("failed to enroll user %d in course %d: %w", userID, courseID, err)
	}
	return nil
}
