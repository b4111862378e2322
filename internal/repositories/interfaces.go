package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Type   *models.QuestionType `json:"type"`
	Active *bool                `json:"active"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type AnswerPaperFilters struct {
	QuizID *uint                     `json:"quiz_id"`
	UserID *uint                     `json:"user_id"`
	Status *models.AnswerPaperStatus `json:"status"`
	Limit  int                       `json:"limit"`
	Offset int                       `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====
// Every method takes an optional transaction; nil means the base connection.

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	UpdateProfile(ctx context.Context, tx *gorm.DB, profile *models.Profile) error
}

type AuthTokenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, token *models.AuthToken) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AuthToken, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uint) (*models.AuthToken, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) error
}

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	ListForStudent(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Course, error)
	IsMember(ctx context.Context, tx *gorm.DB, courseID, userID uint) (bool, error)
	AddStudent(ctx context.Context, tx *gorm.DB, courseID, userID uint) error
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, userID uint, filters QuestionFilters) ([]*models.Question, int64, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	CountOwned(ctx context.Context, tx *gorm.DB, ids []uint, userID uint) (int64, error)
}

type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	ListByCreator(ctx context.Context, tx *gorm.DB, creatorID uint) ([]*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type QuestionPaperRepository interface {
	Create(ctx context.Context, tx *gorm.DB, paper *models.QuestionPaper) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionPaper, error)
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (*models.QuestionPaper, error)
	ExistsForQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error)
	ListByCreator(ctx context.Context, tx *gorm.DB, creatorID uint) ([]*models.QuestionPaper, error)
	Update(ctx context.Context, tx *gorm.DB, paper *models.QuestionPaper) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type QuestionSetRepository interface {
	Create(ctx context.Context, tx *gorm.DB, set *models.QuestionSet) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.QuestionSet, error)
	CountOwned(ctx context.Context, tx *gorm.DB, ids []uint, creatorID uint) (int64, error)
}

type AnswerPaperRepository interface {
	Create(ctx context.Context, tx *gorm.DB, paper *models.AnswerPaper) error
	// GetByID preloads the selected questions and the question paper with its quiz.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AnswerPaper, error)
	// GetByIDWithAnswers also loads the answers. Inside a transaction it locks
	// the paper row first so aggregate updates on one paper serialize.
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.AnswerPaper, error)
	// GetInProgress and GetLastAttempt return nil, nil when there is no match.
	GetInProgress(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (*models.AnswerPaper, error)
	GetLastAttempt(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (*models.AnswerPaper, error)
	CountAttempts(ctx context.Context, tx *gorm.DB, userID, questionPaperID, courseID uint) (int64, error)
	UpdateResult(ctx context.Context, tx *gorm.DB, paper *models.AnswerPaper) error
	// Complete closes an in-progress paper without touching its marks and
	// reports whether the row changed.
	Complete(ctx context.Context, tx *gorm.DB, id uint, end time.Time) (bool, error)
	List(ctx context.Context, tx *gorm.DB, creatorID uint, filters AnswerPaperFilters) ([]*models.AnswerPaper, int64, error)
	ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.AnswerPaper, error)
}

type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Answer, error)
	ListByAnswerPaper(ctx context.Context, tx *gorm.DB, answerPaperID uint) ([]*models.Answer, error)
	// ApplyGrade writes the grading fields only while the answer is pending
	// and reports whether it did.
	ApplyGrade(ctx context.Context, tx *gorm.DB, id uint, correct bool, marks float64, errData datatypes.JSON) (bool, error)
	// SetError records a diagnostic without grading the answer.
	SetError(ctx context.Context, tx *gorm.DB, id uint, errData datatypes.JSON) error
}

type AssignmentUploadRepository interface {
	Create(ctx context.Context, tx *gorm.DB, upload *models.AssignmentUpload) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssignmentUpload, error)
	ListFor(ctx context.Context, tx *gorm.DB, answerPaperID, questionID uint) ([]*models.AssignmentUpload, error)
}

// Repository groups the repositories and runs transactions across them.
type Repository interface {
	User() UserRepository
	AuthToken() AuthTokenRepository
	Course() CourseRepository
	Question() QuestionRepository
	Quiz() QuizRepository
	QuestionPaper() QuestionPaperRepository
	QuestionSet() QuestionSetRepository
	AnswerPaper() AnswerPaperRepository
	Answer() AnswerRepository
	AssignmentUpload() AssignmentUploadRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
