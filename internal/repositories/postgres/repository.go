package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB

	user             repositories.UserRepository
	authToken        repositories.AuthTokenRepository
	course           repositories.CourseRepository
	question         repositories.QuestionRepository
	quiz             repositories.QuizRepository
	questionPaper    repositories.QuestionPaperRepository
	questionSet      repositories.QuestionSetRepository
	answerPaper      repositories.AnswerPaperRepository
	answer           repositories.AnswerRepository
	assignmentUpload repositories.AssignmentUploadRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:               db,
		user:             NewUserPostgreSQL(db),
		authToken:        NewAuthTokenPostgreSQL(db),
		course:           NewCoursePostgreSQL(db),
		question:         NewQuestionPostgreSQL(db),
		quiz:             NewQuizPostgreSQL(db),
		questionPaper:    NewQuestionPaperPostgreSQL(db),
		questionSet:      NewQuestionSetPostgreSQL(db),
		answerPaper:      NewAnswerPaperPostgreSQL(db),
		answer:           NewAnswerPostgreSQL(db),
		assignmentUpload: NewAssignmentUploadPostgreSQL(db),
	}
}

func (r *Repository) User() repositories.UserRepository { return r.user }
func (r *Repository) AuthToken() repositories.AuthTokenRepository { return r.authToken }
func (r *Repository) Course() repositories.CourseRepository { return r.course }
func (r *Repository) Question() repositories.QuestionRepository { return r.question }
func (r *Repository) Quiz() repositories.QuizRepository { return r.quiz }
func (r *Repository) QuestionPaper() repositories.QuestionPaperRepository { return r.questionPaper }
func (r *Repository) QuestionSet() repositories.QuestionSetRepository { return r.questionSet }
func (r *Repository) AnswerPaper() repositories.AnswerPaperRepository { return r.answerPaper }
func (r *Repository) Answer() repositories.AnswerRepository { return r.answer }
func (r *Repository) AssignmentUpload() repositories.AssignmentUploadRepository {
	return r.assignmentUpload
}

// WithTransaction runs fn in a database transaction, rolling back when fn
// returns an error.
func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
