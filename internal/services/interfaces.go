package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/codeserver"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, userID uint) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error)
}

type CourseService interface {
	Create(ctx context.Context, req *CreateCourseRequest, creatorID uint) (*models.Course, error)
	GetByID(ctx context.Context, id uint, userID uint) (*models.Course, error)
	ListEnrolled(ctx context.Context, userID uint) ([]*models.Course, error)
	EnrollStudent(ctx context.Context, courseID, studentID, requesterID uint) error
}

type QuestionService interface {
	Create(ctx context.Context, req *QuestionRequest, userID uint) (*models.Question, error)
	GetByID(ctx context.Context, id uint, userID uint) (*models.Question, error)
	List(ctx context.Context, userID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	Update(ctx context.Context, id uint, req *QuestionRequest, userID uint) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID uint) error
}

type QuizService interface {
	Create(ctx context.Context, req *QuizRequest, creatorID uint) (*models.Quiz, error)
	GetByID(ctx context.Context, id uint, userID uint) (*models.Quiz, error)
	List(ctx context.Context, creatorID uint) ([]*models.Quiz, error)
	Update(ctx context.Context, id uint, req *QuizRequest, userID uint) (*models.Quiz, error)
	Delete(ctx context.Context, id uint, userID uint) error
}

type QuestionPaperService interface {
	Create(ctx context.Context, req *QuestionPaperRequest, userID uint) (*models.QuestionPaper, error)
	GetByID(ctx context.Context, id uint, userID uint) (*models.QuestionPaper, error)
	List(ctx context.Context, userID uint) ([]*models.QuestionPaper, error)
	Update(ctx context.Context, id uint, req *QuestionPaperRequest, userID uint) (*models.QuestionPaper, error)
	Delete(ctx context.Context, id uint, userID uint) error
}

// AttemptService owns the answer paper lifecycle.
type AttemptService interface {
	StartOrResume(ctx context.Context, req *StartAttemptRequest) (*StartResult, error)
	CreateAnswerPaper(ctx context.Context, req *CreateAnswerPaperRequest) (*StartResult, error)
	RecordAnswer(ctx context.Context, req *RecordAnswerRequest) (*grading.Result, error)
	Quit(ctx context.Context, answerPaperID, userID uint) (*AttemptView, error)
	UpdateMarks(ctx context.Context, answerPaperID uint, state models.AnswerPaperStatus) (*models.AnswerPaper, error)

	GetAnswerPaper(ctx context.Context, answerPaperID, userID uint) (*AttemptView, error)
	ListAnswerPapers(ctx context.Context, userID uint, filters repositories.AnswerPaperFilters) ([]*models.AnswerPaper, int64, error)
	UploadAssignment(ctx context.Context, req *UploadAssignmentRequest) (*models.AssignmentUpload, error)
	// OpenAssignment streams an upload to its owner or the quiz creator.
	OpenAssignment(ctx context.Context, uploadID, userID uint) (*models.AssignmentUpload, io.ReadCloser, error)
}

// GradingService routes answers to the in-process checkers or the code server.
type GradingService interface {
	// ValidateAnswer grades value synchronously, or dispatches the answer and
	// returns a pending acknowledgment for kinds graded by the code server.
	ValidateAnswer(ctx context.Context, paper *models.AnswerPaper, answer *models.Answer, question *models.Question, value interface{}) (*grading.Result, error)
	PollResult(ctx context.Context, answerID, userID uint) (*codeserver.Result, error)
}

type ExportService interface {
	ExportAnswerPapers(ctx context.Context, quizID, userID uint, w io.Writer) error
}

// ===== AUTH DTOs =====

type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=150,username"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	Email      string `json:"email" validate:"omitempty,email"`
	FirstName  string `json:"first_name" validate:"max=150"`
	LastName   string `json:"last_name" validate:"max=150"`
	RollNumber string `json:"roll_number" validate:"max=20"`
	Institute  string `json:"institute" validate:"max=128"`
	Department string `json:"department" validate:"max=64"`
	Position   string `json:"position" validate:"max=64"`
	Timezone   string `json:"timezone" validate:"max=64"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	Email       *string `json:"email" validate:"omitempty,email"`
	RollNumber  *string `json:"roll_number" validate:"omitempty,max=20"`
	Institute   *string `json:"institute" validate:"omitempty,max=128"`
	Department  *string `json:"department" validate:"omitempty,max=64"`
	Position    *string `json:"position" validate:"omitempty,max=64"`
	Timezone    *string `json:"timezone" validate:"omitempty,max=64"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	City        *string `json:"city" validate:"omitempty,max=64"`
	Country     *string `json:"country" validate:"omitempty,max=64"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=128"`
}

// ===== CONTENT DTOs =====

type CreateCourseRequest struct {
	Name   string `json:"name" validate:"required,max=128"`
	Code   string `json:"code" validate:"max=128"`
	Active *bool  `json:"active"`
}

type QuestionRequest struct {
	Summary        string              `json:"summary" validate:"required,max=256"`
	Description    string              `json:"description"`
	Points         float64             `json:"points" validate:"gte=0"`
	Language       string              `json:"language" validate:"max=24"`
	Type           models.QuestionType `json:"type" validate:"required,question_type"`
	Active         *bool               `json:"active"`
	Snippet        string              `json:"snippet"`
	PartialGrading bool                `json:"partial_grading"`
	TestCases      []TestCaseRequest   `json:"test_cases" validate:"dive"`
}

type TestCaseRequest struct {
	Type           models.TestCaseType `json:"type" validate:"required,testcase_type"`
	Options        string              `json:"options"`
	Correct        bool                `json:"correct"`
	IntegerCorrect *int64              `json:"integer_correct"`
	FloatCorrect   *float64            `json:"float_correct"`
	ErrorMargin    float64             `json:"error_margin" validate:"gte=0"`
	StringCorrect  string              `json:"string_correct"`
	StringCheck    string              `json:"string_check" validate:"string_check"`
	TestCase       string              `json:"test_case"`
	TestCaseArgs   string              `json:"test_case_args"`
	ExpectedInput  string              `json:"expected_input"`
	ExpectedOutput string              `json:"expected_output"`
	HookCode       string              `json:"hook_code"`
	Weight         *float64            `json:"weight" validate:"omitempty,gte=0"`
	Hidden         bool                `json:"hidden"`
}

type QuizRequest struct {
	Description         string    `json:"description" validate:"required,max=256"`
	Instructions        string    `json:"instructions"`
	StartDateTime       time.Time `json:"start_date_time" validate:"required"`
	EndDateTime         time.Time `json:"end_date_time" validate:"required,gtfield=StartDateTime"`
	Duration            int       `json:"duration" validate:"required,gt=0"`
	Active              *bool     `json:"active"`
	PassCriteria        float64   `json:"pass_criteria" validate:"gte=0,lte=100"`
	AttemptsAllowed     int       `json:"attempts_allowed" validate:"attempts_allowed"`
	TimeBetweenAttempts float64   `json:"time_between_attempts" validate:"gte=0"`
	AllowSkip           *bool     `json:"allow_skip"`
}

type QuestionPaperRequest struct {
	QuizID             uint                 `json:"quiz_id" validate:"required"`
	ShuffleQuestions   bool                 `json:"shuffle_questions"`
	FixedQuestionIDs   []uint               `json:"fixed_questions"`
	FixedQuestionOrder string               `json:"fixed_question_order" validate:"max=1024"`
	QuestionSets       []QuestionSetRequest `json:"random_questions" validate:"dive"`
}

type QuestionSetRequest struct {
	Marks        float64 `json:"marks" validate:"gte=0"`
	NumQuestions int     `json:"num_questions" validate:"gt=0"`
	QuestionIDs  []uint  `json:"questions" validate:"required,min=1"`
}

// ===== ATTEMPT DTOs =====

type StartAttemptRequest struct {
	UserID    uint
	QuizID    uint
	CourseID  uint
	IPAddress string
}

type CreateAnswerPaperRequest struct {
	UserID          uint   `json:"-"`
	QuestionPaperID uint   `json:"question_paper" validate:"required"`
	CourseID        uint   `json:"course" validate:"required"`
	IPAddress       string `json:"-"`
}

type RecordAnswerRequest struct {
	UserID        uint
	AnswerPaperID uint
	QuestionID    uint
	Payload       json.RawMessage
}

type UploadAssignmentRequest struct {
	UserID        uint
	AnswerPaperID uint
	QuestionID    uint
	FileName      string
	ContentType   string
	Size          int64
	Reader        io.Reader
}

// AttemptView is an answer paper with its remaining time.
type AttemptView struct {
	TimeLeft    int                 `json:"time_left"`
	AnswerPaper *models.AnswerPaper `json:"answerpaper"`
}

// StartResult carries either an attempt view or a denial message.
type StartResult struct {
	View    *AttemptView
	Created bool
	Message string
}

func (r *StartResult) Denied() bool {
	return r.View == nil
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	Course() CourseService
	Question() QuestionService
	Quiz() QuizService
	QuestionPaper() QuestionPaperService
	Attempt() AttemptService
	Grading() GradingService
	Export() ExportService
}
