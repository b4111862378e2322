package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/codeserver"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/storage"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg/auth"
)

// Dependencies are the collaborators shared by every service.
type Dependencies struct {
	Repo        repositories.Repository
	Cache       cache.CacheService
	Locker      cache.Locker
	Storage     storage.Provider
	CodeServer  codeserver.Client
	Events      AttemptEventService
	Metrics     *metrics.Metrics
	JWT         *auth.JWTService
	External    IdentityVerifier
	Logger      *slog.Logger
	Validator   *validator.Validator
	LockTTL     time.Duration
	UserDirRoot string
}

type serviceManager struct {
	auth          AuthService
	course        CourseService
	question      QuestionService
	quiz          QuizService
	questionPaper QuestionPaperService
	attempt       AttemptService
	grading       GradingService
	export        ExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	grader := NewGradingService(deps.Repo, deps.CodeServer, deps.Storage, deps.Events, deps.Metrics, deps.Logger, deps.UserDirRoot)

	return &serviceManager{
		auth:          NewAuthService(deps.Repo, deps.JWT, deps.External, deps.Logger, deps.Validator),
		course:        NewCourseService(deps.Repo, deps.Logger, deps.Validator),
		question:      NewQuestionService(deps.Repo, deps.Cache, deps.Logger, deps.Validator),
		quiz:          NewQuizService(deps.Repo, deps.Logger, deps.Validator),
		questionPaper: NewQuestionPaperService(deps.Repo, deps.Logger, deps.Validator),
		attempt: NewAttemptService(deps.Repo, grader, deps.Storage, deps.Locker, deps.Events,
			deps.Metrics, deps.Logger, deps.Validator, deps.LockTTL),
		grading: grader,
		export:  NewExportService(deps.Repo, deps.Logger),
	}
}

func (m *serviceManager) Auth() AuthService                   { return m.auth }
func (m *serviceManager) Course() CourseService               { return m.course }
func (m *serviceManager) Question() QuestionService           { return m.question }
func (m *serviceManager) Quiz() QuizService                   { return m.quiz }
func (m *serviceManager) QuestionPaper() QuestionPaperService { return m.questionPaper }
func (m *serviceManager) Attempt() AttemptService             { return m.attempt }
func (m *serviceManager) Grading() GradingService             { return m.grading }
func (m *serviceManager) Export() ExportService               { return m.export }
