package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// oneInProgressIndex keeps a single open attempt per user, paper and course.
const oneInProgressIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_answerpapers_one_inprogress
	ON answer_papers (user_id, question_paper_id, course_id)
	WHERE status = 'inprogress'`

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.AuthToken{},
		&models.Course{},
		&models.Question{},
		&models.TestCase{},
		&models.Quiz{},
		&models.QuestionSet{},
		&models.QuestionPaper{},
		&models.AnswerPaper{},
		&models.Answer{},
		&models.AssignmentUpload{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := db.Exec(oneInProgressIndex).Error; err != nil {
		return fmt.Errorf("failed to create in-progress index: %w", err)
	}
	return nil
}
