package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UnlimitedAttempts is the AttemptsAllowed value that disables the attempt cap.
const UnlimitedAttempts = -1

type Quiz struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	CreatorID           uint      `json:"creator_id" gorm:"not null;index"`
	Description         string    `json:"description" gorm:"not null;size:256"`
	Instructions        string    `json:"instructions" gorm:"type:text"`
	StartDateTime       time.Time `json:"start_date_time" gorm:"not null"`
	EndDateTime         time.Time `json:"end_date_time" gorm:"not null"`
	Duration            int       `json:"duration" gorm:"not null;default:20"` // minutes
	Active              bool      `json:"active" gorm:"default:true"`
	PassCriteria        float64   `json:"pass_criteria" gorm:"default:40"`
	AttemptsAllowed     int       `json:"attempts_allowed" gorm:"default:-1"`
	TimeBetweenAttempts float64   `json:"time_between_attempts" gorm:"default:0"` // hours
	AllowSkip           bool      `json:"allow_skip" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) DurationTime() time.Duration {
	return time.Duration(q.Duration) * time.Minute
}

func (q *Quiz) IsExpired(now time.Time) bool {
	return now.After(q.EndDateTime)
}

func (q *Quiz) HasStarted(now time.Time) bool {
	return !now.Before(q.StartDateTime)
}

type QuestionPaper struct {
	ID                 uint    `json:"id" gorm:"primaryKey"`
	QuizID             uint    `json:"quiz_id" gorm:"not null;uniqueIndex"`
	TotalMarks         float64 `json:"total_marks" gorm:"default:0"`
	ShuffleQuestions   bool    `json:"shuffle_questions" gorm:"default:false"`
	FixedQuestionOrder string  `json:"fixed_question_order" gorm:"size:1024"`

	Quiz            *Quiz         `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	FixedQuestions  []Question    `json:"fixed_questions,omitempty" gorm:"many2many:questionpaper_fixed_questions"`
	RandomQuestions []QuestionSet `json:"random_questions,omitempty" gorm:"many2many:questionpaper_random_questions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuestionPaper) TableName() string {
	return "question_papers"
}

// OrderedFixedQuestions returns the fixed questions in FixedQuestionOrder,
// followed by any question the order does not mention.
func (qp *QuestionPaper) OrderedFixedQuestions() []Question {
	if qp.FixedQuestionOrder == "" {
		return qp.FixedQuestions
	}
	byID := make(map[uint]Question, len(qp.FixedQuestions))
	for _, q := range qp.FixedQuestions {
		byID[q.ID] = q
	}
	ordered := make([]Question, 0, len(qp.FixedQuestions))
	for _, part := range strings.Split(qp.FixedQuestionOrder, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		if q, ok := byID[uint(id)]; ok {
			ordered = append(ordered, q)
			delete(byID, uint(id))
		}
	}
	for _, q := range qp.FixedQuestions {
		if _, left := byID[q.ID]; left {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

// ComputeTotalMarks sums fixed question points and marks * count of each random set.
func (qp *QuestionPaper) ComputeTotalMarks() float64 {
	total := 0.0
	for _, q := range qp.FixedQuestions {
		total += q.Points
	}
	for _, qs := range qp.RandomQuestions {
		total += qs.Marks * float64(qs.NumQuestions)
	}
	return total
}

type QuestionSet struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	CreatorID    uint    `json:"creator_id" gorm:"not null;index"`
	Marks        float64 `json:"marks" gorm:"not null"`
	NumQuestions int     `json:"num_questions" gorm:"not null"`

	Questions []Question `json:"questions,omitempty" gorm:"many2many:questionset_questions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuestionSet) TableName() string {
	return "question_sets"
}
