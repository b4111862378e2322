package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type AnswerPaperStatus string

const (
	AnswerPaperInProgress AnswerPaperStatus = "inprogress"
	AnswerPaperCompleted  AnswerPaperStatus = "completed"
)

// AnswerPaper is one attempt by one user at one question paper within one course.
type AnswerPaper struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	UserID          uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_answerpaper_attempt"`
	QuestionPaperID uint              `json:"question_paper_id" gorm:"not null;uniqueIndex:idx_answerpaper_attempt"`
	CourseID        uint              `json:"course_id" gorm:"not null;uniqueIndex:idx_answerpaper_attempt"`
	AttemptNumber   int               `json:"attempt_number" gorm:"not null;uniqueIndex:idx_answerpaper_attempt"`
	StartTime       time.Time         `json:"start_time" gorm:"not null"`
	EndTime         *time.Time        `json:"end_time"`
	Status          AnswerPaperStatus `json:"status" gorm:"not null;size:20;default:inprogress;index"`
	IPAddress       string            `json:"ip_address" gorm:"size:64"`
	QuestionsOrder  string            `json:"questions_order" gorm:"type:text"`
	MarksObtained   float64           `json:"marks_obtained" gorm:"default:0"`
	Percent         float64           `json:"percent" gorm:"default:0"`
	Passed          bool              `json:"passed" gorm:"default:false"`

	User          *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	QuestionPaper *QuestionPaper `json:"question_paper,omitempty" gorm:"foreignKey:QuestionPaperID"`
	Course        *Course        `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Questions     []Question     `json:"questions,omitempty" gorm:"many2many:answerpaper_questions"`
	Answers       []Answer       `json:"answers,omitempty" gorm:"foreignKey:AnswerPaperID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AnswerPaper) TableName() string {
	return "answer_papers"
}

// TimeLeft returns whole seconds left, floored at zero.
func (ap *AnswerPaper) TimeLeft(now time.Time, duration time.Duration) int {
	remaining := duration - now.Sub(ap.StartTime)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// IsAttemptInProgress reports whether the paper is open and still has time left.
func (ap *AnswerPaper) IsAttemptInProgress(now time.Time, duration time.Duration) bool {
	return ap.Status == AnswerPaperInProgress && ap.TimeLeft(now, duration) > 0
}

func (ap *AnswerPaper) HasQuestion(questionID uint) bool {
	for _, q := range ap.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func (ap *AnswerPaper) QuestionIDs() []uint {
	ids := make([]uint, 0, len(ap.Questions))
	for _, q := range ap.OrderedQuestions() {
		ids = append(ids, q.ID)
	}
	return ids
}

// SetQuestions assigns the selected questions and records their order.
func (ap *AnswerPaper) SetQuestions(questions []Question) {
	ap.Questions = questions
	parts := make([]string, 0, len(questions))
	for _, q := range questions {
		parts = append(parts, strconv.FormatUint(uint64(q.ID), 10))
	}
	ap.QuestionsOrder = strings.Join(parts, ",")
}

// OrderedQuestions returns Questions in the order they were selected.
func (ap *AnswerPaper) OrderedQuestions() []Question {
	if ap.QuestionsOrder == "" {
		return ap.Questions
	}
	byID := make(map[uint]Question, len(ap.Questions))
	for _, q := range ap.Questions {
		byID[q.ID] = q
	}
	ordered := make([]Question, 0, len(ap.Questions))
	for _, part := range strings.Split(ap.QuestionsOrder, ",") {
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			continue
		}
		if q, ok := byID[uint(id)]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

type GradingState string

const (
	GradingPending GradingState = "pending"
	GradingDone    GradingState = "graded"
)

// Answer is one submission to one question. Rows are append-only; the
// grading fields are written once.
type Answer struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	AnswerPaperID uint           `json:"answer_paper_id" gorm:"not null;index"`
	QuestionID    uint           `json:"question_id" gorm:"not null;index"`
	Answer        datatypes.JSON `json:"answer" gorm:"type:jsonb"`
	Correct       bool           `json:"correct" gorm:"default:false"`
	Marks         float64        `json:"marks" gorm:"default:0"`
	Error         datatypes.JSON `json:"error" gorm:"type:jsonb"`
	GradingState  GradingState   `json:"grading_state" gorm:"not null;size:16;default:pending"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Answer) IsGraded() bool {
	return a.GradingState == GradingDone
}

// Value decodes the stored payload.
func (a *Answer) Value() (interface{}, error) {
	if len(a.Answer) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(a.Answer, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// AssignmentUpload is a file attached to an upload question within one attempt.
type AssignmentUpload struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	AnswerPaperID uint   `json:"answer_paper_id" gorm:"not null;index:idx_upload_paper_question"`
	QuestionID    uint   `json:"question_id" gorm:"not null;index:idx_upload_paper_question"`
	UserID        uint   `json:"user_id" gorm:"not null;index"`
	CourseID      uint   `json:"course_id" gorm:"not null"`
	FileName      string `json:"file_name" gorm:"not null;size:255"`
	ObjectKey     string `json:"object_key" gorm:"not null;size:512"`
	URL           string `json:"url" gorm:"size:1024"`
	Size          int64  `json:"size"`

	CreatedAt time.Time `json:"created_at"`
}

func (AssignmentUpload) TableName() string {
	return "assignment_uploads"
}
