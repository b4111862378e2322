package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptResumed   EventType = "attempt.resumed"
	EventAttemptCompleted EventType = "attempt.completed"
	EventAttemptExpired   EventType = "attempt.expired"

	EventAnswerRecorded   EventType = "answer.recorded"
	EventAnswerDispatched EventType = "answer.dispatched"
	EventAnswerGraded     EventType = "answer.graded"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// Event is the envelope for everything published on the attempts topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// PartitionKey groups events by answer paper.
func (e *Event) PartitionKey() string {
	switch d := e.Data.(type) {
	case AttemptEvent:
		return strconv.FormatUint(uint64(d.AnswerPaperID), 10)
	case AnswerEvent:
		return strconv.FormatUint(uint64(d.AnswerPaperID), 10)
	}
	return e.ID
}

type AttemptEvent struct {
	AnswerPaperID   uint      `json:"answer_paper_id"`
	UserID          uint      `json:"user_id"`
	QuestionPaperID uint      `json:"question_paper_id"`
	CourseID        uint      `json:"course_id"`
	AttemptNumber   int       `json:"attempt_number"`
	Status          string    `json:"status"`
	MarksObtained   float64   `json:"marks_obtained"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type AnswerEvent struct {
	AnswerID      uint    `json:"answer_id"`
	AnswerPaperID uint    `json:"answer_paper_id"`
	QuestionID    uint    `json:"question_id"`
	UserID        uint    `json:"user_id"`
	QuestionType  string  `json:"question_type"`
	Correct       bool    `json:"correct"`
	Marks         float64 `json:"marks"`
}

func newEvent(t EventType, data interface{}) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewAttemptEvent(t EventType, data AttemptEvent) *Event {
	return newEvent(t, data)
}

func NewAnswerEvent(t EventType, data AnswerEvent) *Event {
	return newEvent(t, data)
}

func GenerateEventID() string {
	return uuid.NewString()
}
