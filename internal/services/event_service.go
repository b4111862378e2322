package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// AttemptEventService publishes attempt lifecycle events. Publishing is best
// effort: failures are logged and never fail the calling operation.
type AttemptEventService interface {
	AttemptStarted(ctx context.Context, paper *models.AnswerPaper)
	AttemptResumed(ctx context.Context, paper *models.AnswerPaper)
	AttemptCompleted(ctx context.Context, paper *models.AnswerPaper)
	AttemptExpired(ctx context.Context, paper *models.AnswerPaper)

	AnswerRecorded(ctx context.Context, paper *models.AnswerPaper, answer *models.Answer, questionType models.QuestionType)
	AnswerDispatched(ctx context.Context, paper *models.AnswerPaper, answer *models.Answer, questionType models.QuestionType)
	AnswerGraded(ctx context.Context, userID uint, answer *models.Answer, questionType models.QuestionType)
}

type attemptEventService struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewAttemptEventService(publisher events.EventPublisher, logger *slog.Logger) AttemptEventService {
	return &attemptEventService{
		publisher: publisher,
		logger:    logger,
	}
}

func (s *attemptEventService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}

func attemptPayload(paper *models.AnswerPaper) events.AttemptEvent {
	return events.AttemptEvent{
		AnswerPaperID:   paper.ID,
		UserID:          paper.UserID,
		QuestionPaperID: paper.QuestionPaperID,
		CourseID:        paper.CourseID,
		AttemptNumber:   paper.AttemptNumber,
		Status:          string(paper.Status),
		MarksObtained:   paper.MarksObtained,
		OccurredAt:      time.Now().UTC(),
	}
}

func answerPayload(userID uint, answer *models.Answer, questionType models.QuestionType) events.AnswerEvent {
	return events.AnswerEvent{
		AnswerID:      answer.ID,
		AnswerPaperID: answer.AnswerPaperID,
		QuestionID:    answer.QuestionID,
		UserID:        userID,
		QuestionType:  string(questionType),
		Correct:       answer.Correct,
		Marks:         answer.Marks,
	}
}

func (s *attemptEventService) AttemptStarted(ctx context.Context, paper *models.AnswerPaper) {
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptStarted, attemptPayload(paper)))
}

func (s *attemptEventService) AttemptResumed(ctx context.Context, paper *models.AnswerPaper) {
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptResumed, attemptPayload(paper)))
}

func (s *attemptEventService) AttemptCompleted(ctx context.Context, paper *models.AnswerPaper) {
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptCompleted, attemptPayload(paper)))
}

func (s *attemptEventService) AttemptExpired(ctx context.Context, paper *models.AnswerPaper) {
	s.publish(ctx, events.NewAttemptEvent(events.EventAttemptExpired, attemptPayload(paper)))
}

func (s *attemptEventService) AnswerRecorded(ctx context.Context, paper *models.AnswerPaper, answer *models.Answer, questionType models.QuestionType) {
	s.publish(ctx, events.NewAnswerEvent(events.EventAnswerRecorded, answerPayload(paper.UserID, answer, questionType)))
}

func (s *attemptEventService) AnswerDispatched(ctx context.Context, paper *models.AnswerPaper, answer *models.Answer, questionType models.QuestionType) {
	s.publish(ctx, events.NewAnswerEvent(events.EventAnswerDispatched, answerPayload(paper.UserID, answer, questionType)))
}

func (s *attemptEventService) AnswerGraded(ctx context.Context, userID uint, answer *models.Answer, questionType models.QuestionType) {
	s.publish(ctx, events.NewAnswerEvent(events.EventAnswerGraded, answerPayload(userID, answer, questionType)))
}
