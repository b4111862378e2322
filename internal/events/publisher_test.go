package events

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	started := NewAttemptEvent(EventAttemptStarted, AttemptEvent{AnswerPaperID: 7, UserID: 3, AttemptNumber: 1})
	graded := NewAnswerEvent(EventAnswerGraded, AnswerEvent{AnswerID: 11, AnswerPaperID: 7, Correct: true, Marks: 2})

	require.NoError(t, publisher.Publish(ctx, started))
	require.NoError(t, publisher.Publish(ctx, graded))

	all := publisher.GetPublishedEvents()
	require.Len(t, all, 2)
	assert.Equal(t, EventAttemptStarted, all[0].Type)
	assert.Equal(t, "quiz-service", all[0].Source)
	assert.Equal(t, "1.0", all[0].Version)
	assert.NotEmpty(t, all[0].ID)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	gradedEvents := publisher.EventsOfType(EventAnswerGraded)
	require.Len(t, gradedEvents, 1)
	data, ok := gradedEvents[0].Data.(AnswerEvent)
	require.True(t, ok)
	assert.True(t, data.Correct)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestEvent_PartitionKey(t *testing.T) {
	assert.Equal(t, "7", NewAttemptEvent(EventAttemptCompleted, AttemptEvent{AnswerPaperID: 7}).PartitionKey())
	assert.Equal(t, "9", NewAnswerEvent(EventAnswerRecorded, AnswerEvent{AnswerPaperID: 9}).PartitionKey())

	e := &Event{ID: "abc", Data: map[string]string{}}
	assert.Equal(t, "abc", e.PartitionKey())
}
