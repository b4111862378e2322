package validator

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestValidate_CustomTags(t *testing.T) {
	type request struct {
		Username        string              `json:"username" validate:"required,username"`
		Type            models.QuestionType `json:"type" validate:"required,question_type"`
		AttemptsAllowed int                 `json:"attempts_allowed" validate:"attempts_allowed"`
	}

	v := New()

	assert.NoError(t, v.Validate(request{Username: "jane.doe", Type: models.QuestionMCQ, AttemptsAllowed: -1}))

	err := v.Validate(request{Username: "bad name", Type: "essay", AttemptsAllowed: 0})
	require.Error(t, err)

	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, errs, 3)
	assert.Equal(t, "username", errs[0].Field)
	assert.Equal(t, "type", errs[1].Field)
	assert.Equal(t, "attempts_allowed", errs[2].Field)
}

func TestQuestionValidator(t *testing.T) {
	qv := NewQuestionValidator()

	tests := []struct {
		name     string
		question models.Question
		wantErr  bool
	}{
		{
			name: "valid mcq",
			question: models.Question{Summary: "Pick", Points: 1, Type: models.QuestionMCQ, TestCases: []models.TestCase{
				{Type: models.TestCaseMCQ, Options: "a", Correct: true},
				{Type: models.TestCaseMCQ, Options: "b"},
			}},
		},
		{
			name: "mcq with two correct options",
			question: models.Question{Summary: "Pick", Points: 1, Type: models.QuestionMCQ, TestCases: []models.TestCase{
				{Type: models.TestCaseMCQ, Options: "a", Correct: true},
				{Type: models.TestCaseMCQ, Options: "b", Correct: true},
			}},
			wantErr: true,
		},
		{
			name: "integer without correct value",
			question: models.Question{Summary: "Sum", Points: 1, Type: models.QuestionInteger, TestCases: []models.TestCase{
				{Type: models.TestCaseInteger},
			}},
			wantErr: true,
		},
		{
			name: "valid integer",
			question: models.Question{Summary: "Sum", Points: 2, Type: models.QuestionInteger, TestCases: []models.TestCase{
				{Type: models.TestCaseInteger, IntegerCorrect: int64Ptr(42)},
			}},
		},
		{
			name: "code without language",
			question: models.Question{Summary: "Write", Points: 5, Type: models.QuestionCode, TestCases: []models.TestCase{
				{Type: models.TestCaseStandard, TestCase: "assert f(1) == 2"},
			}},
			wantErr: true,
		},
		{
			name: "mismatched test case type",
			question: models.Question{Summary: "Write", Points: 5, Type: models.QuestionString, TestCases: []models.TestCase{
				{Type: models.TestCaseMCQ, Options: "a"},
			}},
			wantErr: true,
		},
		{
			name:     "unknown type",
			question: models.Question{Summary: "Essay", Points: 5, Type: "essay"},
			wantErr:  true,
		},
		{
			name:     "upload without test cases",
			question: models.Question{Summary: "Upload", Points: 5, Type: models.QuestionUpload},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := qv.ValidateQuestion(&tt.question)
			if tt.wantErr {
				assert.Error(t, err)
				_, ok := err.(ValidationErrors)
				assert.True(t, ok)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
