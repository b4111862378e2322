package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("answer", "is required", nil)

	assert.Equal(t, "answer", err.Field)
	assert.Equal(t, "is required", err.Message)
	assert.Nil(t, err.Value)
	assert.Equal(t, "validation error on field 'answer': is required", err.Error())
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("answer", "must be an integer", "abc"))
	assert.Equal(t, "validation failed: answer must be an integer", errs.Error())

	errs = append(errs, *NewValidationError("duration", "must be at least 1", 0))
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("type", "must be a valid question type", "question_type", "essay")

	assert.Equal(t, "question_type", err.Rule)
	assert.Equal(t, "type", err.Field)
	assert.Equal(t, "essay", err.Value)
}

func TestToValidationErrors(t *testing.T) {
	type startRequest struct {
		Username string `validate:"required"`
		Duration int    `validate:"min=1"`
	}

	err := validator.New().Struct(startRequest{Duration: 0})
	require.Error(t, err)

	errs := ToValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "Username", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
	assert.Equal(t, "required", errs[0].Rule)
	assert.Equal(t, "must be at least 1", errs[1].Message)
}

func TestToValidationErrors_PassThrough(t *testing.T) {
	in := ValidationErrors{*NewValidationError("answer", "is required", nil)}

	assert.Equal(t, in, ToValidationErrors(in))
	assert.Empty(t, ToValidationErrors(assert.AnError))
}
