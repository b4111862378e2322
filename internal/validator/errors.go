package validator

import (
	"github.com/SAP-F-2025/quiz-service/internal/errors"
)

type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}

func fieldError(field, message, rule string, value interface{}) ValidationError {
	return *errors.NewValidationErrorWithRule(field, message, rule, value)
}
