package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Auth errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Content errors
	ErrUserNotFound                = errors.New("user not found")
	ErrCourseNotFound              = errors.New("course not found")
	ErrQuestionNotFound            = errors.New("question not found")
	ErrQuizNotFound                = errors.New("quiz not found")
	ErrQuestionPaperNotFound       = errors.New("question paper not found")
	ErrQuestionPaperAlreadyExists  = errors.New("question paper already exists for this quiz")
	ErrQuestionPaperQuestionsOwner = errors.New("question paper references questions you do not own")

	// Attempt errors
	ErrAnswerPaperNotFound = errors.New("answer paper not found")
	ErrAnswerNotFound      = errors.New("answer not found")
	ErrAttemptNotActive    = errors.New("attempt is not in progress")
	ErrAttemptTimeExpired  = errors.New("attempt time has expired")
	ErrAttemptBusy         = errors.New("another request is starting this attempt")

	// Grading errors
	ErrNotAsyncGraded        = errors.New("answer is not graded by the code server")
	ErrCodeServerUnavailable = errors.New("code server unavailable")
	ErrCodeServerBadResponse = errors.New("code server returned an unparseable result")
	ErrUploadNotAllowed      = errors.New("question does not accept file uploads")
	ErrAssignmentNotFound    = errors.New("assignment upload not found")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID uint, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionPaperNotFound) ||
		errors.Is(err, ErrAnswerPaperNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUserInactive) ||
		errors.Is(err, ErrInvalidToken)
}

func IsForbidden(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrForbidden) || errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrUploadNotAllowed) ||
		errors.Is(err, ErrNotAsyncGraded) || errors.Is(err, ErrQuestionPaperQuestionsOwner) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrQuestionPaperAlreadyExists) ||
		errors.Is(err, ErrAttemptNotActive) ||
		errors.Is(err, ErrAttemptTimeExpired) ||
		errors.Is(err, ErrAttemptBusy)
}

// IsRetryable reports failures a client may retry unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCodeServerUnavailable) || errors.Is(err, ErrAttemptBusy)
}
