package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with question content rules.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures into ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("testcase_type", validateTestCaseType)
	validate.RegisterValidation("string_check", validateStringCheck)
	validate.RegisterValidation("attempts_allowed", validateAttemptsAllowed)
	validate.RegisterValidation("username", validateUsername)

	// Report json field names in errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).Valid()
}

func validateTestCaseType(fl validator.FieldLevel) bool {
	switch models.TestCaseType(fl.Field().String()) {
	case models.TestCaseMCQ, models.TestCaseInteger, models.TestCaseFloat, models.TestCaseString,
		models.TestCaseArrange, models.TestCaseStandard, models.TestCaseStdIO, models.TestCaseHook:
		return true
	}
	return false
}

func validateStringCheck(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || value == models.StringCheckExact || value == models.StringCheckLower
}

func validateAttemptsAllowed(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	return value == models.UnlimitedAttempts || value > 0
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}
