package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// QuestionValidator checks that a question carries the test cases its type needs.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

var allowedTestCases = map[models.QuestionType][]models.TestCaseType{
	models.QuestionMCQ:     {models.TestCaseMCQ},
	models.QuestionMCC:     {models.TestCaseMCQ},
	models.QuestionInteger: {models.TestCaseInteger},
	models.QuestionFloat:   {models.TestCaseFloat},
	models.QuestionString:  {models.TestCaseString},
	models.QuestionArrange: {models.TestCaseArrange},
	models.QuestionCode:    {models.TestCaseStandard, models.TestCaseStdIO, models.TestCaseHook},
	models.QuestionUpload:  {models.TestCaseStandard, models.TestCaseStdIO, models.TestCaseHook},
}

// ValidateQuestion returns ValidationErrors, or nil when the question is usable.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) error {
	var errs ValidationErrors

	if strings.TrimSpace(q.Summary) == "" {
		errs = append(errs, fieldError("summary", "is required", "required", q.Summary))
	}
	if q.Points < 0 {
		errs = append(errs, fieldError("points", "must be greater than or equal to 0", "gte", q.Points))
	}
	if !q.Type.Valid() {
		errs = append(errs, fieldError("type", "must be a valid question type (mcq, mcc, integer, float, string, arrange, code, upload)", "question_type", q.Type))
		return errs
	}

	allowed := allowedTestCases[q.Type]
	for i, tc := range q.TestCases {
		if !containsTestCaseType(allowed, tc.Type) {
			errs = append(errs, fieldError(fmt.Sprintf("test_cases[%d].type", i),
				fmt.Sprintf("%s is not allowed for %s questions", tc.Type, q.Type), "testcase_type", tc.Type))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	errs = append(errs, v.validateTestCases(q)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *QuestionValidator) validateTestCases(q *models.Question) ValidationErrors {
	var errs ValidationErrors
	tcs := q.TestCases

	switch q.Type {
	case models.QuestionMCQ, models.QuestionMCC:
		if len(tcs) < 2 {
			errs = append(errs, fieldError("test_cases", "must have at least 2 options", "min", len(tcs)))
			break
		}
		correct := 0
		for _, tc := range tcs {
			if tc.Correct {
				correct++
			}
		}
		if q.Type == models.QuestionMCQ && correct != 1 {
			errs = append(errs, fieldError("test_cases", "must have exactly one correct option", "mcq", correct))
		}
		if q.Type == models.QuestionMCC && correct < 1 {
			errs = append(errs, fieldError("test_cases", "must have at least one correct option", "mcc", correct))
		}
	case models.QuestionInteger:
		errs = append(errs, requireSome(tcs, func(tc models.TestCase) bool { return tc.IntegerCorrect != nil }, "integer_correct")...)
	case models.QuestionFloat:
		errs = append(errs, requireSome(tcs, func(tc models.TestCase) bool { return tc.FloatCorrect != nil }, "float_correct")...)
		for i, tc := range tcs {
			if tc.ErrorMargin < 0 {
				errs = append(errs, fieldError(fmt.Sprintf("test_cases[%d].error_margin", i), "must be greater than or equal to 0", "gte", tc.ErrorMargin))
			}
		}
	case models.QuestionString:
		errs = append(errs, requireSome(tcs, func(tc models.TestCase) bool { return tc.StringCorrect != "" }, "string_correct")...)
		for i, tc := range tcs {
			if tc.StringCheck != "" && tc.StringCheck != models.StringCheckExact && tc.StringCheck != models.StringCheckLower {
				errs = append(errs, fieldError(fmt.Sprintf("test_cases[%d].string_check", i), "must be exact or lower", "string_check", tc.StringCheck))
			}
		}
	case models.QuestionArrange:
		if len(tcs) < 2 {
			errs = append(errs, fieldError("test_cases", "must have at least 2 options", "min", len(tcs)))
		}
	case models.QuestionCode:
		if strings.TrimSpace(q.Language) == "" {
			errs = append(errs, fieldError("language", "is required", "required", q.Language))
		}
		if len(tcs) == 0 {
			errs = append(errs, fieldError("test_cases", "must have at least 1 test case", "min", 0))
		}
	}
	return errs
}

func requireSome(tcs []models.TestCase, ok func(models.TestCase) bool, field string) ValidationErrors {
	if len(tcs) == 0 {
		return ValidationErrors{fieldError("test_cases", "must have at least 1 test case", "min", 0)}
	}
	var errs ValidationErrors
	for i, tc := range tcs {
		if !ok(tc) {
			errs = append(errs, fieldError(fmt.Sprintf("test_cases[%d].%s", i, field), "is required", "required", nil))
		}
	}
	return errs
}

func containsTestCaseType(types []models.TestCaseType, t models.TestCaseType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
