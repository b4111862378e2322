package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMCQ     QuestionType = "mcq"
	QuestionMCC     QuestionType = "mcc"
	QuestionInteger QuestionType = "integer"
	QuestionFloat   QuestionType = "float"
	QuestionString  QuestionType = "string"
	QuestionArrange QuestionType = "arrange"
	QuestionCode    QuestionType = "code"
	QuestionUpload  QuestionType = "upload"
)

var QuestionTypes = []QuestionType{
	QuestionMCQ, QuestionMCC, QuestionInteger, QuestionFloat,
	QuestionString, QuestionArrange, QuestionCode, QuestionUpload,
}

func (t QuestionType) Valid() bool {
	for _, qt := range QuestionTypes {
		if qt == t {
			return true
		}
	}
	return false
}

type Question struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	UserID         uint         `json:"user_id" gorm:"not null;index"`
	Summary        string       `json:"summary" gorm:"not null;size:256"`
	Description    string       `json:"description" gorm:"type:text"`
	Points         float64      `json:"points" gorm:"not null;default:1"`
	Language       string       `json:"language" gorm:"size:24"`
	Type           QuestionType `json:"type" gorm:"not null;size:24;index"`
	Active         bool         `json:"active" gorm:"default:true"`
	Snippet        string       `json:"snippet" gorm:"type:text"`
	PartialGrading bool         `json:"partial_grading" gorm:"default:false"`

	TestCases []TestCase `json:"test_cases,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}

type TestCaseType string

const (
	TestCaseMCQ      TestCaseType = "mcqtestcase"
	TestCaseInteger  TestCaseType = "integertestcase"
	TestCaseFloat    TestCaseType = "floattestcase"
	TestCaseString   TestCaseType = "stringtestcase"
	TestCaseArrange  TestCaseType = "arrangetestcase"
	TestCaseStandard TestCaseType = "standardtestcase"
	TestCaseStdIO    TestCaseType = "stdiobasedtestcase"
	TestCaseHook     TestCaseType = "hooktestcase"
)

const (
	StringCheckExact = "exact"
	StringCheckLower = "lower"
)

// TestCase is a single table for every test case flavour; only the fields
// relevant to Type are meaningful.
type TestCase struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	QuestionID uint         `json:"question_id" gorm:"not null;index"`
	Type       TestCaseType `json:"type" gorm:"not null;size:24"`

	// mcq, mcc, arrange
	Options string `json:"options,omitempty" gorm:"type:text"`
	Correct bool   `json:"correct,omitempty"`

	// integer, float, string
	IntegerCorrect *int64   `json:"integer_correct,omitempty"`
	FloatCorrect   *float64 `json:"float_correct,omitempty"`
	ErrorMargin    float64  `json:"error_margin,omitempty"`
	StringCorrect  string   `json:"string_correct,omitempty" gorm:"type:text"`
	StringCheck    string   `json:"string_check,omitempty" gorm:"size:16"`

	// code and upload questions
	TestCase       string  `json:"test_case,omitempty" gorm:"type:text"`
	TestCaseArgs   string  `json:"test_case_args,omitempty" gorm:"type:text"`
	ExpectedInput  string  `json:"expected_input,omitempty" gorm:"type:text"`
	ExpectedOutput string  `json:"expected_output,omitempty" gorm:"type:text"`
	HookCode       string  `json:"hook_code,omitempty" gorm:"type:text"`
	Weight         float64 `json:"weight,omitempty" gorm:"default:1"`
	Hidden         bool    `json:"hidden,omitempty"`
}

func (TestCase) TableName() string {
	return "test_cases"
}

// FieldValues is the shape the code server expects for one test case.
func (tc TestCase) FieldValues() map[string]interface{} {
	values := map[string]interface{}{"test_case_type": string(tc.Type)}
	switch tc.Type {
	case TestCaseStandard:
		values["test_case"] = tc.TestCase
		values["weight"] = tc.Weight
		values["hidden"] = tc.Hidden
		values["test_case_args"] = tc.TestCaseArgs
	case TestCaseStdIO:
		values["expected_input"] = tc.ExpectedInput
		values["expected_output"] = tc.ExpectedOutput
		values["weight"] = tc.Weight
		values["hidden"] = tc.Hidden
	case TestCaseHook:
		values["hook_code"] = tc.HookCode
		values["weight"] = tc.Weight
		values["hidden"] = tc.Hidden
	default:
		values["id"] = tc.ID
		values["options"] = tc.Options
		values["correct"] = tc.Correct
	}
	return values
}

// Public returns a copy safe to show to someone attempting the question:
// options stay, answer keys and hidden test data are dropped.
func (q Question) Public() Question {
	out := q
	out.TestCases = make([]TestCase, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		if tc.Hidden {
			continue
		}
		public := TestCase{ID: tc.ID, QuestionID: tc.QuestionID, Type: tc.Type, Options: tc.Options}
		if tc.Type == TestCaseStdIO {
			public.ExpectedInput = tc.ExpectedInput
			public.ExpectedOutput = tc.ExpectedOutput
		}
		out.TestCases = append(out.TestCases, public)
	}
	return out
}
