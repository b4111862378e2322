package grading

import (
	"encoding/json"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	v, err := DecodePayload(json.RawMessage(raw))
	require.NoError(t, err)
	return v
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestLookup_Capabilities(t *testing.T) {
	assert.True(t, Lookup(models.QuestionMCQ).Has(SyncCheck))
	assert.False(t, Lookup(models.QuestionMCQ).Async())
	assert.True(t, Lookup(models.QuestionCode).Async())
	assert.True(t, Lookup(models.QuestionUpload).Has(FileAttachments))
	assert.False(t, Lookup(models.QuestionCode).Has(FileAttachments))

	unknown := Lookup("essay")
	assert.True(t, unknown.Has(SyncCheck))
	assert.Equal(t, Incorrect(), unknown.Check(&models.Question{}, "anything"))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.QuestionType
		payload string
		want    interface{}
		wantErr bool
	}{
		{name: "integer from string list", kind: models.QuestionInteger, payload: `["42"]`, want: int64(42)},
		{name: "integer with spaces", kind: models.QuestionInteger, payload: `[" -7 "]`, want: int64(-7)},
		{name: "integer from number", kind: models.QuestionInteger, payload: `[42]`, want: int64(42)},
		{name: "integer bare string", kind: models.QuestionInteger, payload: `"12"`, want: int64(12)},
		{name: "integer not numeric", kind: models.QuestionInteger, payload: `["abc"]`, wantErr: true},
		{name: "integer decimal string", kind: models.QuestionInteger, payload: `["4.5"]`, wantErr: true},
		{name: "integer empty list", kind: models.QuestionInteger, payload: `[]`, wantErr: true},
		{name: "integer whole exponent", kind: models.QuestionInteger, payload: `[4e2]`, want: int64(400)},
		{name: "integer fractional number", kind: models.QuestionInteger, payload: `[4.5]`, wantErr: true},
		{name: "integer overflow", kind: models.QuestionInteger, payload: `[1e30]`, wantErr: true},
		{name: "integer underflow", kind: models.QuestionInteger, payload: `[-1e30]`, wantErr: true},
		{name: "float from string", kind: models.QuestionFloat, payload: `["3.14"]`, want: 3.14},
		{name: "float from number", kind: models.QuestionFloat, payload: `[2]`, want: 2.0},
		{name: "float nan", kind: models.QuestionFloat, payload: `["NaN"]`, wantErr: true},
		{name: "float garbage", kind: models.QuestionFloat, payload: `["x"]`, wantErr: true},
		{name: "missing payload", kind: models.QuestionMCQ, payload: ``, wantErr: true},
		{name: "mcq passes through", kind: models.QuestionMCQ, payload: `"3"`, want: "3"},
		{name: "code passes through", kind: models.QuestionCode, payload: `"print(1)"`, want: "print(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(tt.kind).Coerce(decode(t, tt.payload))
			if tt.wantErr {
				var ce *CoercionError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck(t *testing.T) {
	mcq := &models.Question{Type: models.QuestionMCQ, TestCases: []models.TestCase{
		{ID: 10, Type: models.TestCaseMCQ, Options: "a"},
		{ID: 11, Type: models.TestCaseMCQ, Options: "b", Correct: true},
	}}
	mcc := &models.Question{Type: models.QuestionMCC, TestCases: []models.TestCase{
		{ID: 1, Type: models.TestCaseMCQ, Correct: true},
		{ID: 2, Type: models.TestCaseMCQ},
		{ID: 3, Type: models.TestCaseMCQ, Correct: true},
	}}
	integer := &models.Question{Type: models.QuestionInteger, TestCases: []models.TestCase{
		{Type: models.TestCaseInteger, IntegerCorrect: int64Ptr(42)},
	}}
	float := &models.Question{Type: models.QuestionFloat, TestCases: []models.TestCase{
		{Type: models.TestCaseFloat, FloatCorrect: float64Ptr(3.14), ErrorMargin: 0.01},
	}}
	str := &models.Question{Type: models.QuestionString, TestCases: []models.TestCase{
		{Type: models.TestCaseString, StringCorrect: "Hello\nWorld", StringCheck: models.StringCheckLower},
	}}
	arrange := &models.Question{Type: models.QuestionArrange, TestCases: []models.TestCase{
		{ID: 5, Type: models.TestCaseArrange}, {ID: 4, Type: models.TestCaseArrange}, {ID: 6, Type: models.TestCaseArrange},
	}}

	tests := []struct {
		name     string
		question *models.Question
		payload  string
		success  bool
	}{
		{"mcq correct", mcq, `"11"`, true},
		{"mcq correct as list", mcq, `["11"]`, true},
		{"mcq correct as number", mcq, `11`, true},
		{"mcq wrong", mcq, `"10"`, false},
		{"mcc exact set", mcc, `["3", "1"]`, true},
		{"mcc subset", mcc, `["1"]`, false},
		{"mcc superset", mcc, `["1", "2", "3"]`, false},
		{"integer correct", integer, `["42"]`, true},
		{"integer wrong", integer, `["41"]`, false},
		{"float within margin", float, `["3.145"]`, true},
		{"float outside margin", float, `["3.2"]`, false},
		{"string lower", str, `"hello\r\nworld\n"`, true},
		{"string different", str, `"hello"`, false},
		{"arrange in order", arrange, `[4, 5, 6]`, true},
		{"arrange out of order", arrange, `["5", "4", "6"]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := Lookup(tt.question.Type)
			answer, err := kind.Coerce(decode(t, tt.payload))
			require.NoError(t, err)

			result := kind.Check(tt.question, answer)
			assert.Equal(t, tt.success, result.Success)
			if tt.success {
				assert.Equal(t, []string{MsgCorrect}, result.Error)
			} else {
				assert.Equal(t, []string{MsgIncorrect}, result.Error)
			}
		})
	}
}

func TestConsolidate(t *testing.T) {
	q := &models.Question{
		Language:       "python",
		PartialGrading: true,
		Type:           models.QuestionUpload,
		TestCases: []models.TestCase{
			{ID: 1, Type: models.TestCaseStandard, TestCase: "assert add(1, 2) == 3", Weight: 1},
		},
	}

	data, err := Consolidate(q, "def add(a, b): return a + b", []string{"/srv/uploads/a.zip"})
	require.NoError(t, err)

	var sub Submission
	require.NoError(t, json.Unmarshal([]byte(data), &sub))
	require.Len(t, sub.TestCaseData, 1)
	assert.Equal(t, "standardtestcase", sub.TestCaseData[0]["test_case_type"])
	assert.Equal(t, "assert add(1, 2) == 3", sub.TestCaseData[0]["test_case"])
	assert.Equal(t, "python", sub.Metadata.Language)
	assert.True(t, sub.Metadata.PartialGrading)
	assert.Equal(t, "def add(a, b): return a + b", sub.Metadata.UserAnswer)
	require.Len(t, sub.Metadata.AssignFiles, 1)
	assert.Equal(t, "/srv/uploads/a.zip", sub.Metadata.AssignFiles[0][0])
	assert.Equal(t, false, sub.Metadata.AssignFiles[0][1])
}
