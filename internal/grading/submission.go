package grading

import (
	"encoding/json"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Submission is the document the code server grades.
type Submission struct {
	TestCaseData []map[string]interface{} `json:"test_case_data"`
	Metadata     SubmissionMetadata       `json:"metadata"`
}

type SubmissionMetadata struct {
	UserAnswer     interface{}      `json:"user_answer"`
	Language       string           `json:"language"`
	PartialGrading bool             `json:"partial_grading"`
	AssignFiles    [][2]interface{} `json:"assign_files,omitempty"`
}

// Consolidate serializes a question's test cases, the answer and any
// assignment file references for dispatch.
func Consolidate(q *models.Question, userAnswer interface{}, assignFiles []string) (string, error) {
	sub := Submission{
		TestCaseData: make([]map[string]interface{}, 0, len(q.TestCases)),
		Metadata: SubmissionMetadata{
			UserAnswer:     userAnswer,
			Language:       q.Language,
			PartialGrading: q.PartialGrading,
		},
	}
	for _, tc := range q.TestCases {
		sub.TestCaseData = append(sub.TestCaseData, tc.FieldValues())
	}
	for _, f := range assignFiles {
		// second element: whether the server should extract the file
		sub.Metadata.AssignFiles = append(sub.Metadata.AssignFiles, [2]interface{}{f, false})
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
