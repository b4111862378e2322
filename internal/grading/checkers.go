package grading

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

func testCaseID(tc models.TestCase) string {
	return strconv.FormatUint(uint64(tc.ID), 10)
}

func checkMCQ(q *models.Question, answer interface{}) Result {
	selected, ok := asStrings(answer)
	if !ok || len(selected) != 1 {
		return Incorrect()
	}
	for _, tc := range q.TestCases {
		if tc.Correct && strings.TrimSpace(selected[0]) == testCaseID(tc) {
			return Correct()
		}
	}
	return Incorrect()
}

func checkMCC(q *models.Question, answer interface{}) Result {
	selected, ok := asStrings(answer)
	if !ok {
		return Incorrect()
	}
	expected := make(map[string]struct{})
	for _, tc := range q.TestCases {
		if tc.Correct {
			expected[testCaseID(tc)] = struct{}{}
		}
	}
	got := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		got[s] = struct{}{}
	}
	if len(got) != len(expected) {
		return Incorrect()
	}
	for id := range expected {
		if _, ok := got[id]; !ok {
			return Incorrect()
		}
	}
	return Correct()
}

func checkInteger(q *models.Question, answer interface{}) Result {
	n, ok := answer.(int64)
	if !ok {
		return Incorrect()
	}
	for _, tc := range q.TestCases {
		if tc.IntegerCorrect != nil && *tc.IntegerCorrect == n {
			return Correct()
		}
	}
	return Incorrect()
}

func checkFloat(q *models.Question, answer interface{}) Result {
	f, ok := answer.(float64)
	if !ok {
		return Incorrect()
	}
	for _, tc := range q.TestCases {
		if tc.FloatCorrect != nil && math.Abs(*tc.FloatCorrect-f) <= tc.ErrorMargin {
			return Correct()
		}
	}
	return Incorrect()
}

func checkString(q *models.Question, answer interface{}) Result {
	v, err := firstElement(answer)
	if err != nil {
		return Incorrect()
	}
	s, ok := asString(v)
	if !ok {
		return Incorrect()
	}
	for _, tc := range q.TestCases {
		expected, actual := tc.StringCorrect, s
		if tc.StringCheck == models.StringCheckLower {
			expected, actual = strings.ToLower(expected), strings.ToLower(actual)
		}
		if equalLines(splitLines(expected), splitLines(actual)) {
			return Correct()
		}
	}
	return Incorrect()
}

// checkArrange expects the option ids in the order the options were authored.
func checkArrange(q *models.Question, answer interface{}) Result {
	order, ok := asStrings(answer)
	if !ok || len(order) != len(q.TestCases) {
		return Incorrect()
	}
	ids := make([]uint, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		ids = append(ids, tc.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if order[i] != strconv.FormatUint(uint64(id), 10) {
			return Incorrect()
		}
	}
	return Correct()
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
