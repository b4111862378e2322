// Package grading holds the closed set of question kinds. Each kind knows
// how to coerce a raw answer and whether it is checked in-process or by the
// remote code server.
package grading

import (
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type Capability uint8

const (
	// SyncCheck kinds are compared against stored test cases in-process.
	SyncCheck Capability = 1 << iota
	// RemoteExecution kinds are dispatched to the code server and polled.
	RemoteExecution
	// FileAttachments kinds may carry uploaded assignment files.
	FileAttachments
)

const (
	MsgCorrect   = "Correct answer"
	MsgIncorrect = "Incorrect answer"
)

// Result is the grading outcome returned to callers. For dispatched answers
// only UID and Status are meaningful.
type Result struct {
	Success bool        `json:"success"`
	Error   interface{} `json:"error"`
	Weight  float64     `json:"weight"`
	UID     *uint       `json:"uid,omitempty"`
	Status  string      `json:"status,omitempty"`
}

func Incorrect() Result {
	return Result{Success: false, Error: []string{MsgIncorrect}}
}

func Correct() Result {
	return Result{Success: true, Error: []string{MsgCorrect}}
}

// Pending is the acknowledgment for work handed to the code server.
func Pending(uid uint) Result {
	return Result{UID: &uid, Status: "running"}
}

type coercer func(raw interface{}) (interface{}, error)
type checker func(q *models.Question, answer interface{}) Result

type Kind struct {
	Type   models.QuestionType
	Caps   Capability
	coerce coercer
	check  checker
}

func (k Kind) Has(c Capability) bool {
	return k.Caps&c != 0
}

// Async reports whether answers of this kind are graded out of band.
func (k Kind) Async() bool {
	return k.Has(RemoteExecution)
}

// Coerce converts a decoded payload into the value that is stored and graded.
func (k Kind) Coerce(raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, &CoercionError{Reason: "is required"}
	}
	if k.coerce == nil {
		return raw, nil
	}
	return k.coerce(raw)
}

// Check grades a coerced answer. Kinds without SyncCheck always report incorrect.
func (k Kind) Check(q *models.Question, answer interface{}) Result {
	if !k.Has(SyncCheck) || k.check == nil {
		return Incorrect()
	}
	return k.check(q, answer)
}

var registry = map[models.QuestionType]Kind{
	models.QuestionMCQ:     {Type: models.QuestionMCQ, Caps: SyncCheck, check: checkMCQ},
	models.QuestionMCC:     {Type: models.QuestionMCC, Caps: SyncCheck, check: checkMCC},
	models.QuestionInteger: {Type: models.QuestionInteger, Caps: SyncCheck, coerce: coerceInteger, check: checkInteger},
	models.QuestionFloat:   {Type: models.QuestionFloat, Caps: SyncCheck, coerce: coerceFloat, check: checkFloat},
	models.QuestionString:  {Type: models.QuestionString, Caps: SyncCheck, check: checkString},
	models.QuestionArrange: {Type: models.QuestionArrange, Caps: SyncCheck, check: checkArrange},
	models.QuestionCode:    {Type: models.QuestionCode, Caps: RemoteExecution},
	models.QuestionUpload:  {Type: models.QuestionUpload, Caps: RemoteExecution | FileAttachments},
}

// Lookup returns the kind for t. Unknown types get a pass-through kind that is
// graded synchronously and never succeeds.
func Lookup(t models.QuestionType) Kind {
	if k, ok := registry[t]; ok {
		return k
	}
	return Kind{Type: t, Caps: SyncCheck}
}
