package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/codeserver"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/middleware"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAttemptService answers from canned values; unimplemented methods panic.
type stubAttemptService struct {
	services.AttemptService
	start  *services.StartResult
	result *grading.Result
	err    error
	got    *services.RecordAnswerRequest
}

func (s *stubAttemptService) StartOrResume(ctx context.Context, req *services.StartAttemptRequest) (*services.StartResult, error) {
	return s.start, s.err
}

func (s *stubAttemptService) RecordAnswer(ctx context.Context, req *services.RecordAnswerRequest) (*grading.Result, error) {
	s.got = req
	return s.result, s.err
}

func (s *stubAttemptService) Quit(ctx context.Context, answerPaperID, userID uint) (*services.AttemptView, error) {
	return nil, s.err
}

func (s *stubAttemptService) OpenAssignment(ctx context.Context, uploadID, userID uint) (*models.AssignmentUpload, io.ReadCloser, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return &models.AssignmentUpload{ID: uploadID, FileName: "solution.py", Size: 8}, io.NopCloser(strings.NewReader("print(1)")), nil
}

type stubGradingService struct {
	services.GradingService
	result *codeserver.Result
	err    error
}

func (s *stubGradingService) PollResult(ctx context.Context, answerID, userID uint) (*codeserver.Result, error) {
	return s.result, s.err
}

func newAttemptRouter(attempts services.AttemptService, grader services.GradingService, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := NewAttemptHandler(attempts, grader, nil, logger)

	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUser, &models.User{ID: 7, Username: "student"})
			c.Set(middleware.ContextUserID, uint(7))
		})
	}
	r.GET("/start_quiz/:course_id/:quiz_id", h.StartQuiz)
	r.GET("/quit/:answerpaper_id", h.Quit)
	r.POST("/validate/:answerpaper_id/:question_id", h.ValidateAnswer)
	r.GET("/validate/:uid", h.PollResult)
	r.GET("/uploads/:id", h.DownloadAssignment)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartQuiz_StatusCodes(t *testing.T) {
	view := &services.AttemptView{TimeLeft: 1800, AnswerPaper: &models.AnswerPaper{ID: 3}}

	tests := []struct {
		name   string
		start  *services.StartResult
		status int
		check  func(t *testing.T, body map[string]interface{})
	}{
		{
			name:   "created",
			start:  &services.StartResult{View: view, Created: true},
			status: http.StatusCreated,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, 1800.0, body["time_left"])
			},
		},
		{
			name:   "resumed",
			start:  &services.StartResult{View: view},
			status: http.StatusOK,
		},
		{
			name:   "denied",
			start:  &services.StartResult{Message: "You are not enrolled in this course"},
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "You are not enrolled in this course", body["message"])
				assert.NotContains(t, body, "answerpaper")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAttemptRouter(&stubAttemptService{start: tt.start}, &stubGradingService{}, true)
			w := serve(r, http.MethodGet, "/start_quiz/1/2", "")
			require.Equal(t, tt.status, w.Code)
			if tt.check != nil {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				tt.check(t, body)
			}
		})
	}
}

func TestStartQuiz_BadInput(t *testing.T) {
	r := newAttemptRouter(&stubAttemptService{}, &stubGradingService{}, true)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/start_quiz/abc/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/start_quiz/1/0", "").Code)

	anonymous := newAttemptRouter(&stubAttemptService{}, &stubGradingService{}, false)
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous, http.MethodGet, "/start_quiz/1/2", "").Code)
}

func TestValidateAnswer_PassesPayload(t *testing.T) {
	uid := uint(44)
	pending := grading.Pending(uid)
	stub := &stubAttemptService{result: &pending}
	r := newAttemptRouter(stub, &stubGradingService{}, true)

	w := serve(r, http.MethodPost, "/validate/3/9", `{"answer": ["42"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.got)
	assert.Equal(t, uint(7), stub.got.UserID)
	assert.Equal(t, uint(3), stub.got.AnswerPaperID)
	assert.Equal(t, uint(9), stub.got.QuestionID)
	assert.JSONEq(t, `["42"]`, string(stub.got.Payload))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 44.0, body["uid"])
	assert.Equal(t, "running", body["status"])
}

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{"validation", services.ValidationErrors{{Field: "answer", Message: "not an integer"}}, http.StatusBadRequest, "", ""},
		{"business rule", services.NewBusinessRuleError("empty_question_paper", "no questions", nil), http.StatusUnprocessableEntity, "", ""},
		{"permission", services.NewPermissionError(7, 1, "quiz", "export", "not the creator"), http.StatusForbidden, "", ""},
		{"not found", services.ErrAnswerPaperNotFound, http.StatusNotFound, "not_found", ""},
		{"expired", services.ErrAttemptTimeExpired, http.StatusConflict, "attempt_expired", ""},
		{"completed", services.ErrAttemptNotActive, http.StatusConflict, "attempt_completed", ""},
		{"busy", services.ErrAttemptBusy, http.StatusConflict, "attempt_busy", "1"},
		{"not async", services.ErrNotAsyncGraded, http.StatusBadRequest, "invalid", ""},
		{"code server down", fmt.Errorf("%w: refused", services.ErrCodeServerUnavailable), http.StatusServiceUnavailable, "code_server_unavailable", "5"},
		{"code server garbage", fmt.Errorf("%w: eof", services.ErrCodeServerBadResponse), http.StatusBadGateway, "code_server_bad_response", ""},
		{"unexpected", fmt.Errorf("disk full"), http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAttemptRouter(&stubAttemptService{err: tt.err}, &stubGradingService{}, true)
			w := serve(r, http.MethodGet, "/quit/5", "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestPollResult(t *testing.T) {
	grader := &stubGradingService{result: &codeserver.Result{Status: codeserver.StatusDone, Result: `{"success": true}`}}
	r := newAttemptRouter(&stubAttemptService{}, grader, true)

	w := serve(r, http.MethodGet, "/validate/12", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "done", "result": "{\"success\": true}"}`, w.Body.String())

	grader.result, grader.err = nil, services.ErrAnswerNotFound
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/validate/12", "").Code)
}

func TestDownloadAssignment(t *testing.T) {
	r := newAttemptRouter(&stubAttemptService{}, &stubGradingService{}, true)
	w := serve(r, http.MethodGet, "/uploads/4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "print(1)", w.Body.String())
	assert.Equal(t, `attachment; filename="solution.py"`, w.Header().Get("Content-Disposition"))

	hidden := newAttemptRouter(&stubAttemptService{err: services.ErrAssignmentNotFound}, &stubGradingService{}, true)
	assert.Equal(t, http.StatusNotFound, serve(hidden, http.MethodGet, "/uploads/4", "").Code)

	anonymous := newAttemptRouter(&stubAttemptService{}, &stubGradingService{}, false)
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous, http.MethodGet, "/uploads/4", "").Code)
}
