package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func newRouter(m *Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())
	return r
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.AttemptStarted("created")
	m.AttemptStarted("created")
	m.AttemptCompleted("quit")
	m.AnswerGraded("mcq", true)
	m.CodeServerCall("dispatch", errors.New("down"))

	body := scrape(t, newRouter(m))
	assert.Contains(t, body, `quiz_attempts_started_total{outcome="created"} 2`)
	assert.Contains(t, body, `quiz_attempts_completed_total{reason="quit"} 1`)
	assert.Contains(t, body, `quiz_answers_graded_total{correct="true",type="mcq"} 1`)
	assert.Contains(t, body, `quiz_code_server_calls_total{operation="dispatch",result="error"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AttemptStarted("created")
		m.AnswerGraded("mcq", false)
	})
}

func TestMetrics_Middleware(t *testing.T) {
	m := New()
	r := newRouter(m)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, scrape(t, r), `http_requests_total{endpoint="/ping",method="GET",status="200"} 1`)
}
