package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubAuthenticator struct {
	users map[string]*models.User
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := stubAuthenticator{users: map[string]*models.User{
		"student":   {ID: 1, Username: "student"},
		"moderator": {ID: 2, Username: "moderator", Profile: &models.Profile{IsModerator: true}},
	}}

	r := gin.New()
	r.Use(RequireAuth(auth))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserID)})
	})
	r.GET("/moderate", RequireModerator(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"bearer token", "Bearer student", http.StatusOK},
		{"token scheme", "Token student", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, doRequest(r, "/me", tt.header).Code)
		})
	}
}

func TestRequireModerator(t *testing.T) {
	r := newAuthRouter()
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/moderate", "Bearer student").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "/moderate", "Bearer moderator").Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(ctx, 2, time.Hour).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, "/", "").Code)
}
