package codeserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPClient_Dispatch(t *testing.T) {
	var gotUID, gotData, gotDir string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		gotUID = r.PostForm.Get("uid")
		gotData = r.PostForm.Get("json_data")
		gotDir = r.PostForm.Get("user_dir")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/", time.Second, testLogger())
	err := client.Dispatch(context.Background(), 42, `{"metadata":{}}`, "/out/7")

	require.NoError(t, err)
	assert.Equal(t, "42", gotUID)
	assert.Equal(t, `{"metadata":{}}`, gotData)
	assert.Equal(t, "/out/7", gotDir)
}

func TestHTTPClient_DispatchUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second, testLogger())
	err := client.Dispatch(context.Background(), 1, "{}", "/out")
	assert.ErrorIs(t, err, ErrUnavailable)

	server.Close()
	err = client.Dispatch(context.Background(), 1, "{}", "/out")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_FetchResult(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus string
		wantResult string
		wantErr    error
	}{
		{
			name:       "done with string result",
			body:       `{"status": "done", "result": "{\"success\": true, \"error\": [], \"weight\": 1.0}"}`,
			wantStatus: StatusDone,
			wantResult: `{"success": true, "error": [], "weight": 1.0}`,
		},
		{
			name:       "done with inline result",
			body:       `{"status": "done", "result": {"success": false, "error": ["boom"]}}`,
			wantStatus: StatusDone,
			wantResult: `{"success": false, "error": ["boom"]}`,
		},
		{
			name:       "running",
			body:       `{"status": "running"}`,
			wantStatus: StatusRunning,
		},
		{
			name:    "garbage",
			body:    `<html>`,
			wantErr: ErrBadResponse,
		},
		{
			name:    "missing status",
			body:    `{"result": "x"}`,
			wantErr: ErrBadResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/17", r.URL.Path)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, time.Second, testLogger())
			result, err := client.FetchResult(context.Background(), 17)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantResult, result.Result)
		})
	}
}

func TestResult_Outcome(t *testing.T) {
	r := &Result{Status: StatusDone, Result: `{"success": true, "error": ["Correct answer"], "weight": 0.5}`}
	out, err := r.Outcome()
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 0.5, out.Weight)
	assert.JSONEq(t, `["Correct answer"]`, string(out.Error))

	_, err = (&Result{Status: StatusDone, Result: "not json"}).Outcome()
	assert.ErrorIs(t, err, ErrBadResponse)
}
