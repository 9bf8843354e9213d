package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== JSON Tests ==========

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantBody string
	}{
		{name: "data", status: http.StatusOK, body: map[string]int{"n": 1}, wantBody: `{"status":"ok","data":{"n":1}}`},
		{name: "error value", status: http.StatusBadRequest, body: APIError{Code: "bad_request", Message: "bad"}, wantBody: `{"status":"error","error":{"code":"bad_request","message":"bad"}}`},
		{name: "no content", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, JSON(rec, tt.status, tt.body, map[string]string{"X-Test": "1"}))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "1", rec.Header().Get("X-Test"))
			if tt.wantBody == "" {
				assert.Empty(t, rec.Body.String())
				return
			}
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readiness", nil)

	require.NoError(t, Error(rec, req, http.StatusServiceUnavailable, "dependencies_unhealthy", "down", map[string]string{"error": "x"}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"error","error":{"code":"dependencies_unhealthy","message":"down","details":{"error":"x"}}}`, rec.Body.String())
}
