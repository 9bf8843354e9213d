package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Envelope wraps every response body: {"status":"ok","data":...} or
// {"status":"error","error":...}.
type Envelope struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"` // example "dependencies_unhealthy"
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func OK(w http.ResponseWriter, body any) error {
	return JSON(w, http.StatusOK, body, nil)
}

func JSON(w http.ResponseWriter, status int, body any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	if body == nil && status == http.StatusNoContent {
		w.WriteHeader(status)
		return nil
	}

	payload := Envelope{Status: "ok", Data: body}
	switch e := body.(type) {
	case *APIError:
		payload = Envelope{Status: "error", Error: e}
	case APIError:
		payload = Envelope{Status: "error", Error: &e}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(payload)
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) error {
	return JSON(w, status, &APIError{
		Code:    code,
		Message: message,
		Details: details,
		TraceID: middleware.GetReqID(r.Context()),
	}, map[string]string{
		"Cache-Control": "no-store",
	})
}
