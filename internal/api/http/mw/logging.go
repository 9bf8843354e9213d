package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"gitlab.com/nevasik7/alerting/logger"
)

type LoggingMiddleware struct {
	Log logger.Logger
}

func NewLogging(log logger.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{Log: log}
}

// Handler logs one line per request; 5xx at Warn, everything else at Debug
// so probes do not flood the log.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingRW{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r)

		lg := m.Log.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     lrw.status,
			"size":       lrw.size,
			"dur_ms":     time.Since(start).Milliseconds(),
			"ip":         r.RemoteAddr,
			"request_id": middleware.GetReqID(r.Context()),
		})

		if lrw.status >= http.StatusInternalServerError {
			lg.Warn("http_request")
			return
		}
		lg.Debug("http_request")
	})
}

type loggingRW struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *loggingRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingRW) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}
