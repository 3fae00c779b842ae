package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Brajnn/ToDoAPI/shared/logger"
)

// quietPaths опрашиваются мониторингом, их access-лог пишется на уровне debug
var quietPaths = map[string]bool{
	"/metrics": true,
	"/healthz": true,
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// LoggingMiddleware пишет access-лог запроса. Уровень зависит от статуса: 5xx - error, 4xx - warning.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"bytes":       wrapped.bytes,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		}
		if r.URL.RawQuery != "" {
			fields["query"] = r.URL.RawQuery
		}

		logEntry := logger.WithRequestID(logger.Logger, GetRequestID(r.Context())).WithFields(fields)
		logEntry.Log(accessLevel(r.URL.Path, wrapped.statusCode), "request completed")
	})
}

func accessLevel(path string, status int) logrus.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logrus.ErrorLevel
	case status >= http.StatusBadRequest:
		return logrus.WarnLevel
	case quietPaths[path]:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
