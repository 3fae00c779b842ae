package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Brajnn/ToDoAPI/shared/logger"
)

const internalErrorBody = `{"type":"https://tools.ietf.org/html/rfc9110#section-15.6.1",` +
	`"title":"An error occurred while processing your request.","status":500}`

// RecoverMiddleware превращает панику обработчика в ответ 500 application/problem+json
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.WithRequestID(logger.Logger, GetRequestID(r.Context())).
				WithField("stack", string(debug.Stack())).
				WithError(fmt.Errorf("panic: %v", rec)).
				Error("unhandled panic")

			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(internalErrorBody))
		}()

		next.ServeHTTP(w, r)
	})
}
