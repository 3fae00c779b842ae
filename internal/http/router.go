package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	customMiddleware "github.com/Brajnn/ToDoAPI/internal/middleware"
	"github.com/Brajnn/ToDoAPI/shared/middleware"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Todos  *TodoHandler
	Health Pinger
	// Docs монтируется в /swagger/ только если задан
	Docs http.Handler
}

// NewRouter собирает маршруты и цепочку middleware
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(customMiddleware.MetricsMiddleware)

	cfg.Todos.Register(router)
	router.Handle("/metrics", customMiddleware.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthz(cfg.Health)).Methods(http.MethodGet)
	if cfg.Docs != nil {
		router.PathPrefix("/swagger/").Handler(http.StripPrefix("/swagger", cfg.Docs)).Methods(http.MethodGet)
	}

	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, problem{Status: http.StatusMethodNotAllowed})
	})

	// Порядок важен: request-id нужен логированию, recover ловит панику до логирования ответа
	var handler http.Handler = router
	handler = customMiddleware.SecurityHeadersMiddleware(handler)
	handler = middleware.RecoverMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	return handler
}

func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			writeProblem(w, r, problem{
				Status: http.StatusServiceUnavailable,
				Detail: "database unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
