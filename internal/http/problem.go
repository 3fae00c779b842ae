package http

import (
	"encoding/json"
	"net/http"

	"github.com/Brajnn/ToDoAPI/shared/middleware"
)

// problem - тело ошибки в формате RFC 7807 (application/problem+json)
type problem struct {
	Type    string              `json:"type"`
	Title   string              `json:"title"`
	Status  int                 `json:"status"`
	Detail  string              `json:"detail,omitempty"`
	TraceID string              `json:"traceId,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

var problemTypes = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc9110#section-15.6.1",
	http.StatusServiceUnavailable:  "https://tools.ietf.org/html/rfc9110#section-15.6.4",
}

func writeProblem(w http.ResponseWriter, r *http.Request, p problem) {
	if p.Type == "" {
		p.Type = problemTypes[p.Status]
	}
	if p.Type == "" {
		p.Type = "about:blank"
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	p.TraceID = middleware.GetRequestID(r.Context())

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func badRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, problem{Status: http.StatusBadRequest, Detail: detail})
}

func validationProblem(w http.ResponseWriter, r *http.Request, errs map[string][]string) {
	writeProblem(w, r, problem{
		Status: http.StatusBadRequest,
		Title:  "One or more validation errors occurred.",
		Errors: errs,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, r, problem{Status: http.StatusNotFound})
}

func internalError(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, r, problem{
		Status: http.StatusInternalServerError,
		Title:  "An error occurred while processing your request.",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
