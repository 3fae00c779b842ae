package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Brajnn/ToDoAPI/internal/models"
	"github.com/Brajnn/ToDoAPI/internal/service"
	"github.com/Brajnn/ToDoAPI/internal/validation"
	"github.com/Brajnn/ToDoAPI/shared/middleware"
)

const routeGetTodo = "getTodo"

type TodoHandler struct {
	todoService *service.TodoService
	validator   *validation.Validator
	logger      *logrus.Logger
	router      *mux.Router
}

func NewTodoHandler(ts *service.TodoService, v *validation.Validator, logger *logrus.Logger) *TodoHandler {
	return &TodoHandler{
		todoService: ts,
		validator:   v,
		logger:      logger,
	}
}

// Register подключает маршруты /api/todo к роутеру
func (h *TodoHandler) Register(r *mux.Router) {
	h.router = r
	api := r.PathPrefix("/api/todo").Subrouter()

	api.HandleFunc("", h.ListTodos).Methods(http.MethodGet)
	api.HandleFunc("/", h.ListTodos).Methods(http.MethodGet)
	api.HandleFunc("/incoming", h.ListIncoming).Methods(http.MethodGet)
	api.HandleFunc("/{id:[0-9]+}", h.GetTodo).Methods(http.MethodGet).Name(routeGetTodo)
	api.HandleFunc("", h.CreateTodo).Methods(http.MethodPost)
	api.HandleFunc("/", h.CreateTodo).Methods(http.MethodPost)
	api.HandleFunc("/{id:[0-9]+}", h.UpdateTodo).Methods(http.MethodPut)
	api.HandleFunc("/{id:[0-9]+}/percent-complete", h.SetPercentComplete).Methods(http.MethodPatch)
	api.HandleFunc("/{id:[0-9]+}", h.DeleteTodo).Methods(http.MethodDelete)
	api.HandleFunc("/{id:[0-9]+}/mark-done", h.MarkDone).Methods(http.MethodPatch)
}

// todoRequest - тело POST/PUT. id и isDone из тела в сервис не передаются, isDone только валидируется.
type todoRequest struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	ExpiryDate      flexibleTime `json:"expiryDate"`
	PercentComplete float64      `json:"percentComplete"`
	IsDone          bool         `json:"isDone"`
}

func (req todoRequest) toModel() *models.TodoItem {
	return &models.TodoItem{
		Title:           req.Title,
		Description:     req.Description,
		ExpiryDate:      time.Time(req.ExpiryDate),
		PercentComplete: req.PercentComplete,
		IsDone:          req.IsDone,
	}
}

// flexibleTime принимает RFC 3339 и время без зоны (как локальное)
type flexibleTime time.Time

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *flexibleTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expiryDate must be a string: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		*t = flexibleTime(parsed)
		return nil
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			*t = flexibleTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("expiryDate %q is not an ISO-8601 date-time", raw)
}

func (h *TodoHandler) logEntry(r *http.Request, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    handler,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

// ListTodos обрабатывает GET /api/todo
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "ListTodos")

	items, err := h.todoService.List(r.Context())
	if err != nil {
		logEntry.WithError(err).Error("failed to list todo items")
		internalError(w, r)
		return
	}

	logEntry.WithField("count", len(items)).Debug("todo items listed")
	writeJSON(w, http.StatusOK, items)
}

// GetTodo обрабатывает GET /api/todo/{id}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "GetTodo")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	item, err := h.todoService.GetByID(r.Context(), id)
	if err != nil {
		logEntry.WithError(err).Error("failed to get todo item")
		internalError(w, r)
		return
	}
	if item == nil {
		logEntry.WithField("todo_id", id).Debug("todo item not found")
		notFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// ListIncoming обрабатывает GET /api/todo/incoming?filter=today|tomorrow|week
func (h *TodoHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "ListIncoming")
	filter := r.URL.Query().Get("filter")

	items, err := h.todoService.ListIncoming(r.Context(), filter)
	var argErr *service.ArgumentError
	switch {
	case errors.As(err, &argErr):
		logEntry.WithField("filter", filter).Warn("invalid incoming filter")
		badRequest(w, r, argErr.Message)
		return
	case err != nil:
		logEntry.WithError(err).Error("failed to list incoming todo items")
		internalError(w, r)
		return
	}

	logEntry.WithFields(logrus.Fields{
		"filter": filter,
		"count":  len(items),
	}).Debug("incoming todo items listed")
	writeJSON(w, http.StatusOK, items)
}

// CreateTodo обрабатывает POST /api/todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "CreateTodo")

	item, ok := h.decodeTodo(w, r, logEntry)
	if !ok {
		return
	}

	created, err := h.todoService.Create(r.Context(), item)
	if err != nil {
		logEntry.WithError(err).Error("failed to create todo item")
		internalError(w, r)
		return
	}

	if loc, err := h.router.Get(routeGetTodo).URL("id", strconv.FormatInt(created.ID, 10)); err == nil {
		w.Header().Set("Location", loc.String())
	}
	logEntry.WithField("todo_id", created.ID).Info("todo item created")
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTodo обрабатывает PUT /api/todo/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "UpdateTodo")

	id, ok := parseID(w, r)
	if !ok {
		return
	}
	item, ok := h.decodeTodo(w, r, logEntry)
	if !ok {
		return
	}

	updated, err := h.todoService.Update(r.Context(), id, *item)
	if err != nil {
		logEntry.WithError(err).Error("failed to update todo item")
		internalError(w, r)
		return
	}
	if updated == nil {
		logEntry.WithField("todo_id", id).Warn("todo item not found for update")
		notFound(w, r)
		return
	}

	logEntry.WithField("todo_id", id).Info("todo item updated")
	writeJSON(w, http.StatusOK, updated)
}

// SetPercentComplete обрабатывает PATCH /api/todo/{id}/percent-complete, тело - число. Диапазон не проверяется.
func (h *TodoHandler) SetPercentComplete(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "SetPercentComplete")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var percent float64
	if err := json.NewDecoder(r.Body).Decode(&percent); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		badRequest(w, r, "request body must be a number")
		return
	}
	if err := h.todoService.SetPercentComplete(r.Context(), id, percent); err != nil {
		logEntry.WithError(err).Error("failed to set percent complete")
		internalError(w, r)
		return
	}

	logEntry.WithFields(logrus.Fields{
		"todo_id": id,
		"percent": percent,
	}).Info("percent complete set")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTodo обрабатывает DELETE /api/todo/{id}. Отсутствующий id - тоже 204.
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "DeleteTodo")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.todoService.Delete(r.Context(), id); err != nil {
		logEntry.WithError(err).Error("failed to delete todo item")
		internalError(w, r)
		return
	}

	logEntry.WithField("todo_id", id).Info("todo item deleted")
	w.WriteHeader(http.StatusNoContent)
}

// MarkDone обрабатывает PATCH /api/todo/{id}/mark-done
func (h *TodoHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "MarkDone")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.todoService.MarkDone(r.Context(), id); err != nil {
		logEntry.WithError(err).Error("failed to mark todo item as done")
		internalError(w, r)
		return
	}

	logEntry.WithField("todo_id", id).Info("todo item marked as done")
	w.WriteHeader(http.StatusNoContent)
}

func (h *TodoHandler) decodeTodo(w http.ResponseWriter, r *http.Request, logEntry *logrus.Entry) (*models.TodoItem, bool) {
	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		badRequest(w, r, "invalid request body: "+strings.TrimPrefix(err.Error(), "json: "))
		return nil, false
	}

	item := req.toModel()
	if err := h.validator.ValidateTodo(item); err != nil {
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			logEntry.WithError(err).Error("validator failed")
			internalError(w, r)
			return nil, false
		}
		logEntry.WithField("errors", verrs).Warn("validation failed")
		validationProblem(w, r, verrs)
		return nil, false
	}
	return item, true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		badRequest(w, r, "id must be an integer")
		return 0, false
	}
	return id, true
}
