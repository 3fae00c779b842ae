package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brajnn/ToDoAPI/internal/models"
	"github.com/Brajnn/ToDoAPI/internal/repository"
	"github.com/Brajnn/ToDoAPI/internal/service"
	"github.com/Brajnn/ToDoAPI/internal/validation"
	"github.com/Brajnn/ToDoAPI/shared/logger"
)

var testNow = time.Date(2026, time.October, 13, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, repo repository.TodoRepository) http.Handler {
	t.Helper()
	clock := func() time.Time { return testNow }

	svc := service.NewTodoService(repo, service.WithClock(clock))
	v := validation.New(validation.WithClock(clock))
	h := NewTodoHandler(svc, v, logger.New(io.Discard, "test", "error"))

	return NewRouter(RouterConfig{Todos: h, Health: repo})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seed(t *testing.T, repo repository.TodoRepository, items ...models.TodoItem) {
	t.Helper()
	for i := range items {
		require.NoError(t, repo.Create(context.Background(), &items[i]))
	}
}

func TestCreateTodo(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodPost, "/api/todo", `{
		"title": "Write tests",
		"description": "for the handlers",
		"expiryDate": "2026-10-20T12:00:00Z",
		"percentComplete": 10
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/todo/1", rec.Header().Get("Location"))

	got := decode[models.TodoItem](t, rec)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Write tests", got.Title)
	assert.Equal(t, 10.0, got.PercentComplete)
	assert.False(t, got.IsDone)

	stored, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, time.Date(2026, time.October, 20, 12, 0, 0, 0, time.UTC).Equal(stored.ExpiryDate))
}

func TestCreateTodo_TrailingSlashAndLocalTime(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodPost, "/api/todo/", `{"title":"Local","expiryDate":"2027-01-01T09:30:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	stored, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	want := time.Date(2027, time.January, 1, 9, 30, 0, 0, time.Local)
	assert.True(t, want.Equal(stored.ExpiryDate))
}

func TestCreateTodo_ValidationFailed(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodPost, "/api/todo", `{
		"title": "ab",
		"expiryDate": "2026-10-01T00:00:00Z",
		"percentComplete": 120,
		"isDone": true
	}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	body := decode[problem](t, rec)
	assert.Equal(t, "One or more validation errors occurred.", body.Title)
	assert.Equal(t, []string{"Title must be at least 3 characters long."}, body.Errors["title"])
	assert.Equal(t, []string{"Expiry date must be in the future."}, body.Errors["expiryDate"])
	assert.Equal(t, []string{"PercentComplete must be between 0 and 100."}, body.Errors["percentComplete"])
	assert.Equal(t, []string{"A new task cannot be marked as completed upon creation."}, body.Errors["isDone"])

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateTodo_MalformedBody(t *testing.T) {
	h := newTestServer(t, repository.NewMemoryTodoRepository())

	for _, body := range []string{`{"title":`, `{"title":"abc","expiryDate":"tomorrow"}`, `[]`} {
		rec := do(t, h, http.MethodPost, "/api/todo", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestListTodos(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodGet, "/api/todo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	seed(t, repo,
		models.TodoItem{Title: "one", ExpiryDate: testNow},
		models.TodoItem{Title: "two", ExpiryDate: testNow},
	)
	rec = do(t, h, http.MethodGet, "/api/todo/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.TodoItem](t, rec)
	require.Len(t, items, 2)
	assert.Equal(t, "one", items[0].Title)
	assert.Equal(t, "two", items[1].Title)
}

func TestGetTodo(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	seed(t, repo, models.TodoItem{Title: "only", ExpiryDate: testNow, PercentComplete: 40})
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodGet, "/api/todo/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "only", decode[models.TodoItem](t, rec).Title)

	rec = do(t, h, http.MethodGet, "/api/todo/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[problem](t, rec).Status)

	rec = do(t, h, http.MethodGet, "/api/todo/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListIncoming(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	seed(t, repo,
		models.TodoItem{Title: "today", ExpiryDate: testNow.Add(time.Hour)},
		models.TodoItem{Title: "tomorrow", ExpiryDate: testNow.Add(24 * time.Hour)},
		models.TodoItem{Title: "done today", ExpiryDate: testNow.Add(time.Hour), IsDone: true, PercentComplete: 100},
	)
	// часы сервиса в UTC: "сегодня" считается от testNow
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodGet, "/api/todo/incoming?filter=today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.TodoItem](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "today", items[0].Title)

	rec = do(t, h, http.MethodGet, "/api/todo/incoming?filter=week", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.TodoItem](t, rec), 2)

	for _, target := range []string{"/api/todo/incoming?filter=month", "/api/todo/incoming"} {
		rec = do(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		body := decode[problem](t, rec)
		assert.Equal(t, "Invalid filter. Available options are: 'today', 'tomorrow', 'week'.", body.Detail)
	}
}

func TestUpdateTodo(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	seed(t, repo, models.TodoItem{Title: "before", ExpiryDate: testNow, PercentComplete: 20})
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodPut, "/api/todo/1", `{
		"id": 7,
		"title": "after",
		"description": "changed",
		"expiryDate": "2026-11-01T08:00:00Z",
		"percentComplete": 100
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[models.TodoItem](t, rec)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "after", got.Title)
	assert.True(t, got.IsDone)

	rec = do(t, h, http.MethodPut, "/api/todo/42", `{"title":"ghost","expiryDate":"2026-11-01T08:00:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/todo/1", `{"title":"after","expiryDate":"2026-11-01T08:00:00Z","isDone":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[problem](t, rec).Errors, "isDone")
}

func TestSetPercentComplete(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	seed(t, repo, models.TodoItem{Title: "half", ExpiryDate: testNow, PercentComplete: 50})
	h := newTestServer(t, repo)
	ctx := context.Background()

	rec := do(t, h, http.MethodPatch, "/api/todo/1/percent-complete", `100`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	item, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, item.PercentComplete)
	assert.True(t, item.IsDone)

	rec = do(t, h, http.MethodPatch, "/api/todo/99/percent-complete", `10`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/todo/1/percent-complete", `150`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	item, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 150.0, item.PercentComplete)

	rec = do(t, h, http.MethodPatch, "/api/todo/1/percent-complete", `-5`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	item, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, -5.0, item.PercentComplete)
	assert.True(t, item.IsDone)

	rec = do(t, h, http.MethodPatch, "/api/todo/1/percent-complete", `"ten"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTodo(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	seed(t, repo, models.TodoItem{Title: "bye", ExpiryDate: testNow})
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodDelete, "/api/todo/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	item, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, item)

	rec = do(t, h, http.MethodDelete, "/api/todo/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMarkDone(t *testing.T) {
	repo := repository.NewMemoryTodoRepository()
	seed(t, repo, models.TodoItem{Title: "thirty", ExpiryDate: testNow, PercentComplete: 30})
	h := newTestServer(t, repo)

	rec := do(t, h, http.MethodPatch, "/api/todo/1/mark-done", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	item, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, item.PercentComplete)
	assert.True(t, item.IsDone)

	rec = do(t, h, http.MethodPatch, "/api/todo/404/mark-done", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type brokenRepository struct {
	*repository.MemoryTodoRepository
}

var errBroken = errors.New("database is on fire")

func (brokenRepository) List(ctx context.Context) ([]*models.TodoItem, error) {
	return nil, errBroken
}

func (brokenRepository) Ping(ctx context.Context) error {
	return errBroken
}

func TestInternalErrors(t *testing.T) {
	h := newTestServer(t, brokenRepository{repository.NewMemoryTodoRepository()})

	rec := do(t, h, http.MethodGet, "/api/todo", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[problem](t, rec)
	assert.Equal(t, "An error occurred while processing your request.", body.Title)
	assert.NotContains(t, rec.Body.String(), errBroken.Error())

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newTestServer(t, repository.NewMemoryTodoRepository())

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, repository.NewMemoryTodoRepository())

	rec := do(t, h, http.MethodPost, "/api/todo/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
