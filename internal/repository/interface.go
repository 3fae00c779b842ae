package repository

import (
	"context"
	"time"

	"github.com/Brajnn/ToDoAPI/internal/models"
)

// TodoRepository - хранилище задач. GetByID возвращает (nil, nil), если задачи нет.
type TodoRepository interface {
	Create(ctx context.Context, item *models.TodoItem) error
	GetByID(ctx context.Context, id int64) (*models.TodoItem, error)
	List(ctx context.Context) ([]*models.TodoItem, error)
	Find(ctx context.Context, filter Filter) ([]*models.TodoItem, error)
	Update(ctx context.Context, item *models.TodoItem) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Filter описывает выборку задач. Обе границы включительные, нулевое значение - без границы.
type Filter struct {
	PendingOnly bool
	ExpiresFrom time.Time
	ExpiresTo   time.Time
}

// Match проверяет задачу на соответствие фильтру
func (f Filter) Match(item *models.TodoItem) bool {
	if f.PendingOnly && item.IsDone {
		return false
	}
	if !f.ExpiresFrom.IsZero() && item.ExpiryDate.Before(f.ExpiresFrom) {
		return false
	}
	if !f.ExpiresTo.IsZero() && item.ExpiryDate.After(f.ExpiresTo) {
		return false
	}
	return true
}
