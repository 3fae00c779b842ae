package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Brajnn/ToDoAPI/internal/models"
)

// MemoryTodoRepository хранит задачи в памяти процесса. Используется в тестах и для DB_DRIVER=memory.
type MemoryTodoRepository struct {
	mu     sync.RWMutex
	items  map[int64]models.TodoItem
	nextID int64
}

var _ TodoRepository = (*MemoryTodoRepository)(nil)

func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{
		items:  make(map[int64]models.TodoItem),
		nextID: 1,
	}
}

func (r *MemoryTodoRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryTodoRepository) Create(ctx context.Context, item *models.TodoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryTodoRepository) GetByID(ctx context.Context, id int64) (*models.TodoItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *MemoryTodoRepository) List(ctx context.Context) ([]*models.TodoItem, error) {
	return r.Find(ctx, Filter{})
}

func (r *MemoryTodoRepository) Find(ctx context.Context, filter Filter) ([]*models.TodoItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*models.TodoItem, 0, len(r.items))
	for _, item := range r.items {
		if !filter.Match(&item) {
			continue
		}
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *MemoryTodoRepository) Update(ctx context.Context, item *models.TodoItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; ok {
		r.items[item.ID] = *item
	}
	return nil
}

func (r *MemoryTodoRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)
	return nil
}
