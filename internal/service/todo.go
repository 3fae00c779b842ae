package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Brajnn/ToDoAPI/internal/models"
	"github.com/Brajnn/ToDoAPI/internal/repository"
)

// ErrInvalidArgument - некорректный аргумент операции (например, неизвестный фильтр)
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError несёт сообщение для клиента и совпадает с ErrInvalidArgument через errors.Is
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// ErrInvalidFilter возвращается ListIncoming для фильтра вне today/tomorrow/week
var ErrInvalidFilter = &ArgumentError{
	Message: "Invalid filter. Available options are: 'today', 'tomorrow', 'week'.",
}

const (
	FilterToday    = "today"
	FilterTomorrow = "tomorrow"
	FilterWeek     = "week"
)

// Clock - источник текущего времени
type Clock func() time.Time

type Option func(*TodoService)

// WithClock подменяет источник времени (в тестах - фиксированная дата)
func WithClock(clock Clock) Option {
	return func(s *TodoService) {
		s.now = clock
	}
}

type TodoService struct {
	repo repository.TodoRepository
	now  Clock
}

func NewTodoService(repo repository.TodoRepository, opts ...Option) *TodoService {
	s := &TodoService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TodoService) List(ctx context.Context) ([]*models.TodoItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}
	return items, nil
}

// GetByID возвращает nil без ошибки, если задачи нет
func (s *TodoService) GetByID(ctx context.Context, id int64) (*models.TodoItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get todo item %d: %w", id, err)
	}
	return item, nil
}

// ListIncoming возвращает незавершённые задачи со сроком сегодня, завтра или на текущей неделе
func (s *TodoService) ListIncoming(ctx context.Context, filter string) ([]*models.TodoItem, error) {
	from, to, err := expiryWindow(filter, s.now())
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Find(ctx, repository.Filter{
		PendingOnly: true,
		ExpiresFrom: from,
		ExpiresTo:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("list incoming todo items (%s): %w", filter, err)
	}
	return items, nil
}

// expiryWindow вычисляет закрытый интервал сроков для фильтра в локальной зоне now
func expiryWindow(filter string, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch filter {
	case FilterToday:
		return today, today.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	case FilterTomorrow:
		tomorrow := today.AddDate(0, 0, 1)
		return tomorrow, tomorrow.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	case FilterWeek:
		// неделя начинается с понедельника
		offset := (int(today.Weekday()) - int(time.Monday) + 7) % 7
		startOfWeek := today.AddDate(0, 0, -offset)
		// по настенным часам: сутки перевода часов длятся не 24h
		endOfWeek := time.Date(startOfWeek.Year(), startOfWeek.Month(), startOfWeek.Day()+6, 23, 59, 59, 0, now.Location())
		return startOfWeek, endOfWeek, nil
	default:
		return time.Time{}, time.Time{}, ErrInvalidFilter
	}
}

func (s *TodoService) Create(ctx context.Context, item *models.TodoItem) (*models.TodoItem, error) {
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create todo item: %w", err)
	}
	return item, nil
}

// Update заменяет поля задачи id. Возвращает nil без ошибки, если задачи нет.
// IsDone можно только выставить (при 100%), но не снять.
func (s *TodoService) Update(ctx context.Context, id int64, input models.TodoItem) (*models.TodoItem, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	existing.Title = input.Title
	existing.Description = input.Description
	existing.ExpiryDate = input.ExpiryDate
	existing.PercentComplete = input.PercentComplete
	if input.PercentComplete == 100 {
		existing.IsDone = true
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update todo item %d: %w", id, err)
	}
	return existing, nil
}

// SetPercentComplete ничего не делает для несуществующей задачи
func (s *TodoService) SetPercentComplete(ctx context.Context, id int64, percent float64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil || item == nil {
		return err
	}

	item.PercentComplete = percent
	if percent == 100 {
		item.IsDone = true
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("set percent complete of todo item %d: %w", id, err)
	}
	return nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil || item == nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete todo item %d: %w", id, err)
	}
	return nil
}

func (s *TodoService) MarkDone(ctx context.Context, id int64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil || item == nil {
		return err
	}

	item.IsDone = true
	item.PercentComplete = 100
	if err := s.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("mark todo item %d done: %w", id, err)
	}
	return nil
}
