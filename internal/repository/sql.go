package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Brajnn/ToDoAPI/internal/models"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect - диалект SQL, он же имя драйвера database/sql
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const todoColumns = `id, title, description, expiry_date, percent_complete, is_done`

// SQLTodoRepository хранит задачи в таблице todo_items (Postgres или SQLite)
type SQLTodoRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ TodoRepository = (*SQLTodoRepository)(nil)

func NewSQLTodoRepository(dialect Dialect, dsn string) (*SQLTodoRepository, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite допускает одного писателя
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLTodoRepository{db: db, dialect: dialect}, nil
}

func (r *SQLTodoRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLTodoRepository) Dialect() Dialect {
	return r.dialect
}

func (r *SQLTodoRepository) Close() error {
	return r.db.Close()
}

func (r *SQLTodoRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLTodoRepository) Create(ctx context.Context, item *models.TodoItem) error {
	query := `INSERT INTO todo_items (title, description, expiry_date, percent_complete, is_done)
              VALUES (?, ?, ?, ?, ?) RETURNING id`
	err := r.db.QueryRowContext(ctx, r.rebind(query),
		item.Title, item.Description, toDBTime(item.ExpiryDate), item.PercentComplete, item.IsDone,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert todo item: %w", err)
	}
	return nil
}

func (r *SQLTodoRepository) GetByID(ctx context.Context, id int64) (*models.TodoItem, error) {
	query := `SELECT ` + todoColumns + ` FROM todo_items WHERE id = ?`
	item, err := scanTodo(r.db.QueryRowContext(ctx, r.rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get todo item %d: %w", id, err)
	}
	return item, nil
}

func (r *SQLTodoRepository) List(ctx context.Context) ([]*models.TodoItem, error) {
	return r.Find(ctx, Filter{})
}

func (r *SQLTodoRepository) Find(ctx context.Context, filter Filter) ([]*models.TodoItem, error) {
	var (
		conds []string
		args  []any
	)
	if filter.PendingOnly {
		conds = append(conds, "is_done = ?")
		args = append(args, false)
	}
	if !filter.ExpiresFrom.IsZero() {
		conds = append(conds, "expiry_date >= ?")
		args = append(args, toDBTime(filter.ExpiresFrom))
	}
	if !filter.ExpiresTo.IsZero() {
		conds = append(conds, "expiry_date <= ?")
		args = append(args, toDBTime(filter.ExpiresTo))
	}

	query := `SELECT ` + todoColumns + ` FROM todo_items`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query todo items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.TodoItem, 0)
	for rows.Next() {
		item, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update перезаписывает все поля задачи. Отсутствие строки не считается ошибкой (last write wins).
func (r *SQLTodoRepository) Update(ctx context.Context, item *models.TodoItem) error {
	query := `UPDATE todo_items
              SET title = ?, description = ?, expiry_date = ?, percent_complete = ?, is_done = ?
              WHERE id = ?`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		item.Title, item.Description, toDBTime(item.ExpiryDate), item.PercentComplete, item.IsDone, item.ID)
	if err != nil {
		return fmt.Errorf("update todo item %d: %w", item.ID, err)
	}
	return nil
}

func (r *SQLTodoRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM todo_items WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, r.rebind(query), id); err != nil {
		return fmt.Errorf("delete todo item %d: %w", id, err)
	}
	return nil
}

func (r *SQLTodoRepository) rebind(query string) string {
	return rebind(r.dialect, query)
}

// rebind заменяет плейсхолдеры ? на $1, $2, ... для Postgres
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.TodoItem, error) {
	item := &models.TodoItem{}
	err := row.Scan(&item.ID, &item.Title, &item.Description, &item.ExpiryDate, &item.PercentComplete, &item.IsDone)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// toDBTime приводит время к UTC с точностью Postgres, чтобы строки в SQLite сравнивались корректно
func toDBTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
