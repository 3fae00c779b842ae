package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/Brajnn/ToDoAPI/internal/models"
)

// Errors - сообщения об ошибках по полям (ключ - имя поля в JSON)
type Errors map[string][]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// messages - тексты ошибок по паре поле.правило
var messages = map[string]string{
	"Title.notblank":      "Title is required.",
	"Title.min":           "Title must be at least 3 characters long.",
	"Title.max":           "Title cannot exceed 500 characters.",
	"Description.max":     "Description cannot exceed 500 characters.",
	"ExpiryDate.future":   "Expiry date must be in the future.",
	"PercentComplete.gte": "PercentComplete must be between 0 and 100.",
	"PercentComplete.lte": "PercentComplete must be between 0 and 100.",
	"IsDone.eq":           "A new task cannot be marked as completed upon creation.",
}

type Option func(*Validator)

// WithClock задаёт источник времени для правила future
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// Validator проверяет входящие задачи до вызова сервиса
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Регистрация с корректными сигнатурами не возвращает ошибок
	_ = v.validate.RegisterValidation("notblank", validators.NotBlank)
	_ = v.validate.RegisterValidation("future", v.isFuture)

	return v
}

func (v *Validator) isFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.After(v.now())
}

// ValidateTodo проверяет тело POST и PUT. isDone=true отклоняется в обоих случаях.
func (v *Validator) ValidateTodo(item *models.TodoItem) error {
	err := v.validate.Struct(item)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.StructField()+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid.", fe.StructField())
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}
