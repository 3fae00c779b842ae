package models

import "time"

// TodoItem - единственная сущность сервиса. Теги validate проверяются на входе HTTP (см. internal/validation).
type TodoItem struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title" validate:"notblank,min=3,max=500"`
	Description     string    `json:"description" validate:"max=500"`
	ExpiryDate      time.Time `json:"expiryDate" validate:"future"`
	PercentComplete float64   `json:"percentComplete" validate:"gte=0,lte=100"`
	IsDone          bool      `json:"isDone" validate:"eq=false"`
}
