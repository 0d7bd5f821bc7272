package models

import (
	"time"
)

// Account учётная запись, которой оперирует дашборд. Пароль хранится как есть:
// дашборд показывает его оператору.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

type AccountInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
