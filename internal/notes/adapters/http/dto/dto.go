// Package dto содержит структуры запросов и ответов HTTP API.
package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// validate - общий экземпляр валидатора для всех DTO.
var validate = validator.New()

// Validate проверяет структуру запроса по validate-тегам.
func Validate(s any) error {
	return validate.Struct(s)
}

// RegisterRequest запрос на регистрацию пользователя.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest запрос на вход.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest запрос на обновление пары токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest запрос на выход.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPairResponse пара токенов, выдаваемая после аутентификации.
type TokenPairResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ProfileResponse публичные данные пользователя.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaRequest вложение, переданное вместе с мутацией заметки.
// Содержимое передается строкой base64.
type MediaRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
	MimeType string `json:"mime_type" validate:"required,max=100"`
	Data     string `json:"data" validate:"required,base64"`
}

// CreateNoteRequest запрос на создание заметки.
type CreateNoteRequest struct {
	Title   string        `json:"title" validate:"required,max=255"`
	Content string        `json:"content" validate:"required"`
	Media   *MediaRequest `json:"media,omitempty"`
}

// UpdateNoteRequest запрос на обновление заметки. Version - версия,
// которую клиент наблюдал последней; расхождение дает 409.
type UpdateNoteRequest struct {
	Title   string        `json:"title" validate:"omitempty,max=255"`
	Content string        `json:"content"`
	Version int           `json:"version" validate:"required,min=1"`
	Media   *MediaRequest `json:"media,omitempty"`
}

// RevertNoteRequest запрос на откат заметки к версии.
type RevertNoteRequest struct {
	Version int `json:"version" validate:"required,min=1"`
}

// ShareNoteRequest запрос на выдачу права доступа к заметке.
type ShareNoteRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	Permission string `json:"permission" validate:"required,oneof=READ EDIT"`
}

// VersionConflictResponse тело ответа 409 при конфликте версий.
type VersionConflictResponse struct {
	Error           string `json:"error"`
	CurrentVersion  int    `json:"current_version"`
	ProvidedVersion int    `json:"provided_version"`
}

// ErrorResponse стандартное тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
