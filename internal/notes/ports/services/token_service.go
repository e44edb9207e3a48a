// Package services defines service interfaces consumed by the application layer.
package services

import (
	"context"
	"errors"
	"time"
)

// Ошибки, связанные с JWT токенами.
var (
	ErrInvalidJWTToken    = errors.New("invalid JWT token")
	ErrExpiredJWTToken    = errors.New("JWT token has expired")
	ErrGeneratingJWTToken = errors.New("failed to generate JWT token")
)

// Identity представляет проверенную личность вызывающей стороны.
// Сервис полностью доверяет этим данным и не выполняет повторных проверок.
type Identity struct {
	UserID   string
	Username string
}

// TokenService определяет интерфейс для выпуска и проверки токенов доступа.
type TokenService interface {
	// GenerateAccessToken выпускает access токен для пользователя.
	GenerateAccessToken(ctx context.Context, userID, username string) (string, time.Time, error)

	// ValidateAccessToken проверяет токен и возвращает личность владельца.
	ValidateAccessToken(ctx context.Context, token string) (*Identity, error)

	// GenerateRefreshToken выпускает непрозрачный refresh токен.
	GenerateRefreshToken(ctx context.Context) (string, error)
}
