package services

import (
	"context"
	"errors"
)

// Минимальная длина пароля.
const MinPasswordLength = 8

// Ошибки, связанные с паролями.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrHashingFailed   = errors.New("failed to hash password")
)

// PasswordService определяет интерфейс для хэширования и проверки паролей.
type PasswordService interface {
	Hash(ctx context.Context, password string) (string, error)

	Verify(ctx context.Context, password, hash string) (bool, error)
}
