package repositories

import (
	"context"

	"zametki/internal/notes/domain/entities"
)

// UserRepository определяет интерфейс для операций с пользователями.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) (*entities.User, error)

	FindByID(ctx context.Context, id string) (*entities.User, error)

	FindByEmail(ctx context.Context, email string) (*entities.User, error)
}
