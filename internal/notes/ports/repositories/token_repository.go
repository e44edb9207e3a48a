package repositories

import (
	"context"

	"zametki/internal/notes/domain/entities"
)

// TokenRepository определяет интерфейс для операций по управлению refresh токенами.
type TokenRepository interface {
	StoreRefreshToken(ctx context.Context, token *entities.RefreshToken) error

	FindByToken(ctx context.Context, token string) (*entities.RefreshToken, error)

	RevokeToken(ctx context.Context, token string) error

	RevokeAllUserTokens(ctx context.Context, userID string) error
}
