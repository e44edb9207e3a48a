package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"zametki/internal/notes/domain/entities"
	"zametki/internal/notes/ports/repositories"
	"zametki/pkg/logger"
)

// TokenRepository реализует интерфейс repositories.TokenRepository.
type TokenRepository struct {
	pool PgxPoolInterface
}

// NewTokenRepository создает новый репозиторий refresh токенов.
func NewTokenRepository(pool PgxPoolInterface) repositories.TokenRepository {
	return &TokenRepository{pool: pool}
}

// StoreRefreshToken сохраняет новый refresh токен.
func (r *TokenRepository) StoreRefreshToken(ctx context.Context, token *entities.RefreshToken) error {
	log := logger.Log(ctx).With(zap.String("method", "TokenRepository.StoreRefreshToken"))
	log.Debug(ctx, "storing refresh token", zap.String("userID", token.UserID))

	_, err := querier(ctx, r.pool).Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at)
         VALUES ($1, $2, $3)`,
		token.UserID, token.Token, token.ExpiresAt,
	)
	if err != nil {
		log.Error(ctx, "failed to store refresh token", zap.Error(err))
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// FindByToken получает refresh токен по его значению.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*entities.RefreshToken, error) {
	log := logger.Log(ctx).With(zap.String("method", "TokenRepository.FindByToken"))

	var rt entities.RefreshToken
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT id, user_id, token, expires_at, revoked, created_at
         FROM refresh_tokens
         WHERE token = $1`,
		token,
	).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.Revoked, &rt.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTokenNotFound
		}
		log.Error(ctx, "failed to find refresh token", zap.Error(err))
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	return &rt, nil
}

// RevokeToken помечает refresh токен отозванным.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	log := logger.Log(ctx).With(zap.String("method", "TokenRepository.RevokeToken"))

	result, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE token = $1`,
		token,
	)
	if err != nil {
		log.Error(ctx, "failed to revoke refresh token", zap.Error(err))
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return entities.ErrTokenNotFound
	}

	return nil
}

// RevokeAllUserTokens отзывает все активные refresh токены пользователя.
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	log := logger.Log(ctx).With(zap.String("method", "TokenRepository.RevokeAllUserTokens"))
	log.Debug(ctx, "revoking all user tokens", zap.String("userID", userID))

	_, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`,
		userID,
	)
	if err != nil {
		log.Error(ctx, "failed to revoke user tokens", zap.Error(err))
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	return nil
}
