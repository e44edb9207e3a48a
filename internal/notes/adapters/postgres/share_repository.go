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

// ShareRepository реализует интерфейс repositories.ShareRepository.
type ShareRepository struct {
	pool PgxPoolInterface
}

// NewShareRepository создает новый репозиторий прав доступа к заметкам.
func NewShareRepository(pool PgxPoolInterface) repositories.ShareRepository {
	return &ShareRepository{pool: pool}
}

// Upsert создает право доступа или заменяет уровень существующего.
// На пару (note_id, user_id) хранится не более одной записи.
func (r *ShareRepository) Upsert(ctx context.Context, share *entities.NoteShare) error {
	log := logger.Log(ctx).With(zap.String("method", "ShareRepository.Upsert"))
	log.Debug(ctx, "upserting note share",
		zap.String("noteID", share.NoteID),
		zap.String("userID", share.UserID),
		zap.String("permission", string(share.Permission)))

	_, err := querier(ctx, r.pool).Exec(ctx,
		`INSERT INTO note_shares (note_id, user_id, permission)
         VALUES ($1, $2, $3)
         ON CONFLICT (note_id, user_id)
         DO UPDATE SET permission = EXCLUDED.permission, updated_at = now()`,
		share.NoteID, share.UserID, string(share.Permission),
	)
	if err != nil {
		log.Error(ctx, "failed to upsert note share", zap.Error(err))
		return fmt.Errorf("failed to upsert note share: %w", err)
	}

	return nil
}

// Lookup возвращает право доступа пользователя к заметке либо nil, если его нет.
func (r *ShareRepository) Lookup(ctx context.Context, noteID, userID string) (*entities.NoteShare, error) {
	log := logger.Log(ctx).With(zap.String("method", "ShareRepository.Lookup"))

	var share entities.NoteShare
	var permission string
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT id, note_id, user_id, permission, created_at, updated_at
         FROM note_shares
         WHERE note_id = $1 AND user_id = $2`,
		noteID, userID,
	).Scan(&share.ID, &share.NoteID, &share.UserID, &permission, &share.CreatedAt, &share.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Error(ctx, "failed to lookup note share", zap.Error(err))
		return nil, fmt.Errorf("failed to lookup note share: %w", err)
	}

	share.Permission = entities.Permission(permission)
	return &share, nil
}
