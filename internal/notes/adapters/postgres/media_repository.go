package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"zametki/internal/notes/domain/entities"
	"zametki/internal/notes/ports/repositories"
	"zametki/pkg/logger"
)

// MediaRepository реализует интерфейс repositories.MediaRepository.
type MediaRepository struct {
	pool PgxPoolInterface
}

// NewMediaRepository создает новый репозиторий вложений.
func NewMediaRepository(pool PgxPoolInterface) repositories.MediaRepository {
	return &MediaRepository{pool: pool}
}

// Create сохраняет вложение вместе с содержимым.
func (r *MediaRepository) Create(ctx context.Context, media *entities.NoteMedia) (*entities.NoteMedia, error) {
	log := logger.Log(ctx).With(zap.String("method", "MediaRepository.Create"))
	log.Debug(ctx, "creating note media",
		zap.String("noteID", media.NoteID),
		zap.String("filename", media.Filename),
		zap.Int64("size", media.Size))

	created := *media
	err := querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO note_media (note_id, filename, mime_type, size, data)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		media.NoteID, media.Filename, media.MimeType, media.Size, media.Data,
	).Scan(&created.ID, &created.CreatedAt)

	if err != nil {
		log.Error(ctx, "failed to create note media", zap.Error(err))
		return nil, fmt.Errorf("failed to create note media: %w", err)
	}

	return &created, nil
}

// ListByNoteID возвращает метаданные вложений заметки без содержимого.
func (r *MediaRepository) ListByNoteID(ctx context.Context, noteID string) ([]*entities.NoteMedia, error) {
	log := logger.Log(ctx).With(zap.String("method", "MediaRepository.ListByNoteID"))
	log.Debug(ctx, "listing note media", zap.String("noteID", noteID))

	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT id, note_id, filename, mime_type, size, created_at
         FROM note_media
         WHERE note_id = $1
         ORDER BY created_at ASC`,
		noteID,
	)
	if err != nil {
		log.Error(ctx, "failed to list note media", zap.Error(err))
		return nil, fmt.Errorf("failed to list note media: %w", err)
	}
	defer rows.Close()

	items := make([]*entities.NoteMedia, 0)
	for rows.Next() {
		var m entities.NoteMedia
		err := rows.Scan(&m.ID, &m.NoteID, &m.Filename, &m.MimeType, &m.Size, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note media: %w", err)
		}
		items = append(items, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}
