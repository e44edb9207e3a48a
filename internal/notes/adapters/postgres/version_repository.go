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

const versionColumns = `id, note_id, title, content, version_number, created_by, created_at`

// VersionRepository реализует интерфейс repositories.VersionRepository
// поверх append-only таблицы note_versions.
type VersionRepository struct {
	pool PgxPoolInterface
}

// NewVersionRepository создает новый репозиторий версий заметок.
func NewVersionRepository(pool PgxPoolInterface) repositories.VersionRepository {
	return &VersionRepository{pool: pool}
}

// Append добавляет снимок новой версии в историю заметки.
// Строки истории никогда не изменяются и не удаляются.
func (r *VersionRepository) Append(ctx context.Context, version *entities.NoteVersion) (*entities.NoteVersion, error) {
	log := logger.Log(ctx).With(zap.String("method", "VersionRepository.Append"))
	log.Debug(ctx, "appending note version",
		zap.String("noteID", version.NoteID),
		zap.Int("versionNumber", version.VersionNumber))

	appended := *version
	err := querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO note_versions (note_id, title, content, version_number, created_by)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, created_at`,
		version.NoteID, version.Title, version.Content, version.VersionNumber, version.CreatedBy,
	).Scan(&appended.ID, &appended.CreatedAt)

	if err != nil {
		log.Error(ctx, "failed to append note version", zap.Error(err))
		return nil, fmt.Errorf("failed to append note version: %w", err)
	}

	return &appended, nil
}

// ListByNoteID возвращает всю историю заметки, новые версии первыми.
func (r *VersionRepository) ListByNoteID(ctx context.Context, noteID string) ([]*entities.NoteVersion, error) {
	log := logger.Log(ctx).With(zap.String("method", "VersionRepository.ListByNoteID"))
	log.Debug(ctx, "listing note versions", zap.String("noteID", noteID))

	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT `+versionColumns+` FROM note_versions
         WHERE note_id = $1
         ORDER BY version_number DESC`,
		noteID,
	)
	if err != nil {
		log.Error(ctx, "failed to list note versions", zap.Error(err))
		return nil, fmt.Errorf("failed to list note versions: %w", err)
	}
	defer rows.Close()

	versions := make([]*entities.NoteVersion, 0)
	for rows.Next() {
		var v entities.NoteVersion
		err := rows.Scan(&v.ID, &v.NoteID, &v.Title, &v.Content, &v.VersionNumber, &v.CreatedBy, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note version: %w", err)
		}
		versions = append(versions, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return versions, nil
}

// GetByNumber возвращает конкретную версию заметки либо nil, если её нет.
func (r *VersionRepository) GetByNumber(ctx context.Context, noteID string, versionNumber int) (*entities.NoteVersion, error) {
	log := logger.Log(ctx).With(zap.String("method", "VersionRepository.GetByNumber"))

	var v entities.NoteVersion
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+versionColumns+` FROM note_versions
         WHERE note_id = $1 AND version_number = $2`,
		noteID, versionNumber,
	).Scan(&v.ID, &v.NoteID, &v.Title, &v.Content, &v.VersionNumber, &v.CreatedBy, &v.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Error(ctx, "failed to get note version", zap.Error(err))
		return nil, fmt.Errorf("failed to get note version: %w", err)
	}

	return &v, nil
}
