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

// Колонки заметки, возвращаемые всеми запросами чтения.
const noteColumns = `id, user_id, title, content, version, created_at, updated_at`

// NoteRepository реализует интерфейс repositories.NoteRepository.
type NoteRepository struct {
	pool PgxPoolInterface
}

// NewNoteRepository создает новый репозиторий заметок.
func NewNoteRepository(pool PgxPoolInterface) repositories.NoteRepository {
	return &NoteRepository{pool: pool}
}

// Create сохраняет новую заметку в БД.
func (r *NoteRepository) Create(ctx context.Context, note *entities.Note) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Create"))
	log.Debug(ctx, "creating new note", zap.String("userID", note.UserID))

	created := *note
	err := querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO notes (user_id, title, content, version) VALUES ($1, $2, $3, $4)
         RETURNING id, created_at, updated_at`,
		note.UserID, note.Title, note.Content, note.Version,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		log.Error(ctx, "failed to create note", zap.Error(err))
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	log.Debug(ctx, "note created", zap.String("noteID", created.ID))
	return &created, nil
}

// GetByID получает заметку по ID без проверки доступа.
func (r *NoteRepository) GetByID(ctx context.Context, noteID string) (*entities.Note, error) {
	return r.get(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND deleted_at IS NULL`,
		noteID)
}

// GetByOwner получает заметку по ID, только если она принадлежит ownerID.
func (r *NoteRepository) GetByOwner(ctx context.Context, noteID, ownerID string) (*entities.Note, error) {
	return r.get(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		noteID, ownerID)
}

// GetForUpdate загружает заметку с блокировкой строки до конца транзакции.
func (r *NoteRepository) GetForUpdate(ctx context.Context, noteID string) (*entities.Note, error) {
	return r.get(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		noteID)
}

func (r *NoteRepository) get(ctx context.Context, query string, args ...interface{}) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.get"))

	var note entities.Note
	err := querier(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&note.ID, &note.UserID, &note.Title, &note.Content, &note.Version,
		&note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Error(ctx, "failed to get note", zap.Error(err))
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return &note, nil
}

// ListByOwner получает список заметок пользователя с пагинацией.
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*entities.Note, int, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.ListByOwner"))
	log.Debug(ctx, "listing notes", zap.String("userID", ownerID), zap.Int("limit", limit), zap.Int("offset", offset))

	q := querier(ctx, r.pool)

	var totalCount int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM notes WHERE user_id = $1 AND deleted_at IS NULL`,
		ownerID,
	).Scan(&totalCount)

	if err != nil {
		log.Error(ctx, "failed to count notes", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+noteColumns+` FROM notes
         WHERE user_id = $1 AND deleted_at IS NULL
         ORDER BY updated_at DESC
         LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		log.Error(ctx, "failed to list notes", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		log.Error(ctx, "failed to scan notes", zap.Error(err))
		return nil, 0, err
	}

	return notes, totalCount, nil
}

// Update обновляет title, content и version существующей заметки.
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Update"))
	log.Debug(ctx, "updating note", zap.String("noteID", note.ID), zap.Int("version", note.Version))

	result, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE notes SET title = $1, content = $2, version = $3, updated_at = $4
         WHERE id = $5 AND deleted_at IS NULL`,
		note.Title, note.Content, note.Version, note.UpdatedAt, note.ID,
	)
	if err != nil {
		log.Error(ctx, "failed to update note", zap.Error(err))
		return fmt.Errorf("failed to update note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to update note: %w", pgx.ErrNoRows)
	}

	return nil
}

// SoftDelete помечает заметку удаленной, сохраняя строку и её историю.
func (r *NoteRepository) SoftDelete(ctx context.Context, noteID, ownerID string) (bool, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.SoftDelete"))
	log.Debug(ctx, "soft-deleting note", zap.String("noteID", noteID))

	result, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE notes SET deleted_at = now() WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		noteID, ownerID,
	)
	if err != nil {
		log.Error(ctx, "failed to soft-delete note", zap.Error(err))
		return false, fmt.Errorf("failed to soft-delete note: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Search выполняет полнотекстовый поиск по заметкам владельца,
// ранжируя результаты по релевантности.
func (r *NoteRepository) Search(ctx context.Context, ownerID, keyword string) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Search"))
	log.Debug(ctx, "searching notes", zap.String("userID", ownerID))

	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT `+noteColumns+` FROM notes
         WHERE user_id = $1 AND deleted_at IS NULL
           AND to_tsvector('english', title || ' ' || content) @@ plainto_tsquery('english', $2)
         ORDER BY ts_rank(to_tsvector('english', title || ' ' || content), plainto_tsquery('english', $2)) DESC`,
		ownerID, keyword,
	)
	if err != nil {
		log.Error(ctx, "full-text search failed", zap.Error(err))
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// SearchSubstring выполняет резервный поиск по подстроке.
func (r *NoteRepository) SearchSubstring(ctx context.Context, ownerID, keyword string) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.SearchSubstring"))
	log.Debug(ctx, "substring search", zap.String("userID", ownerID))

	rows, err := querier(ctx, r.pool).Query(ctx,
		`SELECT `+noteColumns+` FROM notes
         WHERE user_id = $1 AND deleted_at IS NULL
           AND (title ILIKE '%' || $2 || '%' OR content ILIKE '%' || $2 || '%')
         ORDER BY created_at DESC`,
		ownerID, keyword,
	)
	if err != nil {
		log.Error(ctx, "substring search failed", zap.Error(err))
		return nil, fmt.Errorf("substring search failed: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// scanNotes вычитывает строки результата в список заметок.
func scanNotes(rows pgx.Rows) ([]*entities.Note, error) {
	notes := make([]*entities.Note, 0)
	for rows.Next() {
		var note entities.Note
		err := rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &note.Version,
			&note.CreatedAt, &note.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}
