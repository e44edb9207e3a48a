package repositories

import (
	"context"

	"zametki/internal/notes/domain/entities"
)

// ShareRepository определяет интерфейс реестра прав доступа к заметкам.
type ShareRepository interface {
	// Upsert выдает право доступа. Повторная выдача для той же пары
	// (note_id, user_id) обновляет уровень, не создавая дубликата.
	Upsert(ctx context.Context, share *entities.NoteShare) error

	// Lookup возвращает выданное право для пары (note_id, user_id).
	// nil без ошибки, если право не выдано.
	Lookup(ctx context.Context, noteID, userID string) (*entities.NoteShare, error)
}
