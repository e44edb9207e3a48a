package repositories

import (
	"context"

	"zametki/internal/notes/domain/entities"
)

// MediaRepository определяет интерфейс хранилища вложений заметок.
type MediaRepository interface {
	// Create сохраняет вложение. Вызывается внутри транзакции мутации заметки.
	Create(ctx context.Context, media *entities.NoteMedia) (*entities.NoteMedia, error)

	// ListByNoteID возвращает метаданные вложений заметки без содержимого.
	ListByNoteID(ctx context.Context, noteID string) ([]*entities.NoteMedia, error)
}
