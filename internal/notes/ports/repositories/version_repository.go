package repositories

import (
	"context"

	"zametki/internal/notes/domain/entities"
)

// VersionRepository определяет интерфейс журнала версий заметок.
// Журнал только пополняется: записи никогда не изменяются и не удаляются.
type VersionRepository interface {
	// Append добавляет снимок заметки в журнал. Выполняется строго внутри
	// транзакции вызывающей стороны и никогда не открывает собственную.
	Append(ctx context.Context, version *entities.NoteVersion) (*entities.NoteVersion, error)

	// ListByNoteID возвращает все версии заметки, новейшие первыми.
	ListByNoteID(ctx context.Context, noteID string) ([]*entities.NoteVersion, error)

	// GetByNumber возвращает конкретную версию заметки.
	// nil без ошибки, если версия отсутствует.
	GetByNumber(ctx context.Context, noteID string, versionNumber int) (*entities.NoteVersion, error)
}
