package repositories

import (
	"context"

	"zametki/internal/notes/domain/entities"
)

// NoteRepository определяет интерфейс для работы с репозиторием заметок.
// Мягко удаленные заметки невидимы для всех методов чтения.
type NoteRepository interface {
	// Create сохраняет новую заметку. Должен вызываться внутри транзакции,
	// в которой также создается начальная запись журнала версий.
	Create(ctx context.Context, note *entities.Note) (*entities.Note, error)

	// GetByID возвращает заметку без проверки доступа. nil без ошибки, если
	// заметка отсутствует или мягко удалена.
	GetByID(ctx context.Context, noteID string) (*entities.Note, error)

	// GetByOwner возвращает заметку, только если она принадлежит ownerID.
	GetByOwner(ctx context.Context, noteID, ownerID string) (*entities.Note, error)

	// GetForUpdate загружает заметку с блокировкой строки на время текущей
	// транзакции. Требует вызова внутри TxManager.WithinTx.
	GetForUpdate(ctx context.Context, noteID string) (*entities.Note, error)

	// ListByOwner возвращает страницу заметок владельца и общее количество.
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*entities.Note, int, error)

	// Update записывает title, content и version заметки.
	Update(ctx context.Context, note *entities.Note) error

	// SoftDelete помечает заметку удаленной, сохраняя строку и её историю.
	// false без ошибки, если заметка отсутствует или принадлежит другому.
	SoftDelete(ctx context.Context, noteID, ownerID string) (bool, error)

	// Search выполняет полнотекстовый поиск по заметкам владельца.
	Search(ctx context.Context, ownerID, keyword string) ([]*entities.Note, error)

	// SearchSubstring выполняет поиск по подстроке; резервный вариант
	// на случай недоступности полнотекстового индекса.
	SearchSubstring(ctx context.Context, ownerID, keyword string) ([]*entities.Note, error)
}
