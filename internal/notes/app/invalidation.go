package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"zametki/internal/notes/ports/cache"
	"zametki/pkg/logger"
)

// Префиксы ключей кэша.
const (
	cachePrefixNote     = "note"
	cachePrefixUserList = "user_notes"
	cachePrefixVersions = "note_versions"
	cachePrefixSearch   = "search"
)

// Константы для логирования инвалидации.
const (
	msgEvictNoteFailed     = "failed to evict note cache entries"
	msgEvictListingsFailed = "failed to evict user listing cache entries"
	attrEvictNoteID        = "note_id"
	attrEvictUserID        = "user_id"
)

// KeyNote возвращает ключ кэша одиночной заметки.
func KeyNote(noteID string) string {
	return fmt.Sprintf("%s:%s", cachePrefixNote, noteID)
}

// KeyUserNotes возвращает ключ кэша страницы списка заметок пользователя.
func KeyUserNotes(userID string, limit, offset int) string {
	return fmt.Sprintf("%s:%s:%d:%d", cachePrefixUserList, userID, limit, offset)
}

// KeyNoteVersions возвращает ключ кэша списка версий заметки.
func KeyNoteVersions(noteID string) string {
	return fmt.Sprintf("%s:%s", cachePrefixVersions, noteID)
}

// KeySearch возвращает ключ кэша результатов поиска.
func KeySearch(userID, keyword string) string {
	return fmt.Sprintf("%s:%s:%s", cachePrefixSearch, userID, keyword)
}

// Invalidator вытесняет устаревшие записи кэша после зафиксированной мутации.
// Работает строго после коммита и только по принципу best-effort: сбой кэша
// логируется и никогда не влияет на результат мутации.
type Invalidator struct {
	cache cache.Cache
}

// NewInvalidator создает новый координатор инвалидации кэша.
func NewInvalidator(c cache.Cache) *Invalidator {
	return &Invalidator{cache: c}
}

// InvalidateNote вытесняет кэш одиночной заметки и её списка версий.
func (i *Invalidator) InvalidateNote(ctx context.Context, noteID string) {
	log := logger.Log(ctx).With(zap.String(attrEvictNoteID, noteID))

	if err := i.cache.Delete(ctx, KeyNote(noteID), KeyNoteVersions(noteID)); err != nil {
		log.Warn(ctx, msgEvictNoteFailed, zap.Error(err))
	}
}

// InvalidateUserNotes вытесняет все страницы списка заметок пользователя и
// все его кэшированные результаты поиска. Конкретные ключи пагинации
// неперечислимы, поэтому вытеснение идет по шаблону префикса.
func (i *Invalidator) InvalidateUserNotes(ctx context.Context, userID string) {
	log := logger.Log(ctx).With(zap.String(attrEvictUserID, userID))

	if err := i.cache.DeleteByPattern(ctx, fmt.Sprintf("%s:%s:*", cachePrefixUserList, userID)); err != nil {
		log.Warn(ctx, msgEvictListingsFailed, zap.Error(err))
	}
	if err := i.cache.DeleteByPattern(ctx, fmt.Sprintf("%s:%s:*", cachePrefixSearch, userID)); err != nil {
		log.Warn(ctx, msgEvictListingsFailed, zap.Error(err))
	}
}
