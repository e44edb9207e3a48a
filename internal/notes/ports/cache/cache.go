// Package cache defines the cache interface consumed by the notes service.
package cache

import (
	"context"
	"time"
)

// Cache определяет интерфейс key/value кэша с TTL и удалением по шаблону.
type Cache interface {
	// Get возвращает значение по ключу. Пустая строка без ошибки означает промах.
	Get(ctx context.Context, key string) (string, error)

	// Set устанавливает значение для ключа. Нулевой ttl означает TTL по умолчанию.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete удаляет указанные ключи.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPattern удаляет все ключи, соответствующие glob-шаблону.
	// Точные ключи пагинированных списков неперечислимы для вызывающей стороны.
	DeleteByPattern(ctx context.Context, pattern string) error

	// Close закрывает соединение с хранилищем кэша.
	Close() error
}
