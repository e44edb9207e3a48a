// Package app implements application business logic for the notes service.
package app

import (
	"errors"
	"fmt"
)

// Ошибки уровня бизнес-логики. Отсутствие заметки и отсутствие доступа
// намеренно неразличимы снаружи, чтобы нельзя было прощупать существование
// чужих заметок.
var (
	ErrNotFound        = errors.New("note not found or access denied")
	ErrVersionNotFound = errors.New("version not found")
	ErrReadOnlyAccess  = errors.New("read-only access to this note")
	ErrOwnerOnly       = errors.New("only the owner can perform this operation")
	ErrMediaTooLarge   = errors.New("media file exceeds the size limit")
	ErrEmptyUpdate     = errors.New("title or content must be provided")
	ErrKeywordTooShort = errors.New("keyword must be at least 2 characters")
	ErrInvalidVersion  = errors.New("version number is required")
)

// VersionConflictError возвращается, когда заметка была изменена после того,
// как вызывающая сторона прочитала её версию. Транзакция откатывается;
// вызывающая сторона должна перечитать заметку и повторить запрос сама.
type VersionConflictError struct {
	CurrentVersion  int
	ProvidedVersion int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: note is at version %d, update was based on version %d",
		e.CurrentVersion, e.ProvidedVersion)
}

// AsVersionConflict извлекает VersionConflictError из цепочки ошибок.
func AsVersionConflict(err error) (*VersionConflictError, bool) {
	var conflict *VersionConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
