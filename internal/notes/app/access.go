package app

import (
	"context"

	"go.uber.org/zap"

	"zametki/internal/notes/domain/entities"
	"zametki/internal/notes/ports/repositories"
	"zametki/pkg/logger"
)

// Константы для логирования резолвера доступа.
const (
	msgResolvingAccess   = "resolving note access"
	msgOwnerAccess       = "requester owns the note"
	msgSharedAccess      = "requester has shared access"
	msgNoAccess          = "note absent or no access granted"
	msgErrAccessLookup   = "access lookup failed, failing closed"
	attrAccessNoteID     = "note_id"
	attrAccessUserID     = "user_id"
	attrAccessPermission = "permission"
)

// Access описывает результат разрешения доступа: заметка и уровень прав.
type Access struct {
	Note       *entities.Note
	Permission entities.Permission
}

// AccessResolver определяет уровень доступа пользователя к заметке.
// Любой сбой поиска трактуется как отсутствие доступа, никогда наоборот.
type AccessResolver struct {
	noteRepo  repositories.NoteRepository
	shareRepo repositories.ShareRepository
}

// NewAccessResolver создает новый резолвер доступа.
func NewAccessResolver(noteRepo repositories.NoteRepository, shareRepo repositories.ShareRepository) *AccessResolver {
	return &AccessResolver{
		noteRepo:  noteRepo,
		shareRepo: shareRepo,
	}
}

// Resolve возвращает заметку и уровень доступа запрашивающего.
// Сначала проверяется владение (самый дешевый и частый путь), затем выданные
// права. Если нет ни того ни другого, возвращается ErrNotFound: вызывающая
// сторона не должна отличать "заметки нет" от "доступ не выдан".
func (r *AccessResolver) Resolve(ctx context.Context, noteID, userID string) (*Access, error) {
	log := logger.Log(ctx).With(
		zap.String(attrAccessNoteID, noteID),
		zap.String(attrAccessUserID, userID))
	log.Debug(ctx, msgResolvingAccess)

	note, err := r.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		log.Error(ctx, msgErrAccessLookup, zap.Error(err))
		return nil, ErrNotFound
	}
	if note == nil {
		log.Debug(ctx, msgNoAccess)
		return nil, ErrNotFound
	}

	if note.UserID == userID {
		log.Debug(ctx, msgOwnerAccess)
		return &Access{Note: note, Permission: entities.PermissionOwner}, nil
	}

	share, err := r.shareRepo.Lookup(ctx, noteID, userID)
	if err != nil {
		log.Error(ctx, msgErrAccessLookup, zap.Error(err))
		return nil, ErrNotFound
	}
	if share == nil {
		log.Debug(ctx, msgNoAccess)
		return nil, ErrNotFound
	}

	log.Debug(ctx, msgSharedAccess, zap.String(attrAccessPermission, string(share.Permission)))
	return &Access{Note: note, Permission: share.Permission}, nil
}
