package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"zametki/internal/notes/domain/entities"
	"zametki/internal/notes/ports/cache"
	"zametki/internal/notes/ports/repositories"
	"zametki/pkg/logger"
)

// Константы для логирования операций с заметками.
const (
	msgCreatingNote      = "creating note"
	msgNoteCreated       = "note created"
	msgUpdatingNote      = "updating note"
	msgNoteUpdated       = "note updated"
	msgNoChangesDetected = "no changes detected, skipping version increment"
	msgVersionConflict   = "optimistic lock conflict"
	msgDeletingNote      = "deleting note"
	msgNoteDeleted       = "note soft-deleted"
	msgRevertingNote     = "reverting note to previous version"
	msgNoteReverted      = "note reverted"
	msgSharingNote       = "sharing note"
	msgNoteShared        = "note shared"
	msgCacheHit          = "cache hit"
	msgCacheMiss         = "cache miss"
	msgSearchFallback    = "full-text search failed, falling back to substring search"

	errCtxCreateNote    = "creating note"
	errCtxUpdateNote    = "updating note"
	errCtxDeleteNote    = "deleting note"
	errCtxRevertNote    = "reverting note"
	errCtxShareNote     = "sharing note"
	errCtxGetNote       = "getting note"
	errCtxListNotes     = "listing notes"
	errCtxSearchNotes   = "searching notes"
	errCtxListVersions  = "listing note versions"
	errCtxAppendVersion = "appending version snapshot"

	attrNoteID  = "note_id"
	attrUserID  = "user_id"
	attrVersion = "version"
)

// Значения пагинации по умолчанию.
const (
	defaultListLimit = 10
	minKeywordLength = 2
)

// errNoChanges прерывает транзакцию обновления, когда изменять нечего.
// Пустая транзакция откатывается; наружу ошибка не выходит.
var errNoChanges = errors.New("no changes to apply")

// MediaInput описывает вложение, переданное вместе с мутацией.
type MediaInput struct {
	Filename string
	MimeType string
	Data     []byte
}

// CreateNoteInput параметры создания заметки.
type CreateNoteInput struct {
	Title   string
	Content string
	Media   *MediaInput
}

// UpdateNoteInput параметры обновления заметки. ExpectedVersion - версия,
// которую вызывающая сторона наблюдала последней.
type UpdateNoteInput struct {
	Title           string
	Content         string
	ExpectedVersion int
	Media           *MediaInput
}

// UpdateResult результат обновления. NoChanges означает, что содержимое
// совпало с сохраненным: версия не увеличена, снимок не добавлен.
type UpdateResult struct {
	Note      *entities.Note
	NoChanges bool
}

// NoteDetails заметка вместе с уровнем доступа запрашивающего и вложениями.
type NoteDetails struct {
	Note       *entities.Note        `json:"note"`
	Permission entities.Permission   `json:"permission"`
	Media      []*entities.NoteMedia `json:"media"`
}

// NoteList страница списка заметок.
type NoteList struct {
	Notes  []*entities.Note `json:"notes"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// SearchResult результат поиска по заметкам.
type SearchResult struct {
	Keyword string           `json:"keyword"`
	Count   int              `json:"count"`
	Notes   []*entities.Note `json:"notes"`
}

// cachedNote сериализуемая форма заметки для кэша (без прав доступа:
// они зависят от запрашивающего и не кэшируются).
type cachedNote struct {
	Note  *entities.Note        `json:"note"`
	Media []*entities.NoteMedia `json:"media"`
}

// NoteUseCase реализует машину состояний мутаций заметок: каждая мутация -
// одна атомарная транзакция, объединяющая изменение строки заметки и запись
// в журнал версий; вытеснение кэша выполняется после коммита.
type NoteUseCase struct {
	noteRepo     repositories.NoteRepository
	versionRepo  repositories.VersionRepository
	shareRepo    repositories.ShareRepository
	mediaRepo    repositories.MediaRepository
	tx           repositories.TxManager
	access       *AccessResolver
	invalidator  *Invalidator
	cache        cache.Cache
	cacheTTL     time.Duration
	maxMediaSize int64
}

// NewNoteUseCase создает новый экземпляр NoteUseCase.
func NewNoteUseCase(
	noteRepo repositories.NoteRepository,
	versionRepo repositories.VersionRepository,
	shareRepo repositories.ShareRepository,
	mediaRepo repositories.MediaRepository,
	tx repositories.TxManager,
	access *AccessResolver,
	invalidator *Invalidator,
	c cache.Cache,
	cacheTTL time.Duration,
	maxMediaSize int64,
) *NoteUseCase {
	return &NoteUseCase{
		noteRepo:     noteRepo,
		versionRepo:  versionRepo,
		shareRepo:    shareRepo,
		mediaRepo:    mediaRepo,
		tx:           tx,
		access:       access,
		invalidator:  invalidator,
		cache:        c,
		cacheTTL:     cacheTTL,
		maxMediaSize: maxMediaSize,
	}
}

// CreateNote создает заметку с версией 1 и начальным снимком в журнале.
func (uc *NoteUseCase) CreateNote(ctx context.Context, userID string, in CreateNoteInput) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String(attrUserID, userID))
	log.Debug(ctx, msgCreatingNote)

	note := entities.NewNote(userID, strings.TrimSpace(in.Title), strings.TrimSpace(in.Content))
	if err := note.Validate(); err != nil {
		return nil, err
	}
	if err := uc.validateMedia(in.Media); err != nil {
		return nil, err
	}

	var created *entities.Note
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = uc.noteRepo.Create(ctx, note)
		if err != nil {
			return err
		}

		_, err = uc.versionRepo.Append(ctx, &entities.NoteVersion{
			NoteID:        created.ID,
			Title:         created.Title,
			Content:       created.Content,
			VersionNumber: created.Version,
			CreatedBy:     userID,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", errCtxAppendVersion, err)
		}

		return uc.storeMedia(ctx, created.ID, in.Media)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxCreateNote, err)
	}

	uc.invalidator.InvalidateUserNotes(ctx, userID)

	log.Info(ctx, msgNoteCreated, zap.String(attrNoteID, created.ID))
	return created, nil
}

// UpdateNote обновляет заметку под оптимистической блокировкой. Строка
// заметки блокируется на время транзакции, это единственный механизм,
// предотвращающий потерю обновления при конкурентных запросах.
func (uc *NoteUseCase) UpdateNote(ctx context.Context, userID, noteID string, in UpdateNoteInput) (*UpdateResult, error) {
	log := logger.Log(ctx).With(
		zap.String(attrNoteID, noteID),
		zap.String(attrUserID, userID))
	log.Debug(ctx, msgUpdatingNote)

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" && content == "" {
		return nil, ErrEmptyUpdate
	}
	if len(title) > entities.MaxTitleLength {
		return nil, entities.ErrTitleTooLong
	}
	if in.ExpectedVersion < 1 {
		return nil, ErrInvalidVersion
	}
	if err := uc.validateMedia(in.Media); err != nil {
		return nil, err
	}

	var result UpdateResult
	var ownerID string
	var contentChanged bool

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		access, err := uc.access.Resolve(ctx, noteID, userID)
		if err != nil {
			return err
		}
		if !access.Permission.CanEdit() {
			return ErrReadOnlyAccess
		}

		note, err := uc.noteRepo.GetForUpdate(ctx, noteID)
		if err != nil {
			return err
		}
		if note == nil {
			return ErrNotFound
		}

		changed := false
		if title != "" && title != note.Title {
			note.Title = title
			changed = true
		}
		if content != "" && content != note.Content {
			note.Content = content
			changed = true
			contentChanged = true
		}

		// Содержимое совпало с сохраненным: фиксировать нечего, версия не
		// растет и снимок не добавляется, независимо от ExpectedVersion.
		if !changed {
			result.Note = note
			result.NoChanges = true
			return errNoChanges
		}

		if note.Version != in.ExpectedVersion {
			log.Debug(ctx, msgVersionConflict,
				zap.Int("current_version", note.Version),
				zap.Int("provided_version", in.ExpectedVersion))
			return &VersionConflictError{
				CurrentVersion:  note.Version,
				ProvidedVersion: in.ExpectedVersion,
			}
		}

		note.Version++
		note.UpdatedAt = time.Now()

		if err := uc.noteRepo.Update(ctx, note); err != nil {
			return err
		}

		_, err = uc.versionRepo.Append(ctx, &entities.NoteVersion{
			NoteID:        note.ID,
			Title:         note.Title,
			Content:       note.Content,
			VersionNumber: note.Version,
			CreatedBy:     userID,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", errCtxAppendVersion, err)
		}

		if err := uc.storeMedia(ctx, note.ID, in.Media); err != nil {
			return err
		}

		ownerID = note.UserID
		result.Note = note
		return nil
	})

	if errors.Is(err, errNoChanges) {
		log.Debug(ctx, msgNoChangesDetected)
		return &result, nil
	}
	if err != nil {
		if conflict, ok := AsVersionConflict(err); ok {
			return nil, conflict
		}
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", errCtxUpdateNote, err)
	}

	uc.invalidator.InvalidateNote(ctx, noteID)
	uc.invalidator.InvalidateUserNotes(ctx, ownerID)
	if contentChanged && ownerID != userID {
		uc.invalidator.InvalidateUserNotes(ctx, userID)
	}

	log.Info(ctx, msgNoteUpdated, zap.Int(attrVersion, result.Note.Version))
	return &result, nil
}

// DeleteNote мягко удаляет заметку. Только владелец; строка и вся её история
// версий и прав доступа сохраняются.
func (uc *NoteUseCase) DeleteNote(ctx context.Context, userID, noteID string) error {
	log := logger.Log(ctx).With(
		zap.String(attrNoteID, noteID),
		zap.String(attrUserID, userID))
	log.Debug(ctx, msgDeletingNote)

	deleted, err := uc.noteRepo.SoftDelete(ctx, noteID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxDeleteNote, err)
	}
	if !deleted {
		return ErrNotFound
	}

	uc.invalidator.InvalidateNote(ctx, noteID)
	uc.invalidator.InvalidateUserNotes(ctx, userID)

	log.Info(ctx, msgNoteDeleted)
	return nil
}

// RevertNote откатывает содержимое заметки к целевой версии. Откат сам
// становится новой версией: история никогда не переписывается, только
// дополняется. Операция доступна только владельцу - в отличие от обновления,
// которое разрешено и пользователям с правом EDIT.
func (uc *NoteUseCase) RevertNote(ctx context.Context, userID, noteID string, targetVersion int) (*entities.Note, error) {
	log := logger.Log(ctx).With(
		zap.String(attrNoteID, noteID),
		zap.String(attrUserID, userID),
		zap.Int("target_version", targetVersion))
	log.Debug(ctx, msgRevertingNote)

	if targetVersion < 1 {
		return nil, ErrInvalidVersion
	}

	var reverted *entities.Note
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Та же блокировка строки, что и при обновлении: конкурентные
		// откат и обновление одной заметки обязаны сериализоваться.
		note, err := uc.noteRepo.GetForUpdate(ctx, noteID)
		if err != nil {
			return err
		}
		if note == nil || note.UserID != userID {
			return ErrNotFound
		}

		target, err := uc.versionRepo.GetByNumber(ctx, noteID, targetVersion)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrVersionNotFound
		}

		note.Title = target.Title
		note.Content = target.Content
		note.Version++
		note.UpdatedAt = time.Now()

		if err := uc.noteRepo.Update(ctx, note); err != nil {
			return err
		}

		_, err = uc.versionRepo.Append(ctx, &entities.NoteVersion{
			NoteID:        note.ID,
			Title:         note.Title,
			Content:       note.Content,
			VersionNumber: note.Version,
			CreatedBy:     userID,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", errCtxAppendVersion, err)
		}

		reverted = note
		return nil
	})
	if err != nil {
		if isDomainErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", errCtxRevertNote, err)
	}

	uc.invalidator.InvalidateNote(ctx, noteID)
	uc.invalidator.InvalidateUserNotes(ctx, userID)

	log.Info(ctx, msgNoteReverted, zap.Int(attrVersion, reverted.Version))
	return reverted, nil
}

// ShareNote выдает пользователю право READ или EDIT на заметку. Только
// владелец; повторная выдача обновляет уровень. Кэш не трогается: право
// влияет лишь на будущие разрешения доступа, которые не кэшируются.
func (uc *NoteUseCase) ShareNote(ctx context.Context, ownerID, noteID, targetUserID string, permission entities.Permission) error {
	log := logger.Log(ctx).With(
		zap.String(attrNoteID, noteID),
		zap.String("target_user_id", targetUserID))
	log.Debug(ctx, msgSharingNote)

	if err := permission.ValidateGrant(); err != nil {
		return err
	}
	if targetUserID == "" {
		return entities.ErrEmptyUserID
	}

	note, err := uc.noteRepo.GetByOwner(ctx, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxShareNote, err)
	}
	if note == nil {
		return ErrOwnerOnly
	}

	err = uc.shareRepo.Upsert(ctx, &entities.NoteShare{
		NoteID:     noteID,
		UserID:     targetUserID,
		Permission: permission,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxShareNote, err)
	}

	log.Info(ctx, msgNoteShared, zap.String("permission", string(permission)))
	return nil
}

// GetNote возвращает заметку с вложениями и уровнем доступа запрашивающего.
// Чтение идет через кэш; права доступа проверяются на каждый запрос.
func (uc *NoteUseCase) GetNote(ctx context.Context, userID, noteID string) (*NoteDetails, error) {
	log := logger.Log(ctx).With(zap.String(attrNoteID, noteID))

	access, err := uc.access.Resolve(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	key := KeyNote(noteID)
	var cached cachedNote
	if uc.cacheGet(ctx, key, &cached) {
		log.Debug(ctx, msgCacheHit, zap.String("key", key))
		return &NoteDetails{Note: cached.Note, Permission: access.Permission, Media: cached.Media}, nil
	}
	log.Debug(ctx, msgCacheMiss, zap.String("key", key))

	media, err := uc.mediaRepo.ListByNoteID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxGetNote, err)
	}

	uc.cacheSet(ctx, key, &cachedNote{Note: access.Note, Media: media})

	return &NoteDetails{Note: access.Note, Permission: access.Permission, Media: media}, nil
}

// ListNotes возвращает страницу заметок пользователя.
func (uc *NoteUseCase) ListNotes(ctx context.Context, userID string, limit, offset int) (*NoteList, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	key := KeyUserNotes(userID, limit, offset)
	var cached NoteList
	if uc.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	notes, total, err := uc.noteRepo.ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxListNotes, err)
	}

	list := &NoteList{Notes: notes, Total: total, Limit: limit, Offset: offset}
	uc.cacheSet(ctx, key, list)
	return list, nil
}

// SearchNotes ищет заметки пользователя по ключевому слову. Сначала
// полнотекстовый поиск; при его сбое - поиск по подстроке с тем же форматом
// результата.
func (uc *NoteUseCase) SearchNotes(ctx context.Context, userID, keyword string) (*SearchResult, error) {
	log := logger.Log(ctx).With(zap.String(attrUserID, userID))

	keyword = strings.TrimSpace(keyword)
	if len(keyword) < minKeywordLength {
		return nil, ErrKeywordTooShort
	}

	key := KeySearch(userID, keyword)
	var cached SearchResult
	if uc.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	notes, err := uc.noteRepo.Search(ctx, userID, keyword)
	if err != nil {
		log.Warn(ctx, msgSearchFallback, zap.Error(err))
		notes, err = uc.noteRepo.SearchSubstring(ctx, userID, keyword)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtxSearchNotes, err)
		}
	}

	result := &SearchResult{Keyword: keyword, Count: len(notes), Notes: notes}
	uc.cacheSet(ctx, key, result)
	return result, nil
}

// GetVersions возвращает журнал версий заметки, новейшие первыми.
// Доступен всем, у кого есть хоть какой-то доступ к заметке.
func (uc *NoteUseCase) GetVersions(ctx context.Context, userID, noteID string) ([]*entities.NoteVersion, error) {
	if _, err := uc.access.Resolve(ctx, noteID, userID); err != nil {
		return nil, err
	}

	key := KeyNoteVersions(noteID)
	var cached []*entities.NoteVersion
	if uc.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	versions, err := uc.versionRepo.ListByNoteID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxListVersions, err)
	}

	uc.cacheSet(ctx, key, versions)
	return versions, nil
}

// validateMedia отклоняет слишком большие вложения до открытия транзакции.
func (uc *NoteUseCase) validateMedia(media *MediaInput) error {
	if media == nil {
		return nil
	}
	if int64(len(media.Data)) > uc.maxMediaSize {
		return ErrMediaTooLarge
	}
	return nil
}

// storeMedia сохраняет вложение внутри текущей транзакции мутации.
func (uc *NoteUseCase) storeMedia(ctx context.Context, noteID string, media *MediaInput) error {
	if media == nil {
		return nil
	}
	_, err := uc.mediaRepo.Create(ctx, &entities.NoteMedia{
		NoteID:   noteID,
		Filename: media.Filename,
		MimeType: media.MimeType,
		Size:     int64(len(media.Data)),
		Data:     media.Data,
	})
	if err != nil {
		return fmt.Errorf("storing media: %w", err)
	}
	return nil
}

// cacheGet читает и десериализует значение из кэша. Любой сбой кэша
// трактуется как промах.
func (uc *NoteUseCase) cacheGet(ctx context.Context, key string, dst any) bool {
	raw, err := uc.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false
	}
	return true
}

// cacheSet сериализует и сохраняет значение в кэше. Сбой кэша логируется
// и не влияет на результат запроса.
func (uc *NoteUseCase) cacheSet(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, string(raw), uc.cacheTTL); err != nil {
		logger.Log(ctx).Warn(ctx, "failed to populate cache", zap.String("key", key), zap.Error(err))
	}
}

// isDomainErr сообщает, относится ли ошибка к доменной таксономии,
// которую нельзя оборачивать инфраструктурным контекстом.
func isDomainErr(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrVersionNotFound) ||
		errors.Is(err, ErrReadOnlyAccess) ||
		errors.Is(err, ErrOwnerOnly)
}
