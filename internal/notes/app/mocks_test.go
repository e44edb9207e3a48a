package app_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zametki/internal/notes/app"
	"zametki/internal/notes/domain/entities"
	"zametki/pkg/logger"
)

// memStore - общее состояние in-memory репозиториев. Фейки детерминированы
// и хранят копии сущностей, как это делала бы настоящая БД.
type memStore struct {
	mu       sync.Mutex
	notes    map[string]*entities.Note
	versions map[string][]*entities.NoteVersion
	shares   map[string]*entities.NoteShare
	media    map[string][]*entities.NoteMedia
	rowLocks map[string]*sync.Mutex
	noteSeq  int
	verSeq   int
}

func newMemStore() *memStore {
	return &memStore{
		notes:    make(map[string]*entities.Note),
		versions: make(map[string][]*entities.NoteVersion),
		shares:   make(map[string]*entities.NoteShare),
		media:    make(map[string][]*entities.NoteMedia),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

// rowLock возвращает блокировку строки заметки, как FOR UPDATE в Postgres.
func (s *memStore) rowLock(noteID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.rowLocks[noteID]
	if !ok {
		lock = &sync.Mutex{}
		s.rowLocks[noteID] = lock
	}
	return lock
}

// fakeTxState держит блокировки строк, взятые внутри транзакции.
// Они освобождаются при её завершении, как и в настоящей БД.
type fakeTxState struct {
	mu   sync.Mutex
	held []*sync.Mutex
}

func (s *fakeTxState) hold(lock *sync.Mutex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = append(s.held, lock)
}

func (s *fakeTxState) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.held) - 1; i >= 0; i-- {
		s.held[i].Unlock()
	}
	s.held = nil
}

type fakeTxKeyType struct{}

var fakeTxKey = fakeTxKeyType{}

func txStateFromContext(ctx context.Context) *fakeTxState {
	state, _ := ctx.Value(fakeTxKey).(*fakeTxState)
	return state
}

func shareKey(noteID, userID string) string {
	return noteID + "|" + userID
}

func copyNote(n *entities.Note) *entities.Note {
	c := *n
	return &c
}

type fakeNoteRepo struct {
	s *memStore

	searchErr     error
	getByIDErr    error
	getByIDCalls  int
	softDeleteErr error
}

func (r *fakeNoteRepo) Create(_ context.Context, note *entities.Note) (*entities.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.noteSeq++
	created := copyNote(note)
	created.ID = fmt.Sprintf("note-%d", r.s.noteSeq)
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.s.notes[created.ID] = copyNote(created)
	return created, nil
}

func (r *fakeNoteRepo) GetByID(_ context.Context, noteID string) (*entities.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.getByIDCalls++
	if r.getByIDErr != nil {
		return nil, r.getByIDErr
	}
	note, ok := r.s.notes[noteID]
	if !ok || note.DeletedAt != nil {
		return nil, nil
	}
	return copyNote(note), nil
}

func (r *fakeNoteRepo) GetByOwner(ctx context.Context, noteID, ownerID string) (*entities.Note, error) {
	note, err := r.GetByID(ctx, noteID)
	if err != nil || note == nil || note.UserID != ownerID {
		return nil, err
	}
	return note, nil
}

func (r *fakeNoteRepo) GetForUpdate(ctx context.Context, noteID string) (*entities.Note, error) {
	if state := txStateFromContext(ctx); state != nil {
		lock := r.s.rowLock(noteID)
		lock.Lock()
		state.hold(lock)
	}
	return r.GetByID(ctx, noteID)
}

func (r *fakeNoteRepo) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*entities.Note, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owned := make([]*entities.Note, 0)
	for _, note := range r.s.notes {
		if note.UserID == ownerID && note.DeletedAt == nil {
			owned = append(owned, copyNote(note))
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})

	total := len(owned)
	if offset >= total {
		return []*entities.Note{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (r *fakeNoteRepo) Update(_ context.Context, note *entities.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.notes[note.ID]
	if !ok || stored.DeletedAt != nil {
		return errors.New("note vanished")
	}
	r.s.notes[note.ID] = copyNote(note)
	return nil
}

func (r *fakeNoteRepo) SoftDelete(_ context.Context, noteID, ownerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.softDeleteErr != nil {
		return false, r.softDeleteErr
	}
	note, ok := r.s.notes[noteID]
	if !ok || note.DeletedAt != nil || note.UserID != ownerID {
		return false, nil
	}
	now := time.Now()
	note.DeletedAt = &now
	return true, nil
}

func (r *fakeNoteRepo) Search(ctx context.Context, ownerID, keyword string) ([]*entities.Note, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	return r.SearchSubstring(ctx, ownerID, keyword)
}

func (r *fakeNoteRepo) SearchSubstring(_ context.Context, ownerID, keyword string) ([]*entities.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	keyword = strings.ToLower(keyword)
	found := make([]*entities.Note, 0)
	for _, note := range r.s.notes {
		if note.UserID != ownerID || note.DeletedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(note.Title), keyword) ||
			strings.Contains(strings.ToLower(note.Content), keyword) {
			found = append(found, copyNote(note))
		}
	}
	return found, nil
}

type fakeVersionRepo struct {
	s *memStore
}

func (r *fakeVersionRepo) Append(_ context.Context, version *entities.NoteVersion) (*entities.NoteVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.verSeq++
	appended := *version
	appended.ID = fmt.Sprintf("ver-%d", r.s.verSeq)
	appended.CreatedAt = time.Now()
	stored := appended
	r.s.versions[version.NoteID] = append(r.s.versions[version.NoteID], &stored)
	return &appended, nil
}

func (r *fakeVersionRepo) ListByNoteID(_ context.Context, noteID string) ([]*entities.NoteVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	history := make([]*entities.NoteVersion, len(r.s.versions[noteID]))
	for i, v := range r.s.versions[noteID] {
		c := *v
		history[i] = &c
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].VersionNumber > history[j].VersionNumber
	})
	return history, nil
}

func (r *fakeVersionRepo) GetByNumber(_ context.Context, noteID string, versionNumber int) (*entities.NoteVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, v := range r.s.versions[noteID] {
		if v.VersionNumber == versionNumber {
			c := *v
			return &c, nil
		}
	}
	return nil, nil
}

type fakeShareRepo struct {
	s *memStore
}

func (r *fakeShareRepo) Upsert(_ context.Context, share *entities.NoteShare) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := shareKey(share.NoteID, share.UserID)
	if existing, ok := r.s.shares[key]; ok {
		existing.Permission = share.Permission
		existing.UpdatedAt = time.Now()
		return nil
	}
	stored := *share
	stored.ID = key
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.s.shares[key] = &stored
	return nil
}

func (r *fakeShareRepo) Lookup(_ context.Context, noteID, userID string) (*entities.NoteShare, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	share, ok := r.s.shares[shareKey(noteID, userID)]
	if !ok {
		return nil, nil
	}
	c := *share
	return &c, nil
}

type fakeMediaRepo struct {
	s *memStore

	listCalls int
}

func (r *fakeMediaRepo) Create(_ context.Context, media *entities.NoteMedia) (*entities.NoteMedia, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *media
	stored.ID = fmt.Sprintf("media-%d", len(r.s.media[media.NoteID])+1)
	stored.CreatedAt = time.Now()
	r.s.media[media.NoteID] = append(r.s.media[media.NoteID], &stored)
	return &stored, nil
}

func (r *fakeMediaRepo) ListByNoteID(_ context.Context, noteID string) ([]*entities.NoteMedia, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.listCalls++
	items := make([]*entities.NoteMedia, 0, len(r.s.media[noteID]))
	for _, m := range r.s.media[noteID] {
		c := *m
		c.Data = nil
		items = append(items, &c)
	}
	return items, nil
}

// fakeTx выполняет fn над общим состоянием напрямую, но воспроизводит
// блокировки строк: взятые через GetForUpdate замки держатся до выхода из fn.
type fakeTx struct {
	mu    sync.Mutex
	calls int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()

	state := &fakeTxState{}
	defer state.release()
	return fn(context.WithValue(ctx, fakeTxKey, state))
}

// fakeCache - кэш в памяти с записью всех вытеснений.
type fakeCache struct {
	mu              sync.Mutex
	values          map[string]string
	deletedKeys     []string
	deletedPatterns []string
	getErr          error
	setErr          error
	deleteErr       error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	return c.values[key], nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	for _, key := range keys {
		delete(c.values, key)
		c.deletedKeys = append(c.deletedKeys, key)
	}
	return nil
}

func (c *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deletedPatterns = append(c.deletedPatterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
		}
	}
	return nil
}

func (c *fakeCache) Close() error { return nil }

func (c *fakeCache) hasDeletedPattern(pattern string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.deletedPatterns {
		if p == pattern {
			return true
		}
	}
	return false
}

// fixture собирает NoteUseCase поверх общих фейков.
type fixture struct {
	uc       *app.NoteUseCase
	store    *memStore
	notes    *fakeNoteRepo
	versions *fakeVersionRepo
	shares   *fakeShareRepo
	media    *fakeMediaRepo
	tx       *fakeTx
	cache    *fakeCache
}

const testMaxMediaSize = 5 * 1024 * 1024

func newFixture() *fixture {
	store := newMemStore()
	f := &fixture{
		store:    store,
		notes:    &fakeNoteRepo{s: store},
		versions: &fakeVersionRepo{s: store},
		shares:   &fakeShareRepo{s: store},
		media:    &fakeMediaRepo{s: store},
		tx:       &fakeTx{},
		cache:    newFakeCache(),
	}
	resolver := app.NewAccessResolver(f.notes, f.shares)
	invalidator := app.NewInvalidator(f.cache)
	f.uc = app.NewNoteUseCase(
		f.notes, f.versions, f.shares, f.media,
		f.tx, resolver, invalidator,
		f.cache, time.Minute, testMaxMediaSize,
	)
	return f
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	testLogger, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)
	return logger.NewContext(context.Background(), testLogger)
}

// mustCreate создает заметку и прогоняет базовые проверки создания.
func mustCreate(t *testing.T, ctx context.Context, f *fixture, userID, title, content string) *entities.Note {
	t.Helper()
	note, err := f.uc.CreateNote(ctx, userID, app.CreateNoteInput{Title: title, Content: content})
	require.NoError(t, err)
	require.Equal(t, 1, note.Version)
	return note
}
