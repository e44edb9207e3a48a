package app_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zametki/internal/notes/app"
)

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "note:note-1", app.KeyNote("note-1"))
	assert.Equal(t, "user_notes:user-1:10:20", app.KeyUserNotes("user-1", 10, 20))
	assert.Equal(t, "note_versions:note-1", app.KeyNoteVersions("note-1"))
	assert.Equal(t, "search:user-1:молоко", app.KeySearch("user-1", "молоко"))
}

func TestInvalidator(t *testing.T) {
	t.Run("Вытесняется заметка и её журнал версий", func(t *testing.T) {
		ctx := testContext(t)
		c := newFakeCache()
		require.NoError(t, c.Set(ctx, app.KeyNote("note-1"), "v", 0))
		require.NoError(t, c.Set(ctx, app.KeyNoteVersions("note-1"), "v", 0))
		require.NoError(t, c.Set(ctx, app.KeyNote("note-2"), "v", 0))

		app.NewInvalidator(c).InvalidateNote(ctx, "note-1")

		assert.NotContains(t, c.values, app.KeyNote("note-1"))
		assert.NotContains(t, c.values, app.KeyNoteVersions("note-1"))
		assert.Contains(t, c.values, app.KeyNote("note-2"))
	})

	t.Run("Вытесняются все страницы списка и поиски пользователя", func(t *testing.T) {
		ctx := testContext(t)
		c := newFakeCache()
		require.NoError(t, c.Set(ctx, app.KeyUserNotes("user-1", 10, 0), "v", 0))
		require.NoError(t, c.Set(ctx, app.KeyUserNotes("user-1", 10, 10), "v", 0))
		require.NoError(t, c.Set(ctx, app.KeySearch("user-1", "молоко"), "v", 0))
		require.NoError(t, c.Set(ctx, app.KeyUserNotes("user-2", 10, 0), "v", 0))

		app.NewInvalidator(c).InvalidateUserNotes(ctx, "user-1")

		assert.NotContains(t, c.values, app.KeyUserNotes("user-1", 10, 0))
		assert.NotContains(t, c.values, app.KeyUserNotes("user-1", 10, 10))
		assert.NotContains(t, c.values, app.KeySearch("user-1", "молоко"))
		assert.Contains(t, c.values, app.KeyUserNotes("user-2", 10, 0))
	})

	t.Run("Сбой кэша не выходит наружу", func(t *testing.T) {
		ctx := testContext(t)
		c := newFakeCache()
		c.deleteErr = errors.New("redis down")

		inv := app.NewInvalidator(c)
		inv.InvalidateNote(ctx, "note-1")
		inv.InvalidateUserNotes(ctx, "user-1")
	})
}
