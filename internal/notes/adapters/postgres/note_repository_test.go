package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zametki/internal/notes/adapters/postgres"
	"zametki/internal/notes/domain/entities"
	"zametki/pkg/logger"
)

const noteRows = "id, user_id, title, content, version, created_at, updated_at"

func testContext(t *testing.T) context.Context {
	t.Helper()
	testLogger, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)
	return logger.NewContext(context.Background(), testLogger)
}

func noteColumnNames() []string {
	return []string{"id", "user_id", "title", "content", "version", "created_at", "updated_at"}
}

func TestNoteRepository_Create(t *testing.T) {
	ctx := testContext(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	input := entities.NewNote("user-1", "First note", "Hello")

	t.Run("Успешное создание заметки", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("INSERT INTO notes .+").
			WithArgs(input.UserID, input.Title, input.Content, input.Version).
			WillReturnRows(
				pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
					AddRow("note-1", now, now),
			)

		repo := postgres.NewNoteRepository(mock)
		created, err := repo.Create(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "note-1", created.ID)
		assert.Equal(t, 1, created.Version)
		assert.Equal(t, input.Title, created.Title)
		assert.Equal(t, now, created.CreatedAt)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка БД при создании", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("INSERT INTO notes .+").
			WithArgs(input.UserID, input.Title, input.Content, input.Version).
			WillReturnError(errors.New("database connection error"))

		repo := postgres.NewNoteRepository(mock)
		created, err := repo.Create(ctx, input)

		assert.Nil(t, created)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create note")

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_GetByID(t *testing.T) {
	ctx := testContext(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("Заметка найдена", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT "+noteRows+" FROM notes WHERE id = .+ AND deleted_at IS NULL").
			WithArgs("note-1").
			WillReturnRows(
				pgxmock.NewRows(noteColumnNames()).
					AddRow("note-1", "user-1", "Title", "Content", 3, now, now),
			)

		repo := postgres.NewNoteRepository(mock)
		note, err := repo.GetByID(ctx, "note-1")

		require.NoError(t, err)
		require.NotNil(t, note)
		assert.Equal(t, "note-1", note.ID)
		assert.Equal(t, "user-1", note.UserID)
		assert.Equal(t, 3, note.Version)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Заметка отсутствует - nil без ошибки", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT .+ FROM notes WHERE id = .+").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		repo := postgres.NewNoteRepository(mock)
		note, err := repo.GetByID(ctx, "missing")

		require.NoError(t, err)
		assert.Nil(t, note)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_GetForUpdate(t *testing.T) {
	ctx := testContext(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("Блокирующее чтение возвращает текущую версию", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT .+ FROM notes WHERE id = .+ FOR UPDATE").
			WithArgs("note-1").
			WillReturnRows(
				pgxmock.NewRows(noteColumnNames()).
					AddRow("note-1", "user-1", "Title", "Content", 7, now, now),
			)

		repo := postgres.NewNoteRepository(mock)
		note, err := repo.GetForUpdate(ctx, "note-1")

		require.NoError(t, err)
		require.NotNil(t, note)
		assert.Equal(t, 7, note.Version)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_ListByOwner(t *testing.T) {
	ctx := testContext(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("Страница заметок с общим количеством", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT COUNT.+ FROM notes WHERE user_id = .+").
			WithArgs("user-1").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

		mock.ExpectQuery("SELECT "+noteRows+" FROM notes.+ORDER BY updated_at DESC.+LIMIT .+ OFFSET .+").
			WithArgs("user-1", 2, 0).
			WillReturnRows(
				pgxmock.NewRows(noteColumnNames()).
					AddRow("note-2", "user-1", "Newer", "B", 1, now, now).
					AddRow("note-1", "user-1", "Older", "A", 4, now, now),
			)

		repo := postgres.NewNoteRepository(mock)
		notes, total, err := repo.ListByOwner(ctx, "user-1", 2, 0)

		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, notes, 2)
		assert.Equal(t, "note-2", notes[0].ID)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Пустая страница", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT COUNT.+ FROM notes WHERE user_id = .+").
			WithArgs("user-1").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT .+ FROM notes.+LIMIT .+ OFFSET .+").
			WithArgs("user-1", 10, 0).
			WillReturnRows(pgxmock.NewRows(noteColumnNames()))

		repo := postgres.NewNoteRepository(mock)
		notes, total, err := repo.ListByOwner(ctx, "user-1", 10, 0)

		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, notes)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_Update(t *testing.T) {
	ctx := testContext(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	note := &entities.Note{
		ID:        "note-1",
		UserID:    "user-1",
		Title:     "Updated",
		Content:   "Updated content",
		Version:   2,
		UpdatedAt: now,
	}

	t.Run("Успешное обновление", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE notes SET .+").
			WithArgs(note.Title, note.Content, note.Version, note.UpdatedAt, note.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := postgres.NewNoteRepository(mock)
		err = repo.Update(ctx, note)

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Заметка исчезла между чтением и записью", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE notes SET .+").
			WithArgs(note.Title, note.Content, note.Version, note.UpdatedAt, note.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := postgres.NewNoteRepository(mock)
		err = repo.Update(ctx, note)

		assert.Error(t, err)
		assert.ErrorIs(t, err, pgx.ErrNoRows)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_SoftDelete(t *testing.T) {
	ctx := testContext(t)

	t.Run("Успешное мягкое удаление", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE notes SET deleted_at = now.+").
			WithArgs("note-1", "user-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := postgres.NewNoteRepository(mock)
		deleted, err := repo.SoftDelete(ctx, "note-1", "user-1")

		require.NoError(t, err)
		assert.True(t, deleted)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Чужая или отсутствующая заметка - false без ошибки", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE notes SET deleted_at = now.+").
			WithArgs("note-1", "intruder").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := postgres.NewNoteRepository(mock)
		deleted, err := repo.SoftDelete(ctx, "note-1", "intruder")

		require.NoError(t, err)
		assert.False(t, deleted)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_Search(t *testing.T) {
	ctx := testContext(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("Полнотекстовый поиск возвращает ранжированные результаты", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT .+ FROM notes.+plainto_tsquery.+").
			WithArgs("user-1", "meeting").
			WillReturnRows(
				pgxmock.NewRows(noteColumnNames()).
					AddRow("note-1", "user-1", "Meeting notes", "Agenda", 1, now, now),
			)

		repo := postgres.NewNoteRepository(mock)
		notes, err := repo.Search(ctx, "user-1", "meeting")

		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "Meeting notes", notes[0].Title)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка полнотекстового индекса возвращается вызывающему", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT .+ FROM notes.+plainto_tsquery.+").
			WithArgs("user-1", "meeting").
			WillReturnError(errors.New("text search configuration missing"))

		repo := postgres.NewNoteRepository(mock)
		notes, err := repo.Search(ctx, "user-1", "meeting")

		assert.Nil(t, notes)
		assert.Error(t, err)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_SearchSubstring(t *testing.T) {
	ctx := testContext(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("Поиск по подстроке", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT .+ FROM notes.+ILIKE.+").
			WithArgs("user-1", "groc").
			WillReturnRows(
				pgxmock.NewRows(noteColumnNames()).
					AddRow("note-1", "user-1", "Groceries", "Milk", 1, now, now),
			)

		repo := postgres.NewNoteRepository(mock)
		notes, err := repo.SearchSubstring(ctx, "user-1", "groc")

		require.NoError(t, err)
		require.Len(t, notes, 1)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}
