// Package postgres provides PostgreSQL implementations of repositories.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"zametki/internal/notes/ports/repositories"
	"zametki/pkg/logger"
)

// PgxPoolInterface описывает используемое подмножество pgxpool.Pool.
// Ему же удовлетворяет pgxmock в тестах.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Querier - общее подмножество операций пула и транзакции.
type Querier interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
}

// txKeyType - ключ контекста для текущей транзакции.
type txKeyType struct{}

var txKey = txKeyType{}

// txFromContext возвращает транзакцию из контекста, если она открыта.
func txFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier возвращает транзакцию из контекста или пул соединений.
// Репозитории автоматически попадают в транзакцию, открытую TxManager.
func querier(ctx context.Context, pool PgxPoolInterface) Querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// Константы для сообщений об ошибках транзакций.
const (
	ErrBeginTx    = "failed to begin transaction"
	ErrCommitTx   = "failed to commit transaction"
	ErrRollbackTx = "failed to rollback transaction"
)

// TxManager реализует repositories.TxManager поверх pgx.
type TxManager struct {
	pool PgxPoolInterface
}

// NewTxManager создает новый менеджер транзакций.
func NewTxManager(pool PgxPoolInterface) repositories.TxManager {
	return &TxManager{pool: pool}
}

// WithinTx выполняет fn внутри одной транзакции. Ошибка fn откатывает
// транзакцию и возвращается без изменений, чтобы доменные ошибки проходили
// через errors.Is/As. Вложенный вызов переиспользует открытую транзакцию.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrBeginTx, err)
	}

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Log(ctx).Error(ctx, ErrRollbackTx, zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrCommitTx, err)
	}
	return nil
}

// RepositoryFactory создает все необходимые репозитории для работы с PostgreSQL.
type RepositoryFactory struct {
	noteRepo    repositories.NoteRepository
	versionRepo repositories.VersionRepository
	shareRepo   repositories.ShareRepository
	mediaRepo   repositories.MediaRepository
	userRepo    repositories.UserRepository
	tokenRepo   repositories.TokenRepository
	txManager   repositories.TxManager
}

// NewRepositoryFactory создает новую фабрику репозиториев.
func NewRepositoryFactory(pool PgxPoolInterface) *RepositoryFactory {
	return &RepositoryFactory{
		noteRepo:    NewNoteRepository(pool),
		versionRepo: NewVersionRepository(pool),
		shareRepo:   NewShareRepository(pool),
		mediaRepo:   NewMediaRepository(pool),
		userRepo:    NewUserRepository(pool),
		tokenRepo:   NewTokenRepository(pool),
		txManager:   NewTxManager(pool),
	}
}

// NoteRepository возвращает репозиторий заметок.
func (f *RepositoryFactory) NoteRepository() repositories.NoteRepository {
	return f.noteRepo
}

// VersionRepository возвращает репозиторий журнала версий.
func (f *RepositoryFactory) VersionRepository() repositories.VersionRepository {
	return f.versionRepo
}

// ShareRepository возвращает реестр прав доступа.
func (f *RepositoryFactory) ShareRepository() repositories.ShareRepository {
	return f.shareRepo
}

// MediaRepository возвращает хранилище вложений.
func (f *RepositoryFactory) MediaRepository() repositories.MediaRepository {
	return f.mediaRepo
}

// UserRepository возвращает репозиторий пользователей.
func (f *RepositoryFactory) UserRepository() repositories.UserRepository {
	return f.userRepo
}

// TokenRepository возвращает репозиторий refresh токенов.
func (f *RepositoryFactory) TokenRepository() repositories.TokenRepository {
	return f.tokenRepo
}

// TxManager возвращает менеджер транзакций.
func (f *RepositoryFactory) TxManager() repositories.TxManager {
	return f.txManager
}
