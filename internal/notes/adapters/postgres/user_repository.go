package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"zametki/internal/notes/domain/entities"
	"zametki/internal/notes/ports/repositories"
	"zametki/pkg/logger"
)

const userColumns = `id, email, username, password_hash, created_at, updated_at`

// UserRepository реализует интерфейс repositories.UserRepository.
type UserRepository struct {
	pool PgxPoolInterface
}

// NewUserRepository создает новый репозиторий пользователей.
func NewUserRepository(pool PgxPoolInterface) repositories.UserRepository {
	return &UserRepository{pool: pool}
}

// Create сохраняет нового пользователя. Повторная регистрация email
// возвращает entities.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", "UserRepository.Create"))
	log.Debug(ctx, "creating user", zap.String("email", user.Email))

	created := *user
	err := querier(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (email, username, password_hash)
         VALUES ($1, $2, $3)
         RETURNING id, created_at, updated_at`,
		user.Email, user.Username, user.PasswordHash,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, entities.ErrEmailTaken
		}
		log.Error(ctx, "failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Debug(ctx, "user created", zap.String("userID", created.ID))
	return &created, nil
}

// FindByID получает пользователя по ID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*entities.User, error) {
	return r.find(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// FindByEmail получает пользователя по email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.find(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) find(ctx context.Context, query string, arg interface{}) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", "UserRepository.find"))

	var user entities.User
	err := querier(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		log.Error(ctx, "failed to find user", zap.Error(err))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}
