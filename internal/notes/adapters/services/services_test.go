package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zametki/internal/notes/adapters/services"
	svc "zametki/internal/notes/ports/services"
	"zametki/pkg/logger"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	testLogger, err := logger.NewLogger(logger.Development, "debug")
	require.NoError(t, err)
	return logger.NewContext(context.Background(), testLogger)
}

func TestServiceJWT_AccessToken(t *testing.T) {
	ctx := testContext(t)
	jwtService := services.NewJWT("test-secret-key", 15*time.Minute)

	t.Run("Выпущенный токен проходит проверку", func(t *testing.T) {
		token, expiresAt, err := jwtService.GenerateAccessToken(ctx, "user-1", "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

		identity, err := jwtService.ValidateAccessToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", identity.UserID)
		assert.Equal(t, "alice", identity.Username)
	})

	t.Run("Токен с другим секретом отклоняется", func(t *testing.T) {
		otherService := services.NewJWT("another-secret", 15*time.Minute)
		token, _, err := otherService.GenerateAccessToken(ctx, "user-1", "alice")
		require.NoError(t, err)

		identity, err := jwtService.ValidateAccessToken(ctx, token)
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, svc.ErrInvalidJWTToken)
	})

	t.Run("Истекший токен отклоняется", func(t *testing.T) {
		shortLived := services.NewJWT("test-secret-key", -time.Minute)
		token, _, err := shortLived.GenerateAccessToken(ctx, "user-1", "alice")
		require.NoError(t, err)

		identity, err := jwtService.ValidateAccessToken(ctx, token)
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, svc.ErrExpiredJWTToken)
	})

	t.Run("Мусорная строка отклоняется", func(t *testing.T) {
		identity, err := jwtService.ValidateAccessToken(ctx, "not-a-jwt")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, svc.ErrInvalidJWTToken)
	})

	t.Run("Пустой секрет не позволяет выпустить токен", func(t *testing.T) {
		broken := services.NewJWT("", 15*time.Minute)
		token, _, err := broken.GenerateAccessToken(ctx, "user-1", "alice")
		assert.Empty(t, token)
		assert.ErrorIs(t, err, svc.ErrGeneratingJWTToken)
	})
}

func TestServiceJWT_RefreshToken(t *testing.T) {
	ctx := testContext(t)
	jwtService := services.NewJWT("test-secret-key", 15*time.Minute)

	t.Run("Refresh токены уникальны", func(t *testing.T) {
		first, err := jwtService.GenerateRefreshToken(ctx)
		require.NoError(t, err)
		second, err := jwtService.GenerateRefreshToken(ctx)
		require.NoError(t, err)

		assert.NotEmpty(t, first)
		assert.NotEqual(t, first, second)
	})
}

func TestServiceBcrypt(t *testing.T) {
	ctx := testContext(t)
	passwordService := services.NewBcrypt(4)

	t.Run("Пароль проверяется против своего хэша", func(t *testing.T) {
		hash, err := passwordService.Hash(ctx, "correct-password")
		require.NoError(t, err)
		assert.NotEqual(t, "correct-password", hash)

		ok, err := passwordService.Verify(ctx, "correct-password", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Неверный пароль не проходит проверку", func(t *testing.T) {
		hash, err := passwordService.Hash(ctx, "correct-password")
		require.NoError(t, err)

		ok, err := passwordService.Verify(ctx, "wrong-password", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Слишком короткий пароль отклоняется", func(t *testing.T) {
		hash, err := passwordService.Hash(ctx, "short")
		assert.Empty(t, hash)
		assert.ErrorIs(t, err, svc.ErrInvalidPassword)
	})

	t.Run("Пустой пароль отклоняется", func(t *testing.T) {
		_, err := passwordService.Hash(ctx, "")
		assert.ErrorIs(t, err, svc.ErrInvalidPassword)

		ok, err := passwordService.Verify(ctx, "", "hash")
		assert.False(t, ok)
		assert.ErrorIs(t, err, svc.ErrInvalidPassword)
	})
}
