package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"zametki/internal/notes/ports/services"
	"zametki/pkg/logger"
)

// Константы для логирования.
const (
	LogAuthMiddleware = "auth middleware"

	ErrorNoAuthHeader       = "no authorization header provided"
	ErrorInvalidTokenFormat = "invalid token format"
	ErrorInvalidToken       = "invalid or expired token"
)

// LocalsIdentity - ключ Locals с проверенной личностью вызывающей стороны.
const LocalsIdentity = "identity"

const bearerPrefix = "Bearer "

// Identity извлекает личность, сохраненную NewAuthMiddleware.
func Identity(ctx fiber.Ctx) (*services.Identity, bool) {
	identity, ok := ctx.Locals(LocalsIdentity).(*services.Identity)
	return identity, ok
}

// NewAuthMiddleware создает промежуточное ПО для проверки аутентификации.
// Проверенная личность сохраняется в Locals и считается достоверной
// всеми последующими обработчиками.
func NewAuthMiddleware(tokenService services.TokenService) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := RequestContext(ctx)
		log := logger.Log(requestCtx).With(zap.String("middleware", "auth"))
		log.Debug(requestCtx, LogAuthMiddleware)

		authHeader := ctx.Get("Authorization")
		if authHeader == "" {
			log.Debug(requestCtx, ErrorNoAuthHeader)
			return unauthorized(ctx, ErrorNoAuthHeader)
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			log.Debug(requestCtx, ErrorInvalidTokenFormat)
			return unauthorized(ctx, ErrorInvalidTokenFormat)
		}

		identity, err := tokenService.ValidateAccessToken(requestCtx, strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			if errors.Is(err, services.ErrExpiredJWTToken) || errors.Is(err, services.ErrInvalidJWTToken) {
				log.Debug(requestCtx, ErrorInvalidToken, zap.Error(err))
				return unauthorized(ctx, ErrorInvalidToken)
			}
			log.Error(requestCtx, "token validation failed", zap.Error(err))
			return unauthorized(ctx, ErrorInvalidToken)
		}

		ctx.Locals(LocalsIdentity, identity)

		return ctx.Next()
	}
}

func unauthorized(ctx fiber.Ctx, message string) error {
	if err := ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
	}); err != nil {
		return fmt.Errorf("failed to send unauthorized response: %w", err)
	}
	return nil
}
