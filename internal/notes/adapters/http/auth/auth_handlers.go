// Package auth содержит HTTP-обработчики аутентификации.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"zametki/internal/notes/adapters/http/dto"
	"zametki/internal/notes/adapters/http/middleware"
	"zametki/internal/notes/app"
	"zametki/internal/notes/domain/entities"
	"zametki/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	LogHandlerRegister = "handling register request"
	LogHandlerLogin    = "handling login request"
	LogHandlerRefresh  = "handling refresh tokens request"
	LogHandlerLogout   = "handling logout request"
	LogHandlerProfile  = "handling get profile request"

	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgUnauthorized       = "authentication required"
)

// Handler обработчик HTTP-запросов аутентификации.
type Handler struct {
	auth *app.AuthUseCase
}

// NewHandler создает новый экземпляр обработчика аутентификации.
func NewHandler(auth *app.AuthUseCase) *Handler {
	return &Handler{auth: auth}
}

// Register обрабатывает запрос на регистрацию пользователя.
func (h *Handler) Register(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Register"))
	log.Debug(requestCtx, LogHandlerRegister)

	var req dto.RegisterRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	pair, err := h.auth.Register(requestCtx, req.Email, req.Username, req.Password)
	if err != nil {
		log.Error(requestCtx, "failed to register user", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.Status(fiber.StatusCreated).JSON(toTokenPairResponse(pair)); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// Login обрабатывает запрос на вход.
func (h *Handler) Login(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Login"))
	log.Debug(requestCtx, LogHandlerLogin)

	var req dto.LoginRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	pair, err := h.auth.Login(requestCtx, req.Email, req.Password)
	if err != nil {
		log.Error(requestCtx, "failed to login user", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(toTokenPairResponse(pair)); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// RefreshTokens обрабатывает запрос на обновление пары токенов.
// Использованный refresh токен отзывается и заменяется новым.
func (h *Handler) RefreshTokens(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.RefreshTokens"))
	log.Debug(requestCtx, LogHandlerRefresh)

	var req dto.RefreshRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	pair, err := h.auth.RefreshTokens(requestCtx, req.RefreshToken)
	if err != nil {
		log.Error(requestCtx, "failed to refresh tokens", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(toTokenPairResponse(pair)); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// Logout обрабатывает запрос на выход: refresh токен отзывается.
func (h *Handler) Logout(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.Logout"))
	log.Debug(requestCtx, LogHandlerLogout)

	var req dto.LogoutRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	if err := h.auth.Logout(requestCtx, req.RefreshToken); err != nil {
		log.Error(requestCtx, "failed to logout user", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.SendStatus(fiber.StatusNoContent); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// GetProfile обрабатывает запрос профиля текущего пользователя.
func (h *Handler) GetProfile(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.GetProfile"))
	log.Debug(requestCtx, LogHandlerProfile)

	identity, ok := middleware.Identity(ctx)
	if !ok {
		log.Error(requestCtx, ErrMsgUnauthorized)
		if err := ctx.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: ErrMsgUnauthorized}); err != nil {
			return fmt.Errorf("failed to send unauthorized response: %w", err)
		}
		return nil
	}

	user, err := h.auth.GetProfile(requestCtx, identity.UserID)
	if err != nil {
		log.Error(requestCtx, "failed to get profile", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(dto.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

func toTokenPairResponse(pair *app.TokenPair) dto.TokenPairResponse {
	return dto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}
}

// bindAndValidate разбирает и валидирует тело запроса.
// false означает, что ответ 400 уже отправлен.
func bindAndValidate(ctx fiber.Ctx, requestCtx context.Context, req any) bool {
	if err := ctx.Bind().Body(req); err != nil {
		logger.Log(requestCtx).Error(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		_ = sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
		return false
	}
	if err := dto.Validate(req); err != nil {
		logger.Log(requestCtx).Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		_ = sendError(ctx, fiber.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleError переводит ошибки слоя приложения в HTTP-статусы.
func handleError(ctx fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, entities.ErrEmailTaken):
		status = fiber.StatusConflict
		message = err.Error()
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, entities.ErrTokenNotFound),
		errors.Is(err, entities.ErrTokenRevoked),
		errors.Is(err, entities.ErrTokenExpired):
		status = fiber.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, entities.ErrUserNotFound):
		status = fiber.StatusNotFound
		message = err.Error()
	case errors.Is(err, entities.ErrInvalidEmail),
		errors.Is(err, entities.ErrEmptyUsername),
		errors.Is(err, entities.ErrPasswordTooShort):
		status = fiber.StatusBadRequest
		message = err.Error()
	}

	if sendErr := sendError(ctx, status, message); sendErr != nil {
		return sendErr
	}
	return nil
}

func sendError(ctx fiber.Ctx, status int, message string) error {
	if err := ctx.Status(status).JSON(dto.ErrorResponse{Error: message}); err != nil {
		return fmt.Errorf("error sending error response: %w", err)
	}
	return nil
}
