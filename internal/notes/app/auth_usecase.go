package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"zametki/internal/notes/domain/entities"
	"zametki/internal/notes/ports/repositories"
	"zametki/internal/notes/ports/services"
	"zametki/pkg/logger"
)

// Константы для логирования аутентификации.
const (
	msgStartRegistration   = "starting user registration"
	msgUserRegistered      = "user registered successfully"
	msgLoginAttempt        = "login attempt"
	msgLoginNonExistent    = "login attempt with non-existent email"
	msgInvalidPasswordAuth = "invalid password provided"
	msgUserLoggedIn        = "user logged in successfully"
	msgRefreshingTokens    = "refreshing tokens"
	msgRevokedTokenAttempt = "attempt to use revoked or expired token"
	msgTokensRefreshed     = "tokens refreshed successfully"
	msgProcessingLogout    = "processing logout request"
	msgUserLoggedOut       = "user logged out successfully"

	errCtxValidatingEmail    = "validating email"
	errCtxValidatingUsername = "validating username"
	errCtxValidatingPassword = "validating password"
	errCtxHashingPassword    = "hashing password"
	errCtxCreatingUser       = "creating user"
	errCtxGeneratingTokens   = "generating tokens"
	errCtxInvalidCredentials = "invalid credentials"
	errCtxFindingUser        = "finding user"
	errCtxFindingToken       = "finding refresh token"
	errCtxRevokingToken      = "revoking token"
	errCtxStoringToken       = "storing refresh token"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid email or password")

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// TokenPair пара токенов, выдаваемая при успешной аутентификации.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthUseCase реализует регистрацию и аутентификацию пользователей.
type AuthUseCase struct {
	userRepo    repositories.UserRepository
	tokenRepo   repositories.TokenRepository
	passwordSvc services.PasswordService
	tokenSvc    services.TokenService
	refreshTTL  time.Duration
}

// NewAuthUseCase создает новый экземпляр сервиса аутентификации.
func NewAuthUseCase(
	userRepo repositories.UserRepository,
	tokenRepo repositories.TokenRepository,
	passwordSvc services.PasswordService,
	tokenSvc services.TokenService,
	refreshTTL time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		refreshTTL:  refreshTTL,
	}
}

// Register создает нового пользователя с предоставленными учетными данными.
func (a *AuthUseCase) Register(ctx context.Context, email, username, password string) (*TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", "Register"), zap.String("email", email))
	log.Debug(ctx, msgStartRegistration)

	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingEmail, entities.ErrInvalidEmail)
	}
	if username == "" {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingUsername, entities.ErrEmptyUsername)
	}
	if len(password) < services.MinPasswordLength {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingPassword, entities.ErrPasswordTooShort)
	}

	hash, err := a.passwordSvc.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}

	user, err := a.userRepo.Create(ctx, &entities.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, entities.ErrEmailTaken) {
			return nil, entities.ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", errCtxCreatingUser, err)
	}

	pair, err := a.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, msgUserRegistered, zap.String("user_id", user.ID))
	return pair, nil
}

// Login проверяет учетные данные и выдает пару токенов.
func (a *AuthUseCase) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", "Login"), zap.String("email", email))
	log.Debug(ctx, msgLoginAttempt)

	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			log.Debug(ctx, msgLoginNonExistent)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	ok, err := a.passwordSvc.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, err)
	}
	if !ok {
		log.Debug(ctx, msgInvalidPasswordAuth)
		return nil, ErrInvalidCredentials
	}

	pair, err := a.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, msgUserLoggedIn, zap.String("user_id", user.ID))
	return pair, nil
}

// RefreshTokens обменивает действительный refresh токен на новую пару,
// отзывая старый токен (ротация).
func (a *AuthUseCase) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", "RefreshTokens"))
	log.Debug(ctx, msgRefreshingTokens)

	stored, err := a.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, entities.ErrTokenNotFound) {
			return nil, entities.ErrTokenNotFound
		}
		return nil, fmt.Errorf("%s: %w", errCtxFindingToken, err)
	}
	if !stored.IsValid(time.Now()) {
		log.Warn(ctx, msgRevokedTokenAttempt, zap.String("user_id", stored.UserID))
		return nil, entities.ErrTokenRevoked
	}

	user, err := a.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}

	if err := a.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxRevokingToken, err)
	}

	pair, err := a.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, msgTokensRefreshed, zap.String("user_id", user.ID))
	return pair, nil
}

// Logout отзывает refresh токен пользователя.
func (a *AuthUseCase) Logout(ctx context.Context, refreshToken string) error {
	log := logger.Log(ctx).With(zap.String("method", "Logout"))
	log.Debug(ctx, msgProcessingLogout)

	if err := a.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		if errors.Is(err, entities.ErrTokenNotFound) {
			return entities.ErrTokenNotFound
		}
		return fmt.Errorf("%s: %w", errCtxRevokingToken, err)
	}

	log.Info(ctx, msgUserLoggedOut)
	return nil
}

// GetProfile возвращает профиль пользователя по его идентификатору.
func (a *AuthUseCase) GetProfile(ctx context.Context, userID string) (*entities.User, error) {
	user, err := a.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", errCtxFindingUser, err)
	}
	return user, nil
}

// generateTokenPair выпускает и сохраняет новую пару токенов для пользователя.
func (a *AuthUseCase) generateTokenPair(ctx context.Context, user *entities.User) (*TokenPair, error) {
	access, expiresAt, err := a.tokenSvc.GenerateAccessToken(ctx, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingTokens, err)
	}

	refresh, err := a.tokenSvc.GenerateRefreshToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxGeneratingTokens, err)
	}

	err = a.tokenRepo.StoreRefreshToken(ctx, &entities.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(a.refreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxStoringToken, err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}
