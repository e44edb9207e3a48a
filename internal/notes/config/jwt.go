package config

import "time"

// JWTConfig содержит настройки для JWT токенов.
type JWTConfig struct {
	SecretKey       string        `yaml:"secret_key" env:"ZAMETKI_JWT_SECRET_KEY" env-default:"insecure-dev-secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ZAMETKI_JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"ZAMETKI_JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}
