package redis

import "time"

// Значения по умолчанию для подключения к Redis.
const (
	DefaultPoolSize = 10
	DefaultTimeout  = 5 * time.Second
)

// Config содержит настройки подключения к Redis.
type Config struct {
	Addr            string
	Password        string
	DB              int
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdle         int
	IdleTimeout     time.Duration
	MaxConnLifetime time.Duration
}
