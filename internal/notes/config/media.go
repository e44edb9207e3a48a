package config

// MediaConfig содержит ограничения для вложений заметок.
type MediaConfig struct {
	MaxSizeBytes int64 `yaml:"max_size_bytes" env:"ZAMETKI_MEDIA_MAX_SIZE_BYTES" env-default:"5242880"`
}
