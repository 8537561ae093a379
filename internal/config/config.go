package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"HOST"`
	Port               string `env:"PORT" envDefault:"5432"`
	User               string `env:"USER"`
	Password           string `env:"PASSWORD"`
	Name               string `env:"NAME"`
	SSLMode            string `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetimeSec int    `env:"CONN_MAX_LIFETIME_SEC" envDefault:"300"`
}

// StorageConfig selects the object storage backend and the bucket images live in.
type StorageConfig struct {
	Driver string `env:"DRIVER" envDefault:"minio"`
	Bucket string `env:"BUCKET" envDefault:"clothing-images"`
	// PublicBaseURL overrides the host part of generated public URLs (CDN, reverse proxy).
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// GCSConfig holds Google Cloud Storage settings. An empty CredentialsFile
// falls back to application default credentials.
type GCSConfig struct {
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

// SessionConfig controls where the session token is persisted and how it is signed.
type SessionConfig struct {
	Store     string        `env:"STORE" envDefault:"file"`
	FilePath  string        `env:"FILE_PATH" envDefault:".wardrobe/session"`
	Secret    string        `env:"SECRET"`
	TTL       time.Duration `env:"TTL" envDefault:"168h"`
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`
	RedisPass string        `env:"REDIS_PASSWORD"`
}

// BackgroundRemovalConfig configures the external background-removal service.
// An empty APIKey disables the feature; calls fail with a missing-credential error.
type BackgroundRemovalConfig struct {
	APIKey   string        `env:"API_KEY"`
	Endpoint string        `env:"ENDPOINT" envDefault:"https://sdk.photoroom.com/v1/segment"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"60s"`
	OutDir   string        `env:"OUT_DIR"`
}

// UploadConfig bounds the image upload pipeline.
type UploadConfig struct {
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s"`
	MaxDimension int           `env:"MAX_DIMENSION" envDefault:"0"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost           string                  `env:"APP_HOST" envDefault:"localhost:8080"`
	Port              string                  `env:"PORT" envDefault:"8080"`
	Timezone          string                  `env:"APP_TIMEZONE" envDefault:"UTC"`
	Database          DatabaseConfig          `envPrefix:"DB_"`
	Storage           StorageConfig           `envPrefix:"STORAGE_"`
	MinIO             MinIOConfig             `envPrefix:"MINIO_"`
	GCS               GCSConfig               `envPrefix:"GCS_"`
	Session           SessionConfig           `envPrefix:"SESSION_"`
	BackgroundRemoval BackgroundRemovalConfig `envPrefix:"PHOTOROOM_"`
	Upload            UploadConfig            `envPrefix:"UPLOAD_"`
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured timezone, defaulting to UTC on unknown names.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
