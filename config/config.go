package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by the media layer.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageMinIO = "minio"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort    string
	ServerHost    string
	PublicBaseURL string
	CORSOrigins   []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis backs the short link cache, token revocation, rate limiting and the job queue.
	RedisURL string

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Media storage
	StorageBackend string
	MediaRoot      string
	MediaURL       string
	S3BucketName   string
	AWSRegion      string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	RecipeCreateLimit int
	LogLevel          string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	env := GetEnvironment()
	cfg := &Config{Environment: env}
	loadFromEnv(cfg)

	switch env {
	case CI, Development, Test:
	case Production:
		loadSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromEnv fills cfg from environment variables, falling back to development defaults.
func loadFromEnv(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.ServerPort), "/")
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "http://localhost:3000"))

	cfg.DBDriver = getEnv("DB_DRIVER", "postgres")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "foodgram")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnv("DB_NAME", "foodgram")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")
	cfg.SQLitePath = getEnv("SQLITE_PATH", "foodgram.db")

	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.JWTTTL = getDuration("JWT_TTL", 24*time.Hour)

	cfg.StorageBackend = getEnv("STORAGE_BACKEND", StorageLocal)
	cfg.MediaRoot = getEnv("MEDIA_ROOT", "media")
	cfg.MediaURL = strings.TrimRight(getEnv("MEDIA_URL", cfg.PublicBaseURL+"/media"), "/")
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.AWSRegion = os.Getenv("AWS_REGION")
	cfg.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
	cfg.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	cfg.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", "foodgram")
	cfg.MinIOUseSSL = getBool("MINIO_USE_SSL", false)

	cfg.RecipeCreateLimit = getInt("RECIPE_CREATE_LIMIT", 30)
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
}

// loadSecrets overrides sensitive values with Docker secrets when they are mounted.
func loadSecrets(cfg *Config) {
	overrides := map[string]*string{
		"db_user":          &cfg.DBUser,
		"db_password":      &cfg.DBPassword,
		"jwt_secret":       &cfg.JWTSecret,
		"redis_url":        &cfg.RedisURL,
		"minio_access_key": &cfg.MinIOAccessKey,
		"minio_secret_key": &cfg.MinIOSecretKey,
	}
	for name, target := range overrides {
		if value := readSecret(name); value != "" {
			*target = value
		}
	}
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func secretsDir() string {
	if dir := os.Getenv("SECRETS_DIR"); dir != "" {
		return dir
	}
	return "/run/secrets"
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	data, err := os.ReadFile(filepath.Join(secretsDir(), name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
