package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	// RequireSecrets forces credentials to be set explicitly instead of relying on defaults.
	RequireSecrets bool
	RequireRedis   bool
}

var requirements = map[Environment]ConfigRequirements{
	Development: {},
	Test:        {},
	CI:          {RequireSecrets: true},
	Production:  {RequireSecrets: true, RequireRedis: true},
}

// insecureDevSecret signs tokens when no JWT_SECRET is configured outside CI and production.
const insecureDevSecret = "foodgram-development-secret"

// ValidateConfig checks if the configuration meets the requirements for its environment.
// Every problem is reported, not just the first one.
func ValidateConfig(cfg *Config) error {
	env := cfg.Environment
	if env == "" {
		env = GetEnvironment()
	}
	reqs := requirements[env]

	var errs []error
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, ValidationError{Field: field, Message: "is required"})
		}
	}

	require("SERVER_PORT", cfg.ServerPort)

	switch cfg.DBDriver {
	case "postgres":
		require("DB_HOST", cfg.DBHost)
		require("DB_PORT", cfg.DBPort)
		require("DB_NAME", cfg.DBName)
		require("DB_USER", cfg.DBUser)
		if reqs.RequireSecrets {
			require("DB_PASSWORD", cfg.DBPassword)
		}
	case "sqlite":
		require("SQLITE_PATH", cfg.SQLitePath)
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" {
		if reqs.RequireSecrets {
			require("JWT_SECRET", cfg.JWTSecret)
		} else {
			cfg.JWTSecret = insecureDevSecret
		}
	}
	if cfg.JWTTTL <= 0 {
		errs = append(errs, ValidationError{Field: "JWT_TTL", Message: "must be positive"})
	}

	if reqs.RequireRedis {
		require("REDIS_URL", cfg.RedisURL)
	}

	switch cfg.StorageBackend {
	case StorageLocal:
		require("MEDIA_ROOT", cfg.MediaRoot)
	case StorageS3:
		require("S3_BUCKET_NAME", cfg.S3BucketName)
		require("AWS_REGION", cfg.AWSRegion)
	case StorageMinIO:
		require("MINIO_ENDPOINT", cfg.MinIOEndpoint)
		require("MINIO_ACCESS_KEY", cfg.MinIOAccessKey)
		require("MINIO_SECRET_KEY", cfg.MinIOSecretKey)
		require("MINIO_BUCKET", cfg.MinIOBucket)
	default:
		errs = append(errs, ValidationError{Field: "STORAGE_BACKEND", Message: fmt.Sprintf("unsupported backend %q", cfg.StorageBackend)})
	}

	if cfg.RecipeCreateLimit < 0 {
		errs = append(errs, ValidationError{Field: "RECIPE_CREATE_LIMIT", Message: "must not be negative"})
	}

	return errors.Join(errs...)
}
