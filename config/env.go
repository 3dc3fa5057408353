package config

import (
	"os"

	"github.com/gin-gonic/gin"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment
func GetEnvironment() Environment {
	// CI environment is automatically detected
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := os.Getenv("ENV"); env {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// GinMode maps the environment onto gin's run modes.
func (e Environment) GinMode() string {
	switch e {
	case Production:
		return gin.ReleaseMode
	case Test, CI:
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// IsProduction returns true if the current environment is production
func IsProduction() bool {
	return GetEnvironment() == Production
}
