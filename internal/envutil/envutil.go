// Package envutil provides helpers for reading environment variables.
package envutil

import (
	"os"
	"strings"
)

// GetOrDefault returns the environment variable value or a default.
func GetOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTruthy reports whether the environment variable is set to a truthy value.
// Empty, "0" and "false" (any case) count as false; anything else, including
// abbreviations like "f", is true.
func IsTruthy(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}
