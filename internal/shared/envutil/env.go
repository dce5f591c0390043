// Package envutil reads typed configuration values from environment variables.
package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the environment variable value or a default.
func Get(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// Int returns the environment variable as int or a default.
func Int(key string, defaultValue int) int {
	valueStr := Get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Float returns the environment variable as float64 or a default.
func Float(key string, defaultValue float64) float64 {
	valueStr := Get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// Bool returns the environment variable as bool or a default.
func Bool(key string, defaultValue bool) bool {
	valueStr := Get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Duration parses values like "150ms" or "10s". A bare integer is read as seconds.
func Duration(key string, defaultValue time.Duration) time.Duration {
	valueStr := Get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(n) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// List splits a comma-separated variable, trimming blanks.
func List(key string, defaultValue []string) []string {
	valueStr := Get(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
