package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv returns the trimmed value of key, or fallback when it is empty or unset.
func GetEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	return getParsed(key, fallback, strconv.Atoi)
}

func GetEnvBool(key string, fallback bool) bool {
	return getParsed(key, fallback, strconv.ParseBool)
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	return getParsed(key, fallback, time.ParseDuration)
}

func GetEnvFloat(key string, fallback float64) float64 {
	return getParsed(key, fallback, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// getParsed falls back on missing and on unparsable values alike; Load
// validates ranges afterwards.
func getParsed[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

// SplitCSV splits a comma-separated list, dropping blank entries.
func SplitCSV(raw string) []string {
	out := make([]string, 0, strings.Count(raw, ",")+1)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DefaultPostgresDSN assembles a keyword/value DSN from DB_* variables for
// deployments that do not set DB_DSN.
func DefaultPostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_USER", "postgres"),
		GetEnv("DB_PASSWORD", "postgres"),
		GetEnv("DB_NAME", "encurtador"),
		GetEnv("DB_SSL_MODE", "disable"),
	)
}

// DefaultWorkerID is hostname-pid, which keeps outbox claims of concurrent
// workers apart.
func DefaultWorkerID(fallbackName string) string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = fallbackName
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
