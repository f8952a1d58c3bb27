package config

import (
	"os"
	"strconv"
	"strings"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// SkipMigrations disables AutoMigrate on startup (run it as a separate job instead).
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS")
}

// ArchiveImportsEnabled keeps a copy of every successfully imported price list in object storage.
//
// Set via env:
// - ARCHIVE_IMPORTS=true (with STORAGE_PROVIDER=gcs and GCS_BUCKET)
func ArchiveImportsEnabled() bool {
	return envBool("ARCHIVE_IMPORTS")
}

func RateLimitEnabled() bool {
	return envBool("RATE_LIMIT_ENABLED")
}

func RateLimitMaxRequests() int64 {
	return int64(intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600))
}

func RateLimitWindowSeconds() int64 {
	return int64(intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60))
}

// ImportMaxUploadBytes is the largest accepted price-list upload (IMPORT_MAX_UPLOAD_MB, default 5).
func ImportMaxUploadBytes() int64 {
	mb := intFromEnv("IMPORT_MAX_UPLOAD_MB", 5)
	if mb <= 0 {
		mb = 5
	}
	return int64(mb) << 20
}

// WastageThresholdPercent is the "High" wastage boundary used by summaries (default 5).
func WastageThresholdPercent() float64 {
	v := envFloat("WASTAGE_THRESHOLD_PERCENT", 5)
	if v <= 0 {
		return 5
	}
	return v
}
