package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL limits and defaults.
const (
	// DefaultTTLSeconds keeps responses for a day.
	DefaultTTLSeconds = 86400

	// DefaultTTL is DefaultTTLSeconds as a duration.
	DefaultTTL = DefaultTTLSeconds * time.Second

	// MinTTLSeconds is the smallest accepted TTL.
	MinTTLSeconds = 60

	// MaxTTLSeconds is the largest accepted TTL (7 days).
	MaxTTLSeconds = 604800

	// DefaultCacheMaxSizeMB bounds the cache directory.
	DefaultCacheMaxSizeMB = 50

	minutesPerHour = 60
	hoursPerDay    = 24
)

// Environment overrides.
const (
	EnvTTLSeconds   = "BEACONDASH_CACHE_TTL_SECONDS"
	EnvCacheEnabled = "BEACONDASH_CACHE_ENABLED"
	EnvCacheDir     = "BEACONDASH_CACHE_DIR"
	EnvCacheMaxSize = "BEACONDASH_CACHE_MAX_SIZE_MB"
)

// ErrInvalidTTL is returned for TTLs outside [MinTTLSeconds, MaxTTLSeconds].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// GetTTLFromEnv returns the TTL from the environment, or fallback when unset
// or invalid.
func GetTTLFromEnv(fallback int) int {
	v := os.Getenv(EnvTTLSeconds)
	if v == "" {
		return fallback
	}
	ttl, err := ParseTTL(v)
	if err != nil {
		return fallback
	}
	return ttl
}

// GetCacheEnabledFromEnv returns the enabled flag from the environment, or
// fallback when unset or unparseable.
func GetCacheEnabledFromEnv(fallback bool) bool {
	enabled, err := strconv.ParseBool(os.Getenv(EnvCacheEnabled))
	if err != nil {
		return fallback
	}
	return enabled
}

// GetCacheDirFromEnv returns the cache directory override, if any.
func GetCacheDirFromEnv() string {
	return os.Getenv(EnvCacheDir)
}

// GetCacheMaxSizeFromEnv returns the size limit from the environment, or
// fallback when unset or invalid.
func GetCacheMaxSizeFromEnv(fallback int) int {
	v := os.Getenv(EnvCacheMaxSize)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// FormatDuration formats d compactly, e.g. "45s", "5m", "1h30m", "2d".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < hoursPerDay*time.Hour:
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

// ParseTTL parses integer seconds ("3600") or a duration ("1h30m").
func ParseTTL(s string) (int, error) {
	seconds, err := strconv.Atoi(s)
	if err != nil {
		d, durErr := time.ParseDuration(s)
		if durErr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", durErr)
		}
		seconds = int(d.Seconds())
	}
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return seconds, nil
}
