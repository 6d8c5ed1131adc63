package cache

import (
	"fmt"
	"strconv"
	"time"
)

// TTL limits.
const (
	// DefaultTTLSeconds is how long an aggregation result is reused (10 minutes).
	DefaultTTLSeconds = 600

	// MinTTLSeconds is the smallest accepted TTL.
	MinTTLSeconds = 1

	// MaxTTLSeconds is the largest accepted TTL (7 days).
	MaxTTLSeconds = 604800

	minutesPerHour = 60
	hoursPerDay    = 24
)

// ErrInvalidTTL is returned for a TTL outside the accepted range.
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// DefaultTTL is DefaultTTLSeconds as a duration.
const DefaultTTL = DefaultTTLSeconds * time.Second

// TTLFromSeconds converts a configured TTL, falling back to DefaultTTL for
// non-positive values.
func TTLFromSeconds(seconds int) time.Duration {
	if seconds <= 0 {
		return DefaultTTL
	}
	return time.Duration(seconds) * time.Second
}

// ParseTTL parses integer seconds ("600") or a duration ("10m", "1h30m").
func ParseTTL(s string) (time.Duration, error) {
	seconds, err := strconv.Atoi(s)
	if err != nil {
		d, parseErr := time.ParseDuration(s)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", parseErr)
		}
		seconds = int(d / time.Second)
	}
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// FormatDuration renders d compactly, e.g. "45s", "10m", "1h30m", "2d3h".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
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
