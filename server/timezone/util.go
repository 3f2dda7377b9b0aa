// Package timezone resolves the configured IANA timezone used to decide
// which calendar month is "current" for dashboards.
package timezone

import (
	"fmt"
	"log/slog"
	"time"
)

// UTC is the coordinated universal time timezone
var UTC = time.UTC

// ParseTimezone parses an IANA timezone identifier (e.g., "Asia/Shanghai").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// LocationOrUTC parses tz and falls back to UTC with a warning.
func LocationOrUTC(tz string) *time.Location {
	loc, err := ParseTimezone(tz)
	if err != nil {
		slog.Warn("falling back to UTC", "timezone", tz, "error", err)
	}
	return loc
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// CurrentMonth returns the YYYY-MM label of now in tz.
func CurrentMonth(now time.Time, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	return now.In(tz).Format("2006-01")
}
