// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"time"

	"chartsight/internal/models"
)

// FormatConfidence formats a confidence percentage.
func FormatConfidence(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// FormatDuration renders an access code duration in days as a human
// readable string ("2d", "6h", "45m").
func FormatDuration(days float64) string {
	d := time.Duration(days * float64(24) * float64(time.Hour))
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%.0fd", days)
	case d >= time.Hour:
		return fmt.Sprintf("%.0fh", d.Hours())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// FormatExpiry renders an access code expiry relative to now:
// "expired", "23h left", "6d left".
func FormatExpiry(code models.AccessCode, now time.Time) string {
	remaining := code.ExpiresAt().Sub(now)
	switch {
	case remaining <= 0:
		return "expired"
	case remaining < time.Hour:
		return fmt.Sprintf("%.0fm left", remaining.Minutes())
	case remaining < 24*time.Hour:
		return fmt.Sprintf("%.0fh left", remaining.Hours())
	default:
		return fmt.Sprintf("%.0fd left", remaining.Hours()/24)
	}
}

// FormatTimestamp renders an RFC3339 analysis timestamp for display,
// falling back to the raw string when it does not parse.
func FormatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("02-Jan-2006 15:04:05")
}
