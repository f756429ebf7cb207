// Package timeutil provides time formatting helpers for segment naming and
// duration reporting.
package timeutil

import (
	"fmt"
	"time"
)

// stampLayout is the segment identifier layout: sortable, filesystem-safe,
// millisecond precision so sub-second rotation windows cannot collide.
const stampLayout = "20060102-150405.000"

// Stamp formats a segment start timestamp for use in file names.
//
//	Stamp(t) // "20260826-153000.250"
func Stamp(t time.Time) string {
	return t.Format(stampLayout)
}

// ParseStamp parses a segment identifier produced by Stamp.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(stampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid segment timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatSeconds converts seconds to HH:MM:SS.MS format.
//
// Used for duration reporting and FFmpeg time parameters. Supports
// fractional seconds.
//
// Example:
//
//	FormatSeconds(0)      // "00:00:00.00"
//	FormatSeconds(90)     // "00:01:30.00"
//	FormatSeconds(3661)   // "01:01:01.00"
//	FormatSeconds(30.53)  // "00:00:30.53"
func FormatSeconds(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}
