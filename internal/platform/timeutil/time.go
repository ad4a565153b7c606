// Package timeutil fixes the wire precision of timestamps: API payloads
// carry milliseconds, log entries carry microseconds, both always UTC.
package timeutil

import (
	"time"
)

// RFC3339Millis is RFC 3339 UTC with fixed millisecond precision, the
// format used for timestamps in API payloads.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

// RFC3339Micros is RFC 3339 UTC with fixed microsecond precision, the
// format used for log timestamps.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// Time wraps time.Time so JSON output always carries RFC 3339 millisecond
// precision ("2024-01-15T10:30:00.000Z") regardless of the source value.
//
// JSON null preserves the existing value rather than zeroing it, matching
// the standard library's time.Time behavior.
type Time struct {
	time.Time
}

// MarshalJSON implements json.Marshaler with fixed millisecond precision.
func (t Time) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(RFC3339Millis)+2)
	b = append(b, '"')
	b = t.UTC().AppendFormat(b, RFC3339Millis)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting RFC 3339 with or
// without fractional seconds.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339, s); err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// NewTime creates a Time from a standard time.Time.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// Now returns the current time as a Time.
func Now() Time {
	return Time{Time: time.Now()}
}
