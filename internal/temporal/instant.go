// Package temporal provides UTC instant parsing/formatting and deterministic
// attribute canonicalisation for the bi-temporal merge engine.
//
// Every instant the engine carries internally is a second-precision UTC
// value; textual serialisation is always the canonical ISO-8601 form with a
// "Z" suffix. Fractional seconds on input are truncated, not rounded.
package temporal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadTimestamp is returned when an input timestamp cannot be parsed into
// a UTC instant.
var ErrBadTimestamp = errors.New("bad timestamp")

// canonicalLayout is the wire format for every instant this package emits:
// second precision, UTC, "Z" suffix.
const canonicalLayout = "2006-01-02T15:04:05Z"

// naiveLayouts are accepted on input and interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant accepts an ISO-8601 string (optionally with a "Z" suffix or a
// UTC offset, with or without fractional seconds), a naive timestamp
// (interpreted as UTC), or a numeric epoch-seconds value, and returns the
// truncated-to-the-second UTC instant. Unsupported or unparsable inputs
// return ErrBadTimestamp.
func ParseInstant(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Truncate(time.Second), nil
	case string:
		return parseInstantString(v)
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrBadTimestamp, value)
	}
}

func parseInstantString(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrBadTimestamp)
	}

	if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}

	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}

	if seconds, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}

	if seconds, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return time.Unix(int64(seconds), 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, raw)
}

// FormatInstant renders t in the canonical wire format. The zero time
// formats as the empty string so callers can treat it as "unset" without a
// separate nullable wrapper at this layer (store/API layers use *time.Time
// for true nullability; this helper is for text rendering only).
func FormatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Truncate(time.Second).Format(canonicalLayout)
}
