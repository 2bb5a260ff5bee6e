package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

func SafeAtoi(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

// CoerceInt converts whatever numeric representation a source delivered
// into an int. Missing or unparseable values become 0.
func CoerceInt(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	case string:
		// Sources deliver counts as "12,500" or "12 500"; keep digits only.
		return SafeAtoi(CleanNumericString(n))
	default:
		return 0
	}
}

// CoerceTime converts a source-specific timestamp encoding into an absolute
// time. Integers and all-digit strings are seconds since epoch, other
// strings are tried as RFC3339 and then as a bare date. Anything unusable
// falls back to now.
func CoerceTime(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case nil:
		return now
	case time.Time:
		if t.IsZero() {
			return now
		}
		return t
	case int:
		return time.Unix(int64(t), 0).UTC()
	case int64:
		return time.Unix(t, 0).UTC()
	case float64:
		return time.Unix(int64(t), 0).UTC()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return now
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed
		}
		if parsed, err := time.Parse("2006-01-02", s); err == nil {
			return parsed
		}
		return now
	default:
		return now
	}
}
