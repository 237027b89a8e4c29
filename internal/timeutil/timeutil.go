// Package timeutil normalizes the timestamp shapes the upstream emits into a
// single comparable millisecond count.
package timeutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The upstream mixes numeric epoch millis with ISO-8601 strings whose
// fractional-second group varies between 0 and 6 digits. time.Parse handles at
// most what the layout describes, so the fractional group is rewritten to
// exactly 3 digits before parsing.
var fracRe = regexp.MustCompile(`\.(\d{1,6})(Z)?$`)

var layouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ToMillis converts a raw timestamp value to epoch milliseconds. Returns 0 for
// absent or unparseable input; callers treat 0 as "unknown", which sorts last
// in recency order.
func ToMillis(raw interface{}) int64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case int64:
		return clampNonNegative(v)
	case int:
		return clampNonNegative(int64(v))
	case uint:
		return int64(v)
	case float64:
		return clampNonNegative(int64(v))
	case time.Time:
		if v.IsZero() {
			return 0
		}
		return v.UnixMilli()
	case string:
		return ParseString(v)
	default:
		return 0
	}
}

// ParseString normalizes an ISO-8601 string (or stringified epoch millis) to
// epoch milliseconds, returning 0 when it cannot be parsed.
func ParseString(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return clampNonNegative(n)
	}

	s = fracRe.ReplaceAllStringFunc(s, func(m string) string {
		groups := fracRe.FindStringSubmatch(m)
		frac := groups[1]
		if len(frac) > 3 {
			frac = frac[:3]
		} else {
			frac = frac + strings.Repeat("0", 3-len(frac))
		}
		return "." + frac + groups[2]
	})

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clampNonNegative(t.UnixMilli())
		}
	}
	return 0
}

func clampNonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
