// Package timestamp implements TimestampNormalizer (spec §4.2): it
// coerces any value the host might emit for a timestamp field into a
// canonical ISO-8601 UTC string. Normalize never fails — an
// unrecognized value falls back to "now", as documented in spec §4.2.
package timestamp

import (
	"regexp"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// isoPrefix matches values that already look like an ISO-8601
// datetime and should be returned unchanged.
var isoPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T`)

// epochMillisThreshold distinguishes millisecond epochs from second
// epochs: a number above this is assumed to be milliseconds. Seconds
// since epoch do not cross 1e12 until the year 33658.
const epochMillisThreshold = 1e12

const outputLayout = "2006-01-02T15:04:05.000Z07:00"

// Now is overridable in tests. Defaults to the real clock.
var Now = time.Now

// Normalize coerces v into "YYYY-MM-DDTHH:MM:SS.fffZ". Supported
// inputs: a string already in ISO-8601 form (returned unchanged), a
// number interpreted as epoch seconds or milliseconds, a time.Time,
// or a free-form date string. Anything else — including nil, an
// unparsable string, or an unsupported type — normalizes to the
// current time, per the documented fallback in spec §4.2.
func Normalize(v any) string {
	switch val := v.(type) {
	case nil:
		return nowISO()
	case string:
		return normalizeString(val)
	case time.Time:
		return toISO(val)
	case *time.Time:
		if val == nil {
			return nowISO()
		}
		return toISO(*val)
	case int:
		return normalizeNumber(float64(val))
	case int64:
		return normalizeNumber(float64(val))
	case float64:
		return normalizeNumber(val)
	case float32:
		return normalizeNumber(float64(val))
	default:
		return nowISO()
	}
}

func normalizeString(s string) string {
	if s == "" {
		return nowISO()
	}
	if isoPrefix.MatchString(s) {
		return s
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return normalizeNumber(n)
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return toISO(t)
	}
	return nowISO()
}

func normalizeNumber(n float64) string {
	var t time.Time
	if n > epochMillisThreshold {
		t = time.UnixMilli(int64(n))
	} else {
		t = time.Unix(int64(n), 0)
	}
	return toISO(t)
}

func toISO(t time.Time) string {
	return t.UTC().Format(outputLayout)
}

func nowISO() string {
	return toISO(Now())
}
