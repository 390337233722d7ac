package validation

import (
	"strings"
	"time"
)

// dateLayouts are tried in order for string-valued dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDateValue interprets the date-like values a payload can carry:
// native time.Time, a timestamp string, or epoch milliseconds.
func parseDateValue(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case float64:
		return time.UnixMilli(int64(d)), true
	case int64:
		return time.UnixMilli(d), true
	case int:
		return time.UnixMilli(int64(d)), true
	}
	return time.Time{}, false
}
