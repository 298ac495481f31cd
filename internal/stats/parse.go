package stats

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lepinkainen/concierge/internal/record"
)

var (
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
	clockDuration = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	unitDuration  = regexp.MustCompile(`([\d.]+)\s*(d|day|days|h|hr|hrs|hour|hours|m|min|mins|minute|minutes)$`)
)

// parseLeadingFloat reads the number at the start of s, ignoring anything
// after it, like spreadsheet cells such as "4.5 stars".
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToNumber converts a cell to a number. Thousands separators are ignored;
// empty or unparseable cells count as 0.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) {
			return 0
		}
		return n
	case bool:
		return 0
	}
	s := strings.ReplaceAll(record.FormatValue(v), ",", "")
	f, ok := parseLeadingFloat(s)
	if !ok {
		return 0
	}
	return f
}

// ParsePercent converts "87%", "87" or 87 to a value clamped to 0..100.
func ParsePercent(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	default:
		s := strings.ReplaceAll(strings.TrimSpace(record.FormatValue(v)), "%", "")
		parsed, ok := parseLeadingFloat(s)
		if !ok {
			return 0
		}
		f = parsed
	}
	return math.Max(0, math.Min(100, f))
}

// ParseDurationHours converts a duration cell to hours. It accepts "H:MM",
// a number followed by a day, hour or minute unit, or a bare number of hours.
func ParseDurationHours(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	}

	s := strings.ToLower(strings.TrimSpace(record.FormatValue(v)))
	if s == "" {
		return 0
	}
	if m := clockDuration.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		mins, _ := strconv.ParseFloat(m[2], 64)
		return h + mins/60
	}
	if m := unitDuration.FindStringSubmatch(s); m != nil {
		if n, ok := parseLeadingFloat(m[1]); ok {
			switch m[2] {
			case "d", "day", "days":
				return n * 24
			case "h", "hr", "hrs", "hour", "hours":
				return n
			default:
				return n / 60
			}
		}
	}
	f, _ := parseLeadingFloat(s)
	return f
}

// firstPresent returns the value of the first key present with a non-nil
// value.
func firstPresent(rec *record.Record, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec.Get(k); ok && v != nil {
			return v
		}
	}
	return nil
}

// firstSet returns the value of the first key holding a truthy value.
func firstSet(rec *record.Record, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec.Get(k); ok && record.Truthy(v) {
			return v
		}
	}
	return nil
}
