package score

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agenthands/airwatch/internal/temporal"
)

// KeyGranularity is the precision of a timestamp recovered from a key path.
type KeyGranularity int

const (
	KeyGranNone KeyGranularity = iota
	KeyGranMinute
	KeyGranHour
	KeyGranDay
)

// RE2 has no lookahead, so the "not followed by a digit" rules from the
// key grammar are expressed by consuming one non-digit (or end of string)
// in a non-capturing group.
var (
	keyCompactMinute = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})[_-]?(\d{2})(\d{2})`)
	keyCompactHour   = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})(\d{2})(?:[^0-9]|$)`)
	keyISOHour       = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})t(\d{2})(?::(\d{2}))?`)
	keyISODate       = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})(?:[^0-9:]|$)`)
)

// ParseKeyTime recovers a timestamp clue from a key path, in priority
// order: YYYYMMDD[_-]HHMM > YYYYMMDDHH > YYYY-MM-DDTHH[:MM] > YYYY-MM-DD.
// Keys under hourtrend/houravg force the compact-minute form down to hour
// precision, since those folders encode the bucket hour plus a sequence.
func ParseKeyTime(key string) (time.Time, KeyGranularity, bool) {
	base := strings.ToLower(key)

	if m := keyCompactMinute.FindStringSubmatch(base); m != nil {
		y, mo, d, hh, mm := atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5])
		if strings.Contains(base, "hourtrend") || strings.Contains(base, "houravg") {
			return civil(y, mo, d, hh, 0), KeyGranHour, true
		}
		return civil(y, mo, d, hh, mm), KeyGranMinute, true
	}

	if m := keyCompactHour.FindStringSubmatch(base); m != nil {
		y, mo, d, hh := atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])
		return civil(y, mo, d, hh, 0), KeyGranHour, true
	}

	if m := keyISOHour.FindStringSubmatch(base); m != nil {
		y, mo, d, hh := atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])
		if m[5] != "" {
			return civil(y, mo, d, hh, atoi(m[5])), KeyGranMinute, true
		}
		return civil(y, mo, d, hh, 0), KeyGranHour, true
	}

	if m := keyISODate.FindStringSubmatch(base); m != nil {
		y, mo, d := atoi(m[1]), atoi(m[2]), atoi(m[3])
		return civil(y, mo, d, 0, 0), KeyGranDay, true
	}

	return time.Time{}, KeyGranNone, false
}

func civil(y int, mo, d, h, mi int) time.Time {
	return time.Date(y, time.Month(mo), d, h, mi, 0, 0, temporal.KST)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func sameMinute(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute()
}

func sameHour(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day() &&
		a.Hour() == b.Hour()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// MatchesMinute reports whether a key's timestamp hits target at minute
// precision. Used by the exact-match resolution paths.
func MatchesMinute(key string, target time.Time) bool {
	kt, gran, ok := ParseKeyTime(key)
	return ok && gran == KeyGranMinute && sameMinute(kt, target)
}

// MatchesHour reports whether a key's timestamp hits target at hour
// precision.
func MatchesHour(key string, target time.Time) bool {
	kt, gran, ok := ParseKeyTime(key)
	return ok && gran == KeyGranHour && sameHour(kt, target)
}
