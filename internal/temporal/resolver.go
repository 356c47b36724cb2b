package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Granularity is the time precision a query is interpreted to request.
type Granularity int

const (
	GranularityNone Granularity = iota
	GranularitySecond
	GranularityMinute
	GranularityHour
)

func (g Granularity) String() string {
	switch g {
	case GranularitySecond:
		return "second"
	case GranularityMinute:
		return "minute"
	case GranularityHour:
		return "hour"
	default:
		return "none"
	}
}

// Window is an inclusive time window. Start < End is enforced by every
// constructor; a window that would violate it is simply not produced.
type Window struct {
	Start time.Time
	End   time.Time
}

var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15",
	"2006-01-02",
}

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseMoment parses one extracted literal into a KST civil timestamp.
// ISO forms are tried first; an offset-qualified instant is converted to
// KST wall-clock and the offset dropped. Returns false when nothing parses.
func ParseMoment(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if strings.Contains(layout, "Z07:00") {
			if t, err := time.Parse(layout, s); err == nil {
				return toCivil(t), true
			}
		} else {
			if t, err := time.ParseInLocation(layout, s, KST); err == nil {
				return toCivil(t), true
			}
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, KST); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toCivil rebuilds t as a KST wall-clock value with no foreign offset left.
func toCivil(t time.Time) time.Time {
	return t.In(KST)
}

// FirstMoment returns the first literal in the query that parses.
func FirstMoment(query string, now time.Time) (time.Time, bool) {
	for _, lit := range ExtractLiterals(query, now) {
		if t, ok := ParseMoment(lit); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	rangeFromTo  = regexp.MustCompile(`(.*?)부터\s+(.*?)까지`)
	rangeTilde   = regexp.MustCompile(`(.*?)~(.*)`)
	rangeBetween = regexp.MustCompile(`(?i)between\s+(.*?)\s+(?:and|to)\s+(.*)`)
)

// ResolveExplicitRange detects "X 부터 Y 까지", "X ~ Y" and
// "between X and/to Y" idioms. A window forms only when both halves yield
// a parseable literal and start < end; otherwise the idiom is treated as
// "not a range" and the next one is tried.
func ResolveExplicitRange(query string, now time.Time) (Window, bool) {
	q := strings.TrimSpace(query)
	for _, re := range []*regexp.Regexp{rangeFromTo, rangeTilde, rangeBetween} {
		m := re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		litsA := ExtractLiterals(m[1], now)
		litsB := ExtractLiterals(m[2], now)
		if len(litsA) == 0 || len(litsB) == 0 {
			continue
		}
		start, okS := ParseMoment(litsA[0])
		end, okE := ParseMoment(litsB[0])
		if okS && okE && start.Before(end) {
			return Window{Start: start, End: end}, true
		}
	}
	return Window{}, false
}

var (
	durMinutes = regexp.MustCompile(`(\d+)\s*분`)
	durHours   = regexp.MustCompile(`(?i)(\d+)\s*(?:시간|hour|hours)`)
	durDays    = regexp.MustCompile(`(?i)(\d+)\s*(?:일|day|days)`)
)

// ResolveDurationRange handles "<start> 부터 N 분/시간/일" queries.
// End is start + count·unit − 1s so the window stays inclusive. The
// returned minutes value is the window length normalized to minutes.
func ResolveDurationRange(query string, now time.Time) (Window, int, bool) {
	if !strings.Contains(query, "부터") {
		return Window{}, 0, false
	}
	start, ok := FirstMoment(query, now)
	if !ok {
		return Window{}, 0, false
	}
	after := query[strings.Index(query, "부터")+len("부터"):]

	if m := durMinutes.FindStringSubmatch(after); m != nil {
		if n, _ := strconv.Atoi(m[1]); n > 0 {
			end := start.Add(time.Duration(n)*time.Minute - time.Second)
			return Window{Start: start, End: end}, n, true
		}
	}
	if m := durHours.FindStringSubmatch(after); m != nil {
		if n, _ := strconv.Atoi(m[1]); n > 0 {
			end := start.Add(time.Duration(n)*time.Hour - time.Second)
			return Window{Start: start, End: end}, n * 60, true
		}
	}
	if m := durDays.FindStringSubmatch(after); m != nil {
		if n, _ := strconv.Atoi(m[1]); n > 0 {
			end := start.Add(time.Duration(n)*24*time.Hour - time.Second)
			return Window{Start: start, End: end}, n * 24 * 60, true
		}
	}
	return Window{}, 0, false
}

var (
	minuteToMinute   = regexp.MustCompile(`(\d{1,2})\s*분부터\s*(\d{1,2})\s*분까지`)
	minuteToElliptic = regexp.MustCompile(`분부터\s*(\d{1,2})\s*분까지`)
)

// ResolveMinuteSubrange handles "N분부터 M분까지" inside an hour named
// elsewhere in the query, plus the elliptical "분부터 M분까지" which reuses
// the base literal's own minute as N.
func ResolveMinuteSubrange(query string, now time.Time) (Window, bool) {
	base, ok := FirstMoment(query, now)
	if !ok {
		return Window{}, false
	}
	if m := minuteToMinute.FindStringSubmatch(query); m != nil {
		startMin, _ := strconv.Atoi(m[1])
		endMin, _ := strconv.Atoi(m[2])
		if w, ok := minuteWindow(base, startMin, endMin); ok {
			return w, true
		}
	}
	if m := minuteToElliptic.FindStringSubmatch(query); m != nil {
		endMin, _ := strconv.Atoi(m[1])
		if w, ok := minuteWindow(base, base.Minute(), endMin); ok {
			return w, true
		}
	}
	return Window{}, false
}

func minuteWindow(base time.Time, startMin, endMin int) (Window, bool) {
	if startMin < 0 || startMin > 59 || endMin < 0 || endMin > 59 || endMin <= startMin {
		return Window{}, false
	}
	start := time.Date(base.Year(), base.Month(), base.Day(), base.Hour(), startMin, 0, 0, KST)
	end := time.Date(base.Year(), base.Month(), base.Day(), base.Hour(), endMin, 0, 0, KST).Add(-time.Second)
	return Window{Start: start, End: end}, true
}

// Request-granularity markers. RE2 has no unicode word boundaries, so the
// Hangul-adjacent patterns anchor on the digit side only.
var (
	secondWordPattern = regexp.MustCompile(`\d{1,2}\s*초`)
	secondTimePattern = regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}\b`)
	minuteWordPattern = regexp.MustCompile(`\d{1,2}\s*시\s*\d{1,2}\s*분`)
	bareMinutePattern = regexp.MustCompile(`\b\d{1,2}\s*분`)
	minuteTimePattern = regexp.MustCompile(`(?i)(?:\b|t)\d{1,2}:\d{2}\b`)
	hourWordPattern   = regexp.MustCompile(`\d{1,2}\s*시`)
)

func secondRequested(q string) bool {
	return secondWordPattern.MatchString(q) || secondTimePattern.MatchString(q)
}

func minuteRequested(q string) bool {
	return minuteWordPattern.MatchString(q) ||
		bareMinutePattern.MatchString(q) ||
		minuteTimePattern.MatchString(q)
}

func hourRequested(q string) bool {
	if secondRequested(q) || minuteRequested(q) {
		return false
	}
	return hourWordPattern.MatchString(q)
}

// RequestedGranularity classifies the time precision a query asks for.
// Seconds win over minutes win over hours; "분의" is the elliptical
// minute marker ("14시 5분의 3초" style queries hit the second rule first).
func RequestedGranularity(query string) Granularity {
	q := strings.TrimSpace(query)
	switch {
	case secondRequested(q):
		return GranularitySecond
	case minuteRequested(q) || strings.Contains(q, "분의"):
		return GranularityMinute
	case hourRequested(q):
		return GranularityHour
	default:
		return GranularityNone
	}
}
