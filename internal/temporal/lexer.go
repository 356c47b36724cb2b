package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// KST is the fixed civil reference for every timestamp in the system.
// Source offsets are converted into it and then discarded; naive local
// timestamps are assumed to already be KST wall-clock.
var KST = time.FixedZone("KST", 9*60*60)

var isoPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?`)

var spacedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
}

// Korean date-time grammar. Patterns are ordered most-specific first and
// only the first matching pattern contributes a literal, so a query like
// "2025년 8월 11일 14시" never also matches the year-less hour pattern.
type koreanForm int

const (
	formYear   koreanForm = iota // Y월...일[시[분[초]]] with explicit year
	formOfSec                    // M월 D일 H시 M분의 S초 (elliptical 의)
	formAMPM                     // M월 D일 오전|오후 H시[분[초]]
	formNoYear                   // M월 D일 H시[분[초]], current year assumed
)

type koreanPattern struct {
	re   *regexp.Regexp
	form koreanForm
}

var koreanPatterns = []koreanPattern{
	{regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(\d{1,2})\s*시\s*(\d{1,2})\s*분\s*(\d{1,2})\s*초`), formYear},
	{regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(\d{1,2})\s*시\s*(\d{1,2})\s*분`), formYear},
	{regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(\d{1,2})\s*시`), formYear},
	{regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`), formYear},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(\d{1,2})\s*시\s*(\d{1,2})\s*분의?\s*(\d{1,2})\s*초`), formOfSec},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(오전|오후)\s*(\d{1,2})\s*시\s*(\d{1,2})\s*분\s*(\d{1,2})\s*초`), formAMPM},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(오전|오후)\s*(\d{1,2})\s*시\s*(\d{1,2})\s*분`), formAMPM},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(오전|오후)\s*(\d{1,2})\s*시`), formAMPM},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(\d{1,2})\s*시\s*(\d{1,2})\s*분\s*(\d{1,2})\s*초`), formNoYear},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(\d{1,2})\s*시\s*(\d{1,2})\s*분`), formNoYear},
	{regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일\s*(\d{1,2})\s*시`), formNoYear},
}

// ExtractLiterals pulls every recognizable date-time literal out of free
// text and normalizes each to "YYYY-MM-DD HH:MM:SS". ISO-8601 literals are
// kept verbatim (the resolver converts their offsets), spaced forms are
// kept verbatim, and Korean forms are normalized here. now supplies the
// calendar year for year-less Korean forms.
func ExtractLiterals(s string, now time.Time) []string {
	type span struct{ lo, hi int }
	var taken []span
	var out []string
	// Patterns run most-specific first; a later pattern must not re-match
	// a fragment of text an earlier one already consumed ("2025-08-11"
	// inside "2025-08-11 14:00").
	add := func(lo, hi int) {
		for _, sp := range taken {
			if lo < sp.hi && hi > sp.lo {
				return
			}
		}
		taken = append(taken, span{lo, hi})
		out = append(out, s[lo:hi])
	}
	for _, loc := range isoPattern.FindAllStringIndex(s, -1) {
		add(loc[0], loc[1])
	}
	for _, p := range spacedPatterns {
		for _, loc := range p.FindAllStringIndex(s, -1) {
			add(loc[0], loc[1])
		}
	}

	for _, kp := range koreanPatterns {
		m := kp.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		out = append(out, normalizeKorean(m[1:], kp.form, now))
		break // first matching pattern wins
	}
	return out
}

func normalizeKorean(groups []string, form koreanForm, now time.Time) string {
	num := func(i int) int {
		if i >= len(groups) || groups[i] == "" {
			return 0
		}
		n, _ := strconv.Atoi(groups[i])
		return n
	}

	var y, mo, d, h, mi, se int
	switch form {
	case formYear:
		y, mo, d = num(0), num(1), num(2)
		h, mi, se = num(3), num(4), num(5)
	case formOfSec:
		y = now.Year()
		mo, d = num(0), num(1)
		h, mi, se = num(2), num(3), num(4)
	case formAMPM:
		y = now.Year()
		mo, d = num(0), num(1)
		h, mi, se = num(3), num(4), num(5)
		switch groups[2] {
		case "오후":
			if h != 12 {
				h += 12
			}
		case "오전":
			if h == 12 {
				h = 0
			}
		}
	case formNoYear:
		y = now.Year()
		mo, d = num(0), num(1)
		h, mi, se = num(2), num(3), num(4)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", y, mo, d, h, mi, se)
}

// HasKoreanDate reports whether the query spells out a month+day in Korean
// ("8월 11일"). The scorer branches on this together with HasExplicitYear.
var koreanDatePattern = regexp.MustCompile(`\d{1,2}\s*월\s*\d{1,2}\s*일`)

func HasKoreanDate(query string) bool {
	return koreanDatePattern.MatchString(query)
}

var explicitYearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// HasExplicitYear reports whether the query carries a literal 4-digit year.
func HasExplicitYear(query string) bool {
	return explicitYearPattern.MatchString(query)
}

// Now returns the current wall-clock time in the fixed civil reference.
func Now() time.Time {
	return time.Now().In(KST)
}
