package score

import (
	"strings"
	"time"

	"github.com/agenthands/airwatch/internal/temporal"
)

// Scorer computes integer relevance scores for candidate documents. All
// signals are additive with no normalization; absence of a signal simply
// contributes zero, and scoring never fails.
type Scorer struct {
	W Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{W: w}
}

// Score ranks one document's raw text plus key path against the query.
// now supplies the year default for year-less Korean date literals.
func (s *Scorer) Score(query, text, key string, now time.Time) int {
	textL := strings.ToLower(text)
	keyL := strings.ToLower(key)
	total := 0

	// Base family bonus from the key path.
	switch {
	case strings.Contains(keyL, "rawdata"):
		total += s.W.PathRaw
	case strings.Contains(keyL, "minavg"), strings.Contains(keyL, "mintrend"):
		total += s.W.PathMinute
	case strings.Contains(keyL, "hourtrend"), strings.Contains(keyL, "houravg"):
		total += s.W.PathHour
	}

	// Token overlap: occurrences of each normalized query token (len >= 2).
	for _, qt := range NormalizeQueryTokens(query) {
		if len(qt) >= 2 {
			total += strings.Count(textL, qt)
		}
	}

	// Quoted field names present in the text.
	for _, f := range []string{`"temperature"`, `"humidity"`, `"gas"`, `"temp"`, `"hum"`} {
		if strings.Contains(textL, f) {
			total += s.W.FieldViewed
		}
	}

	// Query time-literals echoed verbatim in the document.
	literals := temporal.ExtractLiterals(query, now)
	for _, lit := range literals {
		if strings.Contains(textL, strings.ToLower(lit)) {
			total += s.W.LiteralEcho
		}
	}

	// Filename-timestamp alignment against the first resolvable literal.
	var target time.Time
	haveTarget := false
	for _, lit := range literals {
		if t, ok := temporal.ParseMoment(lit); ok {
			target, haveTarget = t, true
			break
		}
	}
	gran := temporal.RequestedGranularity(query)
	if key != "" && haveTarget {
		if keyDT, keyGran, ok := ParseKeyTime(key); ok {
			switch {
			case keyGran == KeyGranMinute && sameMinute(keyDT, target):
				total += s.W.KeyMinuteMatch
			case keyGran == KeyGranHour && sameHour(keyDT, target):
				total += s.W.KeyHourMatch
				if gran == temporal.GranularityHour {
					total += s.W.KeyHourIntent
				}
			case keyGran == KeyGranDay && sameDay(keyDT, target):
				total += s.W.KeyDayMatch
			}
		}
	}

	// Precision tier. The dated tier (explicit year or Korean month+day)
	// suppresses the granularity branch entirely; only one policy applies.
	rawShape := strings.Contains(textL, `"timestamp"`) &&
		(strings.Contains(textL, `"temp"`) || strings.Contains(textL, `"temperature"`))
	hasAverages := strings.Contains(textL, `"averages"`)
	hasHourly := strings.Contains(textL, `"hourly_ranges"`)
	minuteShape := hasAverages &&
		(strings.Contains(textL, `"minute"`) || strings.Contains(textL, `"timestamp"`) || strings.Contains(textL, `"calculatedat"`))

	if temporal.HasExplicitYear(query) || temporal.HasKoreanDate(query) {
		switch {
		case rawShape:
			total += s.W.DatedRaw
		case hasAverages && (strings.Contains(textL, `"minute"`) || strings.Contains(textL, `"calculatedat"`)):
			total += s.W.DatedMinute
		case hasAverages && hasHourly:
			total += s.W.DatedHour
		}
		return total
	}

	switch gran {
	case temporal.GranularitySecond:
		switch {
		case rawShape:
			total += s.W.SecondRawShape
		case strings.Contains(keyL, "rawdata"):
			total += s.W.SecondRawPath
		}
		if hasAverages {
			total += s.W.SecondAvgPenalty
		}
		if hasHourly {
			total += s.W.SecondHourPenalty
		}

	case temporal.GranularityMinute:
		switch {
		case minuteShape:
			total += s.W.MinuteAvgShape
		case strings.Contains(keyL, "minavg"), strings.Contains(keyL, "mintrend"):
			total += s.W.MinuteAvgPath
		}
		if rawShape {
			total += s.W.MinuteRawShape
		}
		if hasHourly {
			total += s.W.MinuteHourPenalty
		}

	case temporal.GranularityHour:
		hourBonusApplied := false
		switch {
		case hasAverages && hasHourly:
			total += s.W.HourAvgShape
			hourBonusApplied = true
		case strings.Contains(textL, `"hourtemp"`) || strings.Contains(textL, `"hourhum"`) || strings.Contains(textL, `"hourgas"`):
			total += s.W.HourAvgShape
			hourBonusApplied = true
		case strings.Contains(keyL, "hourtrend"), strings.Contains(keyL, "houravg"):
			total += s.W.HourAvgPath
			hourBonusApplied = true
		}
		if rawShape {
			if hourBonusApplied {
				total += s.W.HourRawPenalty
			} else {
				total += s.W.HourRawBonus
			}
		}
		if hasAverages && strings.Contains(textL, `"minute"`) {
			total += s.W.HourMinutePenalty
		}

	case temporal.GranularityNone:
		if rawShape {
			total += s.W.FlatRaw
		}
		if hasAverages && (strings.Contains(textL, `"minute"`) || strings.Contains(textL, `"timestamp"`)) {
			total += s.W.FlatMinute
		}
		if hasAverages && hasHourly {
			total += s.W.FlatHour
		}
	}

	return total
}
