package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

var scoreNow = time.Date(2025, 8, 20, 10, 0, 0, 0, temporal.KST)

func TestParseKeyTime(t *testing.T) {
	cases := []struct {
		key      string
		wantGran KeyGranularity
		wantHour int
		wantMin  int
	}{
		{"rawdata/20250811/202508111400_rawdata.json", KeyGranMinute, 14, 0},
		{"minavg/20250811/202508111405_minavg.json", KeyGranMinute, 14, 5},
		{"houravg/20250811/2025081114_houravg.json", KeyGranHour, 14, 0},
		// Bucket hour plus sequence: minute digits are not a real minute.
		{"hourtrend/20250811/202508111400_hourtrend.json", KeyGranHour, 14, 0},
		{"data/2025-08-11t14:05_summary.json", KeyGranMinute, 14, 5},
		{"data/2025-08-11t14_summary.json", KeyGranHour, 14, 0},
		{"rawdata/2025-08-11/blob.json", KeyGranDay, 0, 0},
	}
	for _, tc := range cases {
		got, gran, ok := ParseKeyTime(tc.key)
		require.True(t, ok, tc.key)
		assert.Equal(t, tc.wantGran, gran, tc.key)
		assert.Equal(t, 2025, got.Year(), tc.key)
		assert.Equal(t, tc.wantHour, got.Hour(), tc.key)
		assert.Equal(t, tc.wantMin, got.Minute(), tc.key)
	}

	_, _, ok := ParseKeyTime("no-digits-here.json")
	assert.False(t, ok)
}

func TestMatchesMinuteAndHour(t *testing.T) {
	target := time.Date(2025, 8, 11, 14, 5, 30, 0, temporal.KST)
	assert.True(t, MatchesMinute("minavg/20250811/202508111405_minavg.json", target))
	assert.False(t, MatchesMinute("minavg/20250811/202508111406_minavg.json", target))
	assert.True(t, MatchesHour("houravg/20250811/2025081114_houravg.json", target))
	assert.False(t, MatchesHour("houravg/20250811/2025081115_houravg.json", target))
	// Minute-precision keys never satisfy an hour match.
	assert.False(t, MatchesHour("minavg/20250811/202508111405_minavg.json", target))
}

func TestDetectFields(t *testing.T) {
	got := DetectFields("어제 온도랑 습도 알려줘")
	assert.True(t, got[sensor.FieldTemperature])
	assert.True(t, got[sensor.FieldHumidity])
	assert.False(t, got[sensor.FieldGas])

	got = DetectFields("CO2 ppm?")
	assert.True(t, got[sensor.FieldGas])

	assert.Empty(t, DetectFields("안녕하세요"))
}

func TestNormalizeQueryTokens(t *testing.T) {
	tokens := NormalizeQueryTokens("온도 temp 가스")
	assert.Equal(t, []string{"temperature", "temperature", "gas"}, tokens)
}

func TestScore_MinuteAverageOutranksRawForMinuteQuery(t *testing.T) {
	s := NewScorer(DefaultWeights())
	query := "14시 5분 온도 평균"

	minDoc := `{"averages":{"temperature":24.3},"minute":"2025-08-11 14:05"}`
	rawDoc := `[{"timestamp":"2025-08-11 14:05:01","temp":24.1,"hum":55.0,"gas":620}]`

	minScore := s.Score(query, minDoc, "minavg/20250811/202508111405_minavg.json", scoreNow)
	rawScore := s.Score(query, rawDoc, "rawdata/20250811/202508111405_rawdata.json", scoreNow)

	assert.Greater(t, minScore, rawScore)
}

func TestScore_DatedTierPrefersRaw(t *testing.T) {
	s := NewScorer(DefaultWeights())
	query := "2025년 8월 11일 14시 00분 05초 온도?"

	rawDoc := `[{"timestamp":"2025-08-11 14:00:05","temp":24.1,"hum":55.0,"gas":620}]`
	hourDoc := `{"averages":{"temperature":24.5},"hourly_ranges":{},"trends":{}}`

	rawScore := s.Score(query, rawDoc, "rawdata/20250811/202508111400_rawdata.json", scoreNow)
	hourScore := s.Score(query, hourDoc, "houravg/20250811/2025081114_houravg.json", scoreNow)

	assert.Greater(t, rawScore, hourScore)
}

func TestScore_KeyTimeAlignmentDominates(t *testing.T) {
	s := NewScorer(DefaultWeights())
	query := "8월 11일 오후 2시 평균 온도"

	doc := `{"timestamp":"2025-08-11 14:00:00","hourtemp":24.5,"hourhum":54.0,"hourgas":600.0}`
	aligned := s.Score(query, doc, "houravg/20250811/2025081114_houravg.json", scoreNow)
	offHour := s.Score(query, doc, "houravg/20250811/2025081115_houravg.json", scoreNow)

	// The matching bucket hour carries the match bonus plus the
	// hour-intent bonus on top of it.
	assert.GreaterOrEqual(t, aligned-offHour, DefaultWeights().KeyHourMatch+DefaultWeights().KeyHourIntent)
}

func TestScore_LiteralEcho(t *testing.T) {
	s := NewScorer(DefaultWeights())
	query := "2025-08-11 14:00:05 가스 농도"

	with := s.Score(query, `{"timestamp":"2025-08-11 14:00:05","gas":620}`, "", scoreNow)
	without := s.Score(query, `{"timestamp":"2025-08-11 15:00:05","gas":620}`, "", scoreNow)

	assert.Greater(t, with, without)
}
