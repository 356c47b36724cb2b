package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 8, 20, 10, 0, 0, 0, KST)

func TestExtractLiterals_KoreanFullForm(t *testing.T) {
	lits := ExtractLiterals("2025년 8월 11일 14시 00분 05초의 온도는?", testNow)
	require.Len(t, lits, 1)
	assert.Equal(t, "2025-08-11 14:00:05", lits[0])
}

func TestExtractLiterals_FirstPatternWins(t *testing.T) {
	// The year-qualified hour form must not also match the year-less form.
	lits := ExtractLiterals("2025년 8월 11일 14시 습도", testNow)
	require.Len(t, lits, 1)
	assert.Equal(t, "2025-08-11 14:00:00", lits[0])
}

func TestExtractLiterals_YearlessUsesCurrentYear(t *testing.T) {
	lits := ExtractLiterals("8월 11일 14시 5분 가스 농도", testNow)
	require.Len(t, lits, 1)
	assert.Equal(t, "2025-08-11 14:05:00", lits[0])
}

func TestExtractLiterals_EllipticalSecond(t *testing.T) {
	lits := ExtractLiterals("8월 11일 14시 5분의 3초 온도", testNow)
	require.Len(t, lits, 1)
	assert.Equal(t, "2025-08-11 14:05:03", lits[0])
}

func TestExtractLiterals_AMPM(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"8월 11일 오후 2시 온도", "2025-08-11 14:00:00"},
		{"8월 11일 오전 9시 30분", "2025-08-11 09:30:00"},
		{"8월 11일 오후 12시", "2025-08-11 12:00:00"},
		{"8월 11일 오전 12시", "2025-08-11 00:00:00"},
	}
	for _, tc := range cases {
		lits := ExtractLiterals(tc.query, testNow)
		require.Len(t, lits, 1, tc.query)
		assert.Equal(t, tc.want, lits[0], tc.query)
	}
}

func TestParseMoment_OffsetConvertsToKST(t *testing.T) {
	got, ok := ParseMoment("2025-08-11T05:00:05Z")
	require.True(t, ok)
	want := time.Date(2025, 8, 11, 14, 0, 5, 0, KST)
	assert.True(t, got.Equal(want))
	assert.Equal(t, 14, got.Hour())
}

func TestParseMoment_SpacedAndPartial(t *testing.T) {
	got, ok := ParseMoment("2025-08-11 14:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 8, 11, 14, 0, 0, 0, KST).Unix(), got.Unix())

	got, ok = ParseMoment("2025-08-11")
	require.True(t, ok)
	assert.Equal(t, 0, got.Hour())

	_, ok = ParseMoment("not a date")
	assert.False(t, ok)
}

func TestRequestedGranularity(t *testing.T) {
	cases := []struct {
		query string
		want  Granularity
	}{
		{"2025년 8월 11일 14시 00분 05초 온도?", GranularitySecond},
		{"8월 11일 14시 5분의 3초", GranularitySecond},
		{"14:00:05의 습도", GranularitySecond},
		{"8월 11일 14시 5분 평균", GranularityMinute},
		{"8월 11일 14시 5분의 데이터", GranularityMinute},
		{"8월 11일 오후 2시 평균 온도", GranularityHour},
		{"2025년 8월 11일 14시", GranularityHour},
		{"요즘 온도 어때", GranularityNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RequestedGranularity(tc.query), tc.query)
	}
}

func TestResolveExplicitRange(t *testing.T) {
	w, ok := ResolveExplicitRange("2025-08-11 14:00 부터 2025-08-11 14:30 까지 평균", testNow)
	require.True(t, ok)
	assert.True(t, w.Start.Equal(time.Date(2025, 8, 11, 14, 0, 0, 0, KST)))
	assert.True(t, w.End.Equal(time.Date(2025, 8, 11, 14, 30, 0, 0, KST)))
}

func TestResolveExplicitRange_RejectsInverted(t *testing.T) {
	_, ok := ResolveExplicitRange("2025-08-11 14:30 부터 2025-08-11 14:00 까지", testNow)
	assert.False(t, ok)
}

func TestResolveDurationRange_InclusiveEnd(t *testing.T) {
	w, minutes, ok := ResolveDurationRange("2025-08-11 14:00 부터 30분 평균", testNow)
	require.True(t, ok)
	assert.Equal(t, 30, minutes)
	assert.True(t, w.Start.Equal(time.Date(2025, 8, 11, 14, 0, 0, 0, KST)))
	assert.True(t, w.End.Equal(time.Date(2025, 8, 11, 14, 29, 59, 0, KST)))
}

func TestResolveDurationRange_Hours(t *testing.T) {
	w, minutes, ok := ResolveDurationRange("2025-08-11 14:00 부터 2시간", testNow)
	require.True(t, ok)
	assert.Equal(t, 120, minutes)
	assert.True(t, w.End.Equal(time.Date(2025, 8, 11, 15, 59, 59, 0, KST)))
}

func TestResolveMinuteSubrange(t *testing.T) {
	w, ok := ResolveMinuteSubrange("2025년 8월 11일 14시 5분부터 20분까지 온도", testNow)
	require.True(t, ok)
	assert.True(t, w.Start.Equal(time.Date(2025, 8, 11, 14, 5, 0, 0, KST)))
	assert.True(t, w.End.Equal(time.Date(2025, 8, 11, 14, 19, 59, 0, KST)))
}

func TestResolveMinuteSubrange_RejectsInverted(t *testing.T) {
	_, ok := ResolveMinuteSubrange("2025년 8월 11일 14시 20분부터 5분까지", testNow)
	assert.False(t, ok)
}

func TestHasExplicitYear(t *testing.T) {
	assert.True(t, HasExplicitYear("2025년 8월 11일"))
	assert.False(t, HasExplicitYear("8월 11일 14시"))
}
