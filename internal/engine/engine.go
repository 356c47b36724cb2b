package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agenthands/airwatch/internal/score"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/session"
	"github.com/agenthands/airwatch/internal/temporal"
)

// Source is the exact-match broadening collaborator: full corpus scans
// used only when the bounded candidate set yields no qualifying evidence.
type Source interface {
	// FindExactSecond scans raw-sample documents for a reading at exactly
	// target. Returns nil when the corpus holds none.
	FindExactSecond(ctx context.Context, target time.Time) (*sensor.Reading, string, error)
	// FindMinuteAvgDoc scans for a minute-aggregate document whose key
	// timestamp matches target at minute precision.
	FindMinuteAvgDoc(ctx context.Context, target time.Time) (*sensor.Document, error)
	// FindHourAvgDoc scans for an hour-aggregate document whose key
	// timestamp matches target at hour precision.
	FindHourAvgDoc(ctx context.Context, target time.Time) (*sensor.Document, error)
	// FetchRowsInWindow re-collects raw rows for a window, for detail
	// replays whose session context no longer holds rows.
	FetchRowsInWindow(ctx context.Context, start, end time.Time) ([]sensor.Reading, string, error)
}

// Engine turns a query plus scored candidate documents into a structured
// answer. It is synchronous pure computation over already-fetched inputs;
// the Source is only consulted to broaden an exact-match search.
type Engine struct {
	source Source
	now    func() time.Time
}

func New(source Source) *Engine {
	return &Engine{source: source, now: temporal.Now}
}

var detailWords = []string{"상세", "자세히", "자세하게", "상세히", "원본", "목록"}

// WantsDetail reports whether the query asks to replay raw samples.
func WantsDetail(query string) bool {
	q := strings.TrimSpace(query)
	for _, w := range detailWords {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func wantedAspects(q string) Aspects {
	var a Aspects
	if strings.Contains(q, "평균") {
		a.Avg = true
	}
	if strings.Contains(q, "최대") || strings.Contains(q, "최고") {
		a.Max = true
	}
	if strings.Contains(q, "최소") || strings.Contains(q, "최저") {
		a.Min = true
	}
	if strings.Contains(q, "처음") || strings.Contains(q, "첫") {
		a.First = true
	}
	if strings.Contains(q, "마지막") || strings.Contains(q, "최종") || strings.Contains(q, "최근") {
		a.Last = true
	}
	return a
}

func wantsTrend(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(query, "추이") || strings.Contains(q, "trend") ||
		strings.Contains(q, "증감") || strings.Contains(query, "변화")
}

// Detail serves a "상세/원본" follow-up from the session's last window.
// Returns nil when the query is not a detail request.
func (e *Engine) Detail(ctx context.Context, sess *session.Session, query string) *Result {
	if !WantsDetail(query) {
		return nil
	}
	last := sess.Last
	if last == nil || last.Start.IsZero() || last.End.IsZero() {
		return nil
	}
	if len(last.Rows) == 0 {
		rows, tag, err := e.source.FetchRowsInWindow(ctx, last.Start, last.End)
		if err != nil || len(rows) == 0 {
			return &Result{Kind: ResultNoContext}
		}
		if tag == "" {
			tag = last.Tag
		}
		label := last.Label
		if label == "" {
			label = "요청 구간"
		}
		sess.SetLast(orRange(last.Window), last.Start, last.End, rows, tag, label)
		last = sess.Last
	}
	return &Result{
		Kind:   ResultDetail,
		Tag:    orUnknownTag(last.Tag),
		Window: temporal.Window{Start: last.Start, End: last.End},
		Label:  orLabel(last.Label, "요청 구간"),
		Rows:   last.Rows,
	}
}

// Answer resolves the query against the candidate documents. A nil result
// means the query has no exact or window answer here and the caller
// should fall through to generative answering over the raw context.
func (e *Engine) Answer(ctx context.Context, sess *session.Session, query string, docs []*sensor.Document) *Result {
	now := e.now()
	needFields := score.DetectFields(query)
	gran := temporal.RequestedGranularity(query)
	target, haveTarget := temporal.FirstMoment(query, now)

	// Range idioms resolve before the point paths: an endpoint that
	// happens to spell out seconds must not hijack the exact-second path.
	if r := e.answerWindow(sess, query, docs, now, needFields); r != nil {
		return r
	}

	if gran == temporal.GranularitySecond && haveTarget {
		return e.answerExactSecond(ctx, sess, docs, target, needFields)
	}
	if (gran == temporal.GranularityMinute || strings.Contains(query, "분의")) && haveTarget {
		return e.answerMinute(ctx, sess, docs, target, needFields)
	}
	if gran == temporal.GranularityHour && haveTarget {
		return e.answerHour(ctx, sess, docs, target, needFields)
	}

	return nil
}

// answerExactSecond accepts only a reading whose timestamp equals the
// resolved moment. No nearest-neighbor fallback: first the candidates,
// then a full-corpus broadening, then a definitive "no data".
func (e *Engine) answerExactSecond(ctx context.Context, sess *session.Session, docs []*sensor.Document, target time.Time, needFields map[string]bool) *Result {
	for _, d := range docs {
		if d.Kind != sensor.KindRawList {
			continue
		}
		rows := sensor.ExtractRows(d.Kind, d.JSON)
		for i := range rows {
			if rows[i].Timestamp.Equal(target) {
				minuteRows, mStart, mEnd := sensor.SelectInMinute(rows, target)
				sess.SetLast("minute", mStart, mEnd, minuteRows, orUnknownTag(d.Tag), "해당 분")
				return &Result{
					Kind:       ResultPoint,
					Tag:        orUnknownTag(d.Tag),
					NeedFields: needFields,
					Timestamp:  target,
					Reading:    &rows[i],
				}
			}
		}
	}

	row, tag, err := e.source.FindExactSecond(ctx, target)
	if err == nil && row != nil {
		sess.SetLast("second", target, target, []sensor.Reading{*row}, orUnknownTag(tag), "해당 초")
		return &Result{
			Kind:       ResultPoint,
			Tag:        orUnknownTag(tag),
			NeedFields: needFields,
			Timestamp:  target,
			Reading:    row,
		}
	}

	return &Result{
		Kind:        ResultNoData,
		Timestamp:   target,
		Granularity: temporal.GranularitySecond,
	}
}

// answerMinute prefers a minute-aggregate document whose key timestamp
// matches the bucket; deriving the minute from raw samples is the
// fallback, not the primary path.
func (e *Engine) answerMinute(ctx context.Context, sess *session.Session, docs []*sensor.Document, target time.Time, needFields map[string]bool) *Result {
	for _, d := range docs {
		if d.Kind == sensor.KindMinuteAvg && score.MatchesMinute(d.Key, target) {
			return &Result{Kind: ResultMinuteAggregate, Tag: orUnknownTag(d.Tag), NeedFields: needFields, Doc: d}
		}
	}
	if matched, err := e.source.FindMinuteAvgDoc(ctx, target); err == nil && matched != nil {
		return &Result{Kind: ResultMinuteAggregate, Tag: orUnknownTag(matched.Tag), NeedFields: needFields, Doc: matched}
	}

	wStart := time.Date(target.Year(), target.Month(), target.Day(), target.Hour(), target.Minute(), 0, 0, temporal.KST)
	wEnd := wStart.Add(time.Minute - time.Second)
	exactName := fmt.Sprintf("%s_rawdata.json", target.Format("200601021504"))

	// Raw file named for the exact minute first, then any raw candidate.
	for _, exactOnly := range []bool{true, false} {
		for _, d := range docs {
			if d.Kind != sensor.KindRawList {
				continue
			}
			if exactOnly && !strings.Contains(d.Key, exactName) {
				continue
			}
			rows := sensor.ExtractRows(d.Kind, d.JSON)
			minuteRows := sensor.SelectInRange(rows, wStart, wEnd)
			if len(minuteRows) == 0 {
				continue
			}
			sess.SetLast("minute", wStart, wEnd, minuteRows, orUnknownTag(d.Tag), "해당 분")
			return &Result{
				Kind:       ResultWindow,
				Tag:        orUnknownTag(d.Tag),
				NeedFields: needFields,
				Window:     temporal.Window{Start: wStart, End: wEnd},
				Label:      "해당 분",
				Rows:       minuteRows,
				Stats:      sensor.ComputeStats(minuteRows),
			}
		}
	}

	return &Result{
		Kind:        ResultNoData,
		Timestamp:   target,
		Granularity: temporal.GranularityMinute,
	}
}

// answerHour prefers a matching hour-aggregate document; falling back to
// aggregating raw samples over the hour window.
func (e *Engine) answerHour(ctx context.Context, sess *session.Session, docs []*sensor.Document, target time.Time, needFields map[string]bool) *Result {
	var matched *sensor.Document
	for _, d := range docs {
		if d.Kind == sensor.KindHourAvg && score.MatchesHour(d.Key, target) {
			matched = d
			break
		}
	}
	if matched == nil {
		if found, err := e.source.FindHourAvgDoc(ctx, target); err == nil && found != nil {
			matched = found
		}
	}
	if matched != nil {
		return &Result{Kind: ResultHourAggregate, Tag: orUnknownTag(matched.Tag), NeedFields: needFields, Doc: matched}
	}

	hStart := time.Date(target.Year(), target.Month(), target.Day(), target.Hour(), 0, 0, 0, temporal.KST)
	hEnd := hStart.Add(time.Hour - time.Second)

	for _, d := range docs {
		if d.Kind != sensor.KindRawList {
			continue
		}
		rows := sensor.ExtractRows(d.Kind, d.JSON)
		hourRows := sensor.SelectInRange(rows, hStart, hEnd)
		if len(hourRows) == 0 {
			continue
		}
		sess.SetLast("hour", hStart, hEnd, hourRows, orUnknownTag(d.Tag), "해당 시간")
		return &Result{
			Kind:       ResultWindow,
			Tag:        orUnknownTag(d.Tag),
			NeedFields: needFields,
			Window:     temporal.Window{Start: hStart, End: hEnd},
			Label:      "해당 시간",
			Rows:       hourRows,
			Stats:      sensor.ComputeStats(hourRows),
		}
	}

	return &Result{
		Kind:        ResultNoData,
		Timestamp:   target,
		Granularity: temporal.GranularityHour,
	}
}

// answerWindow resolves range idioms: the minute-to-minute sub-range, the
// explicit "부터~까지"/"~"/"between" range, then the duration form. The
// window is inclusive on both ends; a range that cannot form is simply
// not a range, and the query falls through to generative answering.
func (e *Engine) answerWindow(sess *session.Session, query string, docs []*sensor.Document, now time.Time, needFields map[string]bool) *Result {
	window, label, ok := resolveAnyWindow(query, now)
	if !ok {
		return nil
	}

	rows, tag := collectRows(docs, window.Start, window.End)
	if len(rows) == 0 {
		return &Result{
			Kind:   ResultNoData,
			Window: window,
			Label:  label,
		}
	}

	result := &Result{
		Kind:        ResultWindow,
		Tag:         orUnknownTag(tag),
		NeedFields:  needFields,
		Window:      window,
		Label:       label,
		Rows:        rows,
		Stats:       sensor.ComputeStats(rows),
		Wants:       wantedAspects(query),
		ShowSamples: WantsDetail(query),
	}

	if wantsTrend(query) {
		span := window.End.Sub(window.Start) + time.Second
		prevStart := window.Start.Add(-span)
		prevEnd := window.Start.Add(-time.Second)
		prevRows, _ := collectRows(docs, prevStart, prevEnd)
		if prevStats := sensor.ComputeStats(prevRows); prevStats != nil {
			result.Trend = sensor.CompareTrend(result.Stats, prevStats)
		}
	}

	sess.SetLast("range", window.Start, window.End, rows, result.Tag, label)
	return result
}

func resolveAnyWindow(query string, now time.Time) (temporal.Window, string, bool) {
	if w, ok := temporal.ResolveMinuteSubrange(query, now); ok {
		return w, "분→분 구간", true
	}
	if w, ok := temporal.ResolveExplicitRange(query, now); ok {
		return w, "요청 구간", true
	}
	if w, _, ok := temporal.ResolveDurationRange(query, now); ok {
		return w, "요청 구간", true
	}
	return temporal.Window{}, "", false
}

// collectRows extracts and merges in-window readings from every document
// that could plausibly hold samples: any classified shape, plus unknowns
// living under one of the data folders.
func collectRows(docs []*sensor.Document, start, end time.Time) ([]sensor.Reading, string) {
	var all []sensor.Reading
	tag := ""
	for _, d := range docs {
		if d.Kind == sensor.KindUnknown && !keyLooksLikeData(d.Key) {
			continue
		}
		rows := sensor.ExtractRows(d.Kind, d.JSON)
		subset := sensor.SelectInRange(rows, start, end)
		if len(subset) == 0 {
			continue
		}
		all = append(all, subset...)
		if tag == "" {
			tag = d.Tag
		}
	}
	// Merged rows from several documents need a re-sort.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all, tag
}

func keyLooksLikeData(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range []string{"rawdata", "houravg", "minavg", "mintrend"} {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

func orUnknownTag(tag string) string {
	if tag == "" {
		return "D?"
	}
	return tag
}

func orLabel(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}

func orRange(window string) string {
	if window == "" {
		return "range"
	}
	return window
}
