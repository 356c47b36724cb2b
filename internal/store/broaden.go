package store

import (
	"context"
	"sort"
	"time"

	"github.com/agenthands/airwatch/internal/score"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

// Broadening scans: when the bounded candidate set holds no qualifying
// evidence, the engine asks for a wider walk of the dated corpus folders.
// These stay cheap because keys carry their date, so a scan touches one
// family under one day prefix.

// FindExactSecond walks the raw files of target's day for a sample
// timestamped at exactly target. The returned tag is the object key.
func (s *Store) FindExactSecond(ctx context.Context, target time.Time) (*sensor.Reading, string, error) {
	docs, err := s.scanFamily(ctx, "rawdata/", target)
	if err != nil {
		return nil, "", err
	}
	for _, d := range docs {
		if d.Kind != sensor.KindRawList {
			continue
		}
		rows := sensor.ExtractRows(d.Kind, d.JSON)
		for i := range rows {
			if rows[i].Timestamp.Equal(target) {
				return &rows[i], d.Key, nil
			}
		}
	}
	return nil, "", nil
}

// FindMinuteAvgDoc walks the minute-average files of target's day for a
// key whose embedded timestamp matches target's minute bucket.
func (s *Store) FindMinuteAvgDoc(ctx context.Context, target time.Time) (*sensor.Document, error) {
	docs, err := s.scanFamily(ctx, "minavg/", target)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.Kind == sensor.KindMinuteAvg && score.MatchesMinute(d.Key, target) {
			return d, nil
		}
	}
	return nil, nil
}

// FindHourAvgDoc walks the hour-average files of target's day for a key
// whose embedded timestamp matches target's hour bucket.
func (s *Store) FindHourAvgDoc(ctx context.Context, target time.Time) (*sensor.Document, error) {
	docs, err := s.scanFamily(ctx, "houravg/", target)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.Kind == sensor.KindHourAvg && score.MatchesHour(d.Key, target) {
			return d, nil
		}
	}
	return nil, nil
}

// FetchRowsInWindow re-collects raw rows covering [start, end], one day
// folder at a time. Rows come back timestamp-sorted; the tag is the first
// contributing object key.
func (s *Store) FetchRowsInWindow(ctx context.Context, start, end time.Time) ([]sensor.Reading, string, error) {
	var rows []sensor.Reading
	tag := ""
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, temporal.KST)
	for day := first; !day.After(end); day = day.AddDate(0, 0, 1) {
		docs, err := s.scanFamily(ctx, "rawdata/", day)
		if err != nil {
			return rows, tag, err
		}
		for _, d := range docs {
			if d.Kind != sensor.KindRawList {
				continue
			}
			got := sensor.SelectInRange(sensor.ExtractRows(d.Kind, d.JSON), start, end)
			if len(got) == 0 {
				continue
			}
			if tag == "" {
				tag = d.Key
			}
			rows = append(rows, got...)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return rows, tag, nil
}

// scanFamily fetches every document of one family under the day folder
// of target. Scoring is irrelevant here so the query is empty.
func (s *Store) scanFamily(ctx context.Context, family string, target time.Time) ([]*sensor.Document, error) {
	prefix := s.s3cfg.Prefix + family + target.Format("20060102") + "/"
	keys, err := s.listKeys(ctx, prefix, s.retrieval.MaxFilesToScan)
	if err != nil {
		return nil, err
	}
	return s.fetchAll(ctx, keys, ""), nil
}
