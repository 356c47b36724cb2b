package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/agenthands/airwatch/internal/score"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

// turnRecord is the persisted shape of one chat turn. The sensor_data
// entries carry the documents the answer was computed from, so later
// turns in the session can resolve the same moment without re-scanning
// the data bucket.
type turnRecord struct {
	SessionID  string      `json:"session_id"`
	TurnID     int         `json:"turn_id"`
	Timestamp  string      `json:"timestamp"`
	Query      string      `json:"query"`
	Answer     string      `json:"answer"`
	Route      string      `json:"route"`
	SensorData []loggedDoc `json:"sensor_data,omitempty"`
}

type loggedDoc struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// SaveTurn writes one turn record under the session's log folder.
func (s *Store) SaveTurn(ctx context.Context, sessionID string, turnID int, query, answer, routeName string, docs []*sensor.Document) error {
	rec := turnRecord{
		SessionID: sessionID,
		TurnID:    turnID,
		Timestamp: s.now().Format(time.RFC3339),
		Query:     query,
		Answer:    answer,
		Route:     routeName,
	}
	for _, d := range docs {
		rec.SensorData = append(rec.SensorData, loggedDoc{
			Key:  d.Key,
			Kind: d.Kind.String(),
			Text: d.Text,
		})
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal turn record: %w", err)
	}
	key := fmt.Sprintf("%s%s/turn_%03d.json", s.s3cfg.LogPrefix, sessionID, turnID)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3cfg.LogBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save turn log '%s': %w", key, err)
	}
	return nil
}

// FindLoggedSensorData looks through the session's prior turn logs for a
// document that already covers target at the requested granularity: a
// raw file holding the exact second, or an aggregate whose key matches
// the minute or hour bucket. Returns nil when no logged document serves.
func (s *Store) FindLoggedSensorData(ctx context.Context, sessionID string, target time.Time, gran temporal.Granularity) (*sensor.Document, error) {
	prefix := fmt.Sprintf("%s%s/", s.s3cfg.LogPrefix, sessionID)
	keys, err := s.listLogKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	// Newest turn first: later answers supersede earlier ones.
	for i := len(keys) - 1; i >= 0; i-- {
		rec, err := s.readTurnRecord(ctx, keys[i])
		if err != nil {
			continue
		}
		for _, entry := range rec.SensorData {
			doc := &sensor.Document{Key: entry.Key, Text: entry.Text, Tag: "로그"}
			doc.JSON, doc.ParseFailures = sensor.ParseDocument(entry.Text)
			if doc.JSON == nil {
				continue
			}
			doc.Kind = sensor.Classify(doc.JSON)
			if loggedDocMatches(doc, target, gran) {
				return doc, nil
			}
		}
	}
	return nil, nil
}

func loggedDocMatches(doc *sensor.Document, target time.Time, gran temporal.Granularity) bool {
	switch gran {
	case temporal.GranularitySecond:
		if doc.Kind != sensor.KindRawList {
			return false
		}
		for _, r := range sensor.ExtractRows(doc.Kind, doc.JSON) {
			if r.Timestamp.Equal(target) {
				return true
			}
		}
		return false
	case temporal.GranularityMinute:
		return doc.Kind == sensor.KindMinuteAvg && score.MatchesMinute(doc.Key, target)
	case temporal.GranularityHour:
		return doc.Kind == sensor.KindHourAvg && score.MatchesHour(doc.Key, target)
	default:
		return false
	}
}

func (s *Store) listLogKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.s3cfg.LogBucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return keys, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *Store) readTurnRecord(ctx context.Context, key string) (*turnRecord, error) {
	obj, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.s3cfg.LogBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, err
	}
	var rec turnRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
