package store

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/agenthands/airwatch/internal/config"
	"github.com/agenthands/airwatch/internal/score"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

// S3API is the slice of the S3 client the store uses; tests swap in a
// fake. The real *s3.Client satisfies it.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store is the document source: it lists, fetches, parses, classifies and
// scores sensor documents out of the data bucket, and persists chat-turn
// logs into the log bucket.
type Store struct {
	api       S3API
	s3cfg     config.S3Config
	retrieval config.RetrievalConfig
	scorer    *score.Scorer
	now       func() time.Time
}

// New builds a store over a live S3 client for the configured region.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient wires an explicit API implementation, for tests.
func NewWithClient(api S3API, cfg *config.Config) *Store {
	return &Store{
		api:       api,
		s3cfg:     cfg.S3,
		retrieval: cfg.Retrieval,
		scorer:    score.NewScorer(cfg.Scoring),
		now:       temporal.Now,
	}
}

// DownloadAndScore fetches one object and turns it into a scored,
// classified document. Oversized objects are fetched truncated rather
// than skipped: the head of a raw file still scores and classifies.
// Returns nil on any fetch failure or empty body.
func (s *Store) DownloadAndScore(ctx context.Context, key, query string) *sensor.Document {
	var size int64
	if head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.s3cfg.DataBucket),
		Key:    aws.String(key),
	}); err == nil && head.ContentLength != nil {
		size = *head.ContentLength
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.s3cfg.DataBucket),
		Key:    aws.String(key),
	}
	if size > s.retrieval.MaxFileSize {
		input.Range = aws.String(fmt.Sprintf("bytes=0-%d", s.retrieval.MaxFileSize-1))
	}
	obj, err := s.api.GetObject(ctx, input)
	if err != nil {
		return nil
	}
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc := &sensor.Document{Key: key, Text: text, Size: size}
	doc.JSON, doc.ParseFailures = sensor.ParseDocument(text)
	if doc.JSON != nil {
		doc.Kind = sensor.Classify(doc.JSON)
	}

	doc.Score = s.scorer.Score(query, text, key, s.now())
	switch doc.Kind {
	case sensor.KindRawList:
		doc.Score += s.scorer.W.SchemaRaw
	case sensor.KindMinuteAvg:
		doc.Score += s.scorer.W.SchemaMinute
	case sensor.KindHourAvg:
		doc.Score += s.scorer.W.SchemaHour
	case sensor.KindMinuteTrend, sensor.KindUnknown:
		// minute-trend envelopes carry no schema bonus
	}
	return doc
}

// listKeys pages the data bucket under prefix, keeping .json keys only,
// up to limit.
func (s *Store) listKeys(ctx context.Context, prefix string, limit int) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.s3cfg.DataBucket),
		Prefix: aws.String(prefix),
	}
	paginator := s3.NewListObjectsV2Paginator(s.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return keys, err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(strings.ToLower(key), ".json") {
				continue
			}
			keys = append(keys, key)
			if len(keys) >= limit {
				return keys, nil
			}
		}
	}
	return keys, nil
}

// fetchAll downloads and scores keys with a bounded worker pool,
// preserving first-seen order for stable tie-breaks later.
func (s *Store) fetchAll(ctx context.Context, keys []string, query string) []*sensor.Document {
	workers := s.retrieval.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	docs := make([]*sensor.Document, len(keys))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			docs[i] = s.DownloadAndScore(ctx, key, query)
		}(i, key)
	}
	wg.Wait()

	out := docs[:0]
	for _, d := range docs {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
