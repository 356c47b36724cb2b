package store

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/airwatch/internal/config"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

// fakeS3 is an in-memory S3API. Listing is lexicographic like the real
// service.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]map[string]string // bucket -> key -> body
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]map[string]string{}}
}

func (f *fakeS3) put(bucket, key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects[bucket] == nil {
		f.objects[bucket] = map[string]string{}
	}
	f.objects[bucket][key] = body
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects[aws.ToString(params.Bucket)] {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(params.Bucket)][aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(params.Bucket)][aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(body)))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.put(aws.ToString(params.Bucket), aws.ToString(params.Key), string(data))
	return &s3.PutObjectOutput{}, nil
}

func testStore(api S3API) *Store {
	cfg := config.Default()
	cfg.S3.DataBucket = "data"
	cfg.S3.LogBucket = "logs"
	return NewWithClient(api, cfg)
}

const rawBody = `[
 {"timestamp":"2025-08-11 14:00:05","temp":24.1,"hum":55.0,"gas":620},
 {"timestamp":"2025-08-11 14:00:35","temp":24.2,"hum":54.8,"gas":622}
]`

const minBody = `{"timestamp":"2025-08-11 14:05:00","mintemp":24.3,"minhum":54.8,"mingas":610.5}`

func TestDownloadAndScore(t *testing.T) {
	api := newFakeS3()
	api.put("data", "rawdata/20250811/202508111400_rawdata.json", rawBody)
	st := testStore(api)

	doc := st.DownloadAndScore(context.Background(), "rawdata/20250811/202508111400_rawdata.json",
		"2025년 8월 11일 14시 00분 05초 온도?")

	require.NotNil(t, doc)
	assert.Equal(t, sensor.KindRawList, doc.Kind)
	assert.Empty(t, doc.ParseFailures)
	assert.Greater(t, doc.Score, 0)
}

func TestDownloadAndScore_MinuteTrendGetsNoSchemaBonus(t *testing.T) {
	api := newFakeS3()
	trendKey := "mintrend/20250811/202508111405_mintrend.json"
	trendBody := `{"data":{"timestamp":"2025-08-11 14:05:00","mintemp":24.3,"minhum":54.8,"mingas":610.5}}`
	api.put("data", trendKey, trendBody)
	avgKey := "minavg/20250811/202508111405_minavg.json"
	api.put("data", avgKey, minBody)
	st := testStore(api)
	query := "8월 11일 14시 5분 온도 평균"

	trend := st.DownloadAndScore(context.Background(), trendKey, query)
	require.NotNil(t, trend)
	require.Equal(t, sensor.KindMinuteTrend, trend.Kind)
	assert.Equal(t, st.scorer.Score(query, trend.Text, trend.Key, st.now()), trend.Score)

	avg := st.DownloadAndScore(context.Background(), avgKey, query)
	require.NotNil(t, avg)
	require.Equal(t, sensor.KindMinuteAvg, avg.Kind)
	assert.Equal(t, st.scorer.Score(query, avg.Text, avg.Key, st.now())+st.scorer.W.SchemaMinute, avg.Score)
}

func TestDownloadAndScore_MissingKey(t *testing.T) {
	st := testStore(newFakeS3())
	assert.Nil(t, st.DownloadAndScore(context.Background(), "nope.json", "온도"))
}

func TestRetrieve_RanksAndTags(t *testing.T) {
	api := newFakeS3()
	api.put("data", "rawdata/20250811/202508111405_rawdata.json", rawBody)
	api.put("data", "minavg/20250811/202508111405_minavg.json", minBody)
	api.put("data", "misc/readme.txt", "not json, not listed")
	st := testStore(api)

	docs, contextText, err := st.Retrieve(context.Background(), "2025년 8월 11일 14시 5분 평균 온도")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	// The minute-average file matches the key-time bucket and wins.
	assert.Equal(t, "minavg/20250811/202508111405_minavg.json", docs[0].Key)
	assert.Equal(t, "D1", docs[0].Tag)
	assert.Equal(t, "D2", docs[1].Tag)
	assert.Contains(t, contextText, "[D1] (s3://data/minavg/20250811/202508111405_minavg.json)")
	assert.Contains(t, contextText, "mintemp")
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	st := testStore(newFakeS3())
	docs, contextText, err := st.Retrieve(context.Background(), "온도 평균")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Empty(t, contextText)
}

func TestQuickEvidence(t *testing.T) {
	api := newFakeS3()
	api.put("data", "rawdata/20250811/202508111400_rawdata.json", rawBody)
	st := testStore(api)

	ev, err := st.QuickEvidence(context.Background(), "온도")
	require.NoError(t, err)
	assert.True(t, ev.HasSchema)
	assert.Greater(t, ev.BestScore, 0)

	ev, err = st.QuickEvidence(context.Background(), "온도")
	require.NoError(t, err)
	assert.True(t, ev.HasSchema)
}

func TestFindExactSecond(t *testing.T) {
	api := newFakeS3()
	api.put("data", "rawdata/20250811/202508111400_rawdata.json", rawBody)
	st := testStore(api)

	target := time.Date(2025, 8, 11, 14, 0, 35, 0, temporal.KST)
	row, tag, err := st.FindExactSecond(context.Background(), target)

	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 24.2, *row.Temperature)
	assert.Equal(t, "rawdata/20250811/202508111400_rawdata.json", tag)

	miss, _, err := st.FindExactSecond(context.Background(), target.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestFindMinuteAvgDoc(t *testing.T) {
	api := newFakeS3()
	api.put("data", "minavg/20250811/202508111405_minavg.json", minBody)
	st := testStore(api)

	target := time.Date(2025, 8, 11, 14, 5, 30, 0, temporal.KST)
	doc, err := st.FindMinuteAvgDoc(context.Background(), target)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, sensor.KindMinuteAvg, doc.Kind)

	doc, err = st.FindMinuteAvgDoc(context.Background(), target.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestFetchRowsInWindow(t *testing.T) {
	api := newFakeS3()
	api.put("data", "rawdata/20250811/202508111400_rawdata.json", rawBody)
	st := testStore(api)

	start := time.Date(2025, 8, 11, 14, 0, 0, 0, temporal.KST)
	end := start.Add(time.Minute - time.Second)
	rows, tag, err := st.FetchRowsInWindow(context.Background(), start, end)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Timestamp.Before(rows[1].Timestamp))
	assert.NotEmpty(t, tag)
}

func TestChatLogRoundTrip(t *testing.T) {
	api := newFakeS3()
	st := testStore(api)
	ctx := context.Background()

	docs := []*sensor.Document{{
		Key:  "minavg/20250811/202508111405_minavg.json",
		Text: minBody,
		Kind: sensor.KindMinuteAvg,
	}}
	require.NoError(t, st.SaveTurn(ctx, "sess-1", 1, "14시 5분 평균", "답변", "sensor", docs))

	target := time.Date(2025, 8, 11, 14, 5, 0, 0, temporal.KST)
	got, err := st.FindLoggedSensorData(ctx, "sess-1", target, temporal.GranularityMinute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sensor.KindMinuteAvg, got.Kind)
	assert.Equal(t, "로그", got.Tag)

	// A different session sees nothing.
	got, err = st.FindLoggedSensorData(ctx, "sess-2", target, temporal.GranularityMinute)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindLoggedSensorData_ExactSecond(t *testing.T) {
	api := newFakeS3()
	st := testStore(api)
	ctx := context.Background()

	docs := []*sensor.Document{{
		Key:  "rawdata/20250811/202508111400_rawdata.json",
		Text: rawBody,
		Kind: sensor.KindRawList,
	}}
	require.NoError(t, st.SaveTurn(ctx, "sess-1", 1, "질문", "답변", "sensor", docs))

	target := time.Date(2025, 8, 11, 14, 0, 5, 0, temporal.KST)
	got, err := st.FindLoggedSensorData(ctx, "sess-1", target, temporal.GranularitySecond)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = st.FindLoggedSensorData(ctx, "sess-1", target.Add(time.Second), temporal.GranularitySecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}
