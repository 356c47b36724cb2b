package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/airwatch/internal/cache"
	"github.com/agenthands/airwatch/internal/session"
)

type stubClient struct {
	response string
	err      error
	calls    int
}

func (s *stubClient) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestParseJSON_StripsMarkdown(t *testing.T) {
	type out struct {
		Domain string `json:"domain"`
	}
	got, err := ParseJSON[out]("```json\n{\"domain\": \"sensor_data\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "sensor_data", got.Domain)
}

func TestParseJSON_NoObject(t *testing.T) {
	type out struct{}
	_, err := ParseJSON[out]("no json here")
	assert.Error(t, err)
}

func TestClassify_ParsesVerdict(t *testing.T) {
	stub := &stubClient{response: `{"domain":"sensor_data","confidence":0.9}`}
	c := NewIntentClassifier(stub, nil)

	got := c.Classify(context.Background(), "2025-08-11 14:00 온도")
	assert.Equal(t, "sensor_data", got.Domain)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestClassify_ClampsAndNormalizes(t *testing.T) {
	stub := &stubClient{response: `{"domain":"weird","confidence":3.5}`}
	c := NewIntentClassifier(stub, nil)

	got := c.Classify(context.Background(), "whatever")
	assert.Equal(t, "general", got.Domain)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestClassify_ModelFailureDegradesToGeneral(t *testing.T) {
	stub := &stubClient{err: errors.New("timeout")}
	c := NewIntentClassifier(stub, nil)

	got := c.Classify(context.Background(), "안녕")
	assert.Equal(t, "general", got.Domain)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestClassify_MemoizesByQuery(t *testing.T) {
	stub := &stubClient{response: `{"domain":"sensor_data","confidence":0.8}`}
	c := NewIntentClassifier(stub, cache.NewLRU(8, time.Minute))

	first := c.Classify(context.Background(), "온도 평균")
	second := c.Classify(context.Background(), "온도 평균")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls)

	c.Classify(context.Background(), "다른 질문")
	assert.Equal(t, 2, stub.calls)
}

func TestHistoryBlock_KeepsLastThree(t *testing.T) {
	history := []session.Turn{
		{Query: "q1", Answer: "a1"},
		{Query: "q2", Answer: "a2"},
		{Query: "q3", Answer: "a3"},
		{Query: "q4", Answer: "a4"},
	}
	block := historyBlock(history)
	assert.NotContains(t, block, "q1")
	assert.Contains(t, block, "q2")
	assert.Contains(t, block, "q4")

	assert.Empty(t, historyBlock(nil))
}

func TestBuildIntentPrompt_IncludesQuery(t *testing.T) {
	p := BuildIntentPrompt("최근 공기질 평균")
	assert.Contains(t, p, "최근 공기질 평균")
	assert.Contains(t, p, "sensor_data")
}
