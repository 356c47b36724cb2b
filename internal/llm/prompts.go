package llm

import (
	"fmt"
	"strings"

	"github.com/agenthands/airwatch/internal/session"
)

// BuildIntentPrompt asks the model to classify a query as sensor-data or
// general chat, returning strict JSON. The examples pin down the Korean
// ambiguity between weather forecasts and stored sensor logs.
func BuildIntentPrompt(query string) string {
	return "You are a router. Classify the user's query domain.\n" +
		"Return STRICT JSON: {\"domain\": \"sensor_data\"|\"general\", \"confidence\": 0.0-1.0}.\n" +
		"- Choose \"sensor_data\" ONLY if the user is asking about IoT environmental readings " +
		"(temperature/humidity/gas/ppm) from my stored device data, with a time window " +
		"(특정 날짜/시/분/초, '부터~까지', '최근', '처음/마지막') or stats (평균/최대/최소/추이 등).\n" +
		"- Weather forecasts, sports, finance, 일반 상식 등은 \"general\".\n" +
		"- IMPORTANT: 한국어 질의에서 '날씨 예보'가 아니라 '내 센서 로그'일 수 있음.\n\n" +
		"Examples:\n" +
		"Q: 메시의 경기마다 평균 몇 골을 넣어? → {\"domain\":\"general\",\"confidence\":0.95}\n" +
		"Q: 내일 서울 날씨 어때? → {\"domain\":\"general\",\"confidence\":0.95}\n" +
		"Q: 2025년 8월 8일 16시 온도, 습도, 공기질을 알려줘 → {\"domain\":\"sensor_data\",\"confidence\":0.95}\n" +
		"Q: 2025-08-11 10:15:15 습도? → {\"domain\":\"sensor_data\",\"confidence\":0.95}\n" +
		"Q: 최근 공기질 평균 보여줘 → {\"domain\":\"sensor_data\",\"confidence\":0.9}\n" +
		"Q: esp32s3-airwatch 15:18 온도 평균 → {\"domain\":\"sensor_data\",\"confidence\":0.95}\n\n" +
		fmt.Sprintf("query: %s\n", query) +
		"json:"
}

func historyBlock(history []session.Turn) string {
	if len(history) == 0 {
		return ""
	}
	start := 0
	if len(history) > 3 {
		start = len(history) - 3
	}
	var b strings.Builder
	for _, h := range history[start:] {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", h.Query, h.Answer)
	}
	return b.String()
}

// BuildRAGPrompt wraps retrieved sensor context plus recent history for
// the answer-generation call.
func BuildRAGPrompt(query, context string, history []session.Turn) string {
	return fmt.Sprintf(`당신은 스마트홈 IoT 센서 데이터 분석 전문가입니다.

이전 대화:
%s
관련 센서 데이터:
%s

사용자 질문: %s

위 센서 데이터를 바탕으로 정확하고 친절하게 답변해주세요. 온도는 ℃, 습도는 %%, CO2는 ppm 단위를 사용하세요.`,
		historyBlock(history), context, query)
}

// BuildGeneralPrompt is the non-sensor fallback.
func BuildGeneralPrompt(query string, history []session.Turn) string {
	return fmt.Sprintf(`당신은 도움이 되는 AI 어시스턴트입니다.

이전 대화:
%s
사용자 질문: %s

친절하고 정확하게 답변해주세요.`, historyBlock(history), query)
}
