package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agenthands/airwatch/internal/engine"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

// fieldNameKor maps canonical field names to their Korean labels.
var fieldNameKor = map[string]string{
	sensor.FieldTemperature: "온도",
	sensor.FieldHumidity:    "습도",
	sensor.FieldGas:         "이산화탄소(CO2)",
}

const timeLayout = "2006-01-02 15:04:05"

// Render formats a structured result into user-facing Korean prose.
// Field presence is preserved exactly: a field the evidence never carried
// is not rendered, never replaced with a placeholder value.
func Render(r *engine.Result) string {
	switch r.Kind {
	case engine.ResultPoint:
		return renderPoint(r)
	case engine.ResultMinuteAggregate:
		return renderMinuteAggregate(r)
	case engine.ResultHourAggregate:
		return renderHourAggregate(r)
	case engine.ResultWindow:
		return renderWindow(r)
	case engine.ResultDetail:
		return renderDetail(r)
	case engine.ResultNoData:
		return renderNoData(r)
	case engine.ResultNoContext:
		return "(최근 센서 구간의 원본 샘플을 찾지 못했어요. 시간/구간이 포함된 센서 질문을 먼저 해주세요.)"
	}
	return ""
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// neededFields resolves the fields to render: the requested set when it is
// non-empty, else every field the reading actually carries.
func neededFields(need map[string]bool, present func(string) bool) []string {
	var out []string
	for _, f := range sensor.Fields {
		if len(need) > 0 {
			if need[f] && present(f) {
				out = append(out, f)
			}
		} else if present(f) {
			out = append(out, f)
		}
	}
	return out
}

func renderPoint(r *engine.Result) string {
	reading := r.Reading
	fields := neededFields(r.NeedFields, func(f string) bool {
		return readingField(reading, f) != nil
	})

	var parts []string
	for _, f := range fields {
		v := readingField(reading, f)
		parts = append(parts, fmt.Sprintf("%s **%s** %s", fieldNameKor[f], num(*v), friendlyComment(f, *v)))
	}

	var body string
	switch len(parts) {
	case 0:
		body = "데이터가 없습니다."
	case 1:
		body = fmt.Sprintf("해당 시점의 %s", parts[0])
	default:
		lines := []string{"📊 **정확한 시점 데이터**"}
		for _, p := range parts {
			lines = append(lines, "• "+p)
		}
		body = strings.Join(lines, "\n")
	}

	return fmt.Sprintf("%s 기준:\n%s [%s]", r.Timestamp.Format(timeLayout), body, r.Tag)
}

func readingField(r *sensor.Reading, name string) *float64 {
	switch name {
	case sensor.FieldTemperature:
		return r.Temperature
	case sensor.FieldHumidity:
		return r.Humidity
	case sensor.FieldGas:
		return r.Gas
	}
	return nil
}

func renderMinuteAggregate(r *engine.Result) string {
	obj, _ := r.Doc.JSON.(map[string]any)
	avg := map[string]any{
		sensor.FieldTemperature: valueOf(obj, "mintemp"),
		sensor.FieldHumidity:    valueOf(obj, "minhum"),
		sensor.FieldGas:         valueOf(obj, "mingas"),
	}

	fields := requestedOrAll(r.NeedFields)

	if len(fields) == 1 {
		f := fields[0]
		name := fieldNameKor[f]
		if v, ok := toFloat(avg[f]); ok {
			return fmt.Sprintf("해당 분의 %s는 평균 **%s**입니다. %s [%s]", name, num(v), friendlyComment(f, v), r.Tag)
		}
		return fmt.Sprintf("해당 분의 %s 데이터가 없습니다. [%s]", name, r.Tag)
	}

	lines := []string{"**분 단위 환경 상태**"}
	for _, f := range fields {
		name := fieldNameKor[f]
		if v, ok := toFloat(avg[f]); ok {
			lines = append(lines, fmt.Sprintf("• %s: **%s** %s", name, num(v), friendlyComment(f, v)))
		} else {
			lines = append(lines, fmt.Sprintf("• %s: 데이터 없음", name))
		}
	}
	return strings.Join(lines, "\n") + fmt.Sprintf(" [%s]", r.Tag)
}

func renderHourAggregate(r *engine.Result) string {
	obj, _ := r.Doc.JSON.(map[string]any)
	averages, _ := obj["averages"].(map[string]any)
	ranges, _ := obj["hourly_ranges"].(map[string]any)
	trends, _ := obj["trends"].(map[string]any)

	avgStd := map[string]any{
		sensor.FieldTemperature: valueOf(averages, "temp"),
		sensor.FieldHumidity:    valueOf(averages, "hum"),
		sensor.FieldGas:         valueOf(averages, "gas"),
	}
	// Flat houravg documents carry the averages at top level instead.
	if averages == nil {
		avgStd[sensor.FieldTemperature] = valueOf(obj, "hourtemp")
		avgStd[sensor.FieldHumidity] = valueOf(obj, "hourhum")
		avgStd[sensor.FieldGas] = valueOf(obj, "hourgas")
	}
	rangeStd := map[string]map[string]any{
		sensor.FieldTemperature: asObj(valueOf(ranges, "temp")),
		sensor.FieldHumidity:    asObj(valueOf(ranges, "hum")),
		sensor.FieldGas:         asObj(valueOf(ranges, "gas")),
	}
	trendStd := map[string]map[string]any{
		sensor.FieldTemperature: asObj(valueOf(trends, "temperature")),
		sensor.FieldHumidity:    asObj(valueOf(trends, "humidity")),
		sensor.FieldGas:         asObj(valueOf(trends, "gas")),
	}

	fields := requestedOrAll(r.NeedFields)

	var lines []string
	if len(fields) > 1 {
		lines = append(lines, "[시간 단위 집계 요약]")
	}
	for _, f := range fields {
		name := fieldNameKor[f]
		rendered := false
		if v, ok := toFloat(avgStd[f]); ok {
			lines = append(lines, fmt.Sprintf("%s 평균: %s", name, num(v)))
			rendered = true
		}
		if rng := rangeStd[f]; len(rng) > 0 {
			lines = append(lines, fmt.Sprintf("%s 범위: [%s~%s]", name, anyNum(rng["min"]), anyNum(rng["max"])))
			rendered = true
		}
		if tr := trendStd[f]; len(tr) > 0 {
			line := fmt.Sprintf("%s 추세: %s %s", name, anyStr(tr["status"]), anyStr(tr["change_rate"]))
			if sv, ok := toFloat(tr["start_value"]); ok {
				line += fmt.Sprintf(" (시작 %s, 끝 %s)", num(sv), anyNum(tr["end_value"]))
			}
			lines = append(lines, strings.TrimSpace(line))
			rendered = true
		}
		if !rendered && len(fields) == 1 {
			lines = append(lines, fmt.Sprintf("%s: 데이터 없음", name))
		}
	}
	if overall, ok := valueOf(trends, "overall").(string); ok && overall != "" {
		lines = append(lines, fmt.Sprintf("전체 추세: %s", overall))
	}
	return strings.Join(lines, "\n") + fmt.Sprintf(" [%s]", r.Tag)
}

func renderWindow(r *engine.Result) string {
	fields := requestedFields(r.NeedFields, r.Rows)
	lines := []string{fmt.Sprintf("[%s] %s ~ %s", r.Label,
		r.Window.Start.Format(timeLayout), r.Window.End.Format(timeLayout))}

	wants := r.Wants
	if !(wants.Avg || wants.Max || wants.Min || wants.First || wants.Last) {
		wants.Avg = true
	}

	for _, f := range fields {
		name := fieldNameKor[f]
		st, ok := r.Stats[f]
		if !ok {
			lines = append(lines, fmt.Sprintf("%s: 데이터 없음", name))
			continue
		}
		if wants.Avg {
			lines = append(lines, fmt.Sprintf("%s 평균: %.3f", name, st.Avg))
		}
		if wants.Max {
			lines = append(lines, fmt.Sprintf("%s 최대: %.3f", name, st.Max))
		}
		if wants.Min {
			lines = append(lines, fmt.Sprintf("%s 최소: %.3f", name, st.Min))
		}
		if wants.First {
			lines = append(lines, fmt.Sprintf("%s 처음 값: %.3f", name, st.First))
		}
		if wants.Last {
			lines = append(lines, fmt.Sprintf("%s 마지막 값: %.3f", name, st.Last))
		}
		if tr, ok := r.Trend[f]; ok && tr != nil {
			lines = append(lines, trendLine(name, st, tr))
		}
	}

	if r.ShowSamples {
		lines = append(lines, fmt.Sprintf("[%s 데이터 %d개]", r.Label, len(r.Rows)))
		lines = append(lines, sampleLines(r.Rows, fields)...)
	} else {
		lines = append(lines, fmt.Sprintf("(샘플 %d개는 생략됨 — '상세' 또는 '원본'이라고 물으면 전부 보여줄게)", len(r.Rows)))
	}
	return strings.Join(lines, "\n") + fmt.Sprintf(" [%s]", r.Tag)
}

func trendLine(name string, st sensor.FieldStats, tr *sensor.Trend) string {
	dir := "변화 없음"
	if tr.Delta > 0 {
		dir = "증가"
	} else if tr.Delta < 0 {
		dir = "감소"
	}
	pct := "N/A"
	if tr.Pct != nil {
		pct = fmt.Sprintf("%+.2f%%", *tr.Pct)
	}
	return fmt.Sprintf("%s 범위 [%.3f~%.3f] | 직전 구간 대비 %s (%+.3f, %s)",
		name, st.Min, st.Max, dir, tr.Delta, pct)
}

func renderDetail(r *engine.Result) string {
	lines := []string{fmt.Sprintf("[%s 상세] %s ~ %s | 샘플 %d개", r.Label,
		r.Window.Start.Format(timeLayout), r.Window.End.Format(timeLayout), len(r.Rows))}
	lines = append(lines, sampleLines(r.Rows, sensor.Fields)...)
	return strings.Join(lines, "\n") + fmt.Sprintf(" [%s]", r.Tag)
}

func sampleLines(rows []sensor.Reading, fields []string) []string {
	show := map[string]bool{}
	for _, f := range fields {
		show[f] = true
	}
	var lines []string
	for i := range rows {
		r := &rows[i]
		var parts []string
		if show[sensor.FieldTemperature] && r.Temperature != nil {
			parts = append(parts, fmt.Sprintf("T=%s", num(*r.Temperature)))
		}
		if show[sensor.FieldHumidity] && r.Humidity != nil {
			parts = append(parts, fmt.Sprintf("H=%s", num(*r.Humidity)))
		}
		if show[sensor.FieldGas] && r.Gas != nil {
			parts = append(parts, fmt.Sprintf("CO2=%s", num(*r.Gas)))
		}
		lines = append(lines, fmt.Sprintf("%s | %s", r.Timestamp.Format(timeLayout), strings.Join(parts, ", ")))
	}
	return lines
}

func renderNoData(r *engine.Result) string {
	switch r.Granularity {
	case temporal.GranularitySecond:
		return fmt.Sprintf("(요청한 %s의 데이터가 없습니다.)", r.Timestamp.Format(timeLayout))
	case temporal.GranularityMinute:
		return fmt.Sprintf("(요청한 %s의 데이터가 없습니다.)", r.Timestamp.Format("2006-01-02 15:04"))
	case temporal.GranularityHour:
		return fmt.Sprintf("(요청한 %s의 데이터가 없습니다.)", r.Timestamp.Format("2006-01-02 15시"))
	}
	if r.Label != "" {
		return fmt.Sprintf("(요청한 %s에 해당하는 데이터가 없습니다.)", r.Label)
	}
	return "(요청한 구간에 해당하는 데이터가 없습니다.)"
}

// friendlyComment attaches a livability note to a field value.
func friendlyComment(field string, value float64) string {
	switch field {
	case sensor.FieldTemperature:
		switch {
		case value < 18:
			return "다소 춥네요. 냉방병 걸리기 쉬운 온도에요!"
		case value < 22:
			return "시원하고 쾌적해요. 이대로 유지하면 좋겠어요!"
		case value < 26:
			return "적정 온도로 편안해요. 이대로 유지하면 좋겠어요!"
		case value < 30:
			return "조금 덥네요. 에어컨을 트는 것이 좋겠어요!"
		default:
			return "많이 더워요. 주의가 필요해요!"
		}
	case sensor.FieldHumidity:
		switch {
		case value < 30:
			return "건조해요. 습도를 올리면 좋겠어요!"
		case value < 50:
			return "쾌적한 습도예요. 이대로면 좋겠어요!"
		case value < 60:
			return "적정 습도로 좋아요. 이대로도 괜찮아요!"
		case value < 70:
			return "조금 습해요. 제습기를 돌리면 좋겠어요!"
		default:
			return "습도가 많이 높아요!"
		}
	case sensor.FieldGas:
		switch {
		case value < 400:
			return "공기가 매우 깨끗해요"
		case value < 600:
			return "공기 상태가 좋아요"
		case value < 1000:
			return "보통 수준이에요"
		default:
			return "환기가 필요해요!"
		}
	}
	return ""
}

func requestedOrAll(need map[string]bool) []string {
	if len(need) == 0 {
		return sensor.Fields
	}
	var out []string
	for _, f := range sensor.Fields {
		if need[f] {
			out = append(out, f)
		}
	}
	return out
}

// requestedFields is requestedOrAll, but an empty request falls back to
// the fields actually present in the rows rather than all three.
func requestedFields(need map[string]bool, rows []sensor.Reading) []string {
	if len(need) > 0 {
		return requestedOrAll(need)
	}
	var out []string
	for _, f := range sensor.Fields {
		for i := range rows {
			if readingField(&rows[i], f) != nil {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func valueOf(obj map[string]any, key string) any {
	if obj == nil {
		return nil
	}
	return obj[key]
}

func asObj(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func anyNum(v any) string {
	if f, ok := toFloat(v); ok {
		return num(f)
	}
	return fmt.Sprintf("%v", v)
}

func anyStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
