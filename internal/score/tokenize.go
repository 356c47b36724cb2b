package score

import (
	"regexp"
	"strings"

	"github.com/agenthands/airwatch/internal/sensor"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9가-힣_:+-]+`)

// fieldSynonyms maps query words (Korean and English, abbreviations
// included) to canonical field names.
var fieldSynonyms = map[string]string{
	"온도": sensor.FieldTemperature, "temp": sensor.FieldTemperature, "temperature": sensor.FieldTemperature,
	"습도": sensor.FieldHumidity, "hum": sensor.FieldHumidity, "humidity": sensor.FieldHumidity,
	"공기질": sensor.FieldGas, "가스": sensor.FieldGas, "gas": sensor.FieldGas, "ppm": sensor.FieldGas,
	"co2": sensor.FieldGas, "co₂": sensor.FieldGas, "이산화탄소": sensor.FieldGas,
}

// Tokenize splits text into lowercase runs of alphanumerics, Hangul
// syllables and the _:+- connectors.
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// NormalizeQueryTokens tokenizes a query and maps known synonyms to
// canonical field names so "온도" and "temperature" count the same.
func NormalizeQueryTokens(q string) []string {
	tokens := Tokenize(q)
	for i, t := range tokens {
		if canon, ok := fieldSynonyms[t]; ok {
			tokens[i] = canon
		}
	}
	return tokens
}

// DetectFields reports which sensor fields a query asks about, by
// substring so that particles glued onto Korean words still match.
func DetectFields(rawQuery string) map[string]bool {
	q := strings.ToLower(rawQuery)
	fields := map[string]bool{}
	if strings.Contains(rawQuery, "습도") || strings.Contains(q, "hum") {
		fields[sensor.FieldHumidity] = true
	}
	if strings.Contains(rawQuery, "온도") || strings.Contains(q, "temp") {
		fields[sensor.FieldTemperature] = true
	}
	if strings.Contains(rawQuery, "공기질") || strings.Contains(rawQuery, "가스") ||
		strings.Contains(rawQuery, "이산화탄소") || strings.Contains(rawQuery, "co₂") ||
		strings.Contains(q, "gas") || strings.Contains(q, "ppm") || strings.Contains(q, "co2") {
		fields[sensor.FieldGas] = true
	}
	return fields
}
