package sensor

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/agenthands/airwatch/internal/temporal"
)

// Reading is one normalized sensor sample. Temperature and humidity are
// optional; a nil pointer means the source row never carried the field,
// which is distinct from a zero value.
type Reading struct {
	Timestamp   time.Time
	Temperature *float64
	Humidity    *float64
	Gas         *float64
}

// ExtractRows normalizes a classified document value into an ordered
// sequence of readings, sorted ascending by timestamp.
//
// Only the flat hour-average form (hourtemp/hourhum/hourgas) rowifies; the
// nested envelope form (averages/hourly_ranges/trends) is consumed whole
// by the answer formatting path and produces no rows here. Unknown values
// produce no rows either.
func ExtractRows(kind Kind, v any) []Reading {
	var rows []Reading
	switch kind {
	case KindRawList:
		list, ok := v.([]any)
		if !ok {
			return nil
		}
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			r, ok := rawReading(obj)
			if !ok {
				continue // partial extraction: bad rows drop, the rest survive
			}
			rows = append(rows, r)
		}
	case KindHourAvg:
		if obj, ok := v.(map[string]any); ok {
			if r, ok := aggregateReading(obj, "hourtemp", "hourhum", "hourgas"); ok {
				rows = append(rows, r)
			}
		}
	case KindMinuteAvg:
		if obj, ok := v.(map[string]any); ok {
			if r, ok := aggregateReading(obj, "mintemp", "minhum", "mingas"); ok {
				rows = append(rows, r)
			}
		}
	case KindMinuteTrend:
		if obj, ok := v.(map[string]any); ok {
			if data, ok := obj["data"].(map[string]any); ok {
				if r, ok := aggregateReading(data, "mintemp", "minhum", "mingas"); ok {
					rows = append(rows, r)
				}
			}
		}
	case KindUnknown:
		// not extractable
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	return rows
}

// rawReading requires a parseable timestamp and a gas value; temperature
// and humidity are read from either the canonical or abbreviated key and
// stay nil when absent.
func rawReading(obj map[string]any) (Reading, bool) {
	ts, ok := timestampOf(obj)
	if !ok {
		return Reading{}, false
	}
	gas, ok := numField(obj, "gas")
	if !ok {
		return Reading{}, false
	}
	r := Reading{Timestamp: ts, Gas: &gas}
	if t, ok := firstNumField(obj, "temperature", "temp"); ok {
		r.Temperature = &t
	}
	if h, ok := firstNumField(obj, "humidity", "hum"); ok {
		r.Humidity = &h
	}
	return r, true
}

func aggregateReading(obj map[string]any, tempKey, humKey, gasKey string) (Reading, bool) {
	ts, ok := timestampOf(obj)
	if !ok {
		return Reading{}, false
	}
	r := Reading{Timestamp: ts}
	if t, ok := numField(obj, tempKey); ok {
		r.Temperature = &t
	}
	if h, ok := numField(obj, humKey); ok {
		r.Humidity = &h
	}
	if g, ok := numField(obj, gasKey); ok {
		r.Gas = &g
	}
	if r.Temperature == nil && r.Humidity == nil && r.Gas == nil {
		return Reading{}, false
	}
	return r, true
}

func timestampOf(obj map[string]any) (time.Time, bool) {
	raw, ok := obj["timestamp"]
	if !ok {
		return time.Time{}, false
	}
	return temporal.ParseMoment(fmt.Sprintf("%v", raw))
}

func numField(obj map[string]any, key string) (float64, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

func firstNumField(obj map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := numField(obj, k); ok {
			return f, true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
