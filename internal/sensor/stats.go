package sensor

import (
	"time"

	"github.com/agenthands/airwatch/internal/temporal"
)

// Canonical field names used everywhere downstream of extraction.
const (
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldGas         = "gas"
)

// Fields lists the canonical fields in presentation order.
var Fields = []string{FieldTemperature, FieldHumidity, FieldGas}

// FieldStats summarizes one field over a reading set.
type FieldStats struct {
	Avg   float64
	Min   float64
	Max   float64
	First float64
	Last  float64
}

// WindowStats maps canonical field name to its stats. A field with no
// value in any reading has no entry; an empty reading set yields nil,
// which is a distinct state from all-zero stats.
type WindowStats map[string]FieldStats

// ComputeStats aggregates per-field avg/min/max/first/last over rows.
func ComputeStats(rows []Reading) WindowStats {
	if len(rows) == 0 {
		return nil
	}
	out := WindowStats{}
	for _, field := range Fields {
		var vals []float64
		for _, r := range rows {
			if v := r.field(field); v != nil {
				vals = append(vals, *v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		st := FieldStats{
			Min:   vals[0],
			Max:   vals[0],
			First: vals[0],
			Last:  vals[len(vals)-1],
		}
		sum := 0.0
		for _, v := range vals {
			sum += v
			if v < st.Min {
				st.Min = v
			}
			if v > st.Max {
				st.Max = v
			}
		}
		st.Avg = sum / float64(len(vals))
		out[field] = st
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (r Reading) field(name string) *float64 {
	switch name {
	case FieldTemperature:
		return r.Temperature
	case FieldHumidity:
		return r.Humidity
	case FieldGas:
		return r.Gas
	}
	return nil
}

// SelectInRange keeps readings with start <= ts <= end, both inclusive.
func SelectInRange(rows []Reading, start, end time.Time) []Reading {
	var out []Reading
	for _, r := range rows {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			out = append(out, r)
		}
	}
	return out
}

// SelectInMinute selects the [:00, :59] minute window around anchor.
func SelectInMinute(rows []Reading, anchor time.Time) ([]Reading, time.Time, time.Time) {
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), anchor.Hour(), anchor.Minute(), 0, 0, temporal.KST)
	end := start.Add(time.Minute - time.Second)
	return SelectInRange(rows, start, end), start, end
}

// SelectInHour selects the [:00:00, :59:59] hour window around anchor.
func SelectInHour(rows []Reading, anchor time.Time) ([]Reading, time.Time, time.Time) {
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), anchor.Hour(), 0, 0, 0, temporal.KST)
	end := start.Add(time.Hour - time.Second)
	return SelectInRange(rows, start, end), start, end
}

// SelectInDay selects the [00:00:00, 23:59:59] day window around anchor.
func SelectInDay(rows []Reading, anchor time.Time) ([]Reading, time.Time, time.Time) {
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, temporal.KST)
	end := start.Add(24*time.Hour - time.Second)
	return SelectInRange(rows, start, end), start, end
}
