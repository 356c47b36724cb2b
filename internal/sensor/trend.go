package sensor

// Trend compares one field across two adjacent windows. Pct is nil when
// the baseline is exactly zero: the delta is still meaningful there, a
// percentage is not, and callers must be able to tell "no change" apart
// from "percentage undefined".
type Trend struct {
	Delta float64
	Pct   *float64
}

// CompareTrend computes per-field deltas between the current and previous
// window stats. A field missing on either side maps to nil — undefined,
// never a delta against zero.
func CompareTrend(curr, prev WindowStats) map[string]*Trend {
	out := make(map[string]*Trend, len(Fields))
	for _, field := range Fields {
		out[field] = nil
		cs, okC := curr[field]
		ps, okP := prev[field]
		if !okC || !okP {
			continue
		}
		base := cs.Avg
		prevBase := ps.Avg
		t := &Trend{Delta: base - prevBase}
		if prevBase != 0 {
			pct := (base - prevBase) / prevBase * 100.0
			t.Pct = &pct
		}
		out[field] = t
	}
	return out
}
