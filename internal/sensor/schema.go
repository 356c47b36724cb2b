package sensor

// Kind is the closed set of recognized sensor document shapes. Every
// downstream consumer switches over it exhaustively; adding a shape means
// the compiler (via the default-panic String case in tests) and the
// classifier must both learn it.
type Kind int

const (
	KindUnknown Kind = iota
	KindRawList
	KindMinuteAvg
	KindHourAvg
	KindMinuteTrend
)

func (k Kind) String() string {
	switch k {
	case KindRawList:
		return "raw_list"
	case KindMinuteAvg:
		return "minavg"
	case KindHourAvg:
		return "houravg"
	case KindMinuteTrend:
		return "mintrend"
	case KindUnknown:
		return "unknown"
	}
	return "unknown"
}

// Classify inspects a decoded JSON value and names its shape. Pure and
// deterministic: the same value always classifies the same way.
//
// Order matters. Both hour-average checks run before the minute-average
// fallback rule because an hour document can also carry a "timestamp"
// key, which would otherwise satisfy the fallback.
func Classify(v any) Kind {
	if list, ok := v.([]any); ok && len(list) > 0 {
		first, ok := list[0].(map[string]any)
		if !ok {
			return KindUnknown
		}
		if hasAll(first, "timestamp", "temp", "hum", "gas") ||
			hasAll(first, "timestamp", "temperature", "humidity", "gas") {
			return KindRawList
		}
		return KindUnknown
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return KindUnknown
	}

	if hasAll(obj, "averages", "hourly_ranges", "trends") {
		return KindHourAvg
	}
	if hasAll(obj, "hourtemp", "hourhum", "hourgas") {
		return KindHourAvg
	}
	if hasAll(obj, "mintemp", "minhum", "mingas") {
		return KindMinuteAvg
	}
	if data, ok := obj["data"].(map[string]any); ok {
		if hasAll(data, "mintemp", "minhum", "mingas") {
			return KindMinuteTrend
		}
	}
	if _, ok := obj["averages"]; ok {
		if hasAny(obj, "minute", "timestamp", "calculatedAt") {
			return KindMinuteAvg
		}
	}
	return KindUnknown
}

func hasAll(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func hasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}
