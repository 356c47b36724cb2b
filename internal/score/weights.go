package score

// Weights holds every scoring constant. The magnitudes are empirically
// tuned and overlap by intent (higher-priority signals dominate), so they
// are configuration to be validated against known scenarios, not values
// to re-derive.
type Weights struct {
	// Key-path family bonuses.
	PathRaw     int `toml:"path_raw"`
	PathMinute  int `toml:"path_minute"`
	PathHour    int `toml:"path_hour"`
	FieldViewed int `toml:"field_quoted"` // per quoted field name present in text

	// Literal-timestamp echo and filename alignment.
	LiteralEcho    int `toml:"literal_echo"`
	KeyMinuteMatch int `toml:"key_minute_match"`
	KeyHourMatch   int `toml:"key_hour_match"`
	KeyHourIntent  int `toml:"key_hour_intent"` // extra when the query also asks for hours
	KeyDayMatch    int `toml:"key_day_match"`

	// Precision tier when the query names a year or a Korean month+day.
	DatedRaw    int `toml:"dated_raw"`
	DatedMinute int `toml:"dated_minute"`
	DatedHour   int `toml:"dated_hour"`

	// Second-granularity tier.
	SecondRawShape    int `toml:"second_raw_shape"`
	SecondRawPath     int `toml:"second_raw_path"`
	SecondAvgPenalty  int `toml:"second_avg_penalty"`
	SecondHourPenalty int `toml:"second_hour_penalty"`

	// Minute-granularity tier.
	MinuteAvgShape    int `toml:"minute_avg_shape"`
	MinuteAvgPath     int `toml:"minute_avg_path"`
	MinuteRawShape    int `toml:"minute_raw_shape"`
	MinuteHourPenalty int `toml:"minute_hour_penalty"`

	// Hour-granularity tier.
	HourAvgShape      int `toml:"hour_avg_shape"`
	HourAvgPath       int `toml:"hour_avg_path"`
	HourRawBonus      int `toml:"hour_raw_bonus"`   // raw shape when no hour bonus applied
	HourRawPenalty    int `toml:"hour_raw_penalty"` // raw shape once an hour bonus applied
	HourMinutePenalty int `toml:"hour_minute_penalty"`

	// Unspecified-granularity tier.
	FlatRaw    int `toml:"flat_raw"`
	FlatMinute int `toml:"flat_minute"`
	FlatHour   int `toml:"flat_hour"`

	// Post-classification schema bonuses applied by the document source.
	SchemaRaw    int `toml:"schema_raw"`
	SchemaMinute int `toml:"schema_minute"`
	SchemaHour   int `toml:"schema_hour"`
}

// DefaultWeights returns the tuned constants.
func DefaultWeights() Weights {
	return Weights{
		PathRaw:     10,
		PathMinute:  8,
		PathHour:    6,
		FieldViewed: 1,

		LiteralEcho:    5,
		KeyMinuteMatch: 100,
		KeyHourMatch:   100,
		KeyHourIntent:  200,
		KeyDayMatch:    50,

		DatedRaw:    25,
		DatedMinute: 18,
		DatedHour:   8,

		SecondRawShape:    35,
		SecondRawPath:     30,
		SecondAvgPenalty:  -10,
		SecondHourPenalty: -15,

		MinuteAvgShape:    30,
		MinuteAvgPath:     25,
		MinuteRawShape:    15,
		MinuteHourPenalty: -10,

		HourAvgShape:      50,
		HourAvgPath:       45,
		HourRawBonus:      5,
		HourRawPenalty:    -10,
		HourMinutePenalty: -10,

		FlatRaw:    8,
		FlatMinute: 5,
		FlatHour:   3,

		SchemaRaw:    5,
		SchemaMinute: 4,
		SchemaHour:   3,
	}
}
