package engine

import (
	"time"

	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

// ResultKind discriminates the structured answer payloads the engine can
// produce. Renderers switch over it exhaustively.
type ResultKind int

const (
	ResultPoint           ResultKind = iota // one exact reading
	ResultMinuteAggregate                   // a minavg/mintrend document, rendered as the bucket answer
	ResultHourAggregate                     // an houravg document (flat or envelope form)
	ResultWindow                            // readings + stats over a resolved window
	ResultDetail                            // full sample list replay of the last window
	ResultNoData                            // window or moment resolved, nothing recorded there
	ResultNoContext                         // detail follow-up without a prior sensor window
)

// Aspects flags which summary values a range query asked for. All false
// means the query named none and the average is shown.
type Aspects struct {
	Avg   bool
	Max   bool
	Min   bool
	First bool
	Last  bool
}

// Result is the engine's structured answer. Field presence mirrors the
// data: a field missing from the evidence is absent here too, never
// zero-filled, so renderers can preserve presence exactly.
type Result struct {
	Kind       ResultKind
	Tag        string
	NeedFields map[string]bool

	// ResultPoint
	Timestamp time.Time
	Reading   *sensor.Reading

	// ResultMinuteAggregate / ResultHourAggregate
	Doc *sensor.Document

	// ResultWindow / ResultDetail / ResultNoData
	Window      temporal.Window
	Label       string
	Rows        []sensor.Reading
	Stats       sensor.WindowStats
	Trend       map[string]*sensor.Trend
	Wants       Aspects
	ShowSamples bool

	// ResultNoData: the window was resolved, just empty. A query whose
	// time expression never resolved does not produce a Result at all.
	Granularity temporal.Granularity
}
