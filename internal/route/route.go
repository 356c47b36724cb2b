package route

import (
	"context"
	"strings"

	"github.com/agenthands/airwatch/internal/llm"
	"github.com/agenthands/airwatch/internal/score"
	"github.com/agenthands/airwatch/internal/temporal"
)

// Route names the processing path for a query.
type Route string

const (
	RouteSensor  Route = "sensor"
	RouteGeneral Route = "general"
)

// Classifier is the LLM intent collaborator.
type Classifier interface {
	Classify(ctx context.Context, query string) llm.Intent
}

// Evidence summarizes a quick probe of the corpus: whether any of the
// first few candidate documents classifies into a known sensor shape.
type Evidence struct {
	HasSchema bool
	BestScore int
}

// Prober runs that quick probe.
type Prober interface {
	QuickEvidence(ctx context.Context, query string) (Evidence, error)
}

var timeHints = []string{"년", "월", "일", "시", "분", "초", "-", ":", "부터", "까지", "~", "between"}
var rangeHints = []string{"구간", "최근", "처음", "첫", "마지막", "최종"}

// Router layers a deterministic guardrail before the LLM classifier: a
// query naming a sensor field together with any time or range token is
// sensor data, no model call needed. Mid-confidence verdicts fall back to
// the evidence probe.
type Router struct {
	classifier Classifier
	prober     Prober
	threshold  int // minimum probe score that still counts as evidence
}

func NewRouter(classifier Classifier, prober Prober, threshold int) *Router {
	return &Router{classifier: classifier, prober: prober, threshold: threshold}
}

// Decide picks the route for a query.
func (r *Router) Decide(ctx context.Context, query string) Route {
	if deterministicSensorSignal(query) {
		return RouteSensor
	}

	intent := r.classifier.Classify(ctx, query)

	if intent.Domain == "sensor_data" && intent.Confidence >= 0.6 {
		return RouteSensor
	}
	if intent.Confidence >= 0.4 && intent.Confidence < 0.6 && r.prober != nil {
		ev, err := r.prober.QuickEvidence(ctx, query)
		if err == nil && ev.HasSchema && ev.BestScore >= r.threshold {
			return RouteSensor
		}
	}
	return RouteGeneral
}

func deterministicSensorSignal(query string) bool {
	if len(score.DetectFields(query)) == 0 {
		return false
	}
	if len(temporal.ExtractLiterals(query, temporal.Now())) > 0 {
		return true
	}
	for _, tok := range timeHints {
		if strings.Contains(query, tok) {
			return true
		}
	}
	for _, tok := range rangeHints {
		if strings.Contains(query, tok) {
			return true
		}
	}
	return false
}
