// Package engine implements the shared diagnostic pipeline: feature
// normalization, multi-model fusion, impact ranking, fault selection, and
// report assembly. One engine serves every model-backed component type; the
// differences live entirely in the catalog tables.
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gridsight/gridsight/internal/domain/catalog"
	"github.com/gridsight/gridsight/internal/domain/merge"
	"github.com/gridsight/gridsight/internal/domain/timeline"
)

// Fixed pipeline constants.
const (
	// sequenceLen is the window fed to the sequence forecaster: the current
	// reading of the primary field repeated.
	sequenceLen = 20

	// faultThreshold separates Normal from a library-drawn fault. The
	// comparison uses the pre-fusion fault probability.
	faultThreshold = 0.55

	// highFaultThreshold switches the explanation to the model-score form.
	highFaultThreshold = 0.7

	// Combined fault probability mix.
	combinedFaultWeight  = 0.50
	combinedStressWeight = 0.30
	combinedAgingWeight  = 0.20

	// Asset aging reference lifespan in years.
	agingLifespanYears = 40

	// Regressor install-year feature normalization bounds.
	installYearBase = 1990
	installYearSpan = 35

	defaultTimelineHours = 24
)

// Forecaster is the sequence model: a fixed-length window in, one scalar out.
type Forecaster interface {
	Forecast(ctx context.Context, seq []float64) (float64, error)
}

// Regressor is the boosted-tree fault-score model.
type Regressor interface {
	Score(ctx context.Context, features []float64) (float64, error)
}

// Detector is the anomaly model. Detect returns the native label: 1 for an
// inlier, -1 for an outlier.
type Detector interface {
	Detect(ctx context.Context, features []float64) (int, error)
}

// Models bundles the three per-component models.
type Models struct {
	Forecaster Forecaster
	Regressor  Regressor
	Detector   Detector
}

// Factor is one named health-index penalty contribution.
type Factor struct {
	Name  string
	Value float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithReferenceYear sets the year used for asset aging.
func WithReferenceYear(year int) Option {
	return func(e *Engine) {
		if year > 0 {
			e.refYear = year
		}
	}
}

// WithTimelineHours sets the length of the synthetic forecast sequence.
func WithTimelineHours(hours int) Option {
	return func(e *Engine) {
		if hours > 0 {
			e.hours = hours
		}
	}
}

// WithRand sets the random source used for fault selection and timeline
// synthesis. Tests pass a seeded source for exact assertions.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// Engine runs the diagnostic pipeline. Safe for concurrent use; the shared
// random source is guarded by the mutex.
type Engine struct {
	refYear int
	hours   int

	mu  sync.Mutex
	rng *rand.Rand
}

// New constructs an Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		refYear: 2025,
		hours:   defaultTimelineHours,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // diagnostic variety, not crypto
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveReadings maps a raw reading mapping onto the spec's canonical
// fields, applying alias precedence and defaults. The result always contains
// every canonical field plus installationYear.
func ResolveReadings(spec catalog.Spec, readings map[string]any, installYear float64) map[string]float64 {
	data := make(map[string]float64, len(spec.Fields)+1)
	for _, f := range spec.Fields {
		data[f.Name] = merge.Resolve(readings, f)
	}
	data["installationYear"] = installYear
	return data
}

// Predict runs the full pipeline for one component and returns a report with
// the model-derived fields populated. The caller attaches live readings and
// asset metadata, which differ by invocation mode.
func (e *Engine) Predict(ctx context.Context, spec catalog.Spec, data map[string]float64, m Models) (*Report, error) {
	norms := make(map[string]float64, len(spec.Fields))
	raw := make([]float64, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		norms[f.Name] = f.Normalize(data[f.Name])
		raw = append(raw, data[f.Name])
	}

	aging := catalog.Clip((float64(e.refYear)-data["installationYear"])/agingLifespanYears, 0, 1)
	stress := catalog.Clip(weightedSum(spec.StressTerms, norms, aging), 0, 1)

	label, err := m.Detector.Detect(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("anomaly detection: %w", err)
	}
	// Native polarity is 1=inlier/-1=outlier; the reported score inverts it.
	anomaly := 1
	if label == 1 {
		anomaly = 0
	}

	seq := make([]float64, sequenceLen)
	for i := range seq {
		seq[i] = data[spec.SequenceField]
	}
	forecast, err := m.Forecaster.Forecast(ctx, seq)
	if err != nil {
		return nil, fmt.Errorf("sequence forecast: %w", err)
	}

	features := append(append([]float64{}, raw...), aging, stress)
	if spec.InstallYearFeature {
		iy := catalog.Clip((data["installationYear"]-installYearBase)/installYearSpan, 0, 1)
		features = append(features, iy)
	}
	faultScore, err := m.Regressor.Score(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("fault regression: %w", err)
	}

	faultProb := catalog.Clip(weightedSum(spec.FaultTerms, norms, aging), 0, 1)
	combined := catalog.Clip(
		combinedFaultWeight*faultProb+combinedStressWeight*stress+combinedAgingWeight*aging, 0, 1)

	impact := ImpactFactors(spec, norms, aging)
	health := 100.0
	for _, f := range impact {
		health -= f.Value
	}
	health = catalog.Clip(health, 0, 100)

	top := TopFactors(impact, 3)

	e.mu.Lock()
	fault := e.pickFault(spec.Faults, faultProb)
	timelineValues := timeline.Synthesize(e.rng, forecast, e.hours)
	e.mu.Unlock()

	var explanation string
	if faultProb > highFaultThreshold {
		explanation = fmt.Sprintf(
			"High fault probability detected. Primary concerns: %s. "+
				"LSTM forecast: %.2f%s, Isolation Forest anomaly: %d, XGBoost fault score: %.2f.",
			strings.Join(top[:min(2, len(top))], ", "), forecast, spec.ForecastUnit, anomaly, faultScore)
	} else {
		explanation = fmt.Sprintf(
			"Operating within normal parameters. Health index: %.1f%%. Top impact factors: %s.",
			health, strings.Join(top, ", "))
	}

	forecastScore := round2(forecast)
	regScore := round3(faultScore)
	rep := &Report{
		Component:          spec.Key,
		FaultProbability:   round3(combined),
		HealthIndex:        round2(health),
		PredictedFault:     fault.Name,
		AffectedSubpart:    fault.Subpart,
		Explanation:        explanation,
		TimelinePrediction: timelineValues,
		Timestamp:          time.Now().UTC().Format(time.RFC3339Nano),
		ForecastScore:      &forecastScore,
		AnomalyScore:       &anomaly,
		RegressorScore:     &regScore,
		TopImpactFactors:   top,
	}
	return rep, nil
}

// ImpactFactors evaluates the health-penalty table in declaration order.
func ImpactFactors(spec catalog.Spec, norms map[string]float64, aging float64) []Factor {
	out := make([]Factor, 0, len(spec.Impact))
	for _, t := range spec.Impact {
		v := termValue(t.Field, t.Invert, norms, aging)
		out = append(out, Factor{Name: t.Name, Value: t.Weight * v})
	}
	return out
}

// TopFactors returns the n highest-value factor names, descending. Ties keep
// declaration order (stable sort).
func TopFactors(factors []Factor, n int) []string {
	sorted := append([]Factor{}, factors...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })
	if n > len(sorted) {
		n = len(sorted)
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = sorted[i].Name
	}
	return names
}

// pickFault applies the threshold state machine: below the threshold the
// diagnosis is Normal, at or above it one library entry is drawn uniformly.
// Callers hold e.mu while drawing.
func (e *Engine) pickFault(library []catalog.Fault, probability float64) selectedFault {
	if probability < faultThreshold {
		return selectedFault{Name: "Normal"}
	}
	if len(library) == 0 {
		return selectedFault{Name: catalog.UndefinedFault.Name}
	}
	f := library[e.rng.Intn(len(library))]
	sub := f.Subpart
	return selectedFault{Name: f.Name, Subpart: &sub}
}

type selectedFault struct {
	Name    string
	Subpart *string
}

func weightedSum(terms []catalog.Term, norms map[string]float64, aging float64) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.Weight * termValue(t.Field, t.Invert, norms, aging)
	}
	return sum
}

func termValue(field string, invert bool, norms map[string]float64, aging float64) float64 {
	v := aging
	if field != catalog.AgingField {
		v = norms[field]
	}
	if invert {
		v = 1 - v
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
