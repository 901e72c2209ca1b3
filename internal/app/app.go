// Package app wires the diagnostic engine, the model artifact store, the
// simulation runner, and the upstream data sources into the service-level
// operations: legacy predictions, direct predictions, and simulations.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/gridsight/gridsight/internal/artifact"
	"github.com/gridsight/gridsight/internal/domain/catalog"
	"github.com/gridsight/gridsight/internal/domain/engine"
	"github.com/gridsight/gridsight/internal/domain/merge"
	"github.com/gridsight/gridsight/internal/simulation"
	"github.com/gridsight/gridsight/pkg/logger"
	"github.com/gridsight/gridsight/pkg/metrics"
)

// TelemetryFetcher supplies the realtime snapshot for one substation.
type TelemetryFetcher interface {
	FetchRealtime(ctx context.Context, areaCode, substationID string) (map[string]any, error)
}

// AssetFetcher supplies substation asset metadata.
type AssetFetcher interface {
	FetchAssetMetadata(ctx context.Context, substationID string) (map[string]any, error)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTelemetry sets the realtime telemetry source.
func WithTelemetry(t TelemetryFetcher) Option {
	return func(s *Service) { s.telemetry = t }
}

// WithAssets sets the asset metadata source.
func WithAssets(a AssetFetcher) Option {
	return func(s *Service) { s.assets = a }
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore sets the model artifact store.
func WithStore(store *artifact.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRand seeds the engine's random source; tests pass a deterministic one.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, engine.WithRand(rng)) }
}

// WithReferenceYear sets the year asset aging is computed against.
func WithReferenceYear(year int) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, engine.WithReferenceYear(year)) }
}

// WithTimelineHours sets the synthetic forecast length.
func WithTimelineHours(hours int) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, engine.WithTimelineHours(hours)) }
}

// Service exposes the prediction operations over loaded models and upstream
// data sources.
type Service struct {
	telemetry TelemetryFetcher
	assets    AssetFetcher
	store     *artifact.Store
	log       logger.Logger

	engineOpts []engine.Option
	engine     *engine.Engine
	sim        *simulation.Runner
}

// New constructs a Service. A store is required for model-backed predictions;
// telemetry and asset fetchers are required only for the legacy mode.
func New(opts ...Option) *Service {
	s := &Service{
		store: artifact.NewStore("model_files"),
		log:   logger.Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = engine.New(s.engineOpts...)

	simOpts := []simulation.Option{simulation.WithLogger(s.log.Named("simulation"))}
	if s.assets != nil {
		simOpts = append(simOpts, simulation.WithAssets(s.assets))
	}
	s.sim = simulation.NewRunner(s.store, simOpts...)
	return s
}

// Predict runs one diagnostic prediction. With input, the direct mode runs on
// the supplied readings alone; otherwise the legacy mode fetches telemetry
// and asset metadata for area/substation first.
func (s *Service) Predict(ctx context.Context, component, areaCode, substationID string, input map[string]any) (*engine.Report, error) {
	spec, ok := catalog.Lookup(component)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, component)
	}

	mode := "legacy"
	if input != nil {
		mode = "direct"
	}

	start := time.Now()
	rep, err := s.predict(ctx, spec, areaCode, substationID, input)
	if err != nil {
		metrics.RecordPredictionError(component)
		return nil, err
	}
	metrics.RecordPrediction(component, mode)
	metrics.ObserveInference(component, time.Since(start))

	s.log.Info(ctx, "prediction completed",
		logger.String("component", component),
		logger.String("mode", mode),
		logger.Float64("fault_probability", rep.FaultProbability),
		logger.Float64("health_index", rep.HealthIndex),
	)
	return rep, nil
}

func (s *Service) predict(ctx context.Context, spec catalog.Spec, areaCode, substationID string, input map[string]any) (*engine.Report, error) {
	if catalog.IsPlaceholder(spec.Key) {
		if input != nil {
			return nil, fmt.Errorf("%w: component %q supports area/substation input only", ErrUsage, spec.Key)
		}
		live, asset, err := s.fetchUpstream(ctx, spec, areaCode, substationID)
		if err != nil {
			return nil, err
		}
		return s.engine.Placeholder(spec, live, asset), nil
	}

	var (
		live  map[string]any
		asset map[string]any
	)
	if input != nil {
		// Direct mode runs on the caller's readings, with no metadata side.
		live, asset = input, map[string]any{}
	} else {
		var err error
		live, asset, err = s.fetchUpstream(ctx, spec, areaCode, substationID)
		if err != nil {
			return nil, err
		}
	}

	merged := merge.Inputs(live, asset)
	installYear := resolveInstallYear(merged, spec)
	if input != nil {
		// Direct mode carries the year in the input itself.
		if y, ok := merge.Number(input["installationYear"]); ok {
			installYear = y
		}
	}
	data := engine.ResolveReadings(spec, merged.Live, installYear)

	bundle, err := s.store.Bundle(ctx, spec)
	if err != nil {
		return nil, err
	}
	rep, err := s.engine.Predict(ctx, spec, data, engine.Models{
		Forecaster: bundle.Forecaster,
		Regressor:  bundle.Regressor,
		Detector:   bundle.Detector,
	})
	if err != nil {
		return nil, err
	}
	rep.LiveReadings = merged.Live
	rep.AssetMetadata = asset
	return rep, nil
}

// Simulate runs the digital-twin pipeline for one component and panel.
func (s *Service) Simulate(ctx context.Context, component, substationID string, panel map[string]any) (map[string]float64, error) {
	spec, ok := catalog.Lookup(component)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, component)
	}
	if spec.SimName == "" {
		return nil, fmt.Errorf("%w: component %q has no simulation models", ErrUsage, component)
	}

	start := time.Now()
	out, err := s.sim.Predict(ctx, spec, substationID, panel)
	if err != nil {
		metrics.RecordPredictionError(component)
		return nil, err
	}
	metrics.RecordPrediction(component, "simulation")
	metrics.ObserveInference(component, time.Since(start))
	return out, nil
}

// Components lists the supported dispatch keys.
func (s *Service) Components() []string { return catalog.Keys() }

// Close releases upstream connections when the fetchers own any.
func (s *Service) Close() error {
	type closer interface{ Close() error }
	if c, ok := s.telemetry.(closer); ok {
		return c.Close()
	}
	return nil
}

// fetchUpstream pulls the component's live section and the substation asset
// metadata. Fetch failures are fatal here; only the simulation path degrades
// a failed asset fetch.
func (s *Service) fetchUpstream(ctx context.Context, spec catalog.Spec, areaCode, substationID string) (map[string]any, map[string]any, error) {
	if areaCode == "" || substationID == "" {
		return nil, nil, fmt.Errorf("%w: area and substation are required without direct input", ErrUsage)
	}
	if s.telemetry == nil {
		return nil, nil, fmt.Errorf("%w: no telemetry source configured", ErrUpstreamFetch)
	}

	snapshot, err := s.telemetry.FetchRealtime(ctx, areaCode, substationID)
	if err != nil {
		metrics.RecordUpstreamFetchError()
		return nil, nil, fmt.Errorf("%w: realtime: %v", ErrUpstreamFetch, err)
	}
	live, _ := snapshot[spec.LiveKey].(map[string]any)
	if live == nil {
		live = map[string]any{}
	}

	asset := map[string]any{}
	if s.assets != nil {
		asset, err = s.assets.FetchAssetMetadata(ctx, substationID)
		if err != nil {
			metrics.RecordUpstreamFetchError()
			return nil, nil, fmt.Errorf("%w: asset metadata: %v", ErrUpstreamFetch, err)
		}
	}
	return live, asset, nil
}

// resolveInstallYear walks the metadata fallback chain down to the
// per-component default.
func resolveInstallYear(m merge.Merged, spec catalog.Spec) float64 {
	if m.InstallationYear != nil {
		return *m.InstallationYear
	}
	if y, ok := merge.Number(m.AssetInfo["installationYear"]); ok {
		return y
	}
	return float64(spec.DefaultInstallYear)
}
