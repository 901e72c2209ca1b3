// Package simulation implements the digital-twin prediction path: a single
// panel-driven feature row through the pre-fitted preprocessing chain, the
// tabular meta-regressor, and the hybrid sequence head.
package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gridsight/gridsight/internal/artifact"
	"github.com/gridsight/gridsight/internal/domain/catalog"
	"github.com/gridsight/gridsight/internal/domain/merge"
	"github.com/gridsight/gridsight/pkg/logger"
)

// installYearKeys are checked on the flattened asset record, in order, when
// the schema asks for an explicit ageYears column; the master record's
// installationYear is the final fallback.
var installYearKeys = []string{"installationYear", "installYear", "commissionedYear"}

// ageYearsColumn is the derived column name recognized in feature schemas.
const ageYearsColumn = "ageYears"

// AssetFetcher supplies substation asset metadata.
type AssetFetcher interface {
	FetchAssetMetadata(ctx context.Context, substationID string) (map[string]any, error)
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithAssets sets the asset metadata fetcher. Without one, predictions run
// on panel inputs alone.
func WithAssets(assets AssetFetcher) Option {
	return func(r *Runner) { r.assets = assets }
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithNow overrides the clock used for the ageYears derivation.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner executes simulation predictions against loaded bundles.
type Runner struct {
	store  *artifact.Store
	assets AssetFetcher
	log    logger.Logger
	now    func() time.Time
}

// NewRunner creates a Runner over an artifact store.
func NewRunner(store *artifact.Store, opts ...Option) *Runner {
	r := &Runner{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Predict runs the panel pipeline for one component and returns the named
// target mapping. An asset metadata fetch failure degrades to panel inputs
// only, with a warning; everything else is fatal.
func (r *Runner) Predict(ctx context.Context, spec catalog.Spec, substationID string, panel map[string]any) (map[string]float64, error) {
	if spec.SimName == "" {
		return nil, fmt.Errorf("component %q has no simulation models", spec.Key)
	}

	bundle, err := r.store.Sim(ctx, spec.SimName)
	if err != nil {
		return nil, err
	}

	assetMetadata := map[string]any{}
	if r.assets != nil {
		assetMetadata, err = r.assets.FetchAssetMetadata(ctx, substationID)
		if err != nil {
			if r.log != nil {
				r.log.Warn(ctx, "asset metadata fetch failed; using panel inputs only",
					logger.String("substation", substationID),
					logger.Error(err),
				)
			}
			assetMetadata = map[string]any{}
		}
	}

	row := r.buildFeatureRow(spec, bundle, assetMetadata, panel)

	scaled, err := preprocessRow(row, bundle)
	if err != nil {
		return nil, err
	}

	metaPred, err := bundle.Regr.Score(ctx, scaled)
	if err != nil {
		return nil, fmt.Errorf("meta regression: %w", err)
	}
	metaScaled, err := bundle.MetaScal.Transform([]float64{metaPred})
	if err != nil {
		return nil, fmt.Errorf("meta scaling: %w", err)
	}

	// The sequence window repeats the single scaled row, so the hybrid head
	// consumes the row directly.
	raw, err := bundle.Hybrid.Predict(ctx, scaled, metaScaled)
	if err != nil {
		return nil, fmt.Errorf("hybrid prediction: %w", err)
	}
	if len(raw) < len(bundle.Meta.Targets) {
		return nil, fmt.Errorf("hybrid head produced %d values for %d targets", len(raw), len(bundle.Meta.Targets))
	}

	result := make(map[string]float64, len(bundle.Meta.Targets)+1)
	for i, target := range bundle.Meta.Targets {
		result[target] = raw[i]
	}

	// trueHealth and overallHealth mirror each other; whichever the model
	// produces, the other is copied from it.
	if v, ok := result["trueHealth"]; ok {
		if _, has := result["overallHealth"]; !has {
			result["overallHealth"] = v
		}
	}
	if v, ok := result["overallHealth"]; ok {
		if _, has := result["trueHealth"]; !has {
			result["trueHealth"] = v
		}
	}
	return result, nil
}

// buildFeatureRow resolves every schema column through the layered
// precedence: panel input, then the flattened first asset record, then the
// flattened master record. Unresolved columns stay NaN for imputation.
func (r *Runner) buildFeatureRow(spec catalog.Spec, bundle *artifact.SimBundle, assetMetadata, panel map[string]any) map[string]any {
	master := asMap(assetMetadata["master"])
	assets := asMap(assetMetadata["assets"])

	assetObj := map[string]any{}
	if spec.AssetKey != "" {
		if list, ok := assets[spec.AssetKey].([]any); ok && len(list) > 0 {
			// The UI selects a single asset; use the first record.
			assetObj = asMap(list[0])
		}
	}

	flatMaster := merge.Flatten(master)
	flatAsset := merge.Flatten(assetObj)

	row := make(map[string]any, len(bundle.Meta.FeatureCols))
	for _, col := range bundle.Meta.FeatureCols {
		switch {
		case hasKey(panel, col):
			row[col] = panel[col]
		case hasKey(flatAsset, col):
			row[col] = flatAsset[col]
		case hasKey(flatMaster, col):
			row[col] = flatMaster[col]
		default:
			row[col] = math.NaN()
		}
	}

	if contains(bundle.Meta.FeatureCols, ageYearsColumn) {
		if year, ok := resolveInstallYear(flatAsset, flatMaster); ok {
			row[ageYearsColumn] = math.Max(0, float64(r.now().Year())-year)
		}
	}
	return row
}

func resolveInstallYear(flatAsset, flatMaster map[string]any) (float64, bool) {
	for _, key := range installYearKeys {
		if v, ok := merge.Number(flatAsset[key]); ok {
			return v, true
		}
	}
	if v, ok := merge.Number(flatMaster["installationYear"]); ok {
		return v, true
	}
	return 0, false
}

// preprocessRow encodes categorical columns, imputes missing numerics with
// the column median (0 when no median is defined), and scales.
func preprocessRow(row map[string]any, bundle *artifact.SimBundle) ([]float64, error) {
	cols := bundle.Meta.FeatureCols
	vec := make([]float64, len(cols))
	for i, col := range cols {
		v := row[col]

		if s, ok := v.(string); ok {
			if enc, categorical := bundle.Encoder.Encode(col, s); categorical {
				vec[i] = enc
				continue
			}
			vec[i] = math.NaN()
		} else if n, ok := merge.Number(v); ok {
			vec[i] = n
		} else {
			vec[i] = math.NaN()
		}

		if math.IsNaN(vec[i]) {
			if med, ok := bundle.Meta.Medians[col]; ok {
				vec[i] = med
			} else {
				vec[i] = 0
			}
		}
	}
	scaled, err := bundle.ScalerX.Transform(vec)
	if err != nil {
		return nil, fmt.Errorf("feature scaling: %w", err)
	}
	return scaled, nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
