package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gridsight/gridsight/pkg/metrics"
)

// Scaler is an exported standard scaler: (x - mean) / scale per column.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform scales one row in place-order. Zero scale entries pass values
// through unscaled beyond centering.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("scaler expects %d columns, got %d", len(s.Mean), len(row))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// OrdinalEncoder maps categorical column values to their fitted category
// index. Unknown values encode to -1.
type OrdinalEncoder struct {
	Categories map[string][]string `json:"categories"`
}

// Encode returns the ordinal for a column value and whether the column is
// categorical at all.
func (e *OrdinalEncoder) Encode(column, value string) (float64, bool) {
	cats, ok := e.Categories[column]
	if !ok {
		return 0, false
	}
	for i, c := range cats {
		if c == value {
			return float64(i), true
		}
	}
	return -1, true
}

// SimMetadata describes the simulation bundle's feature schema.
type SimMetadata struct {
	FeatureCols []string           `json:"feature_cols"`
	Targets     []string           `json:"targets"`
	UsedSeqLen  int                `json:"used_seq_len"`
	SeqLen      int                `json:"seq_len"`
	Medians     map[string]float64 `json:"medians"`
}

// SequenceLen resolves the trained window length, defaulting to 1.
func (m *SimMetadata) SequenceLen() int {
	if m.UsedSeqLen > 0 {
		return m.UsedSeqLen
	}
	if m.SeqLen > 0 {
		return m.SeqLen
	}
	return 1
}

// HybridModel is the exported hybrid sequence head used by the simulation
// pipeline: per-target linear combination of the scaled feature row (the
// repeated window collapses to the row itself) and the scaled meta
// prediction.
type HybridModel struct {
	Bias           []float64   `json:"bias"`
	FeatureWeights [][]float64 `json:"feature_weights"`
	MetaWeights    [][]float64 `json:"meta_weights"`
}

func (m *HybridModel) validate(path string) error {
	if len(m.Bias) == 0 || len(m.FeatureWeights) != len(m.Bias) || len(m.MetaWeights) != len(m.Bias) {
		return fmt.Errorf("%w: %s: inconsistent hybrid head shapes", ErrModelMalformed, path)
	}
	return nil
}

// Predict evaluates all targets for one scaled row and meta vector.
func (m *HybridModel) Predict(_ context.Context, features, meta []float64) ([]float64, error) {
	out := make([]float64, len(m.Bias))
	for t := range m.Bias {
		if len(m.FeatureWeights[t]) != len(features) {
			return nil, fmt.Errorf("hybrid head target %d expects %d features, got %d", t, len(m.FeatureWeights[t]), len(features))
		}
		if len(m.MetaWeights[t]) != len(meta) {
			return nil, fmt.Errorf("hybrid head target %d expects %d meta inputs, got %d", t, len(m.MetaWeights[t]), len(meta))
		}
		v := m.Bias[t]
		for i, w := range m.FeatureWeights[t] {
			v += w * features[i]
		}
		for i, w := range m.MetaWeights[t] {
			v += w * meta[i]
		}
		out[t] = v
	}
	return out, nil
}

// SimBundle is the digital-twin artifact set for one model name.
type SimBundle struct {
	Name     string
	Meta     *SimMetadata
	Regr     *TreeEnsemble
	Hybrid   *HybridModel
	ScalerX  *Scaler
	MetaScal *Scaler
	Encoder  *OrdinalEncoder
}

// Sim returns the simulation bundle for a model name, loading it on first
// access.
func (s *Store) Sim(_ context.Context, name string) (*SimBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.sims[name]; ok {
		return b, nil
	}

	start := time.Now()
	b, err := s.loadSim(name)
	if err != nil {
		return nil, err
	}
	metrics.ObserveModelLoad(time.Since(start))
	s.sims[name] = b
	metrics.SetArtifactCacheSize(len(s.ens) + len(s.sims))
	return b, nil
}

func (s *Store) loadSim(name string) (*SimBundle, error) {
	dir := s.simDir(name)
	p := func(file string) string { return filepath.Join(dir, file) }

	b := &SimBundle{
		Name:     name,
		Meta:     &SimMetadata{},
		Regr:     &TreeEnsemble{},
		Hybrid:   &HybridModel{},
		ScalerX:  &Scaler{},
		MetaScal: &Scaler{},
		Encoder:  &OrdinalEncoder{},
	}

	metaPath := p("metadata_" + name + ".json")
	if err := decodeFile(metaPath, b.Meta); err != nil {
		return nil, err
	}
	if len(b.Meta.FeatureCols) == 0 || len(b.Meta.Targets) == 0 {
		return nil, fmt.Errorf("%w: %s: metadata missing feature_cols or targets", ErrModelMalformed, metaPath)
	}

	xgbPath := p("xgb_model_" + name + ".json")
	if err := decodeFile(xgbPath, b.Regr); err != nil {
		return nil, err
	}
	if err := b.Regr.validate(xgbPath); err != nil {
		return nil, err
	}

	hybridPath := p("lstm_hybrid_" + name + ".json")
	if err := decodeFile(hybridPath, b.Hybrid); err != nil {
		return nil, err
	}
	if err := b.Hybrid.validate(hybridPath); err != nil {
		return nil, err
	}

	if err := decodeFile(p("scaler_X_"+name+".json"), b.ScalerX); err != nil {
		return nil, err
	}
	if err := decodeFile(p("meta_scaler_"+name+".json"), b.MetaScal); err != nil {
		return nil, err
	}
	if err := decodeFile(p("ordinal_encoder_"+name+".json"), b.Encoder); err != nil {
		return nil, err
	}
	return b, nil
}

// simDir prefers a per-model subdirectory containing the regressor file and
// falls back to the store root otherwise.
func (s *Store) simDir(name string) string {
	dir := filepath.Join(s.root, name)
	marker := filepath.Join(dir, "xgb_model_"+name+".json")
	if _, err := os.Stat(marker); err == nil {
		return dir
	}
	return s.root
}
