// Package artifact loads and caches pretrained model bundles from disk. A
// Store is the explicit process-wide cache: each component's bundle is read
// at most once and shared read-only afterwards.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gridsight/gridsight/internal/domain/catalog"
	"github.com/gridsight/gridsight/pkg/metrics"
)

// Bundle is one component's immutable model set.
type Bundle struct {
	Forecaster *SequenceModel
	Regressor  *TreeEnsemble
	Detector   *IsolationForest
}

// Store resolves component specs to loaded bundles. Safe for concurrent use;
// construction is first-writer-wins under the mutex, so a cold-start race
// loads once and every caller observes the same bundle.
type Store struct {
	root string
	subs map[string]string

	mu   sync.Mutex
	ens  map[string]*Bundle
	sims map[string]*SimBundle
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLossSubstitutions overrides the loss-name compatibility table used
// when validating sequence model artifacts.
func WithLossSubstitutions(subs map[string]string) Option {
	return func(s *Store) {
		if len(subs) > 0 {
			s.subs = subs
		}
	}
}

// NewStore creates a Store rooted at the model artifact directory.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{
		root: root,
		subs: defaultLossSubstitutions,
		ens:  map[string]*Bundle{},
		sims: map[string]*SimBundle{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bundle returns the component's model set, loading it on first access.
func (s *Store) Bundle(_ context.Context, spec catalog.Spec) (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.ens[spec.Key]; ok {
		return b, nil
	}

	start := time.Now()
	b, err := s.loadBundle(spec)
	if err != nil {
		return nil, err
	}
	metrics.ObserveModelLoad(time.Since(start))
	s.ens[spec.Key] = b
	metrics.SetArtifactCacheSize(len(s.ens) + len(s.sims))
	return b, nil
}

func (s *Store) loadBundle(spec catalog.Spec) (*Bundle, error) {
	dir := s.componentDir(spec.Folder)

	var forecaster SequenceModel
	lstmPath := filepath.Join(dir, spec.Prefix+"_LSTM.json")
	if err := decodeFile(lstmPath, &forecaster); err != nil {
		return nil, err
	}
	if err := forecaster.validate(lstmPath, s.subs); err != nil {
		return nil, err
	}

	var regressor TreeEnsemble
	xgbPath := filepath.Join(dir, spec.Prefix+"_XGBoost.json")
	if err := decodeFile(xgbPath, &regressor); err != nil {
		return nil, err
	}
	if err := regressor.validate(xgbPath); err != nil {
		return nil, err
	}

	var detector IsolationForest
	isoPath := filepath.Join(dir, spec.Prefix+"_IsolationForest.json")
	if err := decodeFile(isoPath, &detector); err != nil {
		return nil, err
	}
	if err := detector.validate(isoPath); err != nil {
		return nil, err
	}

	return &Bundle{Forecaster: &forecaster, Regressor: &regressor, Detector: &detector}, nil
}

// componentDir prefers the per-component folder and falls back to the store
// root when the folder does not exist.
func (s *Store) componentDir(folder string) string {
	if folder == "" {
		return s.root
	}
	dir := filepath.Join(s.root, folder)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return s.root
	}
	return dir
}

func decodeFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrModelMissing, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelMalformed, path, err)
	}
	return nil
}
