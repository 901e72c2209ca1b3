package artifact

import (
	"context"
	"fmt"
	"math"
)

// Supported loss identifiers for sequence models, plus the substitutions
// applied when an artifact was exported with a legacy or framework-qualified
// name. Unknown names fail with ErrModelIncompatible after one substitution
// pass.
var (
	supportedLosses = map[string]struct{}{
		"mse": {},
		"mae": {},
	}
	defaultLossSubstitutions = map[string]string{
		"mean_squared_error":  "mse",
		"MeanSquaredError":    "mse",
		"mean_absolute_error": "mae",
		"MeanAbsoluteError":   "mae",
	}
)

// SequenceModel is the exported dense head of the sequence forecaster: one
// weight per timestep plus a bias.
type SequenceModel struct {
	Loss    string    `json:"loss"`
	SeqLen  int       `json:"seq_len"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (m *SequenceModel) validate(path string, subs map[string]string) error {
	if _, ok := supportedLosses[m.Loss]; !ok {
		if repl, ok := subs[m.Loss]; ok {
			m.Loss = repl
		}
	}
	if _, ok := supportedLosses[m.Loss]; !ok {
		return fmt.Errorf("%w: %s: unsupported loss %q", ErrModelIncompatible, path, m.Loss)
	}
	if len(m.Weights) == 0 {
		return fmt.Errorf("%w: %s: sequence model has no weights", ErrModelMalformed, path)
	}
	return nil
}

// Forecast evaluates the model over a window. Windows longer than the
// trained sequence length use the trailing timesteps.
func (m *SequenceModel) Forecast(_ context.Context, seq []float64) (float64, error) {
	if len(seq) == 0 {
		return 0, fmt.Errorf("sequence forecaster: empty window")
	}
	window := seq
	if len(window) > len(m.Weights) {
		window = window[len(window)-len(m.Weights):]
	}
	out := m.Bias
	for i, v := range window {
		out += m.Weights[i] * v
	}
	return out, nil
}

// TreeNode is one node of a regression or isolation tree, referenced by
// index within its tree's node slice.
type TreeNode struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	// Value is the leaf prediction for regression trees and the node sample
	// size for isolation trees.
	Value float64 `json:"value"`
}

// Tree is a flat array-indexed binary tree rooted at node 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeEnsemble is the exported additive boosted-tree regressor: the
// prediction is the base score plus the sum of the leaf values reached in
// every tree.
type TreeEnsemble struct {
	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
}

func (m *TreeEnsemble) validate(path string) error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: %s: ensemble has no trees", ErrModelMalformed, path)
	}
	return nil
}

// Score evaluates the ensemble on one feature vector.
func (m *TreeEnsemble) Score(_ context.Context, features []float64) (float64, error) {
	out := m.BaseScore
	for ti := range m.Trees {
		leaf, err := walk(&m.Trees[ti], features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", ti, err)
		}
		out += leaf.Value
	}
	return out, nil
}

// IsolationForest is the exported anomaly detector. A sample's average path
// length over the trees maps to an anomaly score in (0,1]; scores at or
// above the offset are labelled outliers.
type IsolationForest struct {
	Subsample int     `json:"subsample"`
	Offset    float64 `json:"offset"`
	Trees     []Tree  `json:"trees"`
}

func (m *IsolationForest) validate(path string) error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: %s: forest has no trees", ErrModelMalformed, path)
	}
	if m.Subsample < 2 {
		return fmt.Errorf("%w: %s: subsample must be >= 2", ErrModelMalformed, path)
	}
	return nil
}

// Detect returns the native label: 1 for an inlier, -1 for an outlier.
func (m *IsolationForest) Detect(_ context.Context, features []float64) (int, error) {
	var total float64
	for ti := range m.Trees {
		depth, size, err := isolationDepth(&m.Trees[ti], features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", ti, err)
		}
		total += float64(depth) + avgPathLength(size)
	}
	mean := total / float64(len(m.Trees))
	score := math.Pow(2, -mean/avgPathLength(float64(m.Subsample)))
	if score >= m.Offset {
		return -1, nil
	}
	return 1, nil
}

func walk(t *Tree, features []float64) (*TreeNode, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", idx)
		}
		n := &t.Nodes[idx]
		if n.Leaf {
			return n, nil
		}
		if n.Feature < 0 || n.Feature >= len(features) {
			return nil, fmt.Errorf("feature index %d out of range for %d features", n.Feature, len(features))
		}
		if features[n.Feature] < n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
	return nil, fmt.Errorf("tree walk did not terminate")
}

func isolationDepth(t *Tree, features []float64) (int, float64, error) {
	idx, depth := 0, 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, 0, fmt.Errorf("node index %d out of range", idx)
		}
		n := &t.Nodes[idx]
		if n.Leaf {
			return depth, n.Value, nil
		}
		if n.Feature < 0 || n.Feature >= len(features) {
			return 0, 0, fmt.Errorf("feature index %d out of range for %d features", n.Feature, len(features))
		}
		if features[n.Feature] < n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
		depth++
	}
	return 0, 0, fmt.Errorf("tree walk did not terminate")
}

// avgPathLength is the expected path length of an unsuccessful BST search in
// a tree built from n samples.
func avgPathLength(n float64) float64 {
	const eulerMascheroni = 0.5772156649
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	return 2*(math.Log(n-1)+eulerMascheroni) - 2*(n-1)/n
}
