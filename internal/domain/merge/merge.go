// Package merge combines live telemetry, asset metadata, and simulation panel
// inputs into the flat views the diagnostic engine consumes. Missing or
// malformed sections always degrade to empty values; nothing here fails.
package merge

import (
	"math"

	"github.com/gridsight/gridsight/internal/domain/catalog"
)

// Merged is the flattened view over one component's live readings and the
// substation's asset metadata.
type Merged struct {
	Live               map[string]any
	AssetInfo          map[string]any
	Condition          map[string]any
	MaintenanceHistory []any
	OperationHistory   []any
	InstallationYear   *float64
	Metadata           map[string]any
}

// Inputs merges a live reading map with asset metadata. Either side may be
// nil or partially populated.
func Inputs(live, asset map[string]any) Merged {
	m := Merged{
		Live:               live,
		AssetInfo:          asMap(asset["assets"]),
		Condition:          asMap(asset["conditionAssessment"]),
		MaintenanceHistory: asList(asset["maintenanceHistory"]),
		OperationHistory:   asList(asset["operationHistory"]),
		Metadata:           asMap(asset["master"]),
	}
	if m.Live == nil {
		m.Live = map[string]any{}
	}
	if year, ok := Number(m.Metadata["installationYear"]); ok {
		m.InstallationYear = &year
	}
	return m
}

// Resolve looks a field up in a reading map through its alias chain, legacy
// keys first, then the canonical name, then the hardcoded default. Values
// that are present but not numeric are skipped.
func Resolve(readings map[string]any, f catalog.Field) float64 {
	for _, key := range f.Aliases {
		if v, ok := Number(readings[key]); ok {
			return v
		}
	}
	if v, ok := Number(readings[f.Name]); ok {
		return v
	}
	return f.Default
}

// Flatten recursively flattens a nested mapping into a single level, joining
// parent and child keys with an underscore. List values are dropped entirely;
// only scalar features are consumed downstream.
func Flatten(obj map[string]any) map[string]any {
	out := map[string]any{}
	flattenInto("", obj, out)
	return out
}

func flattenInto(prefix string, obj any, out map[string]any) {
	switch v := obj.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "_" + k
			}
			flattenInto(key, child, out)
		}
	case []any:
		return
	default:
		if prefix != "" {
			out[prefix] = obj
		}
	}
}

// Number coerces a metadata value to float64. NaN is rejected so callers can
// rely on the ok flag alone.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}
