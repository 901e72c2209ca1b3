// Package catalog holds the per-component configuration tables that drive the
// generic diagnostic engine: reading schemas with alias chains and fallback
// defaults, normalization formulas, stress / fault-probability / health-penalty
// weight tables, fault libraries, and model artifact naming.
package catalog

// NormKind selects the normalization formula applied to a raw reading.
// Every formula is followed by clipping to [0,1].
type NormKind int

const (
	// NormRatio is raw/Scale.
	NormRatio NormKind = iota
	// NormLinear is (raw-Offset)/Scale.
	NormLinear
	// NormAbsRatio is |raw|/Scale.
	NormAbsRatio
	// NormOneMinus is (1-raw)/Scale, for quantities where lower is worse.
	NormOneMinus
	// NormAbsDeviation is |raw-Offset|/Scale, deviation from a nominal value.
	NormAbsDeviation
)

// AgingField is the sentinel term name referring to the derived asset aging
// value rather than a live reading.
const AgingField = "assetAging"

// Field describes one live reading: its canonical key, the legacy key aliases
// checked before it, the hardcoded fallback default, and how it normalizes.
type Field struct {
	Name    string
	Aliases []string
	Default float64
	Norm    NormKind
	Offset  float64
	Scale   float64
}

// Normalize applies the field's formula to a raw value and clips to [0,1].
func (f Field) Normalize(raw float64) float64 {
	var v float64
	switch f.Norm {
	case NormLinear:
		v = (raw - f.Offset) / f.Scale
	case NormAbsRatio:
		v = abs(raw) / f.Scale
	case NormOneMinus:
		v = (1 - raw) / f.Scale
	case NormAbsDeviation:
		v = abs(raw-f.Offset) / f.Scale
	default:
		v = raw / f.Scale
	}
	return Clip(v, 0, 1)
}

// Term is one weighted contribution to a stress or fault-probability sum.
// Invert uses weight*(1-norm); Field may be AgingField.
type Term struct {
	Field  string
	Weight float64
	Invert bool
}

// ImpactTerm is one weighted health-index penalty. The same table supplies the
// named impact-factor mapping, so declaration order doubles as the tie-break
// order for top-3 ranking.
type ImpactTerm struct {
	Name   string
	Field  string
	Weight float64
	Invert bool
}

// Fault is one entry of a component's fault library.
type Fault struct {
	Name    string
	Subpart string
}

// Spec is the full configuration of one diagnosable component type.
type Spec struct {
	// Key is the dispatch key, e.g. "circuitBreaker".
	Key string
	// LiveKey addresses the component's subtree in the realtime snapshot.
	LiveKey string
	// Prefix and Folder name the model artifact files on disk.
	Prefix string
	Folder string
	// SimName is the simulation bundle name; empty when the component has no
	// digital-twin variant.
	SimName string
	// AssetKey addresses the component's record list in asset metadata.
	AssetKey string

	DefaultInstallYear int

	// Fields in declaration order; this order is also the anomaly detector's
	// and the fault regressor's raw feature order.
	Fields []Field

	// SequenceField names the reading fed to the sequence forecaster;
	// ForecastUnit is used in explanation text.
	SequenceField string
	ForecastUnit  string

	StressTerms []Term
	FaultTerms  []Term
	Impact      []ImpactTerm

	// InstallYearFeature appends clip((year-1990)/35,0,1) as an extra
	// regressor feature (transformer models were trained with it).
	InstallYearFeature bool

	Faults []Fault
}

// Field returns the field with the given canonical name.
func (s Spec) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
