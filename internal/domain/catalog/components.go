package catalog

// Component dispatch keys.
const (
	KeyTransformer = "transformer"
	KeyBreaker     = "circuitBreaker"
	KeyBusbar      = "busbar"
	KeyBayLines    = "bayLines"
	KeyIsolator    = "isolator"
	KeyBattery     = "battery"
	KeyGIS         = "gis"
	KeyRelay       = "relay"
	KeyPMU         = "pmu"
	KeyEnvironment = "environment"
)

var transformerSpec = Spec{
	Key:                KeyTransformer,
	LiveKey:            "transformer",
	Prefix:             "Transformer",
	Folder:             "transformer",
	SimName:            "transformer",
	AssetKey:           "transformers",
	DefaultInstallYear: 2010,
	Fields: []Field{
		{Name: "live_OilTemperature_C", Aliases: []string{"oilTemp"}, Default: 60.0, Norm: NormRatio, Scale: 100},
		{Name: "live_WindingTemperature_C", Aliases: []string{"windingTemp"}, Default: 75.0, Norm: NormRatio, Scale: 120},
		{Name: "live_LoadingPercent", Aliases: []string{"loading"}, Default: 80.0, Norm: NormRatio, Scale: 150},
		{Name: "live_Hydrogen_ppm", Aliases: []string{"hydrogen"}, Default: 50.0, Norm: NormRatio, Scale: 300},
		{Name: "live_Acetylene_ppm", Aliases: []string{"acetylene"}, Default: 0.5, Norm: NormRatio, Scale: 50},
		{Name: "live_Moisture_ppm", Aliases: []string{"moisture"}, Default: 18.0, Norm: NormRatio, Scale: 30},
		{Name: "live_OilLevelPercent", Aliases: []string{"oilLevel"}, Default: 95.0, Norm: NormRatio, Scale: 100},
		{Name: "live_TapPosition", Aliases: []string{"tapPosition"}, Default: 9, Norm: NormRatio, Scale: 17},
	},
	SequenceField: "live_OilTemperature_C",
	ForecastUnit:  "°C",
	StressTerms: []Term{
		{Field: "live_OilTemperature_C", Weight: 0.25},
		{Field: "live_WindingTemperature_C", Weight: 0.25},
		{Field: "live_LoadingPercent", Weight: 0.25},
		{Field: "live_Moisture_ppm", Weight: 0.25},
	},
	FaultTerms: []Term{
		{Field: "live_OilTemperature_C", Weight: 0.30},
		{Field: "live_WindingTemperature_C", Weight: 0.25},
		{Field: "live_LoadingPercent", Weight: 0.20},
		{Field: "live_Moisture_ppm", Weight: 0.15},
		{Field: AgingField, Weight: 0.10},
	},
	Impact: []ImpactTerm{
		{Name: "OilTemperature", Field: "live_OilTemperature_C", Weight: 20},
		{Name: "WindingTemperature", Field: "live_WindingTemperature_C", Weight: 20},
		{Name: "LoadingPercent", Field: "live_LoadingPercent", Weight: 20},
		{Name: "Moisture", Field: "live_Moisture_ppm", Weight: 20},
		{Name: "Aging", Field: AgingField, Weight: 20},
	},
	InstallYearFeature: true,
	Faults: []Fault{
		{Name: "Winding Hotspot", Subpart: "HV winding"},
		{Name: "Oil Degradation", Subpart: "Main tank"},
		{Name: "Tap Changer Wear", Subpart: "OLTC compartment"},
	},
}

var breakerSpec = Spec{
	Key:                KeyBreaker,
	LiveKey:            "breaker",
	Prefix:             "CircuitBreaker",
	Folder:             "circuitbreaker",
	SimName:            "circuitBreaker",
	AssetKey:           "breakers",
	DefaultInstallYear: 2014,
	Fields: []Field{
		{Name: "live_OperationTime_ms", Aliases: []string{"operationTime"}, Default: 62.0, Norm: NormRatio, Scale: 200},
		{Name: "live_SF6Pressure_bar", Aliases: []string{"sf6Density", "sf6Pressure"}, Default: 6.3, Norm: NormLinear, Offset: 5.5, Scale: 2.5},
		{Name: "live_MotorCurrent_A", Aliases: []string{"motorCurrent"}, Default: 14.6, Norm: NormRatio, Scale: 20},
	},
	SequenceField: "live_OperationTime_ms",
	ForecastUnit:  " ms",
	StressTerms: []Term{
		{Field: "live_OperationTime_ms", Weight: 0.40},
		{Field: "live_SF6Pressure_bar", Weight: 0.35, Invert: true},
		{Field: "live_MotorCurrent_A", Weight: 0.25},
	},
	FaultTerms: []Term{
		{Field: "live_OperationTime_ms", Weight: 0.35},
		{Field: "live_SF6Pressure_bar", Weight: 0.30, Invert: true},
		{Field: "live_MotorCurrent_A", Weight: 0.20},
		{Field: AgingField, Weight: 0.15},
	},
	Impact: []ImpactTerm{
		{Name: "OperationTime", Field: "live_OperationTime_ms", Weight: 30},
		{Name: "SF6Pressure", Field: "live_SF6Pressure_bar", Weight: 30, Invert: true},
		{Name: "MotorCurrent", Field: "live_MotorCurrent_A", Weight: 25},
		{Name: "Aging", Field: AgingField, Weight: 15},
	},
	Faults: []Fault{
		{Name: "Slow Operating Mechanism", Subpart: "Spring drive"},
		{Name: "SF6 Leak", Subpart: "Tank"},
		{Name: "Contact Wear", Subpart: "Arcing contact"},
	},
}

var busbarSpec = Spec{
	Key:                KeyBusbar,
	LiveKey:            "busbar",
	Prefix:             "Busbar",
	Folder:             "busbar",
	SimName:            "busbar",
	AssetKey:           "busbars",
	DefaultInstallYear: 2011,
	Fields: []Field{
		{Name: "live_BusVoltage_kV", Aliases: []string{"busVoltage"}, Default: 400.0, Norm: NormLinear, Offset: 380, Scale: 40},
		{Name: "live_BusCurrent_A", Aliases: []string{"busCurrent"}, Default: 2500.0, Norm: NormRatio, Scale: 5000},
		{Name: "live_BusTemperature_C", Aliases: []string{"busTemperature", "busbarTemperature"}, Default: 66.0, Norm: NormRatio, Scale: 100},
	},
	SequenceField: "live_BusTemperature_C",
	ForecastUnit:  "°C",
	StressTerms: []Term{
		{Field: "live_BusTemperature_C", Weight: 0.40},
		{Field: "live_BusCurrent_A", Weight: 0.35},
		{Field: "live_BusVoltage_kV", Weight: 0.25, Invert: true},
	},
	FaultTerms: []Term{
		{Field: "live_BusTemperature_C", Weight: 0.35},
		{Field: "live_BusCurrent_A", Weight: 0.30},
		{Field: "live_BusVoltage_kV", Weight: 0.20, Invert: true},
		{Field: AgingField, Weight: 0.15},
	},
	Impact: []ImpactTerm{
		{Name: "BusTemperature", Field: "live_BusTemperature_C", Weight: 30},
		{Name: "BusCurrent", Field: "live_BusCurrent_A", Weight: 30},
		{Name: "BusVoltage", Field: "live_BusVoltage_kV", Weight: 20, Invert: true},
		{Name: "Aging", Field: AgingField, Weight: 20},
	},
	Faults: []Fault{
		{Name: "Thermal Hotspot", Subpart: "Section-2"},
		{Name: "Shield Connection Loose", Subpart: "Spacer clamp"},
		{Name: "Overload Risk", Subpart: "Phase B"},
	},
}

var bayLinesSpec = Spec{
	Key:                KeyBayLines,
	LiveKey:            "bayLines",
	Prefix:             "BayLine",
	Folder:             "baylines",
	SimName:            "bayline",
	AssetKey:           "powerFlowLines",
	DefaultInstallYear: 2012,
	Fields: []Field{
		{Name: "live_BusVoltage_kV", Aliases: []string{"busVoltage"}, Default: 398.0, Norm: NormLinear, Offset: 380, Scale: 40},
		{Name: "live_LineCurrent_A", Aliases: []string{"lineCurrent"}, Default: 1780.0, Norm: NormRatio, Scale: 3000},
		{Name: "live_ActivePower_MW", Aliases: []string{"mw"}, Default: 640.0, Norm: NormRatio, Scale: 1500},
		{Name: "live_ReactivePower_MVAR", Aliases: []string{"mvar"}, Default: 40.0, Norm: NormAbsRatio, Scale: 500},
		{Name: "live_PowerFactor", Aliases: []string{"powerFactor"}, Default: 0.94, Norm: NormOneMinus, Scale: 0.5},
		{Name: "live_Frequency_Hz", Aliases: []string{"frequency"}, Default: 50.02, Norm: NormAbsDeviation, Offset: 50, Scale: 0.5},
		{Name: "live_THD_percent", Aliases: []string{"thd"}, Default: 2.6, Norm: NormRatio, Scale: 8},
	},
	SequenceField: "live_ActivePower_MW",
	ForecastUnit:  " MW",
	StressTerms: []Term{
		{Field: "live_LineCurrent_A", Weight: 0.25},
		{Field: "live_ActivePower_MW", Weight: 0.20},
		{Field: "live_PowerFactor", Weight: 0.20},
		{Field: "live_Frequency_Hz", Weight: 0.15},
		{Field: "live_THD_percent", Weight: 0.10},
		{Field: "live_BusVoltage_kV", Weight: 0.10, Invert: true},
	},
	FaultTerms: []Term{
		{Field: "live_LineCurrent_A", Weight: 0.20},
		{Field: "live_ActivePower_MW", Weight: 0.20},
		{Field: "live_PowerFactor", Weight: 0.15},
		{Field: "live_Frequency_Hz", Weight: 0.15},
		{Field: "live_THD_percent", Weight: 0.15},
		{Field: "live_BusVoltage_kV", Weight: 0.10, Invert: true},
		{Field: AgingField, Weight: 0.05},
	},
	Impact: []ImpactTerm{
		{Name: "LineCurrent", Field: "live_LineCurrent_A", Weight: 20},
		{Name: "ActivePower", Field: "live_ActivePower_MW", Weight: 20},
		{Name: "PowerFactor", Field: "live_PowerFactor", Weight: 15},
		{Name: "Frequency", Field: "live_Frequency_Hz", Weight: 15},
		{Name: "THD", Field: "live_THD_percent", Weight: 15},
		{Name: "BusVoltage", Field: "live_BusVoltage_kV", Weight: 10, Invert: true},
		{Name: "Aging", Field: AgingField, Weight: 5},
	},
	Faults: []Fault{
		{Name: "Power Swing / Stability Risk", Subpart: "Line section A"},
		{Name: "Voltage Sag", Subpart: "PT circuit"},
		{Name: "Current Unbalance", Subpart: "CT core"},
	},
}

var isolatorSpec = Spec{
	Key:                KeyIsolator,
	LiveKey:            "isolator",
	Prefix:             "Isolator",
	Folder:             "isolator",
	SimName:            "isolator",
	AssetKey:           "isolators",
	DefaultInstallYear: 2013,
	Fields: []Field{
		{Name: "live_ContactResistance_uOhm", Aliases: []string{"contactResistance"}, Default: 85.0, Norm: NormRatio, Scale: 200},
		{Name: "live_DriveTorque_Nm", Aliases: []string{"driveTorque"}, Default: 45.0, Norm: NormRatio, Scale: 100},
		{Name: "live_MotorCurrent_A", Aliases: []string{"motorCurrent"}, Default: 8.0, Norm: NormRatio, Scale: 15},
	},
	SequenceField: "live_ContactResistance_uOhm",
	ForecastUnit:  " µΩ",
	StressTerms: []Term{
		{Field: "live_ContactResistance_uOhm", Weight: 0.40},
		{Field: "live_DriveTorque_Nm", Weight: 0.35, Invert: true},
		{Field: "live_MotorCurrent_A", Weight: 0.25},
	},
	FaultTerms: []Term{
		{Field: "live_ContactResistance_uOhm", Weight: 0.35},
		{Field: "live_DriveTorque_Nm", Weight: 0.30, Invert: true},
		{Field: "live_MotorCurrent_A", Weight: 0.20},
		{Field: AgingField, Weight: 0.15},
	},
	Impact: []ImpactTerm{
		{Name: "ContactResistance", Field: "live_ContactResistance_uOhm", Weight: 30},
		{Name: "DriveTorque", Field: "live_DriveTorque_Nm", Weight: 30, Invert: true},
		{Name: "MotorCurrent", Field: "live_MotorCurrent_A", Weight: 25},
		{Name: "Aging", Field: AgingField, Weight: 15},
	},
	Faults: []Fault{
		{Name: "Drive Torque Drop", Subpart: "Drive shaft"},
		{Name: "Contact Resistance Rise", Subpart: "Jaw contact"},
		{Name: "Motor Stall", Subpart: "Motor unit"},
	},
}

// Placeholder components carry only a live key and a fault library; their
// reports come from the heuristic builder rather than the model ensemble.
var placeholderSpecs = map[string]Spec{
	KeyBattery: {
		Key: KeyBattery, LiveKey: "battery",
		Faults: []Fault{
			{Name: "Cell Imbalance", Subpart: "String-1"},
			{Name: "Float Voltage Drop", Subpart: "Charger unit"},
		},
	},
	KeyGIS: {
		Key: KeyGIS, LiveKey: "gis",
		Faults: []Fault{
			{Name: "Partial Discharge", Subpart: "Compartment C1"},
			{Name: "SF6 Moisture Rise", Subpart: "Compartment C3"},
		},
	},
	KeyRelay: {
		Key: KeyRelay, LiveKey: "relay",
		Faults: []Fault{
			{Name: "Firmware Fault", Subpart: "CPU board"},
			{Name: "Incorrect Settings", Subpart: "Zone-2 reach"},
		},
	},
	KeyPMU: {
		Key: KeyPMU, LiveKey: "pmu",
		Faults: []Fault{
			{Name: "GPS Unlock", Subpart: "Time sync module"},
			{Name: "Phasor Drift", Subpart: "ADC board"},
		},
	},
	KeyEnvironment: {
		Key: KeyEnvironment, LiveKey: "environment",
		Faults: []Fault{
			{Name: "Thermal Stress", Subpart: "Ambient"},
			{Name: "Humidity Spike", Subpart: "Control room"},
		},
	},
}

var modelSpecs = map[string]Spec{
	KeyTransformer: transformerSpec,
	KeyBreaker:     breakerSpec,
	KeyBusbar:      busbarSpec,
	KeyBayLines:    bayLinesSpec,
	KeyIsolator:    isolatorSpec,
}

// UndefinedFault is returned when selecting from an unknown component's
// (empty) fault library.
var UndefinedFault = Fault{Name: "Undefined Condition"}

// Lookup resolves a component key to its spec. The second return reports
// whether the key is known at all (model-backed or placeholder).
func Lookup(key string) (Spec, bool) {
	if s, ok := modelSpecs[key]; ok {
		return s, true
	}
	s, ok := placeholderSpecs[key]
	return s, ok
}

// IsPlaceholder reports whether the component has no model ensemble and is
// served by the heuristic placeholder path.
func IsPlaceholder(key string) bool {
	_, ok := placeholderSpecs[key]
	return ok
}

// Keys lists all supported dispatch keys, model-backed first.
func Keys() []string {
	keys := []string{KeyTransformer, KeyBreaker, KeyBusbar, KeyBayLines, KeyIsolator,
		KeyBattery, KeyGIS, KeyRelay, KeyPMU, KeyEnvironment}
	return keys
}
