package engine

// Report is the assembled diagnostic output for one component. The JSON
// shape matches what the operations dashboard consumes; the four model-score
// fields are pointers because the placeholder path omits them entirely.
type Report struct {
	Component          string         `json:"component"`
	FaultProbability   float64        `json:"fault_probability"`
	HealthIndex        float64        `json:"health_index"`
	PredictedFault     string         `json:"predicted_fault"`
	AffectedSubpart    *string        `json:"affected_subpart"`
	Explanation        string         `json:"explanation"`
	TimelinePrediction []float64      `json:"timeline_prediction"`
	Timestamp          string         `json:"timestamp"`
	ForecastScore      *float64       `json:"LSTM_ForecastScore,omitempty"`
	AnomalyScore       *int           `json:"IsolationForestScore,omitempty"`
	RegressorScore     *float64       `json:"XGBoost_FaultScore,omitempty"`
	TopImpactFactors   []string       `json:"Top3_HealthImpactFactors,omitempty"`
	LiveReadings       map[string]any `json:"live_readings"`
	AssetMetadata      map[string]any `json:"asset_metadata"`
}
