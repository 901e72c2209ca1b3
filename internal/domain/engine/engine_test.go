package engine_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/gridsight/gridsight/internal/domain/catalog"
	"github.com/gridsight/gridsight/internal/domain/engine"
	. "github.com/smartystreets/goconvey/convey"
)

// Stub models capture their inputs and return fixed outputs so the pipeline
// math can be asserted exactly.
type stubForecaster struct {
	out float64
	seq []float64
}

func (s *stubForecaster) Forecast(_ context.Context, seq []float64) (float64, error) {
	s.seq = append([]float64{}, seq...)
	return s.out, nil
}

type stubRegressor struct {
	out      float64
	features []float64
}

func (s *stubRegressor) Score(_ context.Context, features []float64) (float64, error) {
	s.features = append([]float64{}, features...)
	return s.out, nil
}

type stubDetector struct {
	label int
}

func (s *stubDetector) Detect(_ context.Context, _ []float64) (int, error) {
	return s.label, nil
}

func transformerData(overrides map[string]float64) map[string]float64 {
	data := map[string]float64{
		"live_OilTemperature_C":     70,
		"live_WindingTemperature_C": 84,
		"live_LoadingPercent":       90,
		"live_Hydrogen_ppm":         120,
		"live_Acetylene_ppm":        2,
		"live_Moisture_ppm":         24,
		"live_OilLevelPercent":      92,
		"live_TapPosition":          9,
		"installationYear":          2010,
	}
	for k, v := range overrides {
		data[k] = v
	}
	return data
}

func TestPredict(t *testing.T) {
	Convey("Given a transformer engine with stub models", t, func() {
		spec, ok := catalog.Lookup(catalog.KeyTransformer)
		So(ok, ShouldBeTrue)

		eng := engine.New(
			engine.WithReferenceYear(2025),
			engine.WithRand(rand.New(rand.NewSource(11))),
		)
		forecaster := &stubForecaster{out: 72.5}
		regressor := &stubRegressor{out: 0.42}
		detector := &stubDetector{label: 1}
		models := engine.Models{Forecaster: forecaster, Regressor: regressor, Detector: detector}

		Convey("When predicting on elevated readings", func() {
			rep, err := eng.Predict(context.Background(), spec, transformerData(nil), models)
			So(err, ShouldBeNil)

			Convey("Then the health index reflects the penalty table", func() {
				// Norms: oil 0.70, winding 0.70, loading 0.60, moisture 0.80,
				// aging (2025-2010)/40 = 0.375; penalties 20x each.
				So(rep.HealthIndex, ShouldAlmostEqual, 36.50, 1e-9)
			})

			Convey("And the combined fault probability uses the 0.5/0.3/0.2 mix", func() {
				// faultProb 0.6625, stress 0.70, aging 0.375 -> 0.61625.
				So(rep.FaultProbability, ShouldAlmostEqual, 0.616, 1e-9)
			})

			Convey("And a fault is drawn above the threshold", func() {
				names := make([]string, 0, len(spec.Faults))
				for _, f := range spec.Faults {
					names = append(names, f.Name)
				}
				So(names, ShouldContain, rep.PredictedFault)
				So(rep.AffectedSubpart, ShouldNotBeNil)
			})

			Convey("And the top factors rank by penalty with declaration-order ties", func() {
				So(rep.TopImpactFactors, ShouldResemble, []string{"Moisture", "OilTemperature", "WindingTemperature"})
			})

			Convey("And the model scores are attached with the native polarity inverted", func() {
				So(*rep.ForecastScore, ShouldEqual, 72.5)
				So(*rep.AnomalyScore, ShouldEqual, 0)
				So(*rep.RegressorScore, ShouldEqual, 0.42)
			})

			Convey("And the forecaster saw the repeated oil temperature window", func() {
				So(forecaster.seq, ShouldHaveLength, 20)
				for _, v := range forecaster.seq {
					So(v, ShouldEqual, 70.0)
				}
			})

			Convey("And the regressor saw raw features plus aging, stress, and install year", func() {
				So(regressor.features, ShouldHaveLength, 11)
				So(regressor.features[8], ShouldAlmostEqual, 0.375, 1e-9)
				So(regressor.features[9], ShouldAlmostEqual, 0.70, 1e-9)
				So(regressor.features[10], ShouldAlmostEqual, float64(2010-1990)/35, 1e-9)
			})

			Convey("And the timeline carries the default horizon", func() {
				So(rep.TimelinePrediction, ShouldHaveLength, 24)
			})

			Convey("And the explanation stays in the normal form below the high threshold", func() {
				So(rep.Explanation, ShouldStartWith, "Operating within normal parameters.")
			})
		})

		Convey("When predicting on low readings", func() {
			data := transformerData(map[string]float64{
				"live_OilTemperature_C":     40,
				"live_WindingTemperature_C": 48,
				"live_LoadingPercent":       45,
				"live_Moisture_ppm":         9,
				"installationYear":          2020,
			})
			rep, err := eng.Predict(context.Background(), spec, data, models)
			So(err, ShouldBeNil)

			Convey("Then the diagnosis is Normal with no subpart", func() {
				So(rep.PredictedFault, ShouldEqual, "Normal")
				So(rep.AffectedSubpart, ShouldBeNil)
			})
		})

		Convey("When the detector flags an outlier", func() {
			rep, err := eng.Predict(context.Background(), spec, transformerData(nil),
				engine.Models{Forecaster: forecaster, Regressor: regressor, Detector: &stubDetector{label: -1}})
			So(err, ShouldBeNil)
			So(*rep.AnomalyScore, ShouldEqual, 1)
		})

		Convey("When the fault probability crosses the high threshold", func() {
			data := transformerData(map[string]float64{
				"live_OilTemperature_C":     95,
				"live_WindingTemperature_C": 108,
				"live_LoadingPercent":       135,
				"live_Moisture_ppm":         30,
			})
			rep, err := eng.Predict(context.Background(), spec, data, models)
			So(err, ShouldBeNil)
			So(rep.Explanation, ShouldStartWith, "High fault probability detected.")
		})
	})
}

// Stateless stubs for the concurrency test; the capturing stubs above would
// race on their own fields.
type fixedForecaster float64

func (f fixedForecaster) Forecast(_ context.Context, _ []float64) (float64, error) {
	return float64(f), nil
}

type fixedRegressor float64

func (f fixedRegressor) Score(_ context.Context, _ []float64) (float64, error) {
	return float64(f), nil
}

type fixedDetector int

func (f fixedDetector) Detect(_ context.Context, _ []float64) (int, error) {
	return int(f), nil
}

func TestPredictConcurrent(t *testing.T) {
	Convey("Given one engine shared across goroutines", t, func() {
		spec, ok := catalog.Lookup(catalog.KeyTransformer)
		So(ok, ShouldBeTrue)
		placeholderSpec, _ := catalog.Lookup(catalog.KeyBattery)

		eng := engine.New(engine.WithReferenceYear(2025))
		models := engine.Models{
			Forecaster: fixedForecaster(72.5),
			Regressor:  fixedRegressor(0.42),
			Detector:   fixedDetector(1),
		}

		Convey("When predicting from several goroutines at once", func() {
			const workers = 8
			errs := make(chan error, workers)
			reports := make(chan *engine.Report, workers*2)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					rep, err := eng.Predict(context.Background(), spec, transformerData(nil), models)
					if err != nil {
						errs <- err
						return
					}
					reports <- rep
					reports <- eng.Placeholder(placeholderSpec, nil, nil)
				}()
			}
			wg.Wait()
			close(errs)
			close(reports)

			Convey("Then every prediction completes with in-range output", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				for rep := range reports {
					So(rep.HealthIndex, ShouldBeBetweenOrEqual, 0, 100)
					So(rep.TimelinePrediction, ShouldHaveLength, 24)
					for _, v := range rep.TimelinePrediction {
						So(v, ShouldBeBetweenOrEqual, 10, 150)
					}
				}
			})
		})
	})
}

func TestResolveReadings(t *testing.T) {
	Convey("Given the transformer reading schema", t, func() {
		spec, _ := catalog.Lookup(catalog.KeyTransformer)

		Convey("When readings mix legacy and canonical keys", func() {
			data := engine.ResolveReadings(spec, map[string]any{
				"oilTemp":                   55.0,
				"live_WindingTemperature_C": 81.0,
			}, 2012)

			Convey("Then legacy keys win and gaps fall back to defaults", func() {
				So(data["live_OilTemperature_C"], ShouldEqual, 55.0)
				So(data["live_WindingTemperature_C"], ShouldEqual, 81.0)
				So(data["live_LoadingPercent"], ShouldEqual, 80.0)
				So(data["installationYear"], ShouldEqual, 2012.0)
			})
		})
	})
}

func TestTopFactors(t *testing.T) {
	Convey("Given a factor list with ties", t, func() {
		factors := []engine.Factor{
			{Name: "A", Value: 14},
			{Name: "B", Value: 14},
			{Name: "C", Value: 16},
			{Name: "D", Value: 7.5},
		}

		Convey("When taking the top three", func() {
			So(engine.TopFactors(factors, 3), ShouldResemble, []string{"C", "A", "B"})
		})

		Convey("When asking for more than exist", func() {
			So(engine.TopFactors(factors[:2], 3), ShouldResemble, []string{"A", "B"})
		})
	})
}

func TestPlaceholder(t *testing.T) {
	Convey("Given a placeholder component", t, func() {
		spec, ok := catalog.Lookup(catalog.KeyBattery)
		So(ok, ShouldBeTrue)

		eng := engine.New(engine.WithRand(rand.New(rand.NewSource(3))))
		live := map[string]any{"voltage": 48.1}
		asset := map[string]any{"master": map[string]any{}}

		Convey("When building the heuristic report", func() {
			rep := eng.Placeholder(spec, live, asset)

			Convey("Then probability and health stay in range", func() {
				So(rep.FaultProbability, ShouldBeGreaterThanOrEqualTo, 0.05)
				So(rep.FaultProbability, ShouldBeLessThanOrEqualTo, 0.95)
				So(rep.HealthIndex, ShouldBeGreaterThanOrEqualTo, 0.0)
				So(rep.HealthIndex, ShouldBeLessThanOrEqualTo, 100.0)
			})

			Convey("And the model-score fields stay unset", func() {
				So(rep.ForecastScore, ShouldBeNil)
				So(rep.AnomalyScore, ShouldBeNil)
				So(rep.RegressorScore, ShouldBeNil)
				So(rep.TopImpactFactors, ShouldBeNil)
			})

			Convey("And the inputs echo back", func() {
				So(rep.LiveReadings, ShouldResemble, live)
				So(rep.AssetMetadata, ShouldResemble, asset)
				So(rep.TimelinePrediction, ShouldHaveLength, 24)
			})
		})
	})
}
