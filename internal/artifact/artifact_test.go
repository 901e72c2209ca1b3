package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gridsight/gridsight/internal/artifact"
	"github.com/gridsight/gridsight/internal/domain/catalog"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	lstmJSON = `{"loss":"mean_squared_error","seq_len":20,"weights":[0.5,0.5],"bias":1.0}`
	xgbJSON  = `{"base_score":0.1,"trees":[{"nodes":[
		{"leaf":false,"feature":0,"threshold":1.0,"left":1,"right":2},
		{"leaf":true,"value":0.2},
		{"leaf":true,"value":0.4}]}]}`
	isoJSON = `{"subsample":256,"offset":0.6,"trees":[{"nodes":[
		{"leaf":false,"feature":0,"threshold":0.5,"left":1,"right":2},
		{"leaf":true,"value":1},
		{"leaf":true,"value":100}]}]}`
)

func writeArtifacts(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func flatSpec() catalog.Spec {
	return catalog.Spec{Key: "transformer", Prefix: "Transformer"}
}

func TestStoreBundle(t *testing.T) {
	Convey("Given a store over a complete artifact directory", t, func() {
		dir := t.TempDir()
		writeArtifacts(t, dir, map[string]string{
			"Transformer_LSTM.json":            lstmJSON,
			"Transformer_XGBoost.json":         xgbJSON,
			"Transformer_IsolationForest.json": isoJSON,
		})
		store := artifact.NewStore(dir)
		ctx := context.Background()

		Convey("When loading the bundle", func() {
			b, err := store.Bundle(ctx, flatSpec())
			So(err, ShouldBeNil)

			Convey("Then the forecaster evaluates the trailing window", func() {
				out, err := b.Forecaster.Forecast(ctx, []float64{9, 9, 3, 3})
				So(err, ShouldBeNil)
				So(out, ShouldEqual, 4.0)
			})

			Convey("And the legacy loss name was substituted", func() {
				So(b.Forecaster.Loss, ShouldEqual, "mse")
			})

			Convey("And the regressor sums base score and leaf values", func() {
				out, err := b.Regressor.Score(ctx, []float64{0.0})
				So(err, ShouldBeNil)
				So(out, ShouldAlmostEqual, 0.3, 1e-12)

				out, err = b.Regressor.Score(ctx, []float64{2.0})
				So(err, ShouldBeNil)
				So(out, ShouldAlmostEqual, 0.5, 1e-12)
			})

			Convey("And the detector labels by anomaly score against the offset", func() {
				label, err := b.Detector.Detect(ctx, []float64{0.0})
				So(err, ShouldBeNil)
				So(label, ShouldEqual, -1)

				label, err = b.Detector.Detect(ctx, []float64{1.0})
				So(err, ShouldBeNil)
				So(label, ShouldEqual, 1)
			})
		})

		Convey("When loading twice the bundle comes from the cache", func() {
			first, err := store.Bundle(ctx, flatSpec())
			So(err, ShouldBeNil)

			// Corrupt the file on disk; a second load must not touch it.
			writeArtifacts(t, dir, map[string]string{"Transformer_LSTM.json": "{"})

			second, err := store.Bundle(ctx, flatSpec())
			So(err, ShouldBeNil)
			So(second, ShouldEqual, first)
		})

		Convey("When the artifacts live in a per-component folder it is preferred", func() {
			sub := filepath.Join(dir, "transformer")
			So(os.Mkdir(sub, 0o750), ShouldBeNil)
			writeArtifacts(t, sub, map[string]string{
				"Transformer_LSTM.json":            `{"loss":"mae","seq_len":20,"weights":[1.0],"bias":0.0}`,
				"Transformer_XGBoost.json":         xgbJSON,
				"Transformer_IsolationForest.json": isoJSON,
			})
			spec := flatSpec()
			spec.Folder = "transformer"

			b, err := store.Bundle(ctx, spec)
			So(err, ShouldBeNil)
			So(b.Forecaster.Loss, ShouldEqual, "mae")
			So(b.Forecaster.Weights, ShouldHaveLength, 1)
		})
	})
}

func TestStoreBundleErrors(t *testing.T) {
	Convey("Given a store over an incomplete artifact directory", t, func() {
		dir := t.TempDir()
		writeArtifacts(t, dir, map[string]string{
			"Transformer_XGBoost.json":         xgbJSON,
			"Transformer_IsolationForest.json": isoJSON,
		})
		store := artifact.NewStore(dir)

		Convey("When the forecaster file is missing", func() {
			_, err := store.Bundle(context.Background(), flatSpec())
			So(err, ShouldWrap, artifact.ErrModelMissing)
			So(err.Error(), ShouldContainSubstring, "Transformer_LSTM.json")
		})

		Convey("When the forecaster file is malformed", func() {
			writeArtifacts(t, dir, map[string]string{"Transformer_LSTM.json": "not json"})
			_, err := store.Bundle(context.Background(), flatSpec())
			So(err, ShouldWrap, artifact.ErrModelMalformed)
		})

		Convey("When the forecaster loss has no substitution", func() {
			writeArtifacts(t, dir, map[string]string{
				"Transformer_LSTM.json": `{"loss":"hinge","seq_len":20,"weights":[1.0],"bias":0.0}`,
			})
			_, err := store.Bundle(context.Background(), flatSpec())
			So(err, ShouldWrap, artifact.ErrModelIncompatible)
		})

		Convey("When a custom substitution table covers the loss", func() {
			writeArtifacts(t, dir, map[string]string{
				"Transformer_LSTM.json": `{"loss":"hinge","seq_len":20,"weights":[1.0],"bias":0.0}`,
			})
			custom := artifact.NewStore(dir, artifact.WithLossSubstitutions(map[string]string{"hinge": "mse"}))
			b, err := custom.Bundle(context.Background(), flatSpec())
			So(err, ShouldBeNil)
			So(b.Forecaster.Loss, ShouldEqual, "mse")
		})
	})
}

func TestScalerAndEncoder(t *testing.T) {
	Convey("Given the preprocessing primitives", t, func() {
		Convey("When scaling a row", func() {
			s := &artifact.Scaler{Mean: []float64{10, 0}, Scale: []float64{2, 0}}
			out, err := s.Transform([]float64{14, 3})
			So(err, ShouldBeNil)
			So(out[0], ShouldEqual, 2.0)
			So(out[1], ShouldEqual, 3.0)
		})

		Convey("When the row width mismatches", func() {
			s := &artifact.Scaler{Mean: []float64{10}, Scale: []float64{2}}
			_, err := s.Transform([]float64{1, 2})
			So(err, ShouldNotBeNil)
		})

		Convey("When encoding categorical values", func() {
			e := &artifact.OrdinalEncoder{Categories: map[string][]string{"cooling": {"ONAN", "ONAF"}}}

			v, ok := e.Encode("cooling", "ONAF")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1.0)

			v, ok = e.Encode("cooling", "OFAF")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, -1.0)

			_, ok = e.Encode("mva", "315")
			So(ok, ShouldBeFalse)
		})
	})
}
