package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gridsight/gridsight/internal/adapters/http/api"
	"github.com/gridsight/gridsight/internal/app"
	"github.com/gridsight/gridsight/internal/domain/engine"
	. "github.com/smartystreets/goconvey/convey"
)

// mockService implements api.Dependencies with canned responses.
type mockService struct {
	report *engine.Report
	sim    map[string]float64
	err    error

	gotComponent  string
	gotArea       string
	gotSubstation string
	gotInput      map[string]any
	gotPanel      map[string]any
}

func (m *mockService) Predict(_ context.Context, component, areaCode, substationID string, input map[string]any) (*engine.Report, error) {
	m.gotComponent, m.gotArea, m.gotSubstation, m.gotInput = component, areaCode, substationID, input
	return m.report, m.err
}

func (m *mockService) Simulate(_ context.Context, component, substationID string, panel map[string]any) (map[string]float64, error) {
	m.gotComponent, m.gotSubstation, m.gotPanel = component, substationID, panel
	return m.sim, m.err
}

func (m *mockService) Components() []string {
	return []string{"transformer", "busbar"}
}

func newTestServer(svc *mockService) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)
	return httptest.NewServer(mux)
}

func TestHandlePredict(t *testing.T) {
	Convey("Given the API over a mock service", t, func() {
		subpart := "HV winding"
		svc := &mockService{report: &engine.Report{
			Component:        "transformer",
			FaultProbability: 0.616,
			HealthIndex:      36.5,
			PredictedFault:   "Winding Hotspot",
			AffectedSubpart:  &subpart,
		}}
		ts := newTestServer(svc)
		defer ts.Close()

		Convey("When posting a legacy-mode request", func() {
			body := `{"area_code":"north","substation_id":"SS-01"}`
			resp, err := http.Post(ts.URL+"/predict/transformer", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the report comes back as JSON", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var rep engine.Report
				So(json.NewDecoder(resp.Body).Decode(&rep), ShouldBeNil)
				So(rep.Component, ShouldEqual, "transformer")
				So(rep.FaultProbability, ShouldEqual, 0.616)
				So(*rep.AffectedSubpart, ShouldEqual, "HV winding")
			})

			Convey("And the request routed to the service", func() {
				So(svc.gotComponent, ShouldEqual, "transformer")
				So(svc.gotArea, ShouldEqual, "north")
				So(svc.gotSubstation, ShouldEqual, "SS-01")
				So(svc.gotInput, ShouldBeNil)
			})

			Convey("And a request ID header is attached", func() {
				So(resp.Header.Get("X-Request-Id"), ShouldNotBeEmpty)
			})
		})

		Convey("When posting direct input", func() {
			body := `{"input":{"oilTemp":55}}`
			resp, err := http.Post(ts.URL+"/predict/transformer", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(svc.gotInput, ShouldResemble, map[string]any{"oilTemp": 55.0})
		})

		Convey("When posting an empty body the legacy defaults apply", func() {
			resp, err := http.Post(ts.URL+"/predict/transformer", "application/json", strings.NewReader(""))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("When the component segment is missing", func() {
			resp, err := http.Post(ts.URL+"/predict/", "application/json", strings.NewReader("{}"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is not POST", func() {
			resp, err := http.Get(ts.URL + "/predict/transformer")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the service reports errors they map to statuses", func() {
			cases := []struct {
				err    error
				status int
			}{
				{fmt.Errorf("%w: %q", app.ErrUnknownComponent, "flywheel"), http.StatusNotFound},
				{fmt.Errorf("%w: bad mode", app.ErrUsage), http.StatusBadRequest},
				{fmt.Errorf("%w: realtime", app.ErrUpstreamFetch), http.StatusBadGateway},
				{fmt.Errorf("model exploded"), http.StatusInternalServerError},
			}
			for _, tc := range cases {
				svc.err = tc.err
				resp, err := http.Post(ts.URL+"/predict/transformer", "application/json", strings.NewReader("{}"))
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, tc.status)

				var payload map[string]any
				So(json.NewDecoder(resp.Body).Decode(&payload), ShouldBeNil)
				resp.Body.Close()
				So(payload["error"], ShouldNotBeEmpty)
				So(payload["component"], ShouldEqual, "transformer")
			}
		})
	})
}

func TestHandleSimulate(t *testing.T) {
	Convey("Given the API over a mock service", t, func() {
		svc := &mockService{sim: map[string]float64{"trueHealth": 66.0, "overallHealth": 66.0}}
		ts := newTestServer(svc)
		defer ts.Close()

		Convey("When posting a simulation request", func() {
			body := `{"substation_id":"SS-01","panel":{"load":40}}`
			resp, err := http.Post(ts.URL+"/simulate/transformer", "application/json", strings.NewReader(body))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var out map[string]float64
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			So(out["trueHealth"], ShouldEqual, 66.0)
			So(svc.gotPanel, ShouldResemble, map[string]any{"load": 40.0})
		})

		Convey("When the panel is missing", func() {
			resp, err := http.Post(ts.URL+"/simulate/transformer", "application/json", strings.NewReader(`{"substation_id":"SS-01"}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(ts.URL+"/simulate/transformer", "application/json", strings.NewReader("panel"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleUtility(t *testing.T) {
	Convey("Given the API over a mock service", t, func() {
		ts := newTestServer(&mockService{})
		defer ts.Close()

		Convey("When fetching the health endpoint", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var payload map[string]string
			So(json.NewDecoder(resp.Body).Decode(&payload), ShouldBeNil)
			So(payload["status"], ShouldEqual, "ok")
		})

		Convey("When fetching the component listing", func() {
			resp, err := http.Get(ts.URL + "/components")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var payload map[string][]string
			So(json.NewDecoder(resp.Body).Decode(&payload), ShouldBeNil)
			So(payload["components"], ShouldResemble, []string{"transformer", "busbar"})
		})

		Convey("When scraping the metrics endpoint", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
