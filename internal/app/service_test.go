package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/disasterscope/internal/app"
	"github.com/okian/disasterscope/internal/config"
	"github.com/okian/disasterscope/internal/domain/alert"
	"github.com/okian/disasterscope/internal/domain/classifier"
	"github.com/okian/disasterscope/internal/domain/reference"
	"github.com/okian/disasterscope/internal/domain/risk"
	"github.com/okian/disasterscope/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fixedModel returns the same positive-class probability for every row.
type fixedModel struct {
	p        float64
	err      error
	features []string
	calls    atomic.Int32
	lastRow  atomic.Value
}

func (m *fixedModel) Name() string                       { return "fixed" }
func (m *fixedModel) Kind() classifier.Kind              { return classifier.KindLogisticRegression }
func (m *fixedModel) Capability() classifier.Capability  { return classifier.CapabilityProbability }
func (m *fixedModel) FeatureNames() []string             { return m.features }
func (m *fixedModel) NFeatures() int                     { return max(len(m.features), 2) }
func (m *fixedModel) Predict(classifier.Row) (int, error) { return 0, nil }

func (m *fixedModel) PredictProba(row classifier.Row) ([]float64, error) {
	m.calls.Add(1)
	m.lastRow.Store(row)
	if m.err != nil {
		return nil, m.err
	}
	return []float64{1 - m.p, m.p}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(_ context.Context, a alert.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

func (n *recordingNotifier) received() []alert.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alert.Alert(nil), n.alerts...)
}

func quakes() *reference.Table {
	return reference.NewTable(reference.Earthquakes,
		[]string{"title", "magnitude", "depth", "latitude", "longitude"},
		[][]string{
			{"a", "6.0", "20", "35.0", "139.0"},
			{"b", "7.0", "40", "35.1", "139.1"},
			{"c", "5.0", "30", "-10.0", "20.0"},
		})
}

func newSnapshot(eq, fl, wf *fixedModel) *service.Snapshot {
	snap, err := service.NewSnapshot(
		map[risk.Hazard]classifier.Model{risk.Earthquake: eq, risk.Flood: fl, risk.Wildfire: wf},
		map[risk.Hazard]*reference.Table{risk.Earthquake: quakes()},
	)
	So(err, ShouldBeNil)
	return snap
}

func TestSnapshot(t *testing.T) {
	Convey("Given models and a single dataset", t, func() {
		snap := newSnapshot(&fixedModel{}, &fixedModel{}, &fixedModel{})

		Convey("Then missing tables are empty and defaults come from the data", func() {
			So(snap.Table(risk.Flood).Len(), ShouldEqual, 0)
			So(snap.Table(risk.Flood).Name(), ShouldEqual, reference.Floods)
			So(snap.Defaults()["magnitude"].Value, ShouldAlmostEqual, 6.0, 1e-9)
			So(snap.Defaults()["magnitude"].Source, ShouldEqual, "dataset:earthquakes.magnitude")
			So(snap.Defaults()["rainfall"].Value, ShouldEqual, 100.0)
		})
	})

	Convey("Given a hazard without a model", t, func() {
		_, err := service.NewSnapshot(map[risk.Hazard]classifier.Model{risk.Earthquake: &fixedModel{}}, nil)

		Convey("Then the snapshot is rejected", func() {
			So(errors.Is(err, service.ErrModelMissing), ShouldBeTrue)
		})
	})
}

func TestPredict(t *testing.T) {
	Convey("Given a service with fixed models and a fake clock", t, func() {
		clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))
		eq := &fixedModel{p: 0.123456, features: []string{"Latitude", "Longitude", "Magnitude", "Depth"}}
		fl := &fixedModel{p: 0.45}
		wf := &fixedModel{p: 0.05}
		svc := service.New(newSnapshot(eq, fl, wf), service.WithClock(clock))
		ctx := context.Background()

		Convey("When predicting near historical earthquakes", func() {
			res, err := svc.Predict(ctx, 35.05, 139.05)
			So(err, ShouldBeNil)

			Convey("Then each hazard is bucketed", func() {
				So(res.Earthquake.Probability, ShouldEqual, 12.35)
				So(res.Earthquake.Level, ShouldEqual, risk.Low)
				So(res.Flood.Probability, ShouldEqual, 45.0)
				So(res.Flood.Level, ShouldEqual, risk.Medium)
				So(res.Wildfire.Level, ShouldEqual, risk.VeryLow)
			})

			Convey("Then the overall level follows the maximum", func() {
				So(res.Overall.MaxProbability, ShouldEqual, 45.0)
				So(res.Overall.RiskLevel, ShouldEqual, risk.Medium)
				So(res.Overall.Message, ShouldEqual, risk.Medium.Message())
			})

			Convey("Then nearby counts and location are filled", func() {
				So(res.Counts.Earthquake, ShouldEqual, 2)
				So(res.Counts.Flood, ShouldEqual, 0)
				So(res.Location.Coordinates, ShouldEqual, "35.0500, 139.0500")
				So(res.Location.Lat, ShouldEqual, 35.05)
				So(res.Timestamp, ShouldEqual, "2026-10-19T10:00:00Z")
			})

			Convey("Then the model saw its declared schema", func() {
				row := eq.lastRow.Load().(classifier.Row)
				So(row.Columns, ShouldResemble, []string{"Latitude", "Longitude", "Magnitude", "Depth"})
				So(row.Values[0], ShouldEqual, 35.05)
				So(row.Values[2], ShouldAlmostEqual, 6.0, 1e-9)
				So(row.Values[3], ShouldAlmostEqual, 30.0, 1e-9)
			})
		})

		Convey("When a model fails", func() {
			fl.err = errors.New("shape mismatch")
			_, err := svc.Predict(ctx, 0, 0)

			Convey("Then the hazard is named in the error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldEqual, "Flood model error: prediction error: shape mismatch")
				So(errors.Is(err, classifier.ErrPrediction), ShouldBeTrue)
			})
		})

		Convey("When coordinates are out of range", func() {
			_, err := svc.Predict(ctx, 91, 0)
			So(errors.Is(err, service.ErrInvalidCoordinates), ShouldBeTrue)
		})
	})
}

func TestPredictCache(t *testing.T) {
	Convey("Given a service with a result cache", t, func() {
		clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))
		eq, fl, wf := &fixedModel{p: 0.2}, &fixedModel{p: 0.2}, &fixedModel{p: 0.2}
		svc := service.New(newSnapshot(eq, fl, wf), service.WithClock(clock), service.WithCacheTTL(time.Minute))
		ctx := context.Background()

		Convey("When the same rounded location is queried twice", func() {
			first, err := svc.Predict(ctx, 10.00001, 20.00001)
			So(err, ShouldBeNil)
			clock.Advance(5 * time.Second)
			second, err := svc.Predict(ctx, 10.00002, 20.00002)
			So(err, ShouldBeNil)

			Convey("Then the models run once and the timestamp is fresh", func() {
				So(eq.calls.Load(), ShouldEqual, 1)
				So(second.Earthquake, ShouldResemble, first.Earthquake)
				So(second.Timestamp, ShouldEqual, "2026-10-19T10:00:05Z")
			})
		})
	})
}

func TestAlertDispatch(t *testing.T) {
	Convey("Given a started service with a recording notifier", t, func() {
		clock := clockwork.NewFakeClock()
		n := &recordingNotifier{}
		eq, fl, wf := &fixedModel{p: 0.2}, &fixedModel{p: 0.9}, &fixedModel{p: 0.9}
		svc := service.New(newSnapshot(eq, fl, wf),
			service.WithClock(clock),
			service.WithNotifier(n),
			service.WithRecipient("1945"),
			service.WithAlertCooldown(time.Minute),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When a high-risk location is predicted repeatedly", func() {
			_, err := svc.Predict(ctx, 23.8103, 90.4125)
			So(err, ShouldBeNil)
			_, err = svc.Predict(ctx, 23.8103, 90.4125)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then one alert names the earliest top hazard", func() {
				got := n.received()
				So(len(got), ShouldEqual, 1)
				So(got[0].Hazard, ShouldEqual, risk.Flood)
				So(got[0].Recipient, ShouldEqual, "1945")
				So(got[0].Message, ShouldEqual, "ALERT: High Flood Risk at 23.8103,90.4125 - 90.0%")
			})
		})

		Convey("When the risk is below the threshold", func() {
			fl.p, wf.p = 0.3, 0.3
			_, err := svc.Predict(ctx, 1, 1)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then nothing is sent", func() {
				So(n.received(), ShouldBeEmpty)
			})
		})

		Convey("When predicting after Stop", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			_, err := svc.Predict(ctx, 5, 5)

			Convey("Then the request still succeeds", func() {
				So(err, ShouldBeNil)
				So(n.received(), ShouldBeEmpty)
			})
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(newSnapshot(&fixedModel{}, &fixedModel{}, &fixedModel{}))

		Convey("Then stats describe each table", func() {
			st := svc.Stats()
			So(st.Earthquakes.TotalRecords, ShouldEqual, 3)
			So(st.Earthquakes.Columns, ShouldResemble, []string{"title", "magnitude", "depth", "latitude", "longitude"})
			So(st.Floods.TotalRecords, ShouldEqual, 0)
			So(st.Floods.Columns, ShouldBeEmpty)
		})

		Convey("Then health reports loaded models", func() {
			So(svc.Health(), ShouldResemble, service.Health{Status: "healthy", ModelsLoaded: true})
		})
	})

	Convey("Given a dataset with a header and no rows", t, func() {
		m := &fixedModel{}
		snap, err := service.NewSnapshot(
			map[risk.Hazard]classifier.Model{risk.Earthquake: m, risk.Flood: m, risk.Wildfire: m},
			map[risk.Hazard]*reference.Table{
				risk.Earthquake: reference.NewTable(reference.Earthquakes, []string{"latitude", "longitude"}, nil),
			},
		)
		So(err, ShouldBeNil)
		st := service.New(snap).Stats()

		Convey("Then its stats list no columns", func() {
			So(st.Earthquakes.TotalRecords, ShouldEqual, 0)
			So(st.Earthquakes.Columns, ShouldNotBeNil)
			So(st.Earthquakes.Columns, ShouldBeEmpty)

			data, err := json.Marshal(st.Earthquakes)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"total_records":0,"columns":[]}`)
		})
	})
}

const testModel = `{"kind": "logistic_regression", "n_features": 2, "coefficients": [0, 0], "intercept": 0}`

func TestLoad(t *testing.T) {
	Convey("Given a config pointing at a temp directory", t, func() {
		dir := t.TempDir()
		cfg := config.New()
		cfg.ModelDir = dir
		cfg.DataDir = dir
		for _, name := range []string{cfg.EarthquakeModel, cfg.FloodModel, cfg.WildfireModel} {
			So(os.WriteFile(filepath.Join(dir, name), []byte(testModel), 0o600), ShouldBeNil)
		}
		So(os.WriteFile(filepath.Join(dir, cfg.EarthquakeData),
			[]byte("latitude,longitude,magnitude,depth\n1,1,4.0,10\n2,2,6.0,30\n"), 0o600), ShouldBeNil)

		Convey("When datasets are partly missing", func() {
			snap, err := service.Load(context.Background(), cfg, logger.Get())

			Convey("Then loading degrades to empty tables", func() {
				So(err, ShouldBeNil)
				So(snap.Table(risk.Earthquake).Len(), ShouldEqual, 2)
				So(snap.Table(risk.Wildfire).Len(), ShouldEqual, 0)
				So(snap.Defaults()["magnitude"].Value, ShouldAlmostEqual, 5.0, 1e-9)
				So(snap.Defaults()["depth"].Value, ShouldAlmostEqual, 20.0, 1e-9)
			})

			Convey("Then a zero-weight model predicts 50%", func() {
				res, err := service.New(snap).Predict(context.Background(), 0, 0)
				So(err, ShouldBeNil)
				So(res.Earthquake.Probability, ShouldEqual, 50.0)
				So(res.Earthquake.Level, ShouldEqual, risk.Medium)
			})
		})

		Convey("When a model is missing", func() {
			So(os.Remove(filepath.Join(dir, cfg.FloodModel)), ShouldBeNil)
			_, err := service.Load(context.Background(), cfg, logger.Get())

			Convey("Then startup fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "load flood model")
			})
		})
	})
}
