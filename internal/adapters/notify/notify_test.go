package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/disasterscope/internal/domain/alert"
	"github.com/okian/disasterscope/internal/domain/risk"
	"github.com/okian/disasterscope/pkg/logger"
)

func sampleAlert() alert.Alert {
	return alert.Alert{
		ID:          "a-1",
		Hazard:      risk.Flood,
		Recipient:   "1945",
		Message:     "ALERT: High Flood Risk at 23.8103,90.4125 - 88.0%",
		Latitude:    23.8103,
		Longitude:   90.4125,
		Probability: 88,
	}
}

type fakeSender struct {
	message string
	params  *stypes.Params
	errs    []error
}

func (s *fakeSender) Send(message string, params *stypes.Params) []error {
	s.message = message
	s.params = params
	return s.errs
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakePublisher struct {
	mu           sync.Mutex
	connected    bool
	token        mqtt.Token
	topic        string
	qos          byte
	payload      []byte
	disconnected bool
}

func (p *fakePublisher) IsConnected() bool { return p.connected }

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload any) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.qos = qos
	p.payload, _ = payload.([]byte)
	return p.token
}

func (p *fakePublisher) Disconnect(uint) { p.disconnected = true }

type stubNotifier struct {
	name  string
	err   error
	calls int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(context.Context, alert.Alert) error {
	s.calls++
	return s.err
}

func TestLog(t *testing.T) {
	Convey("Given a log notifier", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithWriter(&buf)), ShouldBeNil)
		n := NewLog(logger.Named("alerts"))

		Convey("When an alert is delivered", func() {
			err := n.Notify(context.Background(), sampleAlert())

			Convey("Then the recipient and message are logged", func() {
				So(err, ShouldBeNil)
				So(n.Name(), ShouldEqual, "log")
				So(buf.String(), ShouldContainSubstring, "Notify 1945: ALERT: High Flood Risk")
			})
		})
	})
}

func TestShoutrrr(t *testing.T) {
	Convey("Given shoutrrr construction", t, func() {
		Convey("When no URLs are configured", func() {
			_, err := NewShoutrrr(nil, time.Second)
			So(errors.Is(err, ErrNoURLs), ShouldBeTrue)
		})

		Convey("When a URL has an unknown scheme", func() {
			_, err := NewShoutrrr([]string{"nosuchservice://token@host"}, time.Second)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a shoutrrr notifier with a fake router", t, func() {
		fs := &fakeSender{}
		n := &Shoutrrr{urls: []string{"fake://"}, sender: fs}

		Convey("When the send succeeds", func() {
			err := n.Notify(context.Background(), sampleAlert())

			Convey("Then the message and title are passed through", func() {
				So(err, ShouldBeNil)
				So(fs.message, ShouldEqual, sampleAlert().Message)
				title, ok := fs.params.Title()
				So(ok, ShouldBeTrue)
				So(title, ShouldEqual, "Flood alert")
			})
		})

		Convey("When some services fail", func() {
			fs.errs = []error{nil, errors.New("telegram: 401")}
			err := n.Notify(context.Background(), sampleAlert())

			Convey("Then the failures are returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "telegram: 401")
			})
		})
	})
}

func TestMQTT(t *testing.T) {
	Convey("Given an MQTT notifier", t, func() {
		pub := &fakePublisher{connected: true, token: doneToken(nil)}
		n := newMQTT(pub, "disasterscope/alerts", time.Second)

		Convey("When an alert is published", func() {
			err := n.Notify(context.Background(), sampleAlert())

			Convey("Then the JSON alert goes to the topic at QoS 1", func() {
				So(err, ShouldBeNil)
				So(pub.topic, ShouldEqual, "disasterscope/alerts")
				So(pub.qos, ShouldEqual, 1)

				var got alert.Alert
				So(json.Unmarshal(pub.payload, &got), ShouldBeNil)
				So(got.ID, ShouldEqual, "a-1")
				So(got.Hazard, ShouldEqual, risk.Flood)
			})
		})

		Convey("When the client is disconnected", func() {
			pub.connected = false
			So(errors.Is(n.Notify(context.Background(), sampleAlert()), ErrNotConnected), ShouldBeTrue)
		})

		Convey("When the broker rejects the publish", func() {
			pub.token = doneToken(errors.New("not authorized"))
			So(n.Notify(context.Background(), sampleAlert()), ShouldNotBeNil)
		})

		Convey("When the publish never completes", func() {
			pub.token = &fakeToken{done: make(chan struct{})}
			slow := newMQTT(pub, "t", 10*time.Millisecond)
			So(errors.Is(slow.Notify(context.Background(), sampleAlert()), ErrPublishTimeout), ShouldBeTrue)
		})

		Convey("When closed", func() {
			n.Close()
			So(pub.disconnected, ShouldBeTrue)
		})
	})
}

func TestMulti(t *testing.T) {
	Convey("Given a fan-out over several notifiers", t, func() {
		ok1 := &stubNotifier{name: "log"}
		bad := &stubNotifier{name: "mqtt", err: errors.New("broker down")}
		ok2 := &stubNotifier{name: "shoutrrr"}
		m := NewMulti(ok1, nil, bad, ok2)

		Convey("When an alert is delivered", func() {
			err := m.Notify(context.Background(), sampleAlert())

			Convey("Then every notifier is tried and the failure is named", func() {
				So(m.Names(), ShouldResemble, []string{"log", "mqtt", "shoutrrr"})
				So(ok1.calls, ShouldEqual, 1)
				So(bad.calls, ShouldEqual, 1)
				So(ok2.calls, ShouldEqual, 1)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "mqtt: broker down")
			})
		})

		Convey("When every notifier succeeds", func() {
			So(NewMulti(ok1, ok2).Notify(context.Background(), sampleAlert()), ShouldBeNil)
		})
	})
}
