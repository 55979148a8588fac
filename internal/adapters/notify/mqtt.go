package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/disasterscope/internal/domain/alert"
)

const (
	mqttConnectTimeout = 30 * time.Second
	mqttQuiesceMillis  = 250
)

// publisher is the subset of mqtt.Client the notifier uses.
type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes alerts as JSON to a topic.
type MQTT struct {
	client  publisher
	topic   string
	timeout time.Duration
}

// NewMQTT connects to broker and returns a notifier publishing to topic.
func NewMQTT(ctx context.Context, broker, clientID, topic string, timeout time.Duration) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()

	wait := mqttConnectTimeout
	if dl, ok := ctx.Deadline(); ok {
		wait = time.Until(dl)
	}
	if !token.WaitTimeout(wait) {
		return nil, fmt.Errorf("connect %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	return newMQTT(client, topic, timeout), nil
}

func newMQTT(client publisher, topic string, timeout time.Duration) *MQTT {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MQTT{client: client, topic: topic, timeout: timeout}
}

func (n *MQTT) Name() string { return "mqtt" }

// Notify publishes the alert at QoS 1.
func (n *MQTT) Notify(ctx context.Context, a alert.Alert) error { //nolint:gocritic // hugeParam: alerts travel by value
	if !n.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	token := n.client.Publish(n.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-time.After(n.timeout):
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	return token.Error()
}

// Close disconnects from the broker.
func (n *MQTT) Close() {
	n.client.Disconnect(mqttQuiesceMillis)
}
