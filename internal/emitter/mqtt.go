// Package emitter publishes viewer status over MQTT. Publishing is
// best-effort: the viewer never blocks on the broker and runs fine
// without one.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// StatusEvent is the JSON payload published on every power transition
// and on startup.
type StatusEvent struct {
	InstanceID  string    `json:"instance_id"`
	DisplayOn   bool      `json:"display_on"`
	Governor    string    `json:"governor"`
	StreamUp    bool      `json:"stream_up"`
	PaletteName string    `json:"palette"`
	Timestamp   time.Time `json:"timestamp"`
}

// AlertEvent is the JSON payload published when the thermal watchdog
// requests a host shutdown.
type AlertEvent struct {
	InstanceID string    `json:"instance_id"`
	Kind       string    `json:"kind"`
	Celsius    float64   `json:"celsius"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher is what the viewer core sees. Implementations must not
// block the render loop; failures are logged and dropped.
type Publisher interface {
	PublishStatus(ev StatusEvent)
	PublishAlert(ev AlertEvent)
	Close()
}

// Options configures the MQTT publisher.
type Options struct {
	Broker      string // host:port, empty disables MQTT entirely
	ClientID    string
	StatusTopic string
	EventsTopic string
	QoS         byte
}

// MQTTPublisher publishes status and alert events to an MQTT broker.
type MQTTPublisher struct {
	opts   Options
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTTPublisher creates a publisher; Connect must be called before use.
func NewMQTTPublisher(opts Options) *MQTTPublisher {
	return &MQTTPublisher{opts: opts}
}

// Connect establishes the broker connection with auto-reconnect.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", p.opts.Broker))
	opts.SetClientID(p.opts.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		p.mu.Lock()
		p.connected = true
		p.mu.Unlock()
		slog.Info("mqtt connection established",
			"broker", p.opts.Broker,
			"client_id", p.opts.ClientID)
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		slog.Warn("mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", p.opts.Broker)
	}

	p.client = mqtt.NewClient(opts)

	slog.Info("connecting to mqtt broker", "broker", p.opts.Broker)

	token := p.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()

	return nil
}

// PublishStatus publishes a power/palette status event. Best-effort.
func (p *MQTTPublisher) PublishStatus(ev StatusEvent) {
	p.publish(p.opts.StatusTopic, ev)
}

// PublishAlert publishes a thermal alert event. Best-effort.
func (p *MQTTPublisher) PublishAlert(ev AlertEvent) {
	p.publish(p.opts.EventsTopic, ev)
}

func (p *MQTTPublisher) publish(topic string, v any) {
	if !p.isConnected() {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		slog.Debug("mqtt publish skipped, not connected", "topic", topic)
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		slog.Warn("mqtt payload marshal failed", "topic", topic, "error", err)
		return
	}

	token := p.client.Publish(topic, p.opts.QoS, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		slog.Warn("mqtt publish timeout", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		slog.Warn("mqtt publish failed", "topic", topic, "error", err)
		return
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
		slog.Info("mqtt disconnected")
	}
}

func (p *MQTTPublisher) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.client != nil && p.client.IsConnected()
}

// Stats reports publish counters.
func (p *MQTTPublisher) Stats() (published, errors uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.published, p.errors
}
