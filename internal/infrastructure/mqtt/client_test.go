package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/novaprops-core/internal/infrastructure/config"
)

// fakeToken is a completed paho token.
type fakeToken struct {
	err     error
	timeout bool
}

func (t fakeToken) Wait() bool                     { return !t.timeout }
func (t fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho records calls made through the paho client interface.
type fakePaho struct {
	pahomqtt.Client

	mu           sync.Mutex
	connected    bool
	published    []published
	subscribed   map[string]pahomqtt.MessageHandler
	publishErr   error
	subTimeout   bool
	disconnected bool
}

func newFakePaho() *fakePaho {
	return &fakePaho{connected: true, subscribed: make(map[string]pahomqtt.MessageHandler)}
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case string:
		data = []byte(p)
	}
	f.published = append(f.published, published{topic, qos, retained, data})
	return fakeToken{err: f.publishErr}
}

func (f *fakePaho) Subscribe(topic string, _ byte, cb pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subTimeout {
		return fakeToken{timeout: true}
	}
	f.subscribed[topic] = cb
	return fakeToken{}
}

func (f *fakePaho) Unsubscribe(topics ...string) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range topics {
		delete(f.subscribed, t)
	}
	return fakeToken{}
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	f.disconnected = true
	f.connected = false
	f.mu.Unlock()
}

// fakeMessage carries a topic and payload.
type fakeMessage struct {
	pahomqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, level+": "+msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker:      config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: "novaprops-test"},
		QoS:         1,
		TopicPrefix: "bench",
		Reconnect:   config.MQTTReconnectConfig{InitialDelay: 1, MaxDelay: 5},
	}
}

func connectedClient(t *testing.T) (*Client, *fakePaho) {
	t.Helper()
	fake := newFakePaho()
	c := newClient(testConfig())
	c.client = fake
	c.setConnected(true)
	return c, fake
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"probe event", NewTopics("bench").ProbeEvent("dc"), "bench/probe/dc"},
		{"status", NewTopics("bench").SystemStatus(), "bench/system/status"},
		{"frame command", NewTopics("/stage/left/").FrameCommand(), "stage/left/command/frame"},
		{"empty prefix", NewTopics("").ProbeEvent("led"), "novaprops/probe/led"},
		{"zero value", Topics{}.SystemStatus(), "novaprops/system/status"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL() = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "u", Password: "p"}
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "novaprops-test" || opts.Username != "u" || opts.Password != "p" {
		t.Errorf("identity = %q/%q/%q", opts.ClientID, opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || opts.MaxReconnectInterval != 5*time.Second {
		t.Errorf("reconnect = %v / %v", opts.AutoReconnect, opts.MaxReconnectInterval)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, NewTopics("bench"), "ctl")

	if !opts.WillEnabled || opts.WillTopic != "bench/system/status" || !opts.WillRetained {
		t.Errorf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	var msg statusMessage
	if err := json.Unmarshal(opts.WillPayload, &msg); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if msg.Status != "offline" || msg.Reason != "unexpected_disconnect" || msg.ClientID != "ctl" {
		t.Errorf("will payload = %+v", msg)
	}
}

func TestPublishValidation(t *testing.T) {
	c, _ := connectedClient(t)

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		wantErr error
	}{
		{"empty topic", "", 0, nil, ErrInvalidTopic},
		{"qos 3", "bench/x", 3, nil, ErrInvalidQoS},
		{"oversized", "bench/x", 1, make([]byte, maxPayloadSize+1), ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishJSON(t *testing.T) {
	c, fake := connectedClient(t)

	err := c.PublishJSON(c.Topics().ProbeEvent("relay"), map[string]any{"name": "r1", "on": true}, false)
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if len(fake.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(fake.published))
	}
	msg := fake.published[0]
	if msg.topic != "bench/probe/relay" || msg.qos != 1 || msg.retained {
		t.Errorf("message = %+v", msg)
	}
	if string(msg.payload) != `{"name":"r1","on":true}` {
		t.Errorf("payload = %s", msg.payload)
	}
}

func TestPublishBrokerError(t *testing.T) {
	c, fake := connectedClient(t)
	fake.publishErr = errors.New("queue full")

	if err := c.Publish("bench/x", []byte("1"), 0, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestNotConnected(t *testing.T) {
	c := newClient(testConfig())

	if c.IsConnected() {
		t.Error("IsConnected() = true for a client that never connected")
	}
	if err := c.Publish("bench/x", nil, 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("bench/x", 0, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	c, _ := connectedClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestSubscribeAndDeliver(t *testing.T) {
	c, fake := connectedClient(t)
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var got []string
	err := c.Subscribe(c.Topics().FrameCommand(), 1, func(topic string, payload []byte) error {
		got = append(got, topic+"="+string(payload))
		if string(payload) == "bad" {
			return errors.New("rejected")
		}
		if string(payload) == "boom" {
			panic("handler blew up")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if c.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", c.SubscriptionCount())
	}

	deliver := fake.subscribed["bench/command/frame"]
	deliver(nil, fakeMessage{topic: "bench/command/frame", payload: []byte("ok")})
	deliver(nil, fakeMessage{topic: "bench/command/frame", payload: []byte("bad")})
	deliver(nil, fakeMessage{topic: "bench/command/frame", payload: []byte("boom")})

	if len(got) != 3 {
		t.Fatalf("handler saw %v", got)
	}
	joined := strings.Join(logger.lines, "\n")
	if !strings.Contains(joined, "warn: mqtt handler returned error") || !strings.Contains(joined, "error: mqtt handler panic recovered") {
		t.Errorf("log = %q", joined)
	}

	if err := c.Unsubscribe("bench/command/frame"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after unsubscribe", c.SubscriptionCount())
	}
}

func TestSubscribeTimeoutNotTracked(t *testing.T) {
	c, fake := connectedClient(t)
	fake.subTimeout = true

	err := c.Subscribe("bench/x", 0, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
	if c.SubscriptionCount() != 0 {
		t.Error("failed subscription still tracked")
	}
}

func TestSubscribeValidation(t *testing.T) {
	c, _ := connectedClient(t)
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 0, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("bench/x", 4, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos error = %v", err)
	}
	if err := c.Subscribe("bench/x", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
}

func TestReconnectRestoresAndAnnounces(t *testing.T) {
	c, fake := connectedClient(t)
	if err := c.Subscribe("bench/command/frame", 1, func(string, []byte) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	c.handleDisconnect(errors.New("network down"))
	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}

	delete(fake.subscribed, "bench/command/frame")
	c.handleConnect()

	if _, ok := fake.subscribed["bench/command/frame"]; !ok {
		t.Error("subscription not restored")
	}
	last := fake.published[len(fake.published)-1]
	if last.topic != "bench/system/status" || !last.retained || !strings.Contains(string(last.payload), `"online"`) {
		t.Errorf("status message = %+v", last)
	}
}

func TestCloseAnnouncesOffline(t *testing.T) {
	c, fake := connectedClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.disconnected || c.IsConnected() {
		t.Error("client still connected after Close")
	}
	last := fake.published[len(fake.published)-1]
	if !strings.Contains(string(last.payload), "graceful_shutdown") {
		t.Errorf("status payload = %s", last.payload)
	}
}
