package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/nerrad567/modi-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "modi-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func decodeStatus(t *testing.T, payload any) Status {
	t.Helper()
	b, ok := payload.([]byte)
	if !ok {
		t.Fatalf("status payload is %T, want []byte", payload)
	}
	var st Status
	if err := json.Unmarshal(b, &st); err != nil {
		t.Fatalf("status payload %s: %v", b, err)
	}
	return st
}

func newTestClient(t *testing.T) (*Client, *fakePaho) {
	t.Helper()
	fake := newFakePaho()
	return wrap(testConfig(), fake), fake
}

// =============================================================================
// Connection
// =============================================================================

func TestWrap_ConnectedState(t *testing.T) {
	c, fake := newTestClient(t)
	if !c.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}

	fake.mu.Lock()
	fake.connected = false
	fake.mu.Unlock()
	if c.IsConnected() {
		t.Error("IsConnected() = true after paho disconnect")
	}
}

func TestClose(t *testing.T) {
	c, fake := newTestClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if !fake.disconnected {
		t.Error("paho Disconnect not called")
	}

	pubs := fake.publishes()
	if len(pubs) != 1 || pubs[0].topic != "modi/core/status" || !pubs[0].retained {
		t.Fatalf("Close() publishes = %+v, want one retained status", pubs)
	}
	st := decodeStatus(t, pubs[0].payload)
	if st.State != StateOffline || st.Reason != ReasonShutdown || st.ClientID != "modi-test" {
		t.Errorf("status = %+v", st)
	}
}

func TestCloseNil(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() on empty client error = %v, want nil", err)
	}
}

func TestHealthCheck(t *testing.T) {
	c, _ := newTestClient(t)

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want Canceled", err)
	}

	_ = c.Close()
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestHandleConnect_RestoresSubscriptions(t *testing.T) {
	c, fake := newTestClient(t)

	called := false
	c.SetOnConnect(func() { called = true })
	_ = c.Subscribe("modi/telemetry/+", 1, func(string, []byte) error { return nil })

	// Simulate a reconnect on a fresh broker session
	fake.mu.Lock()
	fake.handlers = map[string]pahomqttHandler{}
	fake.mu.Unlock()

	c.handleConnect()

	if !called {
		t.Error("OnConnect callback not called")
	}
	if !fake.deliver("modi/telemetry/+", "modi/telemetry/1", nil) {
		t.Error("subscription not restored after reconnect")
	}

	pubs := fake.publishes()
	last := pubs[len(pubs)-1]
	if last.topic != "modi/core/status" || decodeStatus(t, last.payload).State != StateOnline {
		t.Errorf("online status not published: %+v", last)
	}
}

func TestHandleDisconnect(t *testing.T) {
	c, _ := newTestClient(t)
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var got error
	c.SetOnDisconnect(func(err error) { got = err })

	lost := errors.New("connection reset")
	c.handleDisconnect(lost)

	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
	if !errors.Is(got, lost) {
		t.Errorf("OnDisconnect error = %v, want %v", got, lost)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one", logger.warns)
	}
}

// =============================================================================
// Publish
// =============================================================================

func TestPublish(t *testing.T) {
	c, fake := newTestClient(t)

	if err := c.Publish("modi/command/7", []byte("frame"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	pubs := fake.publishes()
	if len(pubs) != 1 {
		t.Fatalf("published %d, want 1", len(pubs))
	}
	if pubs[0].topic != "modi/command/7" || pubs[0].qos != 1 || pubs[0].retained {
		t.Errorf("publish = %+v, want qos 1 non-retained", pubs[0])
	}
}

func TestPublish_Errors(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		setup   func(*fakePaho)
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, wantErr: ErrInvalidTopic},
		{name: "wildcard topic", topic: "modi/command/+", qos: 1, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "modi/command/1", qos: 3, wantErr: ErrInvalidQoS},
		{name: "payload too large", topic: "modi/command/1", payload: make([]byte, maxPayloadSize+1), qos: 1, wantErr: ErrPublishFailed},
		{name: "disconnected", topic: "modi/command/1", qos: 1, setup: func(f *fakePaho) { f.connected = false }, wantErr: ErrNotConnected},
		{name: "broker error", topic: "modi/command/1", qos: 1, setup: func(f *fakePaho) { f.publishErr = errors.New("nack") }, wantErr: ErrPublishFailed},
		{name: "timeout", topic: "modi/command/1", qos: 1, setup: func(f *fakePaho) { f.timeout = true }, wantErr: ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t)
			if tt.setup != nil {
				tt.setup(fake)
			}
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Subscribe
// =============================================================================

func TestSubscribeAndDeliver(t *testing.T) {
	c, fake := newTestClient(t)

	var gotTopic string
	var gotPayload []byte
	err := c.Subscribe("modi/module/+", 1, func(topic string, payload []byte) error {
		gotTopic, gotPayload = topic, payload
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if subs := c.Subscriptions(); len(subs) != 1 || subs[0] != "modi/module/+" {
		t.Errorf("Subscriptions() = %v", subs)
	}

	fake.deliver("modi/module/+", "modi/module/3", []byte("hello"))
	if gotTopic != "modi/module/3" || string(gotPayload) != "hello" {
		t.Errorf("handler got %q %q", gotTopic, gotPayload)
	}
}

func TestSubscribe_Errors(t *testing.T) {
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		setup   func(*fakePaho)
		wantErr error
	}{
		{name: "empty topic", topic: "", handler: noop, wantErr: ErrInvalidTopic},
		{name: "wildcard inside level", topic: "modi/tele+/1", handler: noop, wantErr: ErrInvalidTopic},
		{name: "hash not last", topic: "modi/#/1", handler: noop, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "a", qos: 3, handler: noop, wantErr: ErrInvalidQoS},
		{name: "nil handler", topic: "a", wantErr: ErrSubscribeFailed},
		{name: "disconnected", topic: "a", handler: noop, setup: func(f *fakePaho) { f.connected = false }, wantErr: ErrNotConnected},
		{name: "broker error", topic: "a", handler: noop, setup: func(f *fakePaho) { f.subscribeErr = errors.New("denied") }, wantErr: ErrSubscribeFailed},
		{name: "timeout", topic: "a", handler: noop, setup: func(f *fakePaho) { f.timeout = true }, wantErr: ErrSubscribeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t)
			if tt.setup != nil {
				tt.setup(fake)
			}
			if err := c.Subscribe(tt.topic, tt.qos, tt.handler); !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
			if len(c.Subscriptions()) != 0 {
				t.Error("failed subscription still tracked")
			}
		})
	}
}

func TestSubscriptions_Sorted(t *testing.T) {
	c, _ := newTestClient(t)
	noop := func(string, []byte) error { return nil }

	for _, f := range []string{"modi/telemetry/+", "modi/module/+", "modi/#", "modi/module/+"} {
		if err := c.Subscribe(f, 1, noop); err != nil {
			t.Fatalf("Subscribe(%q) error = %v", f, err)
		}
	}

	want := []string{"modi/#", "modi/module/+", "modi/telemetry/+"}
	if got := c.Subscriptions(); !slices.Equal(got, want) {
		t.Errorf("Subscriptions() = %v, want %v", got, want)
	}
}

func TestHandler_ErrorAndPanicLogged(t *testing.T) {
	c, fake := newTestClient(t)
	logger := &recordingLogger{}
	c.SetLogger(logger)

	_ = c.Subscribe("err", 1, func(string, []byte) error { return errors.New("bad frame") })
	_ = c.Subscribe("panic", 1, func(string, []byte) error { panic("boom") })

	fake.deliver("err", "err", nil)
	fake.deliver("panic", "panic", nil)

	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want one handler error", logger.warns)
	}
	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want one recovered panic", logger.errors)
	}
}

// =============================================================================
// Options and topics
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "modi"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "modi-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "modi" {
		t.Errorf("Username = %q", opts.Username)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect and clean session")
	}
	if !opts.Order {
		t.Error("Order = false, handlers would run concurrently and out of order")
	}

	cfg.Broker.TLS = true
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:1883" {
		t.Errorf("brokerURL(tls) = %q", got)
	}
	if opts := buildClientOptions(cfg); opts.TLSConfig == nil {
		t.Error("TLSConfig not set for TLS broker")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "modi-test")

	if !opts.WillEnabled || opts.WillTopic != "modi/core/status" || !opts.WillRetained {
		t.Errorf("will = enabled:%v topic:%q retained:%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	will := decodeStatus(t, opts.WillPayload)
	if will.State != StateOffline || will.Reason != ReasonLost {
		t.Errorf("will = %+v", will)
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Command", topics.Command(7), "modi/command/7"},
		{"Telemetry", topics.Telemetry(7), "modi/telemetry/7"},
		{"Module", topics.Module(65535), "modi/module/65535"},
		{"CoreStatus", topics.CoreStatus(), "modi/core/status"},
		{"AllTelemetry", topics.AllTelemetry(), "modi/telemetry/+"},
		{"AllModules", topics.AllModules(), "modi/module/+"},
		{"AllCommands", topics.AllCommands(), "modi/command/+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestParseModuleTopic(t *testing.T) {
	tests := []struct {
		topic    string
		category string
		id       uint16
		wantErr  bool
	}{
		{topic: "modi/telemetry/12", category: CategoryTelemetry, id: 12},
		{topic: "modi/module/0", category: CategoryModule, id: 0},
		{topic: "modi/telemetry/70000", wantErr: true},
		{topic: "modi/telemetry/abc", wantErr: true},
		{topic: "other/telemetry/1", wantErr: true},
		{topic: "modi/telemetry", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			category, id, err := ParseModuleTopic(tt.topic)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTopic) {
					t.Errorf("ParseModuleTopic() error = %v, want ErrInvalidTopic", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModuleTopic() error = %v", err)
			}
			if category != tt.category || id != tt.id {
				t.Errorf("ParseModuleTopic() = %q, %d; want %q, %d", category, id, tt.category, tt.id)
			}
		})
	}
}
