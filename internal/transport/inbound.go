package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/modi-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/modi-core/internal/module"
	"github.com/nerrad567/modi-core/internal/property"
)

// Module announcement states.
const (
	StateOnline  = "online"
	StateOffline = "offline"
)

// Announcement is the payload published on modi/module/{id}.
type Announcement struct {
	UUID  string `json:"uuid"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

// Sink receives decoded inbound traffic. *module.Manager satisfies it.
type Sink interface {
	Attach(ctx context.Context, ev module.Event) (*module.Module, error)
	Detach(ctx context.Context, id uint16) error
	Ingest(t module.Telemetry) bool
}

// Subscriber is a MessageHandler source for MQTT subscriptions.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// InboundOptions configures an Inbound handler.
type InboundOptions struct {
	Logger  Logger
	Metrics *Metrics

	// Now stamps telemetry on arrival. Defaults to time.Now.
	Now func() time.Time

	// Timeout bounds inventory work done while handling an announcement.
	Timeout time.Duration
}

// Inbound routes telemetry and announcements from the bus to a Sink.
type Inbound struct {
	sink    Sink
	logger  Logger
	metrics *Metrics
	now     func() time.Time
	timeout time.Duration
}

// NewInbound creates an inbound handler.
func NewInbound(sink Sink, opts InboundOptions) *Inbound {
	in := &Inbound{
		sink:    sink,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
		timeout: opts.Timeout,
	}
	if in.logger == nil {
		in.logger = noopLogger{}
	}
	if in.now == nil {
		in.now = time.Now
	}
	if in.timeout <= 0 {
		in.timeout = 5 * time.Second
	}
	return in
}

// Subscribe registers the telemetry and announcement handlers.
func (in *Inbound) Subscribe(s Subscriber, qos byte) error {
	topics := mqtt.Topics{}
	if err := s.Subscribe(topics.AllModules(), qos, in.HandleModule); err != nil {
		return fmt.Errorf("subscribing to module announcements: %w", err)
	}
	if err := s.Subscribe(topics.AllTelemetry(), qos, in.HandleTelemetry); err != nil {
		return fmt.Errorf("subscribing to telemetry: %w", err)
	}
	return nil
}

// HandleTelemetry decodes a telemetry frame and ingests it.
//
// The topic must be a telemetry topic naming the frame's source module.
// Frames of other categories are ignored. Samples for unknown modules are
// dropped by the sink without error.
func (in *Inbound) HandleTelemetry(topic string, payload []byte) error {
	category, id, err := mqtt.ParseModuleTopic(topic)
	if err != nil {
		in.metrics.recordInbound(mqtt.CategoryTelemetry, outcomeMalformed)
		return err
	}
	if category != mqtt.CategoryTelemetry {
		in.metrics.recordInbound(mqtt.CategoryTelemetry, outcomeMalformed)
		return fmt.Errorf("%w: %s is not a telemetry topic", ErrTopicMismatch, topic)
	}

	t, err := DecodeTelemetry(payload)
	if errors.Is(err, ErrUnexpectedCategory) {
		in.metrics.recordInbound(mqtt.CategoryTelemetry, outcomeIgnored)
		return nil
	}
	if err != nil {
		in.metrics.recordInbound(mqtt.CategoryTelemetry, outcomeMalformed)
		return fmt.Errorf("decoding telemetry on %s: %w", topic, err)
	}

	if t.Destination != id {
		in.metrics.recordInbound(mqtt.CategoryTelemetry, outcomeMalformed)
		return fmt.Errorf("%w: frame from module %d on %s", ErrTopicMismatch, t.Destination, topic)
	}

	t.At = in.now()
	if !in.sink.Ingest(t) {
		in.metrics.recordInbound(mqtt.CategoryTelemetry, outcomeDropped)
		return nil
	}
	in.metrics.recordInbound(mqtt.CategoryTelemetry, outcomeAccepted)
	return nil
}

// HandleModule attaches or detaches the module named in the topic.
func (in *Inbound) HandleModule(topic string, payload []byte) error {
	category, id, err := mqtt.ParseModuleTopic(topic)
	if err != nil {
		in.metrics.recordInbound(mqtt.CategoryModule, outcomeMalformed)
		return err
	}
	if category != mqtt.CategoryModule {
		in.metrics.recordInbound(mqtt.CategoryModule, outcomeMalformed)
		return fmt.Errorf("%w: %s is not a module topic", ErrTopicMismatch, topic)
	}

	var a Announcement
	if err := json.Unmarshal(payload, &a); err != nil {
		in.metrics.recordInbound(mqtt.CategoryModule, outcomeMalformed)
		return fmt.Errorf("%w: %w", ErrMalformedAnnouncement, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), in.timeout)
	defer cancel()

	switch strings.ToLower(a.State) {
	case StateOffline:
		err := in.sink.Detach(ctx, id)
		if errors.Is(err, module.ErrModuleNotFound) {
			in.metrics.recordInbound(mqtt.CategoryModule, outcomeIgnored)
			return nil
		}
		if err != nil {
			in.metrics.recordInbound(mqtt.CategoryModule, outcomeDropped)
			return err
		}
	case StateOnline, "":
		ident, err := module.ParseIdentity(id, a.UUID)
		if err != nil {
			in.metrics.recordInbound(mqtt.CategoryModule, outcomeMalformed)
			return fmt.Errorf("%w: %w", ErrMalformedAnnouncement, err)
		}
		ev := module.Event{Identity: ident, Kind: property.ModuleKind(strings.ToLower(a.Kind)), At: in.now()}
		if _, err := in.sink.Attach(ctx, ev); err != nil {
			in.metrics.recordInbound(mqtt.CategoryModule, outcomeDropped)
			return err
		}
	default:
		in.metrics.recordInbound(mqtt.CategoryModule, outcomeMalformed)
		return fmt.Errorf("%w: state %q", ErrMalformedAnnouncement, a.State)
	}

	in.metrics.recordInbound(mqtt.CategoryModule, outcomeAccepted)
	return nil
}
