package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/richxcame/transit-ops/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultStreamName      = "TRANSITOPS"
	defaultRetention       = 72 * time.Hour
	defaultDuplicateWindow = 2 * time.Minute
	defaultMaxDeliver      = 5
	maxRedeliveryDelay     = 30 * time.Second

	// HeaderEventType carries Event.Type so consumers can route without decoding.
	HeaderEventType = "Transit-Event-Type"
	// HeaderEventSource carries Event.Source.
	HeaderEventSource = "Transit-Event-Source"
)

// ErrMalformedEvent is returned for envelopes missing an id or type.
var ErrMalformedEvent = errors.New("malformed event envelope")

// Event is the envelope for everything published on the bus.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id and timestamp.
func NewEvent(eventType, source string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// decodeEnvelope parses a message body. Envelopes without an id or type are
// rejected so they are terminated instead of redelivered.
func decodeEnvelope(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, ErrMalformedEvent
	}
	return &event, nil
}

// HandlerFunc processes a received event. Return nil to ack, error to nack.
type HandlerFunc func(ctx context.Context, event *Event) error

// Publisher is the publishing side of the bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, event *Event) error
}

// NopPublisher discards events. Used when NATS is disabled.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, *Event) error { return nil }

// Config holds NATS connection and stream settings.
type Config struct {
	URL        string
	Name       string // client connection name
	StreamName string // default "TRANSITOPS"

	// Retention bounds how long ticket events stay in the stream.
	Retention time.Duration
	// DuplicateWindow is how long JetStream remembers event ids for dedup.
	DuplicateWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.StreamName == "" {
		c.StreamName = defaultStreamName
	}
	if c.Retention <= 0 {
		c.Retention = defaultRetention
	}
	if c.DuplicateWindow <= 0 {
		c.DuplicateWindow = defaultDuplicateWindow
	}
	return c
}

func (c Config) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        c.StreamName,
		Description: "maintenance ticket change feed",
		Subjects:    StreamSubjects(),
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      c.Retention,
		Duplicates:  c.DuplicateWindow,
		Replicas:    1,
	}
}

// Bus wraps a NATS JetStream connection for publishing and subscribing.
type Bus struct {
	conn *nats.Conn
	js   jetstream.JetStream
	cfg  Config
	subs []jetstream.ConsumeContext
}

// New connects to NATS and creates or updates the ticket stream.
func New(cfg Config) (*Bus, error) {
	cfg = cfg.withDefaults()

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Ticket event bus disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("Ticket event bus reconnected", zap.String("server", conn.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, cfg.streamConfig()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream %s: %w", cfg.StreamName, err)
	}

	logger.Info("Ticket event bus connected",
		zap.String("url", cfg.URL),
		zap.String("stream", cfg.StreamName),
		zap.Duration("retention", cfg.Retention),
	)
	return &Bus{conn: nc, js: js, cfg: cfg}, nil
}

// Publish appends an event to the stream. The event id doubles as the
// JetStream message id so a retried publish is stored once.
func (b *Bus) Publish(ctx context.Context, subject string, event *Event) error {
	msg, err := newMessage(subject, event)
	if err != nil {
		return err
	}

	ack, err := b.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(event.ID),
		jetstream.WithExpectStream(b.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	logger.Debug("Ticket event published",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.Uint64("sequence", ack.Sequence),
		zap.Bool("duplicate", ack.Duplicate),
	)
	return nil
}

func newMessage(subject string, event *Event) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderEventType, event.Type)
	if event.Source != "" {
		msg.Header.Set(HeaderEventSource, event.Source)
	}
	return msg, nil
}

// SubscribeOption tunes the consumer created by Subscribe.
type SubscribeOption func(*jetstream.ConsumerConfig)

// WithInactiveThreshold lets the server remove the consumer once nothing has
// pulled from it for d. Used for per-replica consumers that die with the pod.
func WithInactiveThreshold(d time.Duration) SubscribeOption {
	return func(c *jetstream.ConsumerConfig) { c.InactiveThreshold = d }
}

// WithMaxDeliver caps delivery attempts per message.
func WithMaxDeliver(n int) SubscribeOption {
	return func(c *jetstream.ConsumerConfig) { c.MaxDeliver = n }
}

func consumerConfig(subject, name string, opts ...SubscribeOption) jetstream.ConsumerConfig {
	cfg := jetstream.ConsumerConfig{
		Name:          name,
		Durable:       name,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    defaultMaxDeliver,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Subscribe attaches handler to a named consumer on subject. name must be
// unique per subscribing instance.
func (b *Bus) Subscribe(ctx context.Context, subject, name string, handler HandlerFunc, opts ...SubscribeOption) error {
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.cfg.StreamName, consumerConfig(subject, name, opts...))
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", name, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", name, err)
	}

	b.subs = append(b.subs, cc)
	logger.Info("Subscribed to ticket events",
		zap.String("subject", subject),
		zap.String("consumer", name),
	)
	return nil
}

func handleMessage(ctx context.Context, msg jetstream.Msg, handler HandlerFunc) {
	event, err := decodeEnvelope(msg.Data())
	if err != nil {
		logger.Warn("Dropping undecodable ticket event", zap.String("subject", msg.Subject()), zap.Error(err))
		_ = msg.Term()
		return
	}

	if err := handler(ctx, event); err != nil {
		var delivered uint64 = 1
		if meta, metaErr := msg.Metadata(); metaErr == nil {
			delivered = meta.NumDelivered
		}
		logger.Warn("Ticket event handler failed",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Uint64("delivered", delivered),
			zap.Error(err),
		)
		_ = msg.NakWithDelay(redeliveryDelay(delivered))
		return
	}
	_ = msg.Ack()
}

// redeliveryDelay doubles from one second per attempt, capped at 30s.
func redeliveryDelay(delivered uint64) time.Duration {
	if delivered <= 1 {
		return time.Second
	}
	delay := time.Second
	for i := uint64(1); i < delivered; i++ {
		delay *= 2
		if delay >= maxRedeliveryDelay {
			return maxRedeliveryDelay
		}
	}
	return delay
}

// Close stops consumers and drains the connection.
func (b *Bus) Close() {
	for _, sub := range b.subs {
		sub.Stop()
	}
	if b.conn != nil {
		_ = b.conn.Drain()
	}
	logger.Info("Ticket event bus closed")
}

// Connected reports whether the NATS connection is up.
func (b *Bus) Connected() bool {
	return b.conn != nil && b.conn.IsConnected()
}
