package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Drivers supported by NewPublisher.
const (
	DriverGoChannel = "gochannel"
	DriverKafka     = "kafka"
)

// Publisher publishes attempt events.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Config selects the transport of the event publisher.
type Config struct {
	Driver  string
	Brokers []string
	Topic   string
}

// WatermillPublisher publishes events as JSON messages through a watermill
// publisher.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewPublisher builds a publisher for cfg.Driver. The in-process gochannel
// driver is returned together with its subscriber side, so events can be
// consumed locally; for kafka the returned subscriber is nil.
func NewPublisher(cfg Config) (*WatermillPublisher, message.Subscriber, error) {
	logger := watermill.NewStdLogger(false, false)
	topic := cfg.Topic
	if topic == "" {
		topic = "jee-prep.attempts"
	}

	switch strings.ToLower(cfg.Driver) {
	case DriverKafka:
		if len(cfg.Brokers) == 0 {
			return nil, nil, fmt.Errorf("kafka driver requires at least one broker")
		}
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		log.Printf("[Events] Kafka publisher ready (brokers=%v topic=%s)", cfg.Brokers, topic)
		return &WatermillPublisher{publisher: pub, topic: topic}, nil, nil

	case "", DriverGoChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		log.Printf("[Events] In-process publisher ready (topic=%s)", topic)
		return &WatermillPublisher{publisher: ch, topic: topic}, ch, nil
	}

	return nil, nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}

// NewWatermillPublisher wraps an existing watermill publisher.
func NewWatermillPublisher(publisher message.Publisher, topic string) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, topic: topic}
}

// Topic returns the topic events are published to.
func (p *WatermillPublisher) Topic() string {
	return p.topic
}

// Publish marshals event and sends it with type metadata.
func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		log.Printf("[Events] Failed to publish %s (%s): %v", event.Type, event.ID, err)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
