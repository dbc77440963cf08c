package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ThreeDotsLabs/watermill/message"
)

// HandlerFunc processes one decoded event.
type HandlerFunc func(ctx context.Context, event *Event) error

// Consume subscribes to topic and calls handle for every event until ctx is
// cancelled. Messages that fail to decode are acked and dropped; handler
// failures are nacked for redelivery.
func Consume(ctx context.Context, sub message.Subscriber, topic string, handle HandlerFunc) error {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				log.Printf("[Events] Dropping undecodable message %s: %v", msg.UUID, err)
				msg.Ack()
				continue
			}
			if err := handle(msg.Context(), &event); err != nil {
				log.Printf("[Events] Handler failed for %s (%s): %v", event.Type, event.ID, err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

// LogHandler writes a one-line audit record per event.
func LogHandler(ctx context.Context, event *Event) error {
	log.Printf("[Events] %s id=%s at=%s", event.Type, event.ID, event.Timestamp.Format("15:04:05"))
	return nil
}
