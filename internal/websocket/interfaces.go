package websocket

import "context"

// MetricsProvider exposes hub counters for the health endpoint.
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
	ClientCount() int
}

// HubInterface is what Manager needs from a hub.
type HubInterface interface {
	MetricsProvider

	// SendJSONToUser delivers v to every connection of the user, on this
	// instance and, through the pub/sub provider, on the others.
	SendJSONToUser(userID string, v interface{}) error

	// SendToClient delivers a raw message to one connection.
	SendToClient(client *Client, message []byte) bool
}

// PubSubProvider carries messages between API instances.
type PubSubProvider interface {
	Publish(channel string, message []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
