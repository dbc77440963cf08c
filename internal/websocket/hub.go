package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// DirectChannel is the pub/sub channel for messages addressed to one user.
const DirectChannel = "ws:direct"

// ClusterMessage is a user message forwarded to the other instances.
type ClusterMessage struct {
	InstanceID string          `json:"instance_id"`
	UserID     string          `json:"user_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Hub tracks the connections of this instance, grouped by user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	metrics    *HubMetrics
	pubsub     PubSubProvider
	instanceID string
}

// NewHub creates a hub. pubsub may be nil for a single instance deployment.
func NewHub(pubsub PubSubProvider) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		metrics:    NewHubMetrics(),
		pubsub:     pubsub,
		instanceID: uuid.NewString(),
	}
}

// Run forwards messages published by other instances to local connections
// until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.pubsub == nil {
		return nil
	}
	msgs, err := h.pubsub.Subscribe(ctx, DirectChannel)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-msgs:
				if !ok {
					log.Printf("[Hub] Pub/sub channel %s closed", DirectChannel)
					return
				}
				var msg ClusterMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					log.Printf("[Hub] Dropping malformed cluster message: %v", err)
					continue
				}
				if msg.InstanceID == h.instanceID {
					continue
				}
				if h.SendToUser(msg.UserID, msg.Payload) {
					h.metrics.remoteDeliveries.Add(1)
				}
			}
		}
	}()
	log.Printf("[Hub] Instance %s listening on %s", h.instanceID, DirectChannel)
	return nil
}

// Register adds a connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	conns, ok := h.clients[c.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.UserID] = conns
	}
	conns[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.connectionOpened()
	log.Printf("[Hub] Client registered: user=%s conn=%s", c.UserID, c.ConnectionID)
}

// Unregister removes a connection and closes its send channel. Safe to call
// more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	conns, ok := h.clients[c.UserID]
	if ok {
		if _, present := conns[c]; !present {
			ok = false
		} else {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.clients, c.UserID)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		c.CloseSend()
		h.metrics.connectionClosed()
		log.Printf("[Hub] Client unregistered: user=%s conn=%s", c.UserID, c.ConnectionID)
	}
}

// SendToUser delivers message to the user's local connections and reports
// whether at least one took it.
func (h *Hub) SendToUser(userID string, message []byte) bool {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := false
	for _, c := range targets {
		if h.SendToClient(c, message) {
			delivered = true
		}
	}
	return delivered
}

// SendToClient queues message for one connection. A client whose buffer stays
// full for maxBufferWarnings messages in a row is disconnected.
func (h *Hub) SendToClient(c *Client, message []byte) bool {
	if c.IsSendClosed() {
		return false
	}
	if c.enqueue(message) {
		c.resetBufferWarningCount()
		h.metrics.messagesSent.Add(1)
		return true
	}

	h.metrics.messagesDropped.Add(1)
	if c.incrementBufferWarningCount() >= maxBufferWarnings {
		log.Printf("[Hub] Client %s (conn %s) is not reading, disconnecting", c.UserID, c.ConnectionID)
		h.Unregister(c)
	}
	return false
}

// SendJSONToUser marshals v and delivers it locally and to other instances.
func (h *Hub) SendJSONToUser(userID string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.SendToUser(userID, payload)

	if h.pubsub == nil {
		return nil
	}
	msg, err := json.Marshal(ClusterMessage{InstanceID: h.instanceID, UserID: userID, Payload: payload})
	if err != nil {
		return err
	}
	return h.pubsub.Publish(DirectChannel, msg)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

func (h *Hub) GetMetrics() map[string]interface{} {
	m := h.metrics.GetAllMetrics()
	m["instance_id"] = h.instanceID
	m["clients"] = h.ClientCount()
	return m
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	var all []*Client
	for _, conns := range h.clients {
		for c := range conns {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
	if h.pubsub != nil {
		if err := h.pubsub.Close(); err != nil {
			log.Printf("[Hub] Failed to close pub/sub: %v", err)
		}
	}
	log.Printf("[Hub] Shut down, %d clients disconnected", len(all))
}
