package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Event is the envelope of every websocket message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Manager routes inbound messages and sends events to users.
type Manager struct {
	hub            HubInterface
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager creates a manager with the built-in ping handler.
func NewManager(hub HubInterface) *Manager {
	m := &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
	m.RegisterHandler(MessagePing, m.handlePing)
	return m
}

// RegisterHandler sets the handler for eventType. Not safe for use once
// connections are being served.
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
}

// HandleMessage dispatches one inbound message. Malformed JSON closes the
// connection; an unknown type only gets an error reply.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event inboundEvent
	if err := json.Unmarshal(message, &event); err != nil {
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil
	}
	return handler(event.Data, client)
}

// SendToClient sends an event to one connection.
func (m *Manager) SendToClient(client *Client, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("[WebSocketManager] Failed to marshal %s: %v", eventType, err)
		return
	}
	m.hub.SendToClient(client, payload)
}

// SendErrorToClient sends a server:error event. The connection stays open.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	m.SendToClient(client, MessageServerError, map[string]string{
		"code":    code,
		"message": message,
	})
}

// SendEventToUser sends an event to every connection of the user.
func (m *Manager) SendEventToUser(userID string, eventType string, data interface{}) error {
	return m.hub.SendJSONToUser(userID, Event{Type: eventType, Data: data})
}

func (m *Manager) GetMetrics() map[string]interface{} {
	return m.hub.GetMetrics()
}

func (m *Manager) handlePing(_ json.RawMessage, client *Client) error {
	m.SendToClient(client, MessagePong, map[string]int64{"serverTime": time.Now().UnixMilli()})
	return nil
}
