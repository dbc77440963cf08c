package websocket

import (
	"sync/atomic"
	"time"
)

// HubMetrics counts connection and message activity.
type HubMetrics struct {
	totalConnections  atomic.Int64
	activeConnections atomic.Int64
	messagesSent      atomic.Int64
	messagesDropped   atomic.Int64
	messagesReceived  atomic.Int64
	remoteDeliveries  atomic.Int64
	startTime         time.Time
}

func NewHubMetrics() *HubMetrics {
	return &HubMetrics{startTime: time.Now()}
}

func (m *HubMetrics) connectionOpened() {
	m.totalConnections.Add(1)
	m.activeConnections.Add(1)
}

func (m *HubMetrics) connectionClosed() {
	m.activeConnections.Add(-1)
}

func (m *HubMetrics) AddMessageReceived() {
	m.messagesReceived.Add(1)
}

// GetAllMetrics returns a snapshot of the counters.
func (m *HubMetrics) GetAllMetrics() map[string]interface{} {
	return map[string]interface{}{
		"total_connections":  m.totalConnections.Load(),
		"active_connections": m.activeConnections.Load(),
		"messages_sent":      m.messagesSent.Load(),
		"messages_dropped":   m.messagesDropped.Load(),
		"messages_received":  m.messagesReceived.Load(),
		"remote_deliveries":  m.remoteDeliveries.Load(),
		"uptime_seconds":     int64(time.Since(m.startTime).Seconds()),
	}
}
