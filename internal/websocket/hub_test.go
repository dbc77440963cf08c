package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPubSub is an in-memory PubSubProvider shared by several hubs.
type memPubSub struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newMemPubSub() *memPubSub {
	return &memPubSub{subs: make(map[string][]chan []byte)}
}

func (p *memPubSub) Publish(channel string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs[channel] {
		ch <- message
	}
	return nil
}

func (p *memPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 16)
	p.mu.Lock()
	p.subs[channel] = append(p.subs[channel], ch)
	p.mu.Unlock()
	return ch, nil
}

func (p *memPubSub) Close() error { return nil }

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return Event{}
	}
}

func assertNothingQueued(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected message: %s", raw)
	default:
	}
}

// ============================================================================
// Hub
// ============================================================================

func TestHub_SendJSONToUser_DeliversToEveryConnectionOfUser(t *testing.T) {
	// Arrange
	hub := NewHub(nil)
	laptop := newClient(hub, nil, "7", 4)
	phone := newClient(hub, nil, "7", 4)
	other := newClient(hub, nil, "8", 4)
	hub.Register(laptop)
	hub.Register(phone)
	hub.Register(other)

	// Act
	err := hub.SendJSONToUser("7", Event{Type: "session:tick", Data: 42})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "session:tick", receive(t, laptop).Type)
	assert.Equal(t, "session:tick", receive(t, phone).Type)
	assertNothingQueued(t, other)
	assert.Equal(t, 3, hub.ClientCount())
}

func TestHub_Unregister_IsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	c := newClient(hub, nil, "7", 1)
	hub.Register(c)

	hub.Unregister(c)
	hub.Unregister(c)

	assert.True(t, c.IsSendClosed())
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, int64(0), hub.GetMetrics()["active_connections"])
	assert.False(t, hub.SendToUser("7", []byte("{}")))
}

func TestHub_SlowClientIsDisconnected(t *testing.T) {
	hub := NewHub(nil)
	c := newClient(hub, nil, "7", 1)
	hub.Register(c)

	require.True(t, hub.SendToClient(c, []byte("1")), "first message fills the buffer")
	for i := 0; i < maxBufferWarnings; i++ {
		assert.False(t, hub.SendToClient(c, []byte("x")))
	}

	assert.True(t, c.IsSendClosed())
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, int64(maxBufferWarnings), hub.GetMetrics()["messages_dropped"])
}

func TestHub_ForwardsMessagesFromOtherInstances(t *testing.T) {
	// Arrange
	ps := newMemPubSub()
	origin := NewHub(ps)
	remote := NewHub(ps)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, origin.Run(ctx))
	require.NoError(t, remote.Run(ctx))

	local := newClient(origin, nil, "7", 4)
	far := newClient(remote, nil, "7", 4)
	origin.Register(local)
	remote.Register(far)

	// Act
	require.NoError(t, origin.SendJSONToUser("7", Event{Type: "session:submitted"}))

	// Assert
	assert.Equal(t, "session:submitted", receive(t, local).Type)
	assert.Equal(t, "session:submitted", receive(t, far).Type)
	assert.Eventually(t, func() bool {
		return remote.GetMetrics()["remote_deliveries"] == int64(1)
	}, time.Second, 10*time.Millisecond)

	// the origin ignores its own publication
	time.Sleep(20 * time.Millisecond)
	assertNothingQueued(t, local)
}

func TestHub_Shutdown_ClosesAllClients(t *testing.T) {
	hub := NewHub(&NoOpPubSub{})
	a := newClient(hub, nil, "1", 1)
	b := newClient(hub, nil, "2", 1)
	hub.Register(a)
	hub.Register(b)

	hub.Shutdown()

	assert.True(t, a.IsSendClosed())
	assert.True(t, b.IsSendClosed())
	assert.Equal(t, 0, hub.ClientCount())
}

// ============================================================================
// Manager
// ============================================================================

func TestManager_HandleMessage(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantErr  bool
		wantType string
	}{
		{"ping gets pong", `{"type":"ping"}`, false, MessagePong},
		{"unknown type keeps connection", `{"type":"quiz:answer","data":{}}`, false, MessageServerError},
		{"malformed json closes connection", `{type:`, true, MessageServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(nil)
			manager := NewManager(hub)
			c := newClient(hub, nil, "7", 4)
			hub.Register(c)

			err := manager.HandleMessage([]byte(tt.message), c)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantType, receive(t, c).Type)
		})
	}
}

func TestManager_SendEventToUser(t *testing.T) {
	hub := NewHub(nil)
	manager := NewManager(hub)
	c := newClient(hub, nil, "3", 4)
	hub.Register(c)

	require.NoError(t, manager.SendEventToUser("3", "session:time_warning", map[string]int{"timeRemaining": 300}))

	ev := receive(t, c)
	assert.Equal(t, "session:time_warning", ev.Type)
	assert.Equal(t, map[string]interface{}{"timeRemaining": float64(300)}, ev.Data)
}
