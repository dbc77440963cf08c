package websocket

// Messages a client may send.
const (
	// MessagePing asks the server for a MessagePong, used by clients behind
	// proxies that drop control frames.
	MessagePing = "ping"
)

// Messages the server sends on its own.
const (
	MessagePong        = "pong"
	MessageServerError = "server:error"
	MessageConnected   = "server:connected"
)
