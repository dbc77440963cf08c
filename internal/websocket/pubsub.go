package websocket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// NoOpPubSub is used when the API runs as a single instance.
type NoOpPubSub struct{}

func (p *NoOpPubSub) Publish(channel string, message []byte) error {
	return nil
}

// Subscribe returns a channel that is closed when ctx is done.
func (p *NoOpPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (p *NoOpPubSub) Close() error {
	return nil
}

// RedisPubSub implements PubSubProvider on Redis PUBLISH/SUBSCRIBE.
type RedisPubSub struct {
	client redis.UniversalClient
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs []*redis.PubSub
}

// NewRedisPubSub wraps an existing client. The client must answer PING.
func NewRedisPubSub(client redis.UniversalClient) (*RedisPubSub, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil for RedisPubSub")
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("provided redis client failed ping check: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RedisPubSub{client: client, ctx: ctx, cancel: cancel}, nil
}

func (p *RedisPubSub) Publish(channel string, message []byte) error {
	if err := p.client.Publish(p.ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe delivers payloads published on channel until ctx is done or the
// provider is closed. The returned channel is closed afterwards.
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := p.client.Subscribe(p.ctx, channel)
	if _, err := sub.Receive(p.ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to Redis channel %s: %w", channel, err)
	}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()
	log.Printf("[RedisPubSub] Subscribed to channel '%s'", channel)

	out := make(chan []byte, 100)
	go func() {
		defer func() {
			sub.Close()
			close(out)
		}()

		in := sub.Channel()
		for {
			select {
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				case <-p.ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			case <-p.ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close ends every subscription. The redis client itself is owned by the caller.
func (p *RedisPubSub) Close() error {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, sub := range p.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.subs = nil
	return firstErr
}
