package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ChannelLayer delivers a message to every member of a group, wherever the
// member is connected.
type ChannelLayer interface {
	GroupSend(ctx context.Context, msg GroupMessage) error
}

// RedisLayer fans group messages out across server instances. GroupSend
// publishes to Redis; a pattern subscription started by Start hands every
// published message to the local hub, including this instance's own.
type RedisLayer struct {
	client *redis.Client
	prefix string
	local  *Hub

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisLayer builds a layer publishing on channels named prefix:group.
func NewRedisLayer(client *redis.Client, prefix string, local *Hub) *RedisLayer {
	return &RedisLayer{client: client, prefix: prefix, local: local}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}

func (l *RedisLayer) channel(group string) string {
	return l.prefix + ":" + group
}

func (l *RedisLayer) GroupSend(ctx context.Context, msg GroupMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode group message: %w", err)
	}
	if err := l.client.Publish(ctx, l.channel(msg.Group), data).Err(); err != nil {
		return fmt.Errorf("failed to publish group message: %w", err)
	}
	return nil
}

// Start subscribes to every group channel and returns once the subscription
// is confirmed. Delivery continues in the background until Close.
func (l *RedisLayer) Start(ctx context.Context) error {
	pubsub := l.client.PSubscribe(ctx, l.channel("*"))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", l.channel("*"), err)
	}

	l.mu.Lock()
	l.pubsub = pubsub
	l.done = make(chan struct{})
	l.mu.Unlock()

	go l.forward(pubsub.Channel(), l.done)
	slog.Info("redis channel layer subscribed", "pattern", l.channel("*"))
	return nil
}

func (l *RedisLayer) forward(messages <-chan *redis.Message, done chan struct{}) {
	defer close(done)

	for m := range messages {
		var msg GroupMessage
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			slog.Warn("dropping malformed group message", "channel", m.Channel, "error", err)
			continue
		}
		if msg.Group == "" {
			msg.Group = strings.TrimPrefix(m.Channel, l.prefix+":")
		}
		if err := l.local.GroupSend(context.Background(), msg); err != nil {
			slog.Warn("local delivery stopped", "error", err)
			return
		}
	}
}

// Close ends the subscription and waits for the forwarder to exit.
func (l *RedisLayer) Close() error {
	l.mu.Lock()
	pubsub, done := l.pubsub, l.done
	l.pubsub = nil
	l.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	return err
}
