package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type envelope struct {
	Identity string          `json:"identity"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

// RedisBridge 多实例部署时经 redis pub/sub 广播，各实例再投递给本地 Hub
type RedisBridge struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

func NewRedisBridge(rdb *redis.Client, channel string, hub *Hub, log *zap.Logger) *RedisBridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBridge{rdb: rdb, channel: channel, hub: hub, log: log}
}

func (b *RedisBridge) Publish(ctx context.Context, identity string, msg Message) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal realtime payload: %w", err)
	}
	payload, err := json.Marshal(envelope{Identity: identity, Event: msg.Event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal realtime envelope: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// Run 阻塞直到 ctx 取消
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("realtime redis bridge subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(m.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.log.Warn("realtime bridge bad payload", zap.Error(err))
		return
	}
	if env.Identity == "" {
		return
	}
	b.hub.Deliver(env.Identity, Message{Event: env.Event, Data: env.Data})
}
