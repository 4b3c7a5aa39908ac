package realtime

import (
	"context"
	"encoding/json"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const DefaultChannel = "oink:balance-events"

// RedisBroker relays balance events through Redis pub/sub so every instance
// delivers them to its own subscribers.
type RedisBroker struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedisBroker(client *redis.Client, hub *Hub) *RedisBroker {
	return &RedisBroker{client: client, channel: DefaultChannel, hub: hub}
}

func (b *RedisBroker) Publish(ctx context.Context, ev domain.BalanceEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run subscribes to the channel and feeds the hub until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Info("balance event broker subscribed", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.BalanceEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("bad balance event payload", "error", err)
				continue
			}
			b.hub.Broadcast(ev)
		}
	}
}
