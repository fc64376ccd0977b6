package realtime

import (
	"context"
	"dm-lab/domain/event"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// IDeliverer delivers an event to the local connections.
type IDeliverer interface {
	Deliver(ctx context.Context, e event.Event) int
}

// RedisRelay fans events out to every instance through a Redis pub/sub channel.
// Publishing is fire and forget: an instance that is not subscribed misses the event.
type RedisRelay struct {
	client    *redis.Client
	channel   string
	deliverer IDeliverer
	log       *slog.Logger
}

func NewRedisRelay(client *redis.Client, channel string, deliverer IDeliverer, log *slog.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, deliverer: deliverer, log: log}
}

func (r *RedisRelay) Publish(ctx context.Context, e event.Event) error {
	bytes, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, bytes).Err()
}

// Run subscribes to the channel and delivers every received event locally until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	subscription := r.client.Subscribe(ctx, r.channel)
	defer func() {
		if err := subscription.Close(); err != nil {
			r.log.Debug("Unable to close subscription", "error", err)
		}
	}()

	if _, err := subscription.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.log.Info("Relay subscribed", "channel", r.channel)

	messages := subscription.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("relay channel %s closed", r.channel)
			}
			var e event.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				r.log.Warn("Dropping malformed relay event", "error", err)
				continue
			}
			r.deliverer.Deliver(ctx, e)
		}
	}
}
