package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultChannel = "reviewme:reviews"

const defaultPublishTimeout = 2 * time.Second

// RedisPublisher forwards events to a Redis pub/sub channel so other API
// instances can relay them to their own subscribers.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
	Origin  string
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewRedisPublisher(client *redis.Client, channel, origin string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{Client: client, Channel: channel, Origin: origin, Timeout: defaultPublishTimeout}
}

func (p *RedisPublisher) Publish(ev ReviewEvent) {
	ev.Origin = p.Origin
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("feed: marshal redis event")
		return
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := p.Client.Publish(ctx, p.Channel, payload).Err(); err != nil {
			log.Warn().Err(err).Str("channel", p.Channel).Str("type", ev.Type).Msg("feed: redis publish failed")
		}
	}()
}

// Wait blocks until in-flight publishes finish.
func (p *RedisPublisher) Wait() {
	p.wg.Wait()
}

// RedisRelay subscribes to the shared channel and hands events published by
// other instances to Target.
type RedisRelay struct {
	Client  *redis.Client
	Channel string
	Origin  string
	Target  Publisher

	sub *redis.PubSub
}

func NewRedisRelay(client *redis.Client, channel, origin string, target Publisher) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{Client: client, Channel: channel, Origin: origin, Target: target}
}

// Subscribe returns once Redis has confirmed the subscription.
func (r *RedisRelay) Subscribe(ctx context.Context) error {
	sub := r.Client.Subscribe(ctx, r.Channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.Channel, err)
	}
	r.sub = sub
	return nil
}

// Run forwards events until ctx is done. It subscribes first if Subscribe
// has not been called.
func (r *RedisRelay) Run(ctx context.Context) error {
	if r.sub == nil {
		if err := r.Subscribe(ctx); err != nil {
			return err
		}
	}
	defer r.sub.Close()

	ch := r.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev ReviewEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("feed: invalid relay payload")
				continue
			}
			if ev.Origin == r.Origin {
				continue
			}
			r.Target.Publish(ev)
		}
	}
}
