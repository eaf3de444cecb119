package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/metrics"
)

const (
	relayBackoff    = 100 * time.Millisecond
	maxRelayBackoff = 5 * time.Second
)

// Publisher emits events to every instance.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// broker is the store-side pub/sub (ISP).
type broker interface {
	Publish(ctx context.Context, channel string, msg []byte) error
	Subscribe(ctx context.Context, channel string, fn func(msg []byte)) error
}

// StorePublisher sends events through the store's pub/sub channel.
type StorePublisher struct {
	broker  broker
	channel string
}

// NewStorePublisher creates a publisher on channel (DefaultChannel when empty).
func NewStorePublisher(b broker, channel string) *StorePublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &StorePublisher{broker: b, channel: channel}
}

// Publish implements Publisher.
func (p *StorePublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.broker.Publish(ctx, p.channel, data); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	metrics.RealtimeEventsTotal.WithLabelValues(ev.Type).Inc()
	return nil
}

// Relay subscribes to channel and hands every message to the hub.
// A dropped subscription is retried with capped exponential backoff;
// Relay returns only once ctx is done.
func Relay(ctx context.Context, b broker, channel string, hub *Hub, logger *zap.Logger) {
	if channel == "" {
		channel = DefaultChannel
	}
	logger = logger.With(zap.String("channel", channel))

	pause := relayBackoff
	for {
		logger.Info("Realtime relay subscribing")
		err := b.Subscribe(ctx, channel, hub.Broadcast)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("Realtime relay dropped", zap.Duration("retry_in", pause), zap.Error(err))
		} else {
			pause = relayBackoff
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pause):
		}
		if err != nil {
			pause = min(pause*2, maxRelayBackoff)
		}
	}
}

// LocalPublisher delivers events straight to an in-process hub.
// Used when the store has no pub/sub (single instance).
type LocalPublisher struct {
	hub *Hub
}

// NewLocalPublisher creates an in-process publisher.
func NewLocalPublisher(hub *Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

// Publish implements Publisher.
func (p *LocalPublisher) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	p.hub.Broadcast(data)
	metrics.RealtimeEventsTotal.WithLabelValues(ev.Type).Inc()
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
