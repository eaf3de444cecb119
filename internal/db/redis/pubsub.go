package redis

import (
	"context"
	"errors"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ideahub/internal/db"
)

// Publish sends msg to every subscriber of channel.
func (s *Store) Publish(ctx context.Context, channel string, msg []byte) error {
	cmd := s.b().Publish().Channel(channel).Message(string(msg)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPublish, Err: err}
	}
	return nil
}

// Subscribe blocks on channel until ctx is cancelled. A cancelled context is not an error.
func (s *Store) Subscribe(ctx context.Context, channel string, fn func(msg []byte)) error {
	cmd := s.b().Subscribe().Channel(channel).Build()
	err := s.client.Receive(ctx, cmd, func(m rueidis.PubSubMessage) {
		fn([]byte(m.Message))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return &db.Error{Op: db.OpSubscribe, Err: err}
	}
	return nil
}
