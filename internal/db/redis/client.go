// Package redis implements db.Store on rueidis against Redis 8 (or Redis Stack),
// which bundles the JSON and search modules ideahub needs.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ideahub/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	clientName      = "ideahub"
	readyBackoff    = 100 * time.Millisecond
	maxReadyBackoff = time.Second
)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Password string
}

// Store talks to Redis through a single rueidis client.
type Store struct {
	client rueidis.Client
}

// NewStore creates the client. rueidis dials lazily; call WaitForReady at startup.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		ClientName:   clientName,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH replies are parsed in their RESP2 array shape
	})
	if err != nil {
		return nil, fmt.Errorf("redis: create client: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client, ending any Subscribe in progress.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings with a growing pause until Redis answers or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pause := readyBackoff
	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s (last error: %v): %w", timeout, err, ctx.Err())
		case <-time.After(pause):
		}
		pause = min(pause*2, maxReadyBackoff)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// serverSaid reports whether err is a Redis error reply mentioning msg, ignoring case.
func serverSaid(err error, msg string) bool {
	re, ok := rueidis.IsRedisErr(err)
	return ok && strings.Contains(strings.ToLower(re.Error()), msg)
}
