// Package db is the storage surface ideahub needs from Redis: JSON idea
// documents, one search index with a vector field, a byte cache and pub/sub.
package db

import (
	"context"
	"time"
)

// Store combines every capability. Consumers declare the narrow slice they use.
//
//nolint:interfacebloat // facade; consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	Documents
	Cache
	Indexer
	Searcher
	PubSub
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Documents reads and writes JSON documents. JSONSet accepts a JSONPath so single fields can be replaced.
type Documents interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
}

// Cache is a byte-valued key-value store. A ttl <= 0 never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Indexer creates search indexes. ErrIndexExists is returned when the name is taken.
type Indexer interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
}

// Searcher runs queries against a search index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
}

// PubSub broadcasts messages between service instances.
type PubSub interface {
	Publish(ctx context.Context, channel string, msg []byte) error
	// Subscribe blocks, calling fn for every message, until ctx is done or the connection fails.
	Subscribe(ctx context.Context, channel string, fn func(msg []byte)) error
}
