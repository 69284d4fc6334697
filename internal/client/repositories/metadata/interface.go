// Package metadata is the client's durable key/value table. The sync core
// keeps its collection, clock, mutation log and session cache here as JSON
// blobs.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) for an absent key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany upserts all pairs in a single statement.
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
}
