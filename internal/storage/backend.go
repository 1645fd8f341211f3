// Package storage provides the key-value backends the state store
// persists its snapshot into. The host-native backends (redis,
// postgres) are preferred; the file backend is the local fallback.
package storage

import "context"

// Backend is an asynchronous key-value store. Get returns (nil, nil)
// on a missing key rather than an error; absence is an expected state
// on first run.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
