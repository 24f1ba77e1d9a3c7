package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when no document is stored under a key.
var ErrNotFound = errors.New("storage: document not found")

// Backend is a durable key-value store holding whole documents.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Del(ctx context.Context, keys ...string) error
}
