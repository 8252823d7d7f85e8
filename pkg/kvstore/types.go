package kvstore

import (
	"context"
	"errors"
)

// Storage is the contract every backend satisfies. GetItem reports whether the
// key was present; a missing key is not an error.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

var (
	// ErrQuotaExceeded is returned when a write would exceed the backend quota.
	ErrQuotaExceeded = errors.New("kvstore: quota exceeded")
	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("kvstore: storage closed")
)
