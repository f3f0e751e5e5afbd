// Package storage implements the flat key-value persistence the note
// collection lives in, and the single-slot Store on top of it.
package storage

import "context"

// Provider is a flat key-value persistence backend.
type Provider interface {
	// Get returns the value stored under key, or apperr.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases backend resources.
	Close() error
}
