// Package storage provides the storage abstraction layer for encrypted key records.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no record exists for the requested ID.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when the backend cannot be reached. Callers
	// may retry or bypass the store, since records are re-derivable.
	ErrUnavailable = errors.New("storage unavailable")
)

// Repository persists EncryptedKeyRecords keyed by ID. Put overwrites any
// existing record for the same ID (last write wins).
type Repository interface {
	Put(ctx context.Context, record *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}
