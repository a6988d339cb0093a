// Package redis provides a Redis-backed storage repository.
//
// Each record is stored as a JSON string under "<prefix>:key:<id>"; the set
// "<prefix>:ids" indexes the IDs so List and Clear never need SCAN.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"

	rdb "github.com/redis/go-redis/v9"

	"github.com/jmcleod/ironsign/storage"
)

const defaultPrefix = "ironsign"

// Store implements storage.Repository backed by Redis.
type Store struct {
	client rdb.UniversalClient
	prefix string
}

var _ storage.Repository = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key namespace. Default: "ironsign".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRepository returns a Repository backed by the given Redis client.
func NewRepository(client rdb.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRepositoryFromAddr connects to a single Redis node.
func NewRepositoryFromAddr(addr string, db int, opts ...Option) *Store {
	return NewRepository(rdb.NewClient(&rdb.Options{Addr: addr, DB: db}), opts...)
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping verifies the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return wrapErr(s.client.Ping(ctx).Err())
}

func (s *Store) recordKey(id string) string {
	return s.prefix + ":key:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + ":ids"
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, rdb.ErrClosed) {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return err
}

func (s *Store) Put(ctx context.Context, record *storage.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe rdb.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(record.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), record.ID)
		return nil
	})
	return wrapErr(err)
}

func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	var rec storage.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	var del *rdb.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe rdb.Pipeliner) error {
		del = pipe.Del(ctx, s.recordKey(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return wrapErr(err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.recordKey(id)).Result()
	if err != nil {
		return false, wrapErr(err)
	}
	return n > 0, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, wrapErr(err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Clear(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return wrapErr(err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.recordKey(id))
	}
	keys = append(keys, s.indexKey())
	return wrapErr(s.client.Del(ctx, keys...).Err())
}
