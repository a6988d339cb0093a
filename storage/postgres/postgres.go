// Package postgres implements storage.Repository backed by PostgreSQL.
//
// Each record is one row of the encrypted_keys table keyed by record ID.
// Byte fields are stored as BYTEA and the optional metadata as two nullable
// text columns, so a record without metadata round-trips as nil.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmcleod/ironsign/storage"
)

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given pgx connection pool.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", wrapErr(err))
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(pool), nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// wrapErr marks connection-level failures as storage.ErrUnavailable.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return err
}

func (s *Store) Put(ctx context.Context, record *storage.Record) error {
	var userID, credentialID *string
	if record.Metadata != nil {
		userID = &record.Metadata.UserID
		credentialID = &record.Metadata.CredentialID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO encrypted_keys (id, encrypted_key, iv, salt, timestamp_ms, user_id, credential_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id)
		 DO UPDATE SET encrypted_key = $2, iv = $3, salt = $4, timestamp_ms = $5, user_id = $6, credential_id = $7`,
		record.ID, record.EncryptedKey, record.IV, record.Salt, record.Timestamp, userID, credentialID)
	return wrapErr(err)
}

func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	var rec storage.Record
	var userID, credentialID *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, encrypted_key, iv, salt, timestamp_ms, user_id, credential_id
		 FROM encrypted_keys WHERE id = $1`, id).Scan(
		&rec.ID, &rec.EncryptedKey, &rec.IV, &rec.Salt, &rec.Timestamp, &userID, &credentialID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	if userID != nil || credentialID != nil {
		rec.Metadata = &storage.RecordMetadata{}
		if userID != nil {
			rec.Metadata.UserID = *userID
		}
		if credentialID != nil {
			rec.Metadata.CredentialID = *credentialID
		}
	}
	return &rec, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM encrypted_keys WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM encrypted_keys WHERE id = $1)`, id).Scan(&exists)
	return exists, wrapErr(err)
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM encrypted_keys ORDER BY id`)
	if err != nil {
		return nil, wrapErr(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, wrapErr(err)
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM encrypted_keys`)
	return wrapErr(err)
}
