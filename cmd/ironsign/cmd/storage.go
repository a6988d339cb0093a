package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmcleod/ironsign/internal/config"
	"github.com/jmcleod/ironsign/storage"
	bboltstorage "github.com/jmcleod/ironsign/storage/bbolt"
	"github.com/jmcleod/ironsign/storage/memory"
	pgstorage "github.com/jmcleod/ironsign/storage/postgres"
	redisstorage "github.com/jmcleod/ironsign/storage/redis"
	"github.com/jmcleod/ironsign/vault"
)

// openRepository opens the backend selected by c. The returned close
// function is never nil.
func openRepository(ctx context.Context, c config.Storage) (storage.Repository, func(), error) {
	switch c.Driver {
	case config.DriverMemory:
		return memory.NewRepository(), func() {}, nil
	case config.DriverBolt:
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		repo, err := bboltstorage.NewRepositoryFromFile(c.Path, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open vault storage: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.DriverPostgres:
		repo, err := pgstorage.NewRepositoryFromDSN(ctx, c.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open vault storage: %w", err)
		}
		return repo, repo.Close, nil
	case config.DriverRedis:
		repo := redisstorage.NewRepositoryFromAddr(c.RedisAddr, c.RedisDB, redisstorage.WithPrefix(c.RedisPrefix))
		return repo, func() { _ = repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
}

func openVault(ctx context.Context, c *config.Config) (*vault.Vault, func(), error) {
	repo, closeFn, err := openRepository(ctx, c.Storage)
	if err != nil {
		return nil, nil, err
	}
	return vault.New(repo), closeFn, nil
}
