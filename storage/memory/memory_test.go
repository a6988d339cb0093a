package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/ironsign/storage"
)

func testRecord(id string) *storage.Record {
	return &storage.Record{
		ID:           id,
		EncryptedKey: []byte("ciphertext"),
		IV:           []byte("nonce1234567"),
		Salt:         []byte("salt567890123456"),
		Timestamp:    1,
		Metadata:     &storage.RecordMetadata{UserID: "user", CredentialID: id},
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	t.Run("PutAndGet", func(t *testing.T) {
		rec := testRecord("id1")
		require.NoError(t, repo.Put(ctx, rec))

		got, err := repo.Get(ctx, "id1")
		require.NoError(t, err)
		assert.Equal(t, rec, got)

		// Returned records are clones.
		got.IV[0] = 'X'
		got2, _ := repo.Get(ctx, "id1")
		assert.NotEqual(t, byte('X'), got2.IV[0])

		// Stored records are clones of the caller's value.
		rec.Salt[0] = 'X'
		got3, _ := repo.Get(ctx, "id1")
		assert.NotEqual(t, byte('X'), got3.Salt[0])
	})

	t.Run("Overwrite", func(t *testing.T) {
		rec := testRecord("id1")
		rec.Timestamp = 2
		require.NoError(t, repo.Put(ctx, rec))
		got, err := repo.Get(ctx, "id1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Timestamp)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, "nonexistent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ExistsAndList", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, testRecord("id2")))
		ok, err := repo.Exists(ctx, "id2")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)

		ids, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"id1", "id2"}, ids)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "id2"))
		assert.ErrorIs(t, repo.Delete(ctx, "id2"), storage.ErrNotFound)
		_, err := repo.Get(ctx, "id2")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx))
		ids, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, repo.Put(cctx, testRecord("id3")), context.Canceled)
		_, err := repo.Get(cctx, "id1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryRepository_ConcurrentPut(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := testRecord("shared")
			rec.Timestamp = int64(i)
			_ = repo.Put(ctx, rec)
			_ = repo.Put(ctx, testRecord(fmt.Sprintf("own-%d", i)))
		}()
	}
	wg.Wait()

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 51)

	got, err := repo.Get(ctx, "shared")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Timestamp, int64(0))
}
