package outbox

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox", "mail.db"), maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_FIFOAndRemove(t *testing.T) {
	store := openStore(t, 0)
	base := time.Now()

	require.NoError(t, store.Enqueue(Message{To: "b@example.com", Subject: "second", Timestamp: base.Add(time.Second)}))
	require.NoError(t, store.Enqueue(Message{To: "a@example.com", Subject: "first", Timestamp: base}))

	batch, err := store.Batch(10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "first", batch[0].Subject)
	assert.NotEmpty(t, batch[0].ID)

	require.NoError(t, store.Remove(batch[0]))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestStore_RequeueMovesToBack(t *testing.T) {
	store := openStore(t, 0)
	base := time.Now().Add(-time.Minute)

	require.NoError(t, store.Enqueue(Message{Subject: "retry", Timestamp: base}))
	require.NoError(t, store.Enqueue(Message{Subject: "next", Timestamp: base.Add(time.Second)}))

	batch, err := store.Batch(1)
	require.NoError(t, err)
	msg := batch[0]
	msg.Attempts++
	require.NoError(t, store.Requeue(msg))

	batch, err = store.Batch(10)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "next", batch[0].Subject)
	assert.Equal(t, "retry", batch[1].Subject)
	assert.Equal(t, 1, batch[1].Attempts)
}

func TestStore_MaxSize(t *testing.T) {
	store := openStore(t, 1)

	require.NoError(t, store.Enqueue(Message{Subject: "one"}))
	assert.ErrorIs(t, store.Enqueue(Message{Subject: "two"}), ErrFull)
}

func TestStore_NilIsClosed(t *testing.T) {
	var store *Store
	_, err := store.Size()
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}
