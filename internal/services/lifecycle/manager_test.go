package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ReverseOrderAndJoinedErrors(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	boom := errors.New("boom")

	m.Register("database", func(context.Context) error { order = append(order, "database"); return nil })
	m.Register("outbox", func(context.Context) error { order = append(order, "outbox"); return boom })
	m.Register("http", func(context.Context) error { order = append(order, "http"); return nil })
	m.Register("ignored", nil)

	assert.Equal(t, []string{"http", "outbox", "database"}, m.Names())

	err := m.Shutdown(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"http", "outbox", "database"}, order)

	assert.ErrorIs(t, m.Shutdown(context.Background()), boom)
	assert.Len(t, order, 3)
}

func TestManager_HooksSeeDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}
