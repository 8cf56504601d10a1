package redissession

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core/session"
)

func newTestStore(t *testing.T) session.Store {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	st := NewStore(client)
	require.NoError(t, st.Ping(context.Background()))
	return st
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	s := session.New(time.Minute)
	s.Login(42)
	s.SetSuccess("yay")
	require.NoError(t, st.Save(ctx, s))
	t.Cleanup(func() { _ = st.Delete(ctx, s.ID) })

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.StudentID)
	assert.Equal(t, "yay", got.Success)
	assert.True(t, got.IsAuthenticated())

	require.NoError(t, st.Delete(ctx, s.ID))
	_, err = st.Get(ctx, s.ID)
	assert.Equal(t, session.ErrNotFound, err)
}

func TestStore_expired(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	s := session.New(-time.Second)
	require.NoError(t, st.Save(ctx, s))

	_, err := st.Get(ctx, s.ID)
	assert.Equal(t, session.ErrNotFound, err)
}
