package inmemsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core/session"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	st := NewStore()

	s := session.New(time.Hour)
	s.AddMessages("lol")
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, []string{"lol"}, got.Messages)
	assert.False(t, got.Modified())

	// stored copies are not shared with callers
	got.AddMessages("mdr")
	again, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"lol"}, again.Messages)

	require.NoError(t, st.Delete(ctx, s.ID))
	_, err = st.Get(ctx, s.ID)
	assert.Equal(t, session.ErrNotFound, err)
}

func TestStore_expired(t *testing.T) {
	ctx := context.Background()
	st := NewStore()

	s := session.New(-time.Minute)
	require.NoError(t, st.Save(ctx, s))

	_, err := st.Get(ctx, s.ID)
	assert.Equal(t, session.ErrNotFound, err)
}

func TestStore_Save_sweepsExpired(t *testing.T) {
	ctx := context.Background()
	st := NewStore().(*store)

	expired := session.New(-time.Minute)
	require.NoError(t, st.Save(ctx, expired))
	assert.Len(t, st.table, 1)

	// the next sweep is at most a minute away
	st.nextSweep = time.Now()
	live := session.New(time.Hour)
	require.NoError(t, st.Save(ctx, live))
	assert.Len(t, st.table, 1)
	assert.Contains(t, st.table, live.ID)
}
