package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	var got []string
	ok, err := m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []string{"a", "b"}, time.Minute))
	ok, err = m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	now = now.Add(2 * time.Minute)
	ok, err = m.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are dropped")

	require.NoError(t, m.Set(ctx, "k", 1, 0))
	require.NoError(t, m.Delete(ctx, "k"))
	var n int
	ok, _ = m.Get(ctx, "k", &n)
	assert.False(t, ok)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var n int
	ok, err := c.Get(ctx, "k", &n)
	require.NoError(t, err)
	assert.False(t, ok)
}
