package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	calls := 0
	loader := func() (any, error) {
		calls++
		return true, nil
	}

	v, err := c.GetOrSet(ctx, "ADMIN_ROLE_u1", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = c.GetOrSet(ctx, "ADMIN_ROLE_u1", time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.Equal(t, 1, calls)

	c.Delete(ctx, "ADMIN_ROLE_u1")
	_, found := c.Get(ctx, "ADMIN_ROLE_u1")
	assert.False(t, found)
}

func TestMemoryCache_LoaderErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_, err := c.GetOrSet(ctx, "k", time.Minute, func() (any, error) {
		return nil, errors.New("db down")
	})
	require.Error(t, err)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)
}
