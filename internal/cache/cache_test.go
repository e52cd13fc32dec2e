package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledger/internal/cache"
)

func TestCache_SetGetDel(t *testing.T) {
	c, err := cache.New[[]string](100)
	require.NoError(t, err)
	defer c.Close()

	c.Set("tenant:payable", []string{"Marketing", "Rent"})

	got, ok := c.Get("tenant:payable")
	require.True(t, ok)
	assert.Equal(t, []string{"Marketing", "Rent"}, got)

	c.Del("tenant:payable", "tenant:receivable")

	_, ok = c.Get("tenant:payable")
	assert.False(t, ok)
}

func TestCache_NilIsDisabled(t *testing.T) {
	var c *cache.Cache[int]

	c.Set("k", 1)
	c.Del("k")

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Close()
}
