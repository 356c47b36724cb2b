package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU(4, time.Minute)

	c.Set("a", []byte("1"), 0)
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2, time.Minute)

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)

	// Touch "a" so "b" becomes the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", []byte("3"), 0)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_ExpiredEntryMisses(t *testing.T) {
	c := NewLRU(4, time.Minute)

	c.Set("a", []byte("1"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_OverwriteRefreshes(t *testing.T) {
	c := NewLRU(2, time.Minute)

	c.Set("a", []byte("1"), 0)
	c.Set("a", []byte("2"), 0)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), got)
}
