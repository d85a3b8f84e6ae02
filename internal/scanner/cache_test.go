package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheEmpty(t *testing.T) {
	c := NewCache[int](time.Hour)
	_, _, ok := c.Get()
	assert.False(t, ok)
}

func TestCacheServesWithinTTL(t *testing.T) {
	c := NewCache[string](time.Hour)
	c.Put("cached")

	got, age, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, "cached", got)
	assert.GreaterOrEqual(t, age, time.Duration(0))
	assert.Less(t, age, time.Hour)
}

func TestCacheExpires(t *testing.T) {
	c := NewCache[string](time.Nanosecond)
	c.Put("stale")
	time.Sleep(time.Millisecond)

	_, _, ok := c.Get()
	assert.False(t, ok)
}

func TestCachePutRefreshes(t *testing.T) {
	c := NewCache[int](time.Hour)
	c.Put(1)
	c.Put(2)

	got, _, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}
