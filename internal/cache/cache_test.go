package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSetExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := New[string](time.Hour)
	c.now = func() time.Time { return now }

	c.Set("k", "intro")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "intro", v)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestPrune(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(30 * time.Second)
	c.Set("b", 2)
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, c.Prune())
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("ab", ""), Key("a", "b"))
	assert.Len(t, Key("x"), 64)
}
