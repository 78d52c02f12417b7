package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/okrd/internal/scoring"
)

func score(overall int) scoring.KeyResultScore {
	return scoring.KeyResultScore{Overall: overall, Grade: "B"}
}

func TestCacheHitAndMiss(t *testing.T) {
	c := New(time.Minute, 10)

	_, ok := c.Get("never stored")
	assert.False(t, ok)

	c.Put("increase MAU from 10K to 20K", score(90))
	got, ok := c.Get("increase MAU from 10K to 20K")
	require.True(t, ok)
	assert.Equal(t, 90, got.Overall)
}

func TestCacheExpiry(t *testing.T) {
	c := New(10*time.Millisecond, 10)
	c.Put("short lived", score(50))

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("short lived")
	assert.False(t, ok)
	assert.Zero(t, c.Len(), "expired entry should be removed on read")
}

func TestCacheLRUEviction(t *testing.T) {
	c := New(time.Minute, 2)

	c.Put("first", score(10))
	c.Put("second", score(20))

	// Touch "first" so "second" becomes least recently used.
	_, ok := c.Get("first")
	require.True(t, ok)

	c.Put("third", score(30))

	_, ok = c.Get("second")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("first")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCacheReplaceDoesNotEvict(t *testing.T) {
	c := New(time.Minute, 2)
	c.Put("a", score(10))
	c.Put("b", score(20))
	c.Put("a", score(75))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 75, got.Overall)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCacheClear(t *testing.T) {
	c := New(time.Minute, 10)
	c.Put("a", score(10))
	c.Put("b", score(20))
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("same text"), Key("same text"))
	assert.NotEqual(t, Key("one"), Key("two"))
}
