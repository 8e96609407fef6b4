package chart

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestImageCache_ExpiredEntriesSweptOnPut(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newImageCache(10*time.Minute, 1000)
	c.now = clock.now

	for i := 0; i < 50; i++ {
		c.put(fmt.Sprintf("run-%d:equity", i), []byte{byte(i)})
	}
	require.Equal(t, 50, c.size())

	clock.t = clock.t.Add(11 * time.Minute)
	c.put("fresh:equity", []byte{1})
	assert.Equal(t, 1, c.size())

	_, ok := c.get("run-0:equity")
	assert.False(t, ok)
	img, ok := c.get("fresh:equity")
	require.True(t, ok)
	assert.Equal(t, []byte{1}, img)
}

func TestImageCache_Limit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newImageCache(time.Hour, 3)
	c.now = clock.now

	for i := 0; i < 5; i++ {
		c.put(fmt.Sprintf("k%d", i), []byte{byte(i)})
		clock.t = clock.t.Add(time.Second)
	}
	assert.Equal(t, 3, c.size())
	_, ok := c.get("k0")
	assert.False(t, ok, "oldest entry is dropped first")
	_, ok = c.get("k4")
	assert.True(t, ok)

	// overwriting a present key does not evict another one
	c.put("k4", []byte{9})
	assert.Equal(t, 3, c.size())
}

func TestImageCache_ReturnsCopy(t *testing.T) {
	c := newImageCache(time.Hour, 10)
	c.put("k", []byte{1, 2})
	img, _ := c.get("k")
	img[0] = 7
	again, _ := c.get("k")
	assert.Equal(t, []byte{1, 2}, again)

	c.put("", []byte{1})
	assert.Equal(t, 1, c.size())
}
