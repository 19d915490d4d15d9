package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_Allow(t *testing.T) {
	now := time.Unix(1000, 0)
	k := New(1, 2)
	k.now = func() time.Time { return now }

	assert.True(t, k.Allow("a"))
	assert.True(t, k.Allow("a"))
	assert.False(t, k.Allow("a"), "burst spent")
	assert.True(t, k.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, k.Allow("a"), "one token refilled")
	assert.False(t, k.Allow("a"))
}

func TestKeyed_Prune(t *testing.T) {
	now := time.Unix(1000, 0)
	k := New(5, 5)
	k.now = func() time.Time { return now }

	k.Allow("old")
	now = now.Add(time.Minute)
	k.Allow("fresh")

	assert.Equal(t, 1, k.Prune(30*time.Second))
	assert.Equal(t, 1, k.Len())
}

func TestKeyed_Disabled(t *testing.T) {
	k := New(0, 0)
	for range 100 {
		assert.True(t, k.Allow("a"))
	}
	assert.Zero(t, k.Len())

	var nilKeyed *Keyed
	assert.True(t, nilKeyed.Allow("a"))
	assert.Zero(t, nilKeyed.Prune(time.Second))
}
