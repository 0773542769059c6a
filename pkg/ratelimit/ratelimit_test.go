package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedAllow(t *testing.T) {
	k := NewKeyed(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, k.Allow("biz-a"), "request %d should pass", i)
	}
	assert.False(t, k.Allow("biz-a"), "the fourth request must be rejected")

	// Keys are independent buckets.
	assert.True(t, k.Allow("biz-b"))
}

func TestGuardQuotas(t *testing.T) {
	g := NewGuard(2, 3, 100)

	t.Run("writes", func(t *testing.T) {
		assert.True(t, g.AllowWrite("biz"))
		assert.True(t, g.AllowWrite("biz"))
		assert.False(t, g.AllowWrite("biz"))
	})

	t.Run("messages", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.True(t, g.AllowMessage("biz"))
		}
		assert.False(t, g.AllowMessage("biz"))
	})
}

func TestGuardDailyCeiling(t *testing.T) {
	g := NewGuard(10, 1000, 2)

	assert.True(t, g.AllowMessage("biz"))
	assert.True(t, g.AllowMessage("biz"))
	assert.False(t, g.AllowMessage("biz"), "the daily ceiling binds even under the minute quota")
}
