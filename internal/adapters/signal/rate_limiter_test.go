package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Second)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("A"))
	}
}

func TestRateLimiter_Window(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("A"))
	assert.True(t, rl.Allow("A"))
	assert.False(t, rl.Allow("A"))
	assert.True(t, rl.Allow("B"), "windows are per session")

	now = now.Add(1100 * time.Millisecond)
	assert.True(t, rl.Allow("A"))
}

func TestRateLimiter_Forget(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("A"))
	assert.False(t, rl.Allow("A"))

	rl.Forget("A")
	assert.True(t, rl.Allow("A"))
}
