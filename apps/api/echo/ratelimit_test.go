package echoapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_rateLimiter_allow(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }() // reset

	l := newRateLimiter(3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("1.1.1.1"), "attempt %d", i+1)
	}
	assert.False(t, l.allow("1.1.1.1"), "bucket empty")
	assert.True(t, l.allow("2.2.2.2"), "buckets are per client")

	// one token every 20s
	now = now.Add(30 * time.Second)
	assert.Len(t, l.state, 2)
	assert.True(t, l.allow("1.1.1.1"))
	assert.False(t, l.allow("1.1.1.1"))

	// refills up to the capacity only
	now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("1.1.1.1"), "attempt %d", i+1)
	}
	assert.False(t, l.allow("1.1.1.1"))
	assert.Len(t, l.state, 1, "idle buckets swept")
}
