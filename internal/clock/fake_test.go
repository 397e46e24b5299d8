package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClock_AfterFuncOrder(t *testing.T) {
	c := Fake(epoch)

	var fired []string
	c.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	c.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })

	c.Advance(time.Second)
	assert.Equal(t, []string{"a"}, fired)

	c.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, epoch.Add(6*time.Second), c.Now())
	assert.Equal(t, 0, c.Pending())
}

func TestFakeClock_Stop(t *testing.T) {
	c := Fake(epoch)

	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports false")

	c.Advance(time.Minute)
	assert.False(t, called)
}

func TestFakeClock_ChainedTimers(t *testing.T) {
	// Callback scheduling another timer sees Now() at its own deadline.
	c := Fake(epoch)

	var seen []time.Duration
	var tick func()
	tick = func() {
		seen = append(seen, c.Now().Sub(epoch))
		if len(seen) < 4 {
			c.AfterFunc(30*time.Second, tick)
		}
	}
	c.AfterFunc(30*time.Second, tick)

	c.Advance(2 * time.Minute)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second, 90 * time.Second, 120 * time.Second}, seen)
}

func TestRealClock(t *testing.T) {
	c := Real()
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real AfterFunc did not fire")
	}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
