package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	clock := NewFakeClock()
	var fired []string

	clock.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "late") })
	clock.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "early") })
	stopped := clock.AfterFunc(200*time.Millisecond, func() { fired = append(fired, "stopped") })

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())
	assert.Equal(t, 2, clock.Pending())

	clock.Advance(99 * time.Millisecond)
	assert.Empty(t, fired)

	clock.Advance(time.Second)
	assert.Equal(t, []string{"early", "late"}, fired)
	assert.Zero(t, clock.Pending())
}

func TestRealClock(t *testing.T) {
	done := make(chan struct{})
	RealClock().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
