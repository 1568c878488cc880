package clock

import (
	"testing"
	"time"
)

func TestSystemClock_Now(t *testing.T) {
	c := NewSystemClock()

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestSystemClock_Since(t *testing.T) {
	c := NewSystemClock()
	start := c.Now()

	if d := c.Since(start); d < 0 {
		t.Errorf("Since() = %v, want >= 0", d)
	}
}

func TestSystemClock_ImplementsClock(t *testing.T) {
	var _ Clock = NewSystemClock()
	var _ Clock = NewVirtualClock(time.Now())
}
