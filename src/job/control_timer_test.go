package job

import (
	"testing"
	"time"
)

// manualTimers hands out timers that fire only when told to.
type manualTimers struct {
	armed chan chan time.Time
}

func newManualTimers() *manualTimers {
	return &manualTimers{armed: make(chan chan time.Time, 8)}
}

func (m *manualTimers) factory(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	ch := make(chan time.Time, 1)
	m.armed <- ch
	return ch
}

func (m *manualTimers) fire(t *testing.T) {
	select {
	case ch := <-m.armed:
		ch <- time.Now()
	case <-time.After(time.Second):
		t.Fatal("no timer armed")
	}
}

func expectTick(t *testing.T, c *ControlTimer) {
	select {
	case <-c.tickCh:
	case <-time.After(time.Second):
		t.Fatal("expected a tick")
	}
}

func expectNoTick(t *testing.T, c *ControlTimer) {
	select {
	case <-c.tickCh:
		t.Fatal("unexpected tick")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestControlTimerTickAndReset(t *testing.T) {
	timers := newManualTimers()
	c := NewControlTimer(timers.factory)
	go c.Run(time.Second)
	defer c.Shutdown()

	timers.fire(t)
	expectTick(t, c)

	// not re-armed until reset
	expectNoTick(t, c)

	c.resetCh <- time.Second
	timers.fire(t)
	expectTick(t, c)
}

func TestControlTimerDisarmed(t *testing.T) {
	timers := newManualTimers()
	c := NewControlTimer(timers.factory)
	go c.Run(0)
	defer c.Shutdown()

	expectNoTick(t, c)

	c.resetCh <- 0
	expectNoTick(t, c)

	if n := len(timers.armed); n != 0 {
		t.Fatalf("expected no armed timer, got %d", n)
	}
}

func TestControlTimerCoalescesTicks(t *testing.T) {
	timers := newManualTimers()
	c := NewControlTimer(timers.factory)
	go c.Run(time.Second)
	defer c.Shutdown()

	timers.fire(t)
	c.resetCh <- time.Second
	timers.fire(t)
	// the second tick is dropped while the first is unconsumed
	c.resetCh <- 0

	expectTick(t, c)
	expectNoTick(t, c)
}
