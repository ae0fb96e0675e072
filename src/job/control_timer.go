package job

import (
	"time"
)

type timerFactory func(time.Duration) <-chan time.Time

// ControlTimer paces the scheduler passes. Each expiry produces one tick on
// tickCh; the timer is re-armed through resetCh. A reset to a non-positive
// duration leaves it disarmed until the next reset.
type ControlTimer struct {
	timerFactory timerFactory
	tickCh       chan struct{}      //sends a signal to listening process
	resetCh      chan time.Duration //receives instruction to reset the timer
	shutdownCh   chan struct{}      //receives instruction to exit Run loop
}

// NewControlTimer ...
func NewControlTimer(timerFactory timerFactory) *ControlTimer {
	return &ControlTimer{
		timerFactory: timerFactory,
		tickCh:       make(chan struct{}, 1),
		resetCh:      make(chan time.Duration),
		shutdownCh:   make(chan struct{}),
	}
}

// NewTimeControlTimer returns a ControlTimer backed by time.After.
func NewTimeControlTimer() *ControlTimer {
	after := func(d time.Duration) <-chan time.Time {
		if d <= 0 {
			return nil
		}
		return time.After(d)
	}
	return NewControlTimer(after)
}

// Run arms the timer with init and serves resets until Shutdown. Ticks are
// coalesced: if the previous tick has not been consumed, a new one is dropped.
func (c *ControlTimer) Run(init time.Duration) {
	timer := c.timerFactory(init)
	for {
		select {
		case <-timer:
			select {
			case c.tickCh <- struct{}{}:
			default:
			}
			timer = nil
		case t := <-c.resetCh:
			timer = c.timerFactory(t)
		case <-c.shutdownCh:
			return
		}
	}
}

// Shutdown stops the Run loop.
func (c *ControlTimer) Shutdown() {
	close(c.shutdownCh)
}
