package scheduler

import (
	"time"

	"github.com/RussellLuo/timingwheel"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback if it has not fired yet. It returns
	// false if the callback already fired or was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay. Callbacks fire on the
// scheduler's own goroutine, so they must do their own locking.
type Scheduler interface {
	ScheduleAfter(d time.Duration, f func()) Timer
}

// Wheel is a Scheduler backed by a hashed timing wheel, sized for a
// large number of short-lived timers like party invite expirations.
type Wheel struct {
	tw *timingwheel.TimingWheel
}

// NewWheel creates a timing wheel with the given tick granularity and
// slot count. Timers fire with up to one tick of slack.
func NewWheel(tick time.Duration, size int64) *Wheel {
	return &Wheel{tw: timingwheel.NewTimingWheel(tick, size)}
}

// Start spins up the wheel's goroutine.
func (w *Wheel) Start() {
	w.tw.Start()
}

// Stop shuts down the wheel. Pending timers are dropped without firing.
func (w *Wheel) Stop() {
	w.tw.Stop()
}

func (w *Wheel) ScheduleAfter(d time.Duration, f func()) Timer {
	return w.tw.AfterFunc(d, f)
}
