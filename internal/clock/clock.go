// Package clock abstracts the monotonic time source used by every bounded
// wait in the bridge.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type system struct{}

// System returns the wall clock; time.Now carries a monotonic reading.
func System() Clock { return system{} }

func (system) Now() time.Time { return time.Now() }

func (system) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a manually advanced clock. Sleep advances it immediately.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake() *Fake {
	return &Fake{now: time.Date(2025, time.May, 1, 20, 0, 0, 0, time.UTC)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(d time.Duration) {
	f.Advance(d)
}

func (f *Fake) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
