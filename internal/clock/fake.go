package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven Clock. Scheduled calls only run from Advance, in
// the goroutine that calls it, in deadline order (ties in scheduling order).
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	fired   uint64
	pending []*fakeTimer
}

type fakeTimer struct {
	at  time.Time
	seq uint64
	fn  func()
}

// NewFake returns a Fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc registers f to run once the clock has been advanced by d. A
// non-positive d fires on the next Advance, including Advance(0).
func (f *Fake) AfterFunc(d time.Duration, fn func()) *Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	if d < 0 {
		d = 0
	}
	f.seq++
	ft := &fakeTimer{at: f.now.Add(d), seq: f.seq, fn: fn}
	f.pending = append(f.pending, ft)

	return &Timer{stopFunc: func() bool { return f.remove(ft) }}
}

// Advance moves the clock forward by d, running every call that comes due.
// Calls scheduled by a firing callback run in the same Advance if their
// deadline falls within the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.earliest(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.removeLocked(next)
		if next.at.After(f.now) {
			f.now = next.at
		}
		f.fired++
		f.mu.Unlock()

		next.fn()
	}
}

// Pending reports how many scheduled calls have not fired or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Fired reports how many scheduled calls have run since the clock was made.
func (f *Fake) Fired() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fired
}

func (f *Fake) earliest(limit time.Time) *fakeTimer {
	var best *fakeTimer
	for _, ft := range f.pending {
		if ft.at.After(limit) {
			continue
		}
		if best == nil || ft.at.Before(best.at) || (ft.at.Equal(best.at) && ft.seq < best.seq) {
			best = ft
		}
	}
	return best
}

func (f *Fake) remove(ft *fakeTimer) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeLocked(ft)
}

func (f *Fake) removeLocked(ft *fakeTimer) bool {
	for i, p := range f.pending {
		if p == ft {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return true
		}
	}
	return false
}

var _ Clock = (*Fake)(nil)
