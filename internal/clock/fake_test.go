package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_AdvanceFiresDueCallsInOrder(t *testing.T) {
	t.Parallel()

	f := NewFake(epoch)
	var order []string
	f.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	f.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	f.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })
	f.AfterFunc(time.Second, func() { order = append(order, "late") })

	f.Advance(50 * time.Millisecond)

	if got := len(order); got != 3 {
		t.Fatalf("fired %d calls, want 3 (%v)", got, order)
	}
	if order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", order)
	}
	if f.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", f.Pending())
	}
	if got := f.Now(); !got.Equal(epoch.Add(50 * time.Millisecond)) {
		t.Fatalf("now = %v, want epoch+50ms", got)
	}
}

func TestFake_StopCancels(t *testing.T) {
	t.Parallel()

	f := NewFake(epoch)
	fired := false
	tm := f.AfterFunc(time.Millisecond, func() { fired = true })

	if !tm.Stop() {
		t.Fatal("Stop on pending timer = false, want true")
	}
	if tm.Stop() {
		t.Fatal("second Stop = true, want false")
	}
	f.Advance(time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFake_RescheduleWithinWindow(t *testing.T) {
	t.Parallel()

	f := NewFake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		f.AfterFunc(10*time.Millisecond, tick)
	}
	f.AfterFunc(10*time.Millisecond, tick)

	f.Advance(100 * time.Millisecond)

	if count != 10 {
		t.Fatalf("ticks = %d, want 10", count)
	}
	if f.Fired() != 10 {
		t.Fatalf("fired = %d, want 10", f.Fired())
	}
	if f.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", f.Pending())
	}
}

func TestFake_ZeroDelayWaitsForAdvance(t *testing.T) {
	t.Parallel()

	f := NewFake(epoch)
	fired := false
	f.AfterFunc(0, func() { fired = true })
	if fired {
		t.Fatal("zero-delay call ran synchronously")
	}
	f.Advance(0)
	if !fired {
		t.Fatal("zero-delay call did not run on Advance(0)")
	}
}

func TestTimer_NilStop(t *testing.T) {
	t.Parallel()

	var tm *Timer
	if tm.Stop() {
		t.Fatal("nil timer Stop = true")
	}
}
