package odometer

import (
	"math"
	"time"
)

// discreteStep is the value added per tick outside continuous mode.
const discreteStep = 0.01

// continuousPause is the near-immediate re-tick between sub-unit steps in
// continuous mode.
const continuousPause = time.Millisecond

// completion carries a finished run out of the lock to the callbacks.
type completion struct {
	value    float64
	callback bool
}

// tick is the timer callback. gen ties it to the schedule that created it so a
// timer that fired while being cancelled does nothing.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	done := c.stepLocked()
	c.mu.Unlock()

	c.notify(done)
}

// stepLocked advances the value by one tick and decides whether to continue.
func (c *Controller) stepLocked() *completion {
	if !c.opts.Active {
		return nil
	}
	c.advanceLocked()
	return c.continueLocked(true)
}

func (c *Controller) advanceLocked() {
	sign := c.opts.Direction.sign()

	if !c.opts.Continuous() {
		c.current += sign * discreteStep
		c.waitTime = c.opts.WaitTime
		return
	}

	step := c.stepAmount()
	c.current += sign * step
	c.intervalClock += step
	if c.intervalClock >= 1 {
		c.intervalClock = 0
		c.current = math.Round(c.current)
		c.waitTime = c.opts.Interval
	} else {
		c.waitTime = continuousPause
	}
}

func (c *Controller) stepAmount() float64 {
	if !c.opts.Random {
		return c.opts.TickAmount
	}
	low, high := c.opts.RandomLow, c.opts.RandomHigh
	step := low + c.rng.Float64()*(high-low)
	return math.Min(math.Max(step, low), high)
}

// continuing is the continuation test for the current value.
func (c *Controller) continuing() bool {
	end := c.opts.EndValue
	if c.opts.Direction == Down {
		floor := 0.0
		if end != nil {
			floor = *end
		}
		return c.current > floor
	}
	return end == nil || c.current < *end
}

// continueLocked renders and reschedules while the end is unmet, otherwise
// completes the run. stepped reports that the value just moved by one tick.
func (c *Controller) continueLocked(stepped bool) *completion {
	if c.continuing() {
		c.setLocked(c.current)
		c.scheduleLocked(c.waitTime)
		if c.observer != nil {
			c.observer.ObserveTick(c.current)
		}
		return nil
	}
	return c.finishLocked(stepped)
}

// finishLocked moves to Completed. A tick that crossed the boundary snaps to
// it so repeated small steps never leave drift on the display; a jump keeps
// the value it landed on.
func (c *Controller) finishLocked(stepped bool) *completion {
	c.cancelLocked()
	c.opts.Active = false

	if stepped {
		boundary := 0.0
		if c.opts.EndValue != nil {
			boundary = *c.opts.EndValue
		}
		c.current = boundary
	}
	c.setLocked(c.current)

	if c.run != nil {
		c.run.resolve(c.current, nil)
	}
	return &completion{value: c.current, callback: c.opts.EndValue != nil}
}

// scheduleLocked replaces any pending tick with one due after d.
func (c *Controller) scheduleLocked(d time.Duration) {
	c.cancelLocked()
	gen := c.gen
	c.timer = c.clock.AfterFunc(d, func() { c.tick(gen) })
}

// cancelLocked drops the pending tick, if any.
func (c *Controller) cancelLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// notify runs completion hooks outside the lock so they may call back into
// the controller.
func (c *Controller) notify(done *completion) {
	if done == nil {
		return
	}
	if done.callback && c.onComplete != nil {
		c.onComplete(done.value)
	}
	if c.observer != nil {
		c.observer.ObserveComplete(done.value)
	}
}
