package odometer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/odometer/internal/clock"
)

// Observer receives engine events. Calls run on the ticking goroutine and
// must not block.
type Observer interface {
	ObserveTick(value float64)
	ObserveComplete(value float64)
}

// Option configures a Controller's collaborators.
type Option func(*Controller)

// WithClock sets the time source and timer factory (default: wall clock).
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithFaces sets the factory for the two faces of each slot (default: faces
// that discard output; Snapshot still reports what was pushed).
func WithFaces(f FaceFactory) Option {
	return func(ctl *Controller) { ctl.faces = f }
}

// WithDesync fixes the per-slot pixel desynchronization instead of drawing it
// from [0, bustedness).
func WithDesync(f func(slot int) int) Option {
	return func(ctl *Controller) { ctl.desync = f }
}

// WithRand sets the random source for desync and random tick sizes.
func WithRand(r *rand.Rand) Option {
	return func(ctl *Controller) { ctl.rng = r }
}

// WithCompletion registers the callback invoked once per run that reaches its
// configured end value.
func WithCompletion(f func(value float64)) Option {
	return func(ctl *Controller) { ctl.onComplete = f }
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(ctl *Controller) { ctl.observer = o }
}

// WithName labels the controller in snapshots.
func WithName(name string) Option {
	return func(ctl *Controller) { ctl.name = name }
}

// run is the single-shot result of one count toward the end value.
type run struct {
	done  chan struct{}
	value float64
	err   error
}

func newRun() *run {
	return &run{done: make(chan struct{})}
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *run) resolve(value float64, err error) {
	if r.finished() {
		return
	}
	r.value = value
	r.err = err
	close(r.done)
}

// Controller owns one odometer: its options, value, digit slots and the single
// pending tick. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	name       string
	clock      clock.Clock
	faces      FaceFactory
	desync     func(slot int) int
	rng        *rand.Rand
	onComplete func(float64)
	observer   Observer

	opts   Options
	layout Layout
	slots  []*DigitSlot

	current       float64
	intervalClock float64
	waitTime      time.Duration

	timer *clock.Timer
	gen   uint64
	run   *run
}

// New validates opts, lays out the digit slots, renders the start value and,
// when opts.Active and the end value is unmet, runs the first tick.
//
// With a Timestamp (continuous mode) the whole intervals elapsed since it are
// added to StartValue (subtracted when counting down), so a restarted process
// resumes a long-running counter instead of resetting it.
func New(opts Options, options ...Option) (*Controller, error) {
	c := &Controller{}
	for _, o := range options {
		o(c)
	}
	if c.clock == nil {
		c.clock = clock.NewReal()
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6a656c6c79))
	}

	opts.normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Continuous() {
		elapsed := c.clock.Now().Sub(*opts.Timestamp)
		units := math.Floor(elapsed.Seconds() / opts.Interval.Seconds())
		if units > 0 {
			opts.StartValue = math.Max(0, opts.StartValue+opts.Direction.sign()*units)
		}
	}

	c.opts = opts
	c.waitTime = opts.WaitTime
	active := opts.Active
	c.opts.Active = false

	c.mu.Lock()
	c.drawLocked()
	c.setLocked(opts.StartValue)
	var done *completion
	if active && (opts.EndValue == nil || *opts.EndValue != opts.StartValue) {
		done = c.startLocked()
	}
	c.mu.Unlock()

	c.notify(done)
	return c, nil
}

// Name returns the label given with WithName.
func (c *Controller) Name() string { return c.name }

// Set displays value (clamped to 0) without scheduling anything.
func (c *Controller) Set(value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(value)
}

// Get returns the displayed value.
func (c *Controller) Get() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Active reports whether the scheduler is advancing the value.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.Active
}

// Start resumes counting if the end value is still unmet. A running
// controller is left as is.
func (c *Controller) Start() {
	c.mu.Lock()
	done := c.startLocked()
	c.mu.Unlock()
	c.notify(done)
}

// Stop cancels the pending tick and returns the value it stopped at.
func (c *Controller) Stop() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return c.current
}

// Reset returns to the start value without resuming.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intervalClock = 0
	c.setLocked(c.opts.StartValue)
}

// Reverse swaps start and end values, flips the direction and starts again,
// so the counter runs back toward its previous start. Without an end value
// only the direction flips.
func (c *Controller) Reverse() {
	c.mu.Lock()
	c.stopLocked()
	if end := c.opts.EndValue; end != nil {
		start := c.opts.StartValue
		c.opts.StartValue = *end
		c.opts.EndValue = Float(start)
	}
	c.opts.Direction = c.opts.Direction.Reverse()
	done := c.startLocked()
	c.mu.Unlock()
	c.notify(done)
}

// Increment jumps the value up by v (1 when v is 0) and renders it through
// the scheduler without changing whether the counter is running.
func (c *Controller) Increment(v float64) {
	if v == 0 {
		v = 1
	}
	c.jump(v)
}

// Decrement jumps the value down by v (1 when v is 0), clamped at 0.
func (c *Controller) Decrement(v float64) {
	if v == 0 {
		v = 1
	}
	c.jump(-v)
}

func (c *Controller) jump(delta float64) {
	c.mu.Lock()
	running := c.opts.Active
	c.cancelLocked()
	c.current = math.Max(0, c.current+delta)
	if c.opts.Continuous() {
		// the next tick lands on a whole unit
		c.intervalClock = 1
	}

	var done *completion
	if running {
		done = c.continueLocked(false)
	} else {
		c.setLocked(c.current)
	}
	c.mu.Unlock()
	c.notify(done)
}

// Redraw rebuilds every digit slot from the current digit count and renders
// the value again. A running counter keeps running.
func (c *Controller) Redraw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redrawLocked()
}

// Wait blocks until the current run completes, returning the final value, or
// until it is stopped (ErrStopped) or ctx ends.
func (c *Controller) Wait(ctx context.Context) (float64, error) {
	c.mu.Lock()
	r := c.run
	current := c.current
	c.mu.Unlock()

	if r == nil {
		return current, ErrStopped
	}
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Options returns a copy of the live options.
func (c *Controller) Options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// Option reads a named option.
func (c *Controller) Option(name string) (any, error) {
	p, err := lookupOption(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return p.get(&c.opts), nil
}

// SetOption writes a named option after validating the result. Setting
// "active" starts or stops the counter; structural options (digit count,
// format, tenths, height, bustedness, timestamp) redraw the slots.
func (c *Controller) SetOption(name string, value any) error {
	p, err := lookupOption(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	next := c.opts
	if err := p.set(&next, value); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("odometer: option %s: %w", p.name, invalid(err))
	}
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}

	var done *completion
	if p.name == "active" {
		if next.Active {
			done = c.startLocked()
		} else {
			c.stopLocked()
		}
	} else {
		next.Active = c.opts.Active
		c.opts = next
		if p.structural {
			c.redrawLocked()
		}
	}
	c.mu.Unlock()

	c.notify(done)
	return nil
}

// Invoke calls a public method by name. arg is the value for set, increment
// and decrement and is ignored otherwise. It returns the value afterwards.
func (c *Controller) Invoke(method string, arg float64) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "set":
		c.Set(arg)
	case "get":
	case "start":
		c.Start()
	case "stop":
		return c.Stop(), nil
	case "reset":
		c.Reset()
	case "reverse":
		c.Reverse()
	case "increment":
		c.Increment(arg)
	case "decrement":
		c.Decrement(arg)
	case "redraw":
		c.Redraw()
	default:
		return 0, fmt.Errorf("%w: method %q", ErrUnsupported, method)
	}
	return c.Get(), nil
}

// Methods lists the names accepted by Invoke.
func Methods() []string {
	return []string{"set", "get", "start", "stop", "reset", "reverse", "increment", "decrement", "redraw"}
}

func (c *Controller) startLocked() *completion {
	if c.opts.Active && c.timer != nil {
		return nil
	}
	if !c.continuing() {
		return nil
	}
	c.opts.Active = true
	if c.run == nil || c.run.finished() {
		c.run = newRun()
	}
	return c.stepLocked()
}

func (c *Controller) stopLocked() {
	c.cancelLocked()
	c.opts.Active = false
	if c.run != nil {
		c.run.resolve(c.current, ErrStopped)
	}
}

func (c *Controller) setLocked(value float64) {
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	c.current = value

	d := Decompose(value, len(c.slots), c.opts.Tenths)
	for i, slot := range c.slots {
		slot.Apply(d.Digits[i], d.Fractions[i], c.opts.DigitHeight)
	}
}

func (c *Controller) redrawLocked() {
	running := c.opts.Active
	c.cancelLocked()

	if strings.Count(c.opts.Format, "0") != c.opts.Digits {
		c.opts.Format = PadFormat(c.opts.Digits)
	}
	if c.opts.Continuous() {
		c.opts.Tenths = false
	}
	c.drawLocked()
	c.setLocked(c.current)

	if running {
		c.scheduleLocked(c.waitTime)
	}
}

func (c *Controller) drawLocked() {
	c.layout = ParseFormat(c.opts.Format, c.opts.Digits)
	n := c.layout.Digits()
	c.slots = make([]*DigitSlot, n)
	for i := range c.slots {
		var a, b Face
		if c.faces != nil {
			a, b = c.faces(i)
		}
		c.slots[i] = NewDigitSlot(a, b, c.slotDesync(i))
	}
	if c.opts.Tenths && n > 0 {
		c.slots[n-1].tenth = true
	}
}

func (c *Controller) slotDesync(i int) int {
	if c.desync != nil {
		return c.desync(i)
	}
	if c.opts.Bustedness <= 0 {
		return 0
	}
	return c.rng.IntN(c.opts.Bustedness)
}
