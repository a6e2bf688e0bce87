package render

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default entry point intervals.
const (
	DefaultThrottleInterval = 16 * time.Millisecond
	DefaultDebounceDelay    = 10 * time.Millisecond
)

// throttle calls fn at most once per interval. A call inside a closed
// window is deferred to the window's end, carrying the latest value.
type throttle struct {
	limiter *rate.Limiter
	fn      func(string)

	mu    sync.Mutex
	timer *time.Timer
	last  string
	armed bool
}

func newThrottle(interval time.Duration, fn func(string)) *throttle {
	return &throttle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		fn:      fn,
	}
}

func (t *throttle) call(v string) {
	t.mu.Lock()
	if !t.armed && t.limiter.Allow() {
		t.mu.Unlock()
		t.fn(v)
		return
	}
	t.last = v
	if !t.armed {
		t.armed = true
		t.timer = time.AfterFunc(t.limiter.Reserve().Delay(), t.fire)
	}
	t.mu.Unlock()
}

func (t *throttle) fire() {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return
	}
	t.armed = false
	v := t.last
	t.mu.Unlock()
	t.fn(v)
}

func (t *throttle) pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

func (t *throttle) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.armed = false
}

// debounce calls fn once the calls have stopped for delay, with the last
// value passed.
type debounce struct {
	delay time.Duration
	fn    func(string)

	mu    sync.Mutex
	timer *time.Timer
	last  string
	armed bool
}

func newDebounce(delay time.Duration, fn func(string)) *debounce {
	return &debounce{delay: delay, fn: fn}
}

func (d *debounce) call(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = v
	d.armed = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *debounce) fire() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	d.armed = false
	v := d.last
	d.mu.Unlock()
	d.fn(v)
}

func (d *debounce) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

func (d *debounce) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
}
