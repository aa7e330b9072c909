package ticker

import (
	"context"
	"time"
)

// Callback runs once per frame. delta is the time since the previous frame,
// total the unpaused time since the first frame.
type Callback func(delta, total time.Duration)

// Ticker runs its callbacks in registration order once per frame. It starts
// paused. All calls must come from the goroutine driving the frames.
type Ticker struct {
	callbacks []Callback
	paused    bool
	primed    bool
	last      time.Time
	total     time.Duration
	frames    uint64
}

func New() *Ticker {
	return &Ticker{paused: true}
}

// Add registers a callback.
func (t *Ticker) Add(cb Callback) {
	if cb == nil {
		return
	}
	t.callbacks = append(t.callbacks, cb)
}

// Pause stops frames from reaching the callbacks.
func (t *Ticker) Pause() {
	t.paused = true
}

// Resume lets frames through again. The first frame after resuming reports
// a zero delta so paused time never shows up as frame time.
func (t *Ticker) Resume() {
	if !t.paused {
		return
	}
	t.paused = false
	t.primed = false
}

// Paused reports whether the ticker is paused.
func (t *Ticker) Paused() bool {
	return t.paused
}

// Total returns the unpaused time seen so far.
func (t *Ticker) Total() time.Duration {
	return t.total
}

// Frames returns how many frames ran.
func (t *Ticker) Frames() uint64 {
	return t.frames
}

// Tick runs one frame stamped now. It does nothing while paused. A callback
// that panics aborts the remaining callbacks for the frame.
func (t *Ticker) Tick(now time.Time) {
	if t.paused {
		return
	}
	var delta time.Duration
	if t.primed {
		delta = now.Sub(t.last)
		if delta < 0 {
			delta = 0
		}
	}
	t.primed = true
	t.last = now
	t.total += delta
	t.frames++

	for _, cb := range t.callbacks {
		cb(delta, t.total)
	}
}

// Run drives the ticker from a wall clock every interval until ctx is done.
// Frames run on the calling goroutine.
func (t *Ticker) Run(ctx context.Context, interval time.Duration) error {
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tk.C:
			t.Tick(now)
		}
	}
}
