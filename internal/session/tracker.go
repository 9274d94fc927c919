package session

import (
	"sync"
	"time"
)

// Tracker derives a best-effort current playback time from an external
// player reachable only over an asynchronous control channel.
//
// Two regimes are supported without the caller having to distinguish
// them. When the player can be queried, confirmed samples arrive via
// Confirm and continuously correct the baseline. When it cannot, no
// samples arrive and the tracker free-runs on the wall clock from the
// last anchor (a seek, a sample, or regime entry). Every seek
// re-anchors whichever regime is active.
//
// Start and Stop are symmetric and idempotent: repeated calls never
// stack state, and stopping freezes the estimate at the current value
// rather than discarding it.
type Tracker struct {
	mu         sync.Mutex
	tracking   bool
	anchorTime float64   // confirmed playback time at anchorWall
	anchorWall time.Time // wall clock when anchorTime was confirmed

	now func() time.Time
}

// NewTracker returns a stopped tracker at time zero.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// newTrackerAt is the test constructor with an injectable clock.
func newTrackerAt(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Start enters the tracking state. Calling Start while already
// tracking is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return
	}
	t.anchorWall = t.now()
	t.tracking = true
}

// Stop leaves the tracking state, freezing the current estimate.
// Calling Stop while idle is a no-op.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return
	}
	t.anchorTime = t.nowLocked()
	t.tracking = false
}

// Seek re-anchors the baseline at the target time. Works in both
// states: while idle it just moves the frozen position.
func (t *Tracker) Seek(target float64) {
	if target < 0 {
		target = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.anchorTime = target
	t.anchorWall = t.now()
}

// Confirm records a player-reported time sample. Samples correct any
// drift the wall-clock estimate accumulated.
func (t *Tracker) Confirm(reported float64) {
	if reported < 0 {
		// A misbehaving player must degrade, not corrupt state.
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.anchorTime = reported
	t.anchorWall = t.now()
}

// Now returns the current best-effort playback time in seconds.
func (t *Tracker) Now() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nowLocked()
}

func (t *Tracker) nowLocked() float64 {
	if !t.tracking {
		return t.anchorTime
	}
	estimate := t.anchorTime + t.now().Sub(t.anchorWall).Seconds()
	if estimate < 0 {
		return 0
	}
	return estimate
}

// Tracking reports whether the tracker is in the tracking state.
func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// Reset returns the tracker to its initial stopped state at time zero.
// Used on track changes: tracking is torn down and rebuilt per video.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracking = false
	t.anchorTime = 0
	t.anchorWall = time.Time{}
}
