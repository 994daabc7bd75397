// Package pacing caps the desktop frame rate and drops to a low idle rate
// while the session has nothing to animate.
package pacing

import (
	"time"

	"blastview/internal/pick"
)

// IdleFPS is the cap while the session is idle.
const IdleFPS = 30

// spinWindow is how close to the deadline the limiter stops sleeping and
// spins.
const spinWindow = 200 * time.Microsecond

// Idle reports whether the next frame has nothing to update: the session is
// not running yet, or auto animation is off and the frame budget is spent.
func Idle(running bool, info *pick.ActiveInfo) bool {
	if !running || info == nil {
		return true
	}
	return !info.AutoAnimate && info.RemainingFrames == 0
}

// Limit is the cap for one frame. fpsLimit <= 0 means uncapped; idle frames
// are never faster than IdleFPS.
func Limit(fpsLimit int, idle bool) int {
	if idle && (fpsLimit <= 0 || fpsLimit > IdleFPS) {
		return IdleFPS
	}
	return fpsLimit
}

// Limiter paces frames to a target rate with a hybrid sleep/spin wait.
type Limiter struct {
	next  time.Time
	late  int
	now   func() time.Time
	sleep func(time.Duration)
}

// NewLimiter creates a limiter on the wall clock.
func NewLimiter() *Limiter {
	return &Limiter{now: time.Now, sleep: time.Sleep}
}

// Resyncs counts the frames that overran by more than a whole frame.
func (l *Limiter) Resyncs() int { return l.late }

// Wait blocks until the next frame is due at limit frames per second.
// A limit of 0 or less returns at once and forgets the schedule.
func (l *Limiter) Wait(limit int) {
	if limit <= 0 {
		l.next = time.Time{}
		return
	}
	target := time.Second / time.Duration(limit)

	if l.next.IsZero() {
		l.next = l.now().Add(target)
	} else {
		l.next = l.next.Add(target)
	}

	for {
		remaining := l.next.Sub(l.now())
		if remaining <= 0 {
			break
		}
		if remaining > spinWindow {
			l.sleep(remaining - spinWindow)
		}
	}

	// a hitch longer than a frame restarts the schedule instead of
	// rushing to catch up
	if late := l.now().Sub(l.next); late > target {
		l.late++
		l.next = l.now().Add(target)
	}
}
