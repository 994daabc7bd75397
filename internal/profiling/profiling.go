package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU timings keyed by system or operation name.

// Profiler accumulates durations for the current frame and keeps the
// totals of the last completed frame for reporting.
type Profiler struct {
	mu      sync.Mutex
	current map[string]time.Duration
	last    map[string]time.Duration
	frames  uint64
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{
		current: make(map[string]time.Duration),
		last:    make(map[string]time.Duration),
	}
}

var global = New()

// Default returns the process-wide profiler used by Track.
func Default() *Profiler {
	return global
}

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("pick.Resolve")()
func Track(name string) func() {
	return global.Track(name)
}

// ResetFrame closes the current frame of the default profiler.
func ResetFrame() {
	global.ResetFrame()
}

// TopN formats the slowest entries of the last completed frame of the default profiler.
func TopN(n int) string {
	return global.TopN(n)
}

// Track returns a stop function that records the elapsed time under name.
func (p *Profiler) Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		p.current[name] += d
		p.mu.Unlock()
	}
}

// ResetFrame moves the running totals to the last-frame slot and starts a new frame.
func (p *Profiler) ResetFrame() {
	p.mu.Lock()
	p.last, p.current = p.current, p.last
	clear(p.current)
	p.frames++
	p.mu.Unlock()
}

// Frames returns how many frames have been closed.
func (p *Profiler) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Snapshot returns a copy of the running frame's totals.
func (p *Profiler) Snapshot() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.current))
	for k, v := range p.current {
		out[k] = v
	}
	return out
}

// LastFrame returns a copy of the last completed frame's totals.
func (p *Profiler) LastFrame() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.last))
	for k, v := range p.last {
		out[k] = v
	}
	return out
}

// TopN formats the n slowest entries of the last completed frame,
// e.g. "pick.Resolve:4.2ms, blast.Step:2.1ms". Falls back to the running
// frame when no frame has been closed yet.
func (p *Profiler) TopN(n int) string {
	ss := p.LastFrame()
	if len(ss) == 0 {
		ss = p.Snapshot()
	}
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(ss))
	for k, v := range ss {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		parts = append(parts, e.name+":"+formatMs(e.dur))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	s := strconv.FormatFloat(ms, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + "ms"
}
