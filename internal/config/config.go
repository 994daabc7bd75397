package config

import "sync"

// FrameSettings holds values that can be changed while the app runs.
type FrameSettings struct {
	mu             sync.RWMutex
	fpsLimit       int // 0 means unlimited
	rayMaxDistance float32
}

var globalFrameSettings = &FrameSettings{
	fpsLimit:       60,
	rayMaxDistance: 30,
}

// GetFPSLimit returns the frame cap; 0 means unlimited.
func GetFPSLimit() int {
	globalFrameSettings.mu.RLock()
	defer globalFrameSettings.mu.RUnlock()
	return globalFrameSettings.fpsLimit
}

// SetFPSLimit sets the frame cap
func SetFPSLimit(limit int) {
	globalFrameSettings.mu.Lock()
	defer globalFrameSettings.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}
	globalFrameSettings.fpsLimit = limit
}

// GetRayMaxDistance returns how far pick rays reach
func GetRayMaxDistance() float32 {
	globalFrameSettings.mu.RLock()
	defer globalFrameSettings.mu.RUnlock()
	return globalFrameSettings.rayMaxDistance
}

// SetRayMaxDistance sets the pick ray length
func SetRayMaxDistance(d float32) {
	globalFrameSettings.mu.Lock()
	defer globalFrameSettings.mu.Unlock()

	// Clamp to reasonable values
	if d < 1 {
		d = 1
	}
	if d > 1000 {
		d = 1000
	}
	globalFrameSettings.rayMaxDistance = d
}

// BlastSettings holds the runtime knobs of the blast demo
type BlastSettings struct {
	mu      sync.RWMutex
	enabled bool
	force   float32
}

var globalBlastSettings = &BlastSettings{
	enabled: false,
	force:   64,
}

// GetBlastEnabled returns whether the blast demo is spawned
func GetBlastEnabled() bool {
	globalBlastSettings.mu.RLock()
	defer globalBlastSettings.mu.RUnlock()
	return globalBlastSettings.enabled
}

// SetBlastEnabled toggles the blast demo
func SetBlastEnabled(enabled bool) {
	globalBlastSettings.mu.Lock()
	defer globalBlastSettings.mu.Unlock()
	globalBlastSettings.enabled = enabled
}

// GetBlastForce returns the impulse magnitude applied by a drill hole
func GetBlastForce() float32 {
	globalBlastSettings.mu.RLock()
	defer globalBlastSettings.mu.RUnlock()
	return globalBlastSettings.force
}

// SetBlastForce sets the impulse magnitude
func SetBlastForce(force float32) {
	globalBlastSettings.mu.Lock()
	defer globalBlastSettings.mu.Unlock()

	if force < 0 {
		force = 0
	}
	if force > 10000 {
		force = 10000
	}
	globalBlastSettings.force = force
}
