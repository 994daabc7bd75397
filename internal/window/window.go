package window

import (
	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
)

// PresentMode mirrors the swap behaviour requested from the surface.
type PresentMode int

const (
	PresentAutoVsync PresentMode = iota
	PresentAutoNoVsync
)

// Resolution holds the window size in the pixel units that cursor events use,
// plus the scale factor the host applied to produce them.
type Resolution struct {
	width       float32
	height      float32
	scaleFactor float32
}

// NewResolution creates a resolution with scale factor 1.
func NewResolution(width, height float32) Resolution {
	return Resolution{width: width, height: height, scaleFactor: 1}
}

// Set changes the size.
func (r *Resolution) Set(width, height float32) {
	r.width, r.height = width, height
}

// SetScaleFactor records the host pixel ratio. Non-positive values are ignored.
func (r *Resolution) SetScaleFactor(f float32) {
	if f > 0 {
		r.scaleFactor = f
	}
}

func (r Resolution) Width() float32       { return r.width }
func (r Resolution) Height() float32      { return r.height }
func (r Resolution) ScaleFactor() float32 { return r.scaleFactor }

// Size returns width and height as a vector.
func (r Resolution) Size() mgl32.Vec2 {
	return mgl32.Vec2{r.width, r.height}
}

// Window is the component carried by every window entity.
type Window struct {
	Title       string
	Resolution  Resolution
	PresentMode PresentMode
}

// RawHandle is attached once a surface has been bound to the window.
type RawHandle struct {
	Handle    uint32
	Offscreen bool
}

// Primary marks the window spawned by the plugin.
type Primary struct{}

// CursorMoved is sent by the host for every pointer move.
type CursorMoved struct {
	Window   ecs.Entity
	Position mgl32.Vec2
}

// WindowCreated is sent once a surface has been attached.
type WindowCreated struct {
	Window ecs.Entity
}

// WindowCloseRequested asks the window plugin to close a window.
type WindowCloseRequested struct {
	Window ecs.Entity
}

// WindowClosed is sent after the window's surface has been released.
type WindowClosed struct {
	Window ecs.Entity
}

// AppExit is sent when the last window has been closed.
type AppExit struct{}
