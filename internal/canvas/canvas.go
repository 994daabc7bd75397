package canvas

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrCanvasNotFound means the document has no element with the requested id.
	ErrCanvasNotFound = errors.New("canvas: element not found")
	// ErrInvalidHandle means a zero handle was given; zero is reserved for the host window.
	ErrInvalidHandle = errors.New("canvas: handle must be greater than zero")
)

// RawHandleAttribute is set on the canvas element so the surface can be found by handle.
const RawHandleAttribute = "data-raw-handle"

// Element is the part of an HTML canvas element the session needs.
type Element interface {
	Width() int
	Height() int
	SetAttribute(name, value string) error
	TransferControlToOffscreen() (Surface, error)
}

// Surface is an offscreen drawing surface.
type Surface interface {
	Width() int
	Height() int
}

// Document looks up canvases and reports the device pixel ratio.
type Document interface {
	GetElementByID(id string) (Element, bool)
	DevicePixelRatio() float64
}

// ViewObj is a render target moved into a session. The set of
// implementations is closed: *Canvas and *OffscreenCanvas.
type ViewObj interface {
	LogicalResolution() (width, height float32)
	ScaleFactor() float32
	Handle() uint32
	Offscreen() bool
	view()
}

// Canvas is an on-page canvas element driven from the main thread.
type Canvas struct {
	element     Element
	scaleFactor float32
	handle      uint32
}

// NewCanvas finds the element with id and tags it with handle.
func NewCanvas(doc Document, id string, handle uint32) (*Canvas, error) {
	if handle == 0 {
		return nil, ErrInvalidHandle
	}
	el, ok := doc.GetElementByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCanvasNotFound, id)
	}
	if err := el.SetAttribute(RawHandleAttribute, strconv.FormatUint(uint64(handle), 10)); err != nil {
		return nil, fmt.Errorf("canvas: tag element %q: %w", id, err)
	}
	return &Canvas{
		element:     el,
		scaleFactor: float32(doc.DevicePixelRatio()),
		handle:      handle,
	}, nil
}

func (c *Canvas) LogicalResolution() (float32, float32) {
	return float32(c.element.Width()), float32(c.element.Height())
}

func (c *Canvas) ScaleFactor() float32 { return c.scaleFactor }
func (c *Canvas) Handle() uint32       { return c.handle }
func (c *Canvas) Offscreen() bool      { return false }
func (c *Canvas) view()                {}

// Element returns the wrapped element.
func (c *Canvas) Element() Element { return c.element }

// OffscreenCanvas is a surface transferred to a worker.
type OffscreenCanvas struct {
	surface     Surface
	scaleFactor float32
	handle      uint32
}

// NewOffscreenCanvas wraps a surface received by a worker.
func NewOffscreenCanvas(s Surface, scaleFactor float32, handle uint32) (*OffscreenCanvas, error) {
	if handle == 0 {
		return nil, ErrInvalidHandle
	}
	return &OffscreenCanvas{surface: s, scaleFactor: scaleFactor, handle: handle}, nil
}

// OffscreenFromCanvas transfers control of the canvas element to an
// offscreen surface. The element cannot be drawn to directly afterwards.
func OffscreenFromCanvas(c *Canvas) (*OffscreenCanvas, error) {
	s, err := c.element.TransferControlToOffscreen()
	if err != nil {
		return nil, fmt.Errorf("canvas: transfer control: %w", err)
	}
	return &OffscreenCanvas{surface: s, scaleFactor: c.scaleFactor, handle: c.handle}, nil
}

func (o *OffscreenCanvas) LogicalResolution() (float32, float32) {
	return float32(o.surface.Width()), float32(o.surface.Height())
}

func (o *OffscreenCanvas) ScaleFactor() float32 { return o.scaleFactor }
func (o *OffscreenCanvas) Handle() uint32       { return o.handle }
func (o *OffscreenCanvas) Offscreen() bool      { return true }
func (o *OffscreenCanvas) view()                {}

// Surface returns the wrapped surface.
func (o *OffscreenCanvas) Surface() Surface { return o.surface }
