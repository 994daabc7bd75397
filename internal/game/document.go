package game

import (
	"errors"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"blastview/internal/canvas"
)

var errNoTransfer = errors.New("game: a desktop window cannot be moved offscreen")

// windowElement presents the glfw window as the page's canvas element.
type windowElement struct {
	window *glfw.Window

	mu    sync.Mutex
	attrs map[string]string
}

func (e *windowElement) Width() int {
	w, _ := e.window.GetSize()
	return w
}

func (e *windowElement) Height() int {
	_, h := e.window.GetSize()
	return h
}

func (e *windowElement) SetAttribute(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return nil
}

func (e *windowElement) TransferControlToOffscreen() (canvas.Surface, error) {
	return nil, errNoTransfer
}

// windowDocument has a single element, the window, under canvasID.
type windowDocument struct {
	canvasID string
	el       *windowElement
}

func newWindowDocument(window *glfw.Window, canvasID string) *windowDocument {
	return &windowDocument{
		canvasID: canvasID,
		el:       &windowElement{window: window, attrs: make(map[string]string)},
	}
}

func (d *windowDocument) GetElementByID(id string) (canvas.Element, bool) {
	if id != d.canvasID {
		return nil, false
	}
	return d.el, true
}

// DevicePixelRatio is the window's content scale.
func (d *windowDocument) DevicePixelRatio() float64 {
	x, _ := d.el.window.GetContentScale()
	if x <= 0 {
		return 1
	}
	return float64(x)
}
