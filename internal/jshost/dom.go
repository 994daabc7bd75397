package jshost

import (
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"blastview/internal/canvas"
)

// Element ids of the page the scripts expect.
const (
	MainContainer   = "main-thread-container"
	MainCanvas      = "main-thread-canvas"
	WorkerContainer = "worker-thread-container"
	WorkerCanvas    = "worker-thread-canvas"
	PickList        = "pick-list"
	Loading         = "loading"
)

// surface is the drawing surface behind an offscreen canvas.
type surface struct{ w, h int }

func (s *surface) Width() int  { return s.w }
func (s *surface) Height() int { return s.h }

// element is the Go side of a page element. Listeners and the JS object
// belong to the page loop; the rest is guarded by the document.
type element struct {
	id          string
	w, h        int
	attrs       map[string]string
	innerText   string
	style       map[string]string
	transferred bool

	listeners map[string][]goja.Callable
	obj       *goja.Object
}

func (e *element) Width() int  { return e.w }
func (e *element) Height() int { return e.h }

func (e *element) SetAttribute(name, value string) error {
	e.attrs[name] = value
	return nil
}

func (e *element) TransferControlToOffscreen() (canvas.Surface, error) {
	if e.transferred {
		return nil, fmt.Errorf("jshost: canvas %q already transferred", e.id)
	}
	e.transferred = true
	return &surface{w: e.w, h: e.h}, nil
}

// document is a minimal page: fixed elements and a device pixel ratio.
type document struct {
	mu       sync.Mutex
	elements map[string]*element
	ratio    float64
}

func newDocument(width, height int, ratio float64) *document {
	d := &document{elements: map[string]*element{}, ratio: ratio}
	for _, id := range []string{MainContainer, MainCanvas, WorkerContainer, WorkerCanvas, PickList, Loading} {
		d.elements[id] = &element{
			id:        id,
			w:         width,
			h:         height,
			attrs:     map[string]string{},
			style:     map[string]string{},
			listeners: map[string][]goja.Callable{},
		}
	}
	return d
}

func (d *document) GetElementByID(id string) (canvas.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.elements[id]
	if !ok {
		return nil, false
	}
	return e, true
}

func (d *document) DevicePixelRatio() float64 { return d.ratio }

func (d *document) text(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.elements[id]; ok {
		return e.innerText
	}
	return ""
}

// scope is the per-runtime browser surface: animation frames and timing.
// Its fields are only touched on the runtime's loop.
type scope struct {
	rt     *Runtime
	start  time.Time
	frames []goja.Callable
}

// installGlobals defines window/self, performance, requestAnimationFrame
// and blockMS on vm.
func (s *scope) installGlobals(vm *goja.Runtime) error {
	g := vm.GlobalObject()
	for _, name := range []string{"window", "self"} {
		if err := g.Set(name, g); err != nil {
			return err
		}
	}
	perf := vm.NewObject()
	perf.Set("now", func() float64 {
		return float64(time.Since(s.start).Microseconds()) / 1000
	})
	g.Set("performance", perf)
	g.Set("requestAnimationFrame", func(cb goja.Callable) int {
		s.frames = append(s.frames, cb)
		return len(s.frames)
	})
	g.Set("blockMS", func(ms float64) {
		if ms > 0 {
			time.Sleep(time.Duration(ms * float64(time.Millisecond)))
		}
	})
	return nil
}

// runFrame calls every queued animation frame callback once. Callbacks
// queued while running wait for the next frame.
func (s *scope) runFrame(vm *goja.Runtime) error {
	queued := s.frames
	s.frames = nil
	ts := vm.ToValue(float64(time.Since(s.start).Microseconds()) / 1000)
	for _, cb := range queued {
		if _, err := cb(goja.Undefined(), ts); err != nil {
			return fmt.Errorf("jshost: %s frame: %w", s.rt.Name(), err)
		}
	}
	return nil
}

// installDocument exposes doc as the page's document.
func installDocument(vm *goja.Runtime, doc *document) {
	jsDoc := vm.NewObject()
	jsDoc.Set("getElementById", func(id string) goja.Value {
		doc.mu.Lock()
		e, ok := doc.elements[id]
		doc.mu.Unlock()
		if !ok {
			return goja.Null()
		}
		return elementObject(vm, doc, e)
	})
	vm.Set("document", jsDoc)
	vm.Set("devicePixelRatio", doc.ratio)
}

func elementObject(vm *goja.Runtime, doc *document, e *element) *goja.Object {
	if e.obj != nil {
		return e.obj
	}
	o := vm.NewObject()
	accessor := func(name string, get func() any, set func(goja.Value)) {
		var setter goja.Value
		if set != nil {
			setter = vm.ToValue(func(call goja.FunctionCall) goja.Value {
				set(call.Argument(0))
				return goja.Undefined()
			})
		}
		o.DefineAccessorProperty(name,
			vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(get()) }),
			setter, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	accessor("id", func() any { return e.id }, nil)
	accessor("width", func() any { return e.w }, nil)
	accessor("height", func() any { return e.h }, nil)
	accessor("innerText", func() any {
		doc.mu.Lock()
		defer doc.mu.Unlock()
		return e.innerText
	}, func(v goja.Value) {
		doc.mu.Lock()
		defer doc.mu.Unlock()
		e.innerText = v.String()
	})

	style := vm.NewDynamicObject(styleMap{vm: vm, doc: doc, m: e.style})
	o.Set("style", style)
	o.Set("setAttribute", func(name, value string) {
		doc.mu.Lock()
		defer doc.mu.Unlock()
		e.attrs[name] = value
	})
	o.Set("getAttribute", func(name string) goja.Value {
		doc.mu.Lock()
		defer doc.mu.Unlock()
		if v, ok := e.attrs[name]; ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	o.Set("addEventListener", func(kind string, cb goja.Callable) {
		e.listeners[kind] = append(e.listeners[kind], cb)
	})
	o.Set("transferControlToOffscreen", func() *goja.Object {
		doc.mu.Lock()
		s, err := e.TransferControlToOffscreen()
		doc.mu.Unlock()
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return offscreenObject(vm, s)
	})
	e.obj = o
	return o
}

// offscreenObject is the JS face of a transferred surface. The surface
// itself rides along in a hidden property so it survives postMessage.
func offscreenObject(vm *goja.Runtime, s canvas.Surface) *goja.Object {
	o := vm.NewObject()
	o.Set("width", s.Width())
	o.Set("height", s.Height())
	o.Set(surfaceKey, s)
	return o
}

const surfaceKey = "__surface"

// styleMap backs element.style; values are kept as strings.
type styleMap struct {
	vm  *goja.Runtime
	doc *document
	m   map[string]string
}

func (s styleMap) Get(key string) goja.Value {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	if v, ok := s.m[key]; ok {
		return s.vm.ToValue(v)
	}
	return goja.Undefined()
}

func (s styleMap) Set(key string, val goja.Value) bool {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	s.m[key] = val.String()
	return true
}

func (s styleMap) Has(key string) bool {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	_, ok := s.m[key]
	return ok
}

func (s styleMap) Delete(key string) bool {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	delete(s.m, key)
	return true
}

func (s styleMap) Keys() []string {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys
}

// dispatch calls the listeners of kind on element id with a mouse event.
func dispatch(vm *goja.Runtime, doc *document, id, kind string, x, y float32) error {
	doc.mu.Lock()
	e, ok := doc.elements[id]
	doc.mu.Unlock()
	if !ok {
		return fmt.Errorf("jshost: no element %q", id)
	}
	ev := vm.NewObject()
	ev.Set("type", kind)
	ev.Set("offsetX", x)
	ev.Set("offsetY", y)
	for _, cb := range e.listeners[kind] {
		if _, err := cb(elementObject(vm, doc, e), ev); err != nil {
			return fmt.Errorf("jshost: %s listener on %s: %w", kind, id, err)
		}
	}
	return nil
}
