// Package jshost runs the demo page scripts against real sessions inside
// goja. The page scope and the worker scope each get their own event loop,
// so a worker behaves like one: it shares nothing with the page and talks to
// it only through cloned messages.
package jshost

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dop251/goja"

	"blastview/internal/session"
)

// Mode picks which scope owns the engine instance.
type Mode string

const (
	ModeMain   Mode = "main"
	ModeWorker Mode = "worker"
)

var (
	errWorkerExists = errors.New("jshost: page already started a worker")
	// ErrNoSession is returned by Inspect when no session is live.
	ErrNoSession = errors.New("jshost: no live session")
)

// Options configure a Host.
type Options struct {
	Mode Mode
	// Width and Height are the canvas size in logical pixels.
	Width, Height    int
	DevicePixelRatio float64

	// Artificial stalls the page can inject, matching the demo's sliders.
	OnMessageBlock time.Duration
	MouseMoveBlock time.Duration
	RenderBlock    time.Duration

	// Session is the template for every session the scripts create.
	Session session.Options
	Logger  *slog.Logger
}

func (o *Options) defaults() {
	if o.Mode == "" {
		o.Mode = ModeMain
	}
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 720
	}
	if o.DevicePixelRatio <= 0 {
		o.DevicePixelRatio = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Host is a headless page. Its methods are safe for concurrent use but are
// normally driven from one goroutine, one Frame per display refresh.
type Host struct {
	opts  Options
	log   *slog.Logger
	start time.Time
	doc   *document

	page       *Runtime
	pageScope  *scope
	pageEngine *engine

	mu     sync.Mutex
	worker *workerScope
	closed bool
}

// New starts the page, loads its scripts and waits until the engine
// instance has a window.
func New(opts Options) (*Host, error) {
	opts.defaults()
	if opts.Mode != ModeMain && opts.Mode != ModeWorker {
		return nil, fmt.Errorf("jshost: unknown mode %q", opts.Mode)
	}
	h := &Host{
		opts:  opts,
		log:   opts.Logger,
		start: time.Now(),
		doc:   newDocument(opts.Width, opts.Height, opts.DevicePixelRatio),
	}
	h.page = NewRuntime("page", h.log)
	h.pageScope = &scope{rt: h.page, start: h.start}

	err := h.page.RunOnLoopSync(func(vm *goja.Runtime) error {
		if err := h.pageScope.installGlobals(vm); err != nil {
			return err
		}
		installDocument(vm, h.doc)
		g := vm.GlobalObject()
		g.Set("hostMode", string(opts.Mode))
		g.Set("onmessageBlockTime", millis(opts.OnMessageBlock))
		g.Set("mousemoveBlockTime", millis(opts.MouseMoveBlock))
		g.Set("renderBlockTime", millis(opts.RenderBlock))
		h.installWorkerConstructor(vm)
		if opts.Mode == ModeMain {
			h.pageEngine = newEngine(vm, h.log, h.doc, opts.Session)
			h.pageEngine.install()
		}
		return nil
	})
	if err == nil {
		err = h.load(pageScript)
	}
	if err == nil && opts.Mode == ModeMain {
		err = h.load(mainThreadScript)
	}
	if err == nil && opts.Mode == ModeWorker && opts.RenderBlock > 0 {
		err = h.call("blockWorkerRender", millis(opts.RenderBlock))
	}
	if err == nil {
		err = h.flush()
	}
	if err != nil {
		h.Close()
		return nil, err
	}
	h.log.Info("page loaded", "mode", opts.Mode, "width", opts.Width, "height", opts.Height)
	return h, nil
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (h *Host) load(name string) error {
	code, err := script(name)
	if err != nil {
		return err
	}
	return h.page.LoadScript(name, code)
}

// Mode reports which scope owns the engine.
func (h *Host) Mode() Mode { return h.opts.Mode }

func (h *Host) workerScope() *workerScope {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.worker
}

func noop(*goja.Runtime) error { return nil }

// flush lets in-flight messages settle. A message round trip is at most
// page -> worker -> page -> worker, and each loop runs jobs in order.
func (h *Host) flush() error {
	w := h.workerScope()
	for range 2 {
		if err := h.page.RunOnLoopSync(noop); err != nil {
			return err
		}
		if w == nil {
			continue
		}
		if err := w.rt.RunOnLoopSync(noop); err != nil {
			return err
		}
	}
	return nil
}

// Frame runs one animation frame in the page and then the worker, and
// waits for the messages it produced.
func (h *Host) Frame() error {
	if err := h.page.RunOnLoopSync(h.pageScope.runFrame); err != nil {
		return err
	}
	if w := h.workerScope(); w != nil {
		if err := w.rt.RunOnLoopSync(w.scope.runFrame); err != nil {
			return err
		}
	}
	return h.flush()
}

func (h *Host) container() string {
	if h.opts.Mode == ModeWorker {
		return WorkerContainer
	}
	return MainContainer
}

func (h *Host) pointer(kind string, x, y float32) error {
	err := h.page.RunOnLoopSync(func(vm *goja.Runtime) error {
		return dispatch(vm, h.doc, h.container(), kind, x, y)
	})
	if err != nil {
		return err
	}
	return h.flush()
}

// MouseMove fires mousemove on the canvas container at logical (x, y).
func (h *Host) MouseMove(x, y float32) error { return h.pointer("mousemove", x, y) }

// MouseDown fires mousedown. The page only forwards it when it holds a pick.
func (h *Host) MouseDown(x, y float32) error { return h.pointer("mousedown", x, y) }

func (h *Host) MouseUp(x, y float32) error { return h.pointer("mouseup", x, y) }
func (h *Host) Click(x, y float32) error   { return h.pointer("click", x, y) }

// call invokes a global page function and lets the result settle.
func (h *Host) call(name string, args ...any) error {
	err := h.page.RunOnLoopSync(func(vm *goja.Runtime) error {
		fn, ok := goja.AssertFunction(vm.Get(name))
		if !ok {
			return fmt.Errorf("jshost: page has no function %s", name)
		}
		vals := make([]goja.Value, len(args))
		for i, a := range args {
			vals[i] = vm.ToValue(a)
		}
		_, err := fn(goja.Undefined(), vals...)
		return err
	})
	if err != nil {
		return err
	}
	return h.flush()
}

// SetAutoAnimation toggles continuous animation of the engine instance.
func (h *Host) SetAutoAnimation(on bool) error {
	if h.opts.Mode == ModeWorker {
		return h.call("set_worker_auto_animation", on)
	}
	return h.call("set_main_app_auto_animation", on)
}

// Start resumes the animation frame loop after Stop.
func (h *Host) Start() error {
	if h.opts.Mode == ModeWorker {
		return h.call("start_worker_app")
	}
	return h.call("start_main_app")
}

// Stop pauses the animation frame loop.
func (h *Host) Stop() error {
	if h.opts.Mode == ModeWorker {
		return h.call("stop_worker_app")
	}
	return h.call("stop_main_app")
}

// BlockWorkerRender sets the worker's per-frame stall in milliseconds.
func (h *Host) BlockWorkerRender(ms float64) error {
	return h.call("blockWorkerRender", ms)
}

// Release releases the engine instance; the page keeps running.
func (h *Host) Release() error {
	if h.opts.Mode == ModeMain {
		return h.call("release_main_app")
	}
	err := h.page.RunOnLoopSync(func(vm *goja.Runtime) error {
		_, err := vm.RunString(`if (worker) worker.postMessage({ ty: "release" });`)
		return err
	})
	if err != nil {
		return err
	}
	return h.flush()
}

// LatestPick is the page's current pick list.
func (h *Host) LatestPick() ([]uint64, error) {
	var ids []uint64
	err := h.page.RunOnLoopSync(func(vm *goja.Runtime) error {
		v, err := vm.RunString("latestPick")
		if err != nil {
			return err
		}
		ids, _ = session.ParseEntityIDs(exportList(v))
		return nil
	})
	return ids, err
}

// PickText is what the page shows in its pick list element.
func (h *Host) PickText() string { return h.doc.text(PickList) }

// Style reads an inline style property of a page element.
func (h *Host) Style(id, key string) string {
	h.doc.mu.Lock()
	defer h.doc.mu.Unlock()
	if e, ok := h.doc.elements[id]; ok {
		return e.style[key]
	}
	return ""
}

// owner returns the runtime that holds the engine and a getter for the
// engine that is only valid on that runtime's loop.
func (h *Host) owner() (*Runtime, func() *engine) {
	if w := h.workerScope(); w != nil {
		return w.rt, func() *engine { return w.engine }
	}
	return h.page, func() *engine { return h.pageEngine }
}

// Inspect runs fn on the engine's loop with the first live session.
func (h *Host) Inspect(fn func(*session.Session) error) error {
	rt, eng := h.owner()
	return rt.RunOnLoopSync(func(*goja.Runtime) error {
		e := eng()
		if e == nil {
			return ErrNoSession
		}
		var first *session.Session
		e.reg.Each(func(_ session.Handle, s *session.Session) bool {
			first = s
			return false
		})
		if first == nil {
			return ErrNoSession
		}
		return fn(first)
	})
}

// Sessions counts live sessions in the engine's scope.
func (h *Host) Sessions() (int, error) {
	n := 0
	rt, eng := h.owner()
	err := rt.RunOnLoopSync(func(*goja.Runtime) error {
		if e := eng(); e != nil {
			n = e.reg.Len()
		}
		return nil
	})
	return n, err
}

// Close releases every session and stops both loops.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	w := h.worker
	h.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.rt.RunOnLoopSync(func(*goja.Runtime) error {
			if w.engine == nil {
				return nil
			}
			return w.engine.reg.Close()
		}))
		w.rt.Close()
	}
	errs = append(errs, h.page.RunOnLoopSync(func(*goja.Runtime) error {
		if h.pageEngine == nil {
			return nil
		}
		return h.pageEngine.reg.Close()
	}))
	h.page.Close()
	err := errors.Join(errs...)
	if err != nil {
		h.log.Warn("host closed with errors", "err", err)
	}
	return err
}
