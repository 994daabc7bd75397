package jshost

import (
	"github.com/dop251/goja"
)

// cloneInto rebuilds an exported value as fresh objects owned by vm.
// Values never share objects across scopes; Go values such as surfaces
// pass through untouched.
func cloneInto(vm *goja.Runtime, v any) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Undefined()
	case map[string]any:
		o := vm.NewObject()
		for k, item := range x {
			o.Set(k, cloneInto(vm, item))
		}
		return o
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = cloneInto(vm, item)
		}
		return vm.NewArray(items...)
	default:
		return vm.ToValue(x)
	}
}

// messageEvent wraps a cloned payload the way onmessage expects it.
func messageEvent(vm *goja.Runtime, data any) *goja.Object {
	ev := vm.NewObject()
	ev.Set("data", cloneInto(vm, data))
	return ev
}

// deliver calls target.onmessage with data, if a handler is set.
func deliver(vm *goja.Runtime, rt *Runtime, target *goja.Object, data any) {
	fn, ok := goja.AssertFunction(target.Get("onmessage"))
	if !ok {
		return
	}
	if _, err := fn(target, messageEvent(vm, data)); err != nil {
		rt.log.Warn("onmessage failed", "err", err)
	}
}

// installWorkerConstructor defines `Worker` in the page scope. The
// constructor starts a worker scope running the embedded worker script.
// postMessage in either direction exports the message on the sending loop
// and clones it on the receiving one.
func (h *Host) installWorkerConstructor(vm *goja.Runtime) {
	vm.Set("Worker", func(call goja.ConstructorCall) *goja.Object {
		url := call.Argument(0).String()
		w, err := h.startWorker(url, call.This)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		call.This.Set("postMessage", func(msg goja.Value) {
			data := exportValue(msg)
			if !w.rt.RunOnLoop(func(wvm *goja.Runtime) {
				deliver(wvm, w.rt, wvm.GlobalObject(), data)
			}) {
				h.log.Debug("message to stopped worker dropped")
			}
		})
		call.This.Set("terminate", func() { w.rt.Close() })
		return nil
	})
}

// workerScope is the worker side of a `new Worker` call.
type workerScope struct {
	rt     *Runtime
	scope  *scope
	engine *engine
}

func (h *Host) startWorker(url string, handle *goja.Object) (*workerScope, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.worker != nil {
		return nil, errWorkerExists
	}
	code, err := script(url)
	if err != nil {
		return nil, err
	}
	rt := NewRuntime("worker", h.log)
	w := &workerScope{rt: rt, scope: &scope{rt: rt, start: h.start}}
	page := h.page
	rt.RunOnLoop(func(vm *goja.Runtime) {
		if err := w.scope.installGlobals(vm); err != nil {
			rt.log.Error("worker globals", "err", err)
			return
		}
		vm.GlobalObject().Set("postMessage", func(msg goja.Value) {
			data := exportValue(msg)
			page.RunOnLoop(func(pvm *goja.Runtime) {
				deliver(pvm, page, handle, data)
			})
		})
		w.engine = newEngine(vm, rt.log, nil, h.opts.Session)
		w.engine.install()
		prg, err := goja.Compile(url, code, true)
		if err == nil {
			_, err = vm.RunProgram(prg)
		}
		if err != nil {
			rt.log.Error("worker script failed", "url", url, "err", err)
		}
	})
	h.worker = w
	return w, nil
}
