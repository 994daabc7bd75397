//go:build js && wasm

// Command blastview-wasm exposes the engine to a real browser page as the
// global `bevy` object, with the same functions the headless host installs.
package main

import (
	"errors"
	"log/slog"
	"strconv"
	"syscall/js"

	"blastview/internal/canvas"
	"blastview/internal/session"
)

var errNotOffscreen = errors.New("blastview: value is not an OffscreenCanvas")

type element struct{ v js.Value }

func (e element) Width() int  { return e.v.Get("width").Int() }
func (e element) Height() int { return e.v.Get("height").Int() }

func (e element) SetAttribute(name, value string) error {
	e.v.Call("setAttribute", name, value)
	return nil
}

func (e element) TransferControlToOffscreen() (canvas.Surface, error) {
	return surface{e.v.Call("transferControlToOffscreen")}, nil
}

type surface struct{ v js.Value }

func (s surface) Width() int  { return s.v.Get("width").Int() }
func (s surface) Height() int { return s.v.Get("height").Int() }

type document struct{}

func (document) GetElementByID(id string) (canvas.Element, bool) {
	doc := js.Global().Get("document")
	if doc.IsUndefined() {
		return nil, false
	}
	el := doc.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return element{el}, true
}

func (document) DevicePixelRatio() float64 {
	r := js.Global().Get("devicePixelRatio")
	if r.IsUndefined() {
		return 1
	}
	return r.Float()
}

func bigInt(v uint64) js.Value {
	return js.Global().Get("BigInt").Invoke(strconv.FormatUint(v, 10))
}

func bigInts(ids []uint64) js.Value {
	arr := js.Global().Get("Array").New(len(ids))
	for i, id := range ids {
		arr.SetIndex(i, bigInt(id))
	}
	return arr
}

// exportID renders a JS number, string or BigInt in decimal for
// session.ParseEntityID. Value.Type cannot describe a BigInt.
func exportID(v js.Value) any {
	return js.Global().Get("String").Invoke(v).String()
}

func exportList(v js.Value) []any {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	out := make([]any, v.Length())
	for i := range out {
		out[i] = exportID(v.Index(i))
	}
	return out
}

// callGlobal returns a notifier hook that calls the page function name if
// it exists.
func callGlobal(name string, args func() []any) func() {
	return func() {
		fn := js.Global().Get(name)
		if fn.Type() != js.TypeFunction {
			return
		}
		fn.Invoke(args()...)
	}
}

func notifier(pickFn, blockFn string) session.Notifier {
	return session.NotifierFuncs{
		Pick: func(ids []uint64) {
			callGlobal(pickFn, func() []any { return []any{bigInts(ids)} })()
		},
		Yield: callGlobal(blockFn, func() []any { return nil }),
	}
}

type bridge struct {
	reg *session.Registry
	log *slog.Logger
	raw uint32
}

func (b *bridge) session(v js.Value) (*session.Session, error) {
	h, err := session.ParseEntityID(exportID(v))
	if err != nil {
		return nil, err
	}
	return b.reg.Get(session.Handle(h))
}

func (b *bridge) nextRaw() uint32 {
	b.raw++
	return b.raw
}

// fn wraps a handler for export. A panic inside a js.FuncOf callback ends
// the Go program, so errors and panics (bad argument types included) are
// logged and handed back as an Error value instead of being thrown.
func (b *bridge) fn(op string, h func(args []js.Value) (any, error)) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		for len(args) < 4 {
			args = append(args, js.Undefined())
		}
		v, err := session.Guard(op, func() (any, error) { return h(args) })
		if err != nil {
			return b.fail(op, err)
		}
		return v
	})
}

func (b *bridge) fail(op string, err error) js.Value {
	b.log.Warn("call failed", "op", op, "err", err)
	return js.Global().Get("Error").New(err.Error())
}

func (b *bridge) withSession(op string, call func(s *session.Session, args []js.Value) error) js.Func {
	return b.fn(op, func(args []js.Value) (any, error) {
		s, err := b.session(args[0])
		if err != nil {
			return nil, err
		}
		if err := call(s, args); err != nil {
			b.log.Warn("call failed", "op", op, "err", err)
		}
		return nil, nil
	})
}

func (b *bridge) install(g js.Value) {
	g.Set("init_bevy_app", b.fn("init_bevy_app", func([]js.Value) (any, error) {
		h, err := b.reg.Init(session.Options{
			Logger: b.log,
			Bindings: session.Bindings{
				MainThread: notifier("send_pick_from_rust", "block_from_rust"),
				Worker:     notifier("send_pick_from_worker", "block_from_worker"),
			},
		})
		if err != nil {
			return nil, err
		}
		return bigInt(uint64(h)), nil
	}))
	g.Set("create_window_by_canvas", b.fn("create_window_by_canvas", func(args []js.Value) (any, error) {
		s, err := b.session(args[0])
		if err != nil {
			return nil, err
		}
		view, err := canvas.NewCanvas(document{}, args[1].String(), b.nextRaw())
		if err != nil {
			return nil, err
		}
		return nil, s.CreateWindow(view, float32(args[2].Float()))
	}))
	g.Set("create_window_by_offscreen_canvas", b.fn("create_window_by_offscreen_canvas", func(args []js.Value) (any, error) {
		s, err := b.session(args[0])
		if err != nil {
			return nil, err
		}
		if args[1].IsUndefined() || args[1].IsNull() {
			return nil, errNotOffscreen
		}
		view, err := canvas.NewOffscreenCanvas(surface{args[1]}, float32(args[2].Float()), b.nextRaw())
		if err != nil {
			return nil, err
		}
		return nil, s.CreateWindow(view, float32(args[2].Float()))
	}))
	g.Set("is_preparation_completed", b.fn("is_preparation_completed", func(args []js.Value) (any, error) {
		s, err := b.session(args[0])
		if err != nil {
			return nil, err
		}
		if s.PollReady() {
			return 1, nil
		}
		return 0, nil
	}))
	g.Set("enter_frame", b.withSession("enter_frame", func(s *session.Session, _ []js.Value) error {
		return s.AdvanceFrame()
	}))
	g.Set("mouse_move", b.withSession("mouse_move", func(s *session.Session, a []js.Value) error {
		return s.PointerMove(float32(a[1].Float()), float32(a[2].Float()))
	}))
	g.Set("left_bt_down", b.withSession("left_bt_down", func(s *session.Session, a []js.Value) error {
		return s.ButtonDown(exportID(a[1]), float32(a[2].Float()), float32(a[3].Float()))
	}))
	g.Set("left_bt_up", b.withSession("left_bt_up", func(s *session.Session, _ []js.Value) error {
		return s.ButtonUp()
	}))
	g.Set("set_hover", b.withSession("set_hover", func(s *session.Session, a []js.Value) error {
		return s.PushHover(exportList(a[1]))
	}))
	g.Set("set_selection", b.withSession("set_selection", func(s *session.Session, a []js.Value) error {
		return s.PushSelection(exportList(a[1]))
	}))
	g.Set("set_auto_animation", b.withSession("set_auto_animation", func(s *session.Session, a []js.Value) error {
		return s.SetAutoAnimate(a[1].Truthy())
	}))
	g.Set("release_app", b.fn("release_app", func(args []js.Value) (any, error) {
		h, err := session.ParseEntityID(exportID(args[0]))
		if err != nil {
			return nil, err
		}
		if err := b.reg.Release(session.Handle(h)); err != nil {
			return nil, err
		}
		return nil, nil
	}))
}

func main() {
	log := slog.Default().With("component", "wasm")
	b := &bridge{reg: session.NewRegistry(log), log: log}
	bevy := js.Global().Get("Object").New()
	b.install(bevy)
	js.Global().Set("bevy", bevy)
	log.Info("engine functions registered")
	select {}
}
