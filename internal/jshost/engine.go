package jshost

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/dop251/goja"

	"blastview/internal/canvas"
	"blastview/internal/session"
)

// Names of the host functions a session calls back into.
const (
	mainPickFn    = "send_pick_from_rust"
	mainBlockFn   = "block_from_rust"
	workerPickFn  = "send_pick_from_worker"
	workerBlockFn = "block_from_worker"
)

var errNoDocument = errors.New("jshost: scope has no document")

// jsNotifier calls global functions of the scope that owns the session.
// It runs on that scope's loop, inside enter_frame.
type jsNotifier struct {
	vm      *goja.Runtime
	log     *slog.Logger
	pickFn  string
	blockFn string
}

func (n jsNotifier) SendPick(ids []uint64) {
	n.call(n.pickFn, bigIDs(n.vm, ids))
}

func (n jsNotifier) Block() {
	n.call(n.blockFn)
}

func (n jsNotifier) call(name string, args ...goja.Value) {
	fn, ok := goja.AssertFunction(n.vm.Get(name))
	if !ok {
		n.log.Debug("host function missing", "fn", name)
		return
	}
	if _, err := fn(goja.Undefined(), args...); err != nil {
		n.log.Warn("host function failed", "fn", name, "err", err)
	}
}

func bigIDs(vm *goja.Runtime, ids []uint64) *goja.Object {
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = vm.ToValue(new(big.Int).SetUint64(id))
	}
	return vm.NewArray(vals...)
}

// engine is the `bevy` module of one scope: a registry of sessions and the
// functions scripts use to drive them.
type engine struct {
	vm       *goja.Runtime
	log      *slog.Logger
	reg      *session.Registry
	doc      *document
	template session.Options
	rawNext  uint32
}

func newEngine(vm *goja.Runtime, log *slog.Logger, doc *document, template session.Options) *engine {
	return &engine{
		vm:       vm,
		log:      log,
		reg:      session.NewRegistry(log),
		doc:      doc,
		template: template,
		rawNext:  1,
	}
}

// install defines the global `bevy` object.
func (e *engine) install() {
	bevy := e.vm.NewObject()
	bevy.Set("init_bevy_app", e.initApp)
	bevy.Set("create_window_by_canvas", e.createWindowByCanvas)
	bevy.Set("create_window_by_offscreen_canvas", e.createWindowByOffscreen)
	bevy.Set("is_preparation_completed", e.isPreparationCompleted)
	bevy.Set("enter_frame", e.enterFrame)
	bevy.Set("mouse_move", e.mouseMove)
	bevy.Set("left_bt_down", e.leftButtonDown)
	bevy.Set("left_bt_up", e.leftButtonUp)
	bevy.Set("set_hover", e.setHover)
	bevy.Set("set_selection", e.setSelection)
	bevy.Set("set_auto_animation", e.setAutoAnimation)
	bevy.Set("release_app", e.releaseApp)
	e.vm.Set("bevy", bevy)
}

func (e *engine) throw(err error) {
	panic(e.vm.NewGoError(err))
}

func (e *engine) initApp() goja.Value {
	opts := e.template
	opts.Logger = e.log
	opts.Bindings = session.Bindings{
		MainThread: jsNotifier{vm: e.vm, log: e.log, pickFn: mainPickFn, blockFn: mainBlockFn},
		Worker:     jsNotifier{vm: e.vm, log: e.log, pickFn: workerPickFn, blockFn: workerBlockFn},
	}
	h, err := e.reg.Init(opts)
	if err != nil {
		e.throw(err)
	}
	return e.vm.ToValue(new(big.Int).SetUint64(uint64(h)))
}

// session resolves a handle value; unknown or stale handles throw.
func (e *engine) session(v goja.Value) *session.Session {
	raw, err := session.ParseEntityID(exportValue(v))
	if err != nil {
		e.throw(fmt.Errorf("jshost: bad app handle: %w", err))
	}
	s, err := e.reg.Get(session.Handle(raw))
	if err != nil {
		e.throw(err)
	}
	return s
}

func (e *engine) nextRaw() uint32 {
	h := e.rawNext
	e.rawNext++
	return h
}

func (e *engine) createWindowByCanvas(handle goja.Value, id string, scale float64) {
	s := e.session(handle)
	if e.doc == nil {
		e.throw(errNoDocument)
	}
	view, err := canvas.NewCanvas(e.doc, id, e.nextRaw())
	if err != nil {
		e.throw(err)
	}
	if err := s.CreateWindow(view, float32(scale)); err != nil {
		e.throw(err)
	}
}

func (e *engine) createWindowByOffscreen(handle goja.Value, offscreen *goja.Object, scale float64) {
	s := e.session(handle)
	if offscreen == nil {
		e.throw(errors.New("jshost: missing offscreen canvas"))
	}
	surf, ok := offscreen.Get(surfaceKey).Export().(canvas.Surface)
	if !ok {
		e.throw(errors.New("jshost: object is not an offscreen canvas"))
	}
	view, err := canvas.NewOffscreenCanvas(surf, float32(scale), e.nextRaw())
	if err != nil {
		e.throw(err)
	}
	if err := s.CreateWindow(view, float32(scale)); err != nil {
		e.throw(err)
	}
}

func (e *engine) isPreparationCompleted(handle goja.Value) uint32 {
	if e.session(handle).PollReady() {
		return 1
	}
	return 0
}

// interact runs call against the session for handle. A released handle is
// logged and skipped so a late event does not kill the page; unknown or
// malformed handles still throw. Session errors are logged.
func (e *engine) interact(op string, handle goja.Value, call func(*session.Session) error) {
	raw, err := session.ParseEntityID(exportValue(handle))
	if err != nil {
		e.throw(fmt.Errorf("jshost: bad app handle: %w", err))
	}
	s, err := e.reg.Get(session.Handle(raw))
	if errors.Is(err, session.ErrStaleHandle) {
		e.log.Warn("engine call after release", "op", op, "handle", raw)
		return
	}
	if err != nil {
		e.throw(err)
	}
	e.logged(op, call(s))
}

func (e *engine) enterFrame(handle goja.Value) {
	e.interact("enter_frame", handle, (*session.Session).AdvanceFrame)
}

func (e *engine) mouseMove(handle goja.Value, x, y float64) {
	e.interact("mouse_move", handle, func(s *session.Session) error {
		return s.PointerMove(float32(x), float32(y))
	})
}

func (e *engine) leftButtonDown(handle, id goja.Value, x, y float64) {
	e.interact("left_bt_down", handle, func(s *session.Session) error {
		return s.ButtonDown(exportValue(id), float32(x), float32(y))
	})
}

func (e *engine) leftButtonUp(handle goja.Value) {
	e.interact("left_bt_up", handle, (*session.Session).ButtonUp)
}

func (e *engine) setHover(handle, list goja.Value) {
	e.interact("set_hover", handle, func(s *session.Session) error {
		return s.PushHover(exportList(list))
	})
}

func (e *engine) setSelection(handle, list goja.Value) {
	e.interact("set_selection", handle, func(s *session.Session) error {
		return s.PushSelection(exportList(list))
	})
}

func (e *engine) setAutoAnimation(handle, on goja.Value) {
	e.interact("set_auto_animation", handle, func(s *session.Session) error {
		return s.SetAutoAnimate(on.ToBoolean())
	})
}

func (e *engine) releaseApp(handle goja.Value) {
	raw, err := session.ParseEntityID(exportValue(handle))
	if err != nil {
		e.throw(fmt.Errorf("jshost: bad app handle: %w", err))
	}
	if err := e.reg.Release(session.Handle(raw)); err != nil {
		e.throw(err)
	}
}

func (e *engine) logged(op string, err error) {
	if err != nil {
		e.log.Warn("engine call failed", "op", op, "err", err)
	}
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// exportList turns a JS array into host values; anything else is empty.
func exportList(v goja.Value) []any {
	switch x := exportValue(v).(type) {
	case []any:
		return x
	case nil:
		return nil
	default:
		return []any{x}
	}
}
