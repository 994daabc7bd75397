package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/app"
	"blastview/internal/canvas"
	"blastview/internal/ecs"
	"blastview/internal/pick"
	"blastview/internal/scene"
	"blastview/internal/window"
)

var (
	// ErrNoWindow is returned by interaction calls made before CreateWindow.
	ErrNoWindow = errors.New("session: no window created")
	// ErrWindowExists is returned by a second CreateWindow.
	ErrWindowExists = errors.New("session: window already created")
	// ErrReleased is returned by every call after Release.
	ErrReleased = errors.New("session: released")
)

// State is the host-visible lifecycle of a session.
type State int

const (
	StateUninitialized State = iota
	// StateInitializing: engine plugins are still preparing.
	StateInitializing
	// StateReady: plugins are ready but startup has not been finalised.
	StateReady
	// StateRunning: AdvanceFrame performs full updates.
	StateRunning
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateReleased:
		return "released"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configure a new session.
type Options struct {
	Logger   *slog.Logger
	Bindings Bindings
	// Seed fixes the scene layout; 0 is random.
	Seed uint64
	// MaxDistance bounds pick rays; 0 uses the default.
	MaxDistance float32
	// DeviceInit models asynchronous render device creation. Nil is ready at once.
	DeviceInit app.DeviceInit
	Clock      func() time.Time
	// Plugins are added after the built-in ones.
	Plugins  []app.Plugin
	Recorder Recorder
}

// Session is one engine instance driven by a host. It is not safe for
// concurrent use; the host serialises its calls.
type Session struct {
	app    *app.App
	render *app.RenderPlugin
	log    *slog.Logger

	bindings Bindings
	notifier Notifier
	recorder Recorder

	info        *pick.ActiveInfo
	scaleFactor float32
	window      ecs.Entity
	released    bool

	now  func() time.Time
	born time.Time
}

// New builds the app and starts device creation. The session is
// Initializing until PollReady observes the device.
func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	a := app.New(app.WithLogger(log), app.WithClock(now))
	render := app.NewRenderPlugin(opts.DeviceInit)
	a.AddPlugins(
		render,
		window.NewPlugin("blastview", window.PresentAutoNoVsync),
		&canvas.Plugin{},
		&scene.Plugin{Seed: opts.Seed, Animate: pick.AutoAnimating},
		&pick.Plugin{MaxDistance: opts.MaxDistance},
	)
	a.AddPlugins(opts.Plugins...)

	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Session{
		app:         a,
		render:      render,
		log:         log,
		bindings:    opts.Bindings,
		notifier:    nopNotifier{},
		recorder:    rec,
		scaleFactor: 1,
		window:      ecs.Placeholder,
		now:         now,
		born:        now(),
	}
}

// App exposes the underlying app for hosts that render it.
func (s *Session) App() *app.App { return s.app }

// Window is the cached window entity, Placeholder before CreateWindow.
func (s *Session) Window() ecs.Entity { return s.window }

// Info returns the interaction state, nil before CreateWindow.
func (s *Session) Info() *pick.ActiveInfo { return s.info }

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	if s.released {
		return StateReleased
	}
	switch s.app.PluginsState() {
	case app.PluginsCleaned:
		return StateRunning
	case app.PluginsReady, app.PluginsFinished:
		return StateReady
	}
	return StateInitializing
}

// CreateWindow moves view into the session and binds it to the primary
// window. The view kind fixes which notifier is used from now on.
func (s *Session) CreateWindow(view canvas.ViewObj, scaleFactor float32) error {
	if s.released {
		return ErrReleased
	}
	if s.info != nil {
		return ErrWindowExists
	}
	width, height := view.LogicalResolution()
	s.record(Call{
		Op:        OpCreateWindow,
		Scale:     scaleFactor,
		Offscreen: view.Offscreen(),
		Width:     width,
		Height:    height,
	})

	s.scaleFactor = scaleFactor
	inWorker := view.Offscreen()
	info := pick.NewActiveInfo(inWorker)
	e, err := canvas.CreateCanvasWindow(s.app, view)
	if err != nil {
		return fmt.Errorf("session: create window: %w", err)
	}
	s.info = info
	ecs.SetResource(s.app.World(), info)
	s.notifier = s.bindings.pick(inWorker)
	s.window = e
	return nil
}

// PollReady finalises startup the first time the plugins are ready and
// reports whether the session is running.
func (s *Session) PollReady() bool {
	if s.released {
		return false
	}
	switch s.app.PluginsState() {
	case app.PluginsCleaned:
		return true
	case app.PluginsReady, app.PluginsFinished:
		s.finishStartup()
		return true
	}
	return false
}

func (s *Session) finishStartup() {
	s.app.Finish()
	s.app.Cleanup()
	if ws := window.Windows(s.app.World()); len(ws) == 1 {
		s.window = ws[0]
	}
	s.log.Info("session running", "window", s.window)
}

func (s *Session) active() (*pick.ActiveInfo, error) {
	if s.released {
		return nil, ErrReleased
	}
	if s.info == nil {
		return nil, ErrNoWindow
	}
	return s.info, nil
}

func (s *Session) toPhysical(x, y float32) mgl32.Vec2 {
	return mgl32.Vec2{x * s.scaleFactor, y * s.scaleFactor}
}

// PointerMove queues a cursor event at logical position (x, y).
func (s *Session) PointerMove(x, y float32) error {
	info, err := s.active()
	if err != nil {
		return err
	}
	s.record(Call{Op: OpPointerMove, X: x, Y: y})
	ecs.EventsOf[window.CursorMoved](s.app.World()).Send(window.CursorMoved{
		Window:   s.window,
		Position: s.toPhysical(x, y),
	})
	info.Touch()
	return nil
}

// ButtonDown starts dragging id and makes it the only selection. An id that
// does not parse is logged and ignored.
func (s *Session) ButtonDown(id any, x, y float32) error {
	info, err := s.active()
	if err != nil {
		return err
	}
	v, perr := ParseEntityID(id)
	s.record(Call{Op: OpButtonDown, IDs: okIDs(v, perr), X: x, Y: y})
	if perr != nil {
		s.log.Warn("button down ignored", "err", perr)
	} else {
		info.BeginDrag(ecs.FromBits(v), s.toPhysical(x, y))
	}
	info.Touch()
	return nil
}

// ButtonUp ends a drag. The selection is kept.
func (s *Session) ButtonUp() error {
	info, err := s.active()
	if err != nil {
		return err
	}
	s.record(Call{Op: OpButtonUp})
	info.EndDrag()
	info.Touch()
	return nil
}

// PushHover replaces the hover set.
func (s *Session) PushHover(ids []any) error {
	info, err := s.active()
	if err != nil {
		return err
	}
	parsed := s.parseBatch("hover", ids)
	s.record(Call{Op: OpPushHover, IDs: parsed})
	info.ReplaceHover(parsed)
	info.Touch()
	return nil
}

// PushSelection replaces the selection set.
func (s *Session) PushSelection(ids []any) error {
	info, err := s.active()
	if err != nil {
		return err
	}
	parsed := s.parseBatch("selection", ids)
	s.record(Call{Op: OpPushSelection, IDs: parsed})
	info.ReplaceSelection(parsed)
	info.Touch()
	return nil
}

func (s *Session) parseBatch(what string, ids []any) []uint64 {
	parsed, skipped := ParseEntityIDs(ids)
	if skipped > 0 {
		s.log.Warn("skipped invalid ids", "set", what, "skipped", skipped, "kept", len(parsed))
	}
	return parsed
}

// SetAutoAnimate turns continuous animation on or off. It does not reset the
// frame budget.
func (s *Session) SetAutoAnimate(on bool) error {
	info, err := s.active()
	if err != nil {
		return err
	}
	s.record(Call{Op: OpSetAutoAnimate, On: on})
	info.AutoAnimate = on
	return nil
}

// Resize changes the logical size of the session window. Non-positive
// sizes are ignored, as a minimised desktop window reports 0x0.
func (s *Session) Resize(width, height float32) error {
	info, err := s.active()
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	s.record(Call{Op: OpResize, Width: width, Height: height})
	win, ok := ecs.StoreOf[window.Window](s.app.World()).Mut(s.window)
	if !ok {
		return ErrNoWindow
	}
	win.Resolution.Set(width, height)
	info.Touch()
	return nil
}

// AdvanceFrame is the per-frame driver. With animation off and no budget
// left it does nothing. Before the plugins are cleaned it only finishes
// startup. Otherwise it lets the host block, runs one update and then
// delivers the frame's pick results.
func (s *Session) AdvanceFrame() error {
	info, err := s.active()
	if err != nil {
		return err
	}
	if !info.ConsumeFrame() {
		return nil
	}
	switch s.app.PluginsState() {
	case app.PluginsCleaned:
	case app.PluginsReady, app.PluginsFinished:
		s.finishStartup()
		return nil
	default:
		return nil
	}

	s.record(Call{Op: OpAdvanceFrame})
	s.notifier.Block()
	updateErr := s.app.Update()
	if updateErr != nil {
		s.log.Warn("frame finished with errors", "err", updateErr)
	}
	picks := s.flushPicks()
	s.recorder.Frame(s.snapshot(picks))
	return updateErr
}

func (s *Session) flushPicks() [][]uint64 {
	out, ok := ecs.Resource[pick.Outbox](s.app.World())
	if !ok {
		return nil
	}
	batches := out.Drain()
	for _, ids := range batches {
		s.notifier.SendPick(ids)
	}
	return batches
}

func (s *Session) snapshot(picks [][]uint64) FrameSnapshot {
	t, _ := ecs.Resource[app.Time](s.app.World())
	snap := FrameSnapshot{
		Frame:     t.Frame,
		Hover:     keys(s.info.Hover),
		Selection: keys(s.info.Selection),
		Picks:     picks,
	}
	if s.info.Dragging() {
		snap.Drag = s.info.Drag.Bits()
		snap.Dragging = true
	}
	return snap
}

// Release closes the last window, runs a final update and invalidates the
// session.
func (s *Session) Release() error {
	if s.released {
		return ErrReleased
	}
	s.record(Call{Op: OpRelease})
	s.released = true

	w := s.app.World()
	ws := window.Windows(w)
	if len(ws) > 0 {
		ecs.EventsOf[window.WindowCloseRequested](w).Send(window.WindowCloseRequested{Window: ws[len(ws)-1]})
	}
	var err error
	if s.app.PluginsState() == app.PluginsCleaned {
		err = s.app.Update()
		s.flushPicks()
	} else {
		s.render.Cleanup(s.app)
	}
	s.log.Info("session released")
	return err
}

func (s *Session) record(c Call) {
	c.At = s.now().Sub(s.born)
	if s.app != nil {
		if t, ok := ecs.Resource[app.Time](s.app.World()); ok {
			c.Frame = t.Frame
		}
	}
	s.recorder.Record(c)
}

func okIDs(v uint64, err error) []uint64 {
	if err != nil {
		return nil
	}
	return []uint64{v}
}

func keys(m map[ecs.Entity]uint64) []uint64 {
	out := make([]uint64, 0, len(m))
	for e := range m {
		out = append(out, e.Bits())
	}
	slices.Sort(out)
	return out
}
