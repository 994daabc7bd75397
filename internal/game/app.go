package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"blastview/internal/app"
	"blastview/internal/canvas"
	"blastview/internal/config"
	"blastview/internal/ecs"
	"blastview/internal/graphics/renderables/wireframe"
	"blastview/internal/graphics/renderer"
	"blastview/internal/input"
	"blastview/internal/pacing"
	"blastview/internal/profiling"
	"blastview/internal/session"
	"blastview/internal/snapshot"
)

type AppState int

const (
	StateLoading AppState = iota
	StateRunning
	StateReleased
)

// windowHandle is the raw handle given to the desktop canvas.
const windowHandle = 1

type App struct {
	window       *glfw.Window
	inputManager *input.InputManager
	bridge       *input.Bridge
	log          *slog.Logger

	state    AppState
	session  *session.Session
	renderer *renderer.Renderer
	title    string

	showProfile bool
	limiter     *pacing.Limiter
	lastTime    time.Time
}

// NewApp creates the session for window and binds it to the window canvas.
// opts.Bindings is replaced: the desktop answers picks itself.
func NewApp(window *glfw.Window, cfg config.File, opts session.Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	bridge := input.NewBridge(nil, log)
	opts.Bindings = session.Bindings{MainThread: bridge}
	s := session.New(opts)

	doc := newWindowDocument(window, cfg.Host.CanvasID)
	view, err := canvas.NewCanvas(doc, cfg.Host.CanvasID, windowHandle)
	if err != nil {
		return nil, err
	}
	if err := s.CreateWindow(view, view.ScaleFactor()); err != nil {
		return nil, err
	}
	bridge.SetTarget(s)

	r, err := renderer.NewRenderer(log, wireframe.NewShapes(), wireframe.NewGizmos())
	if err != nil {
		s.Release()
		return nil, err
	}
	fbW, fbH := window.GetFramebufferSize()
	r.UpdateViewport(fbW, fbH)

	a := &App{
		window:       window,
		inputManager: input.NewInputManager(),
		bridge:       bridge,
		log:          log.With("component", "game"),
		state:        StateLoading,
		session:      s,
		renderer:     r,
		title:        cfg.Window.Title,
		limiter:      pacing.NewLimiter(),
		lastTime:     time.Now(),
	}
	SetupInputHandlers(a)
	return a, nil
}

func (a *App) Run() {
	for !a.window.ShouldClose() && a.state != StateReleased {
		a.tick()
	}
	a.Close()
}

func (a *App) tick() {
	profiling.ResetFrame()
	startTick := time.Now() // Measure pure processing time
	now := time.Now()
	dt := now.Sub(a.lastTime).Seconds()
	a.lastTime = now

	glfw.PollEvents()
	a.handleActions()

	switch a.state {
	case StateLoading:
		if a.session.PollReady() {
			a.state = StateRunning
			a.log.Info("session running")
		}
	case StateRunning:
		if err := a.session.AdvanceFrame(); err != nil {
			a.log.Warn("frame failed", "err", err)
		}
		a.renderer.Render(a.session.App().World(), dt)
	}

	a.window.SwapBuffers()

	// Check if frame took too long (> 16ms)
	processingDuration := time.Since(startTick)
	if processingDuration > 16*time.Millisecond {
		a.log.Info("Slow frame", "duration", processingDuration, "resyncs", a.limiter.Resyncs(), "top", profiling.TopN(5))
	}
	if a.showProfile {
		a.window.SetTitle(fmt.Sprintf("%s | %s", a.title, profiling.TopN(3)))
	}

	a.inputManager.PostUpdate() // Clear "JustPressed" flags

	idle := pacing.Idle(a.state == StateRunning, a.session.Info())
	a.limiter.Wait(pacing.Limit(config.GetFPSLimit(), idle))
}

func (a *App) handleActions() {
	im := a.inputManager
	if im.JustPressed(input.ActionQuit) {
		a.window.SetShouldClose(true)
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		a.showProfile = !a.showProfile
		if !a.showProfile {
			a.window.SetTitle(a.title)
		}
	}
	if a.state != StateRunning {
		return
	}
	if im.JustPressed(input.ActionToggleAnimation) {
		on := !a.session.Info().AutoAnimate
		if err := a.session.SetAutoAnimate(on); err != nil {
			a.log.Warn("set auto animation failed", "err", err)
		}
	}
	if im.JustPressed(input.ActionSnapshot) {
		a.saveSnapshot()
	}
}

func (a *App) saveSnapshot() {
	w := a.session.App().World()
	var frame uint64
	if t, ok := ecs.Resource[app.Time](w); ok {
		frame = t.Frame
	}
	opts := snapshot.DefaultOptions()
	opts.Caption = []string{fmt.Sprintf("frame %d", frame)}
	img, err := snapshot.Capture(w, opts)
	if err != nil {
		a.log.Warn("snapshot failed", "err", err)
		return
	}
	path := fmt.Sprintf("blastview-%06d.png", frame)
	if err := snapshot.WritePNG(path, img); err != nil {
		a.log.Warn("snapshot failed", "err", err)
		return
	}
	a.log.Info("snapshot written", "path", path)
}

// RefreshRender handles window resize repaints
func (a *App) RefreshRender() {
	if a.state != StateRunning {
		return
	}
	a.renderer.Render(a.session.App().World(), 0)
	a.window.SwapBuffers()
}

// Close releases the session and GL resources. It is safe to call twice.
func (a *App) Close() {
	if a.state == StateReleased {
		return
	}
	a.state = StateReleased
	if err := a.session.Release(); err != nil {
		a.log.Warn("release failed", "err", err)
	}
	a.renderer.Dispose()
}
