package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blastview/internal/ecs"
	"blastview/internal/profiling"
)

// PluginsState tracks the one-way plugin lifecycle.
type PluginsState int

const (
	// PluginsAdding: at least one plugin is still preparing.
	PluginsAdding PluginsState = iota
	// PluginsReady: every plugin reports ready; Finish has not run.
	PluginsReady
	// PluginsFinished: Finish ran, Cleanup has not.
	PluginsFinished
	// PluginsCleaned: fully started; Update may run.
	PluginsCleaned
)

func (s PluginsState) String() string {
	switch s {
	case PluginsAdding:
		return "adding"
	case PluginsReady:
		return "ready"
	case PluginsFinished:
		return "finished"
	case PluginsCleaned:
		return "cleaned"
	}
	return fmt.Sprintf("PluginsState(%d)", int(s))
}

// Plugin configures an App when added.
type Plugin interface {
	Name() string
	Build(a *App)
}

// Readier is implemented by plugins that finish preparing asynchronously.
type Readier interface {
	Ready(a *App) bool
}

// Finisher is implemented by plugins that need a hook once all plugins are ready.
type Finisher interface {
	Finish(a *App)
}

// Cleaner is implemented by plugins that release build-time state after Finish.
type Cleaner interface {
	Cleanup(a *App)
}

// ErrNotStarted is returned by Update before Cleanup has run.
var ErrNotStarted = errors.New("app: plugins not cleaned")

// Time is the frame clock resource.
type Time struct {
	Delta   time.Duration
	Elapsed time.Duration
	Frame   uint64
}

// DeltaSeconds is the duration of the previous frame in seconds.
func (t Time) DeltaSeconds() float32 { return float32(t.Delta.Seconds()) }

// ElapsedSeconds is the time since the first update in seconds.
func (t Time) ElapsedSeconds() float32 { return float32(t.Elapsed.Seconds()) }

// App owns a world, its schedules and its plugins.
type App struct {
	world     *ecs.World
	schedules map[ecs.Label]*ecs.Schedule
	plugins   []Plugin
	state     PluginsState
	log       *slog.Logger
	now       func() time.Time

	started   bool
	firstTick time.Time
	lastTick  time.Time
	trackTick uint32
}

// Option customises a new App.
type Option func(*App)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithLogger sets the logger used by the app and its plugins.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// New creates an app with an empty world.
func New(opts ...Option) *App {
	a := &App{
		world:     ecs.NewWorld(),
		schedules: make(map[ecs.Label]*ecs.Schedule),
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	ecs.SetResource(a.world, &Time{})
	return a
}

// World exposes the app's world.
func (a *App) World() *ecs.World { return a.world }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.log }

// AddPlugins builds each plugin immediately, in order.
func (a *App) AddPlugins(ps ...Plugin) *App {
	for _, p := range ps {
		a.plugins = append(a.plugins, p)
		p.Build(a)
		a.log.Debug("plugin built", "plugin", p.Name())
	}
	return a
}

// AddSystems registers systems on a schedule.
func (a *App) AddSystems(label ecs.Label, systems ...ecs.System) *App {
	s, ok := a.schedules[label]
	if !ok {
		s = &ecs.Schedule{}
		a.schedules[label] = s
	}
	s.Add(systems...)
	return a
}

// PluginsState polls readiness while plugins are still being added.
func (a *App) PluginsState() PluginsState {
	if a.state > PluginsReady {
		return a.state
	}
	for _, p := range a.plugins {
		if r, ok := p.(Readier); ok && !r.Ready(a) {
			a.state = PluginsAdding
			return a.state
		}
	}
	a.state = PluginsReady
	return a.state
}

// Finish runs every Finisher once.
func (a *App) Finish() {
	if a.state >= PluginsFinished {
		return
	}
	for _, p := range a.plugins {
		if f, ok := p.(Finisher); ok {
			f.Finish(a)
		}
	}
	a.state = PluginsFinished
}

// Cleanup runs every Cleaner once.
func (a *App) Cleanup() {
	if a.state >= PluginsCleaned {
		return
	}
	for _, p := range a.plugins {
		if c, ok := p.(Cleaner); ok {
			c.Cleanup(a)
		}
	}
	a.state = PluginsCleaned
	a.log.Info("plugins cleaned", "plugins", len(a.plugins))
}

// Update runs one frame: Startup on the first call, then every frame schedule.
// System errors are joined; the frame always runs to completion.
func (a *App) Update() error {
	if a.state != PluginsCleaned {
		return ErrNotStarted
	}
	defer profiling.Track("app.Update")()

	a.advanceTime()

	var errs []error
	if !a.started {
		a.started = true
		if err := a.run(ecs.Startup); err != nil {
			errs = append(errs, err)
		}
	}
	frameStart := a.world.Tick()
	for _, l := range ecs.FrameLabels {
		if err := a.run(l); err != nil {
			errs = append(errs, err)
		}
	}
	a.world.UpdateEvents()
	// keep removal records for one more frame so readers in the next frame still see them
	a.world.ClearTrackers(a.trackTick)
	a.trackTick = frameStart
	return errors.Join(errs...)
}

func (a *App) run(l ecs.Label) error {
	s, ok := a.schedules[l]
	if !ok {
		return nil
	}
	if err := s.Run(a.world); err != nil {
		return fmt.Errorf("%s: %w", l, err)
	}
	return nil
}

func (a *App) advanceTime() {
	now := a.now()
	t, _ := ecs.Resource[Time](a.world)
	if a.firstTick.IsZero() {
		a.firstTick = now
		a.lastTick = now
	}
	t.Delta = now.Sub(a.lastTick)
	t.Elapsed = now.Sub(a.firstTick)
	t.Frame++
	a.lastTick = now
}
