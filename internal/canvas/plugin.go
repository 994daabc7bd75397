package canvas

import (
	"errors"
	"log/slog"

	"blastview/internal/app"
	"blastview/internal/ecs"
	"blastview/internal/window"
)

// ErrNoFreeWindow means every window already has a view attached.
var ErrNoFreeWindow = errors.New("canvas: no window without a view")

// Plugin keeps the view registry and releases views of closed windows.
type Plugin struct {
	log         *slog.Logger
	lastRun     uint32
	lastDespawn uint32
	sizes       map[ecs.Entity][2]float32
}

func (p *Plugin) Name() string { return "canvas" }

func (p *Plugin) Build(a *app.App) {
	p.log = a.Logger().With("component", "canvas")
	p.sizes = make(map[ecs.Entity][2]float32)
	ecs.SetResource(a.World(), NewViews())
	a.AddSystems(ecs.Last,
		ecs.NewSystem("canvas.ChangedWindow", p.changedWindow),
		ecs.NewSystemWithPriority("canvas.DespawnWindow", 1, p.despawnWindow),
	)
}

// CreateCanvasWindow attaches view to the first window that has none yet,
// sizes the window from it and announces the window.
func CreateCanvasWindow(a *app.App, view ViewObj) (ecs.Entity, error) {
	w := a.World()
	views, ok := ecs.Resource[Views](w)
	if !ok {
		views = NewViews()
		ecs.SetResource(w, views)
	}
	windows := ecs.StoreOf[window.Window](w)
	for _, e := range windows.Entities() {
		if _, bound := views.View(e); bound {
			continue
		}
		id := views.CreateWindow(view, e)
		win, _ := windows.Mut(e)
		width, height := view.LogicalResolution()
		win.Resolution.SetScaleFactor(view.ScaleFactor())
		win.Resolution.Set(width, height)

		ecs.Insert(w, e, window.RawHandle{Handle: view.Handle(), Offscreen: view.Offscreen()})
		ecs.EventsOf[window.WindowCreated](w).Send(window.WindowCreated{Window: e})
		a.Logger().Info("window created",
			"entity", e, "id", id, "width", width, "height", height,
			"scale", view.ScaleFactor(), "offscreen", view.Offscreen())
		return e, nil
	}
	return ecs.Placeholder, ErrNoFreeWindow
}

func (p *Plugin) changedWindow(w *ecs.World) error {
	windows := ecs.StoreOf[window.Window](w)
	windows.Each(func(e ecs.Entity, win *window.Window) bool {
		if !windows.ChangedSince(e, p.lastRun) {
			return true
		}
		size := [2]float32{win.Resolution.Width(), win.Resolution.Height()}
		if prev, ok := p.sizes[e]; ok && prev != size {
			p.log.Debug("window resized", "entity", e, "width", size[0], "height", size[1])
		}
		p.sizes[e] = size
		return true
	})
	p.lastRun = w.Tick()
	return nil
}

func (p *Plugin) despawnWindow(w *ecs.World) error {
	views, ok := ecs.Resource[Views](w)
	if !ok {
		return nil
	}
	windows := ecs.StoreOf[window.Window](w)
	closed := ecs.EventsOf[window.WindowClosed](w)
	for _, e := range windows.RemovedSince(p.lastDespawn) {
		if windows.Has(e) {
			continue
		}
		delete(p.sizes, e)
		_, had := views.RemoveView(e)
		p.log.Info("window closed", "entity", e, "view", had)
		closed.Send(window.WindowClosed{Window: e})
	}
	p.lastDespawn = w.Tick()
	return nil
}
