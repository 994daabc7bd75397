package window

import (
	"blastview/internal/app"
	"blastview/internal/ecs"
)

// Plugin spawns the primary window and closes windows on request.
type Plugin struct {
	Primary Window

	closeReader ecs.EventReader[WindowCloseRequested]
}

// NewPlugin creates a plugin whose primary window uses the given present mode.
func NewPlugin(title string, mode PresentMode) *Plugin {
	return &Plugin{Primary: Window{
		Title:       title,
		Resolution:  NewResolution(1280, 720),
		PresentMode: mode,
	}}
}

func (p *Plugin) Name() string { return "window" }

func (p *Plugin) Build(a *app.App) {
	w := a.World()
	ecs.EventsOf[CursorMoved](w)
	ecs.EventsOf[WindowCreated](w)
	ecs.EventsOf[WindowClosed](w)
	ecs.EventsOf[WindowCloseRequested](w)
	ecs.EventsOf[AppExit](w)

	e := w.Spawn()
	ecs.Insert(w, e, p.Primary)
	ecs.Insert(w, e, Primary{})

	a.AddSystems(ecs.Update, ecs.NewSystem("window.CloseWhenRequested", p.closeWhenRequested))
	a.AddSystems(ecs.Last, ecs.NewSystemWithPriority("window.ExitOnAllClosed", 10, exitOnAllClosed))
}

func (p *Plugin) closeWhenRequested(w *ecs.World) error {
	for _, ev := range p.closeReader.Read(ecs.EventsOf[WindowCloseRequested](w)) {
		if ecs.StoreOf[Window](w).Has(ev.Window) {
			w.Despawn(ev.Window)
		}
	}
	return nil
}

func exitOnAllClosed(w *ecs.World) error {
	windows := ecs.StoreOf[Window](w)
	if windows.Len() == 0 && len(windows.RemovedSince(0)) > 0 {
		if ecs.EventsOf[AppExit](w).Len() == 0 {
			ecs.EventsOf[AppExit](w).Send(AppExit{})
		}
	}
	return nil
}

// Windows lists window entities in spawn order.
func Windows(w *ecs.World) []ecs.Entity {
	return ecs.StoreOf[Window](w).Entities()
}
