package pick

import (
	"blastview/internal/app"
	"blastview/internal/ecs"
)

// Plugin wires ray picking, dragging and highlight into an app.
type Plugin struct {
	MaxDistance float32
}

func (p *Plugin) Name() string { return "pick" }

func (p *Plugin) Build(a *app.App) {
	ecs.SetResource(a.World(), &Outbox{})
	r := NewResolver(p.MaxDistance, a.Logger().With("component", "pick"))
	a.AddSystems(ecs.Update,
		ecs.NewSystemWithPriority("pick.Resolve", 0, r.Run),
		ecs.NewSystemWithPriority("pick.Synchronize", 5, Synchronize),
	)
	a.AddSystems(ecs.PostUpdate, ecs.NewSystem("pick.RenderActiveShapes", RenderActiveShapes))
}
