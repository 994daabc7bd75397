package scene

import (
	"math/rand/v2"

	"blastview/internal/app"
	"blastview/internal/ecs"
)

// Plugin spawns the pickable scene and keeps its derived state current.
type Plugin struct {
	// Seed makes the shape layout reproducible. Zero picks a random seed.
	Seed uint64
	// Animate gates the rotation system. Nil always animates.
	Animate func(*ecs.World) bool
}

func (p *Plugin) Name() string { return "scene" }

func (p *Plugin) Build(a *app.App) {
	seed := p.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	a.Logger().Debug("scene layout", "seed", seed)

	ecs.SetResource(a.World(), &Gizmos{LineWidth: GizmoLineWidth})

	vu := &volumeUpdater{}
	a.AddSystems(ecs.Startup, ecs.NewSystem("scene.Setup", func(w *ecs.World) error {
		spawnScene(w, rng)
		return nil
	}))
	a.AddSystems(ecs.PreUpdate,
		ecs.NewSystem("scene.ClearGizmos", clearGizmos),
		ecs.NewSystem("scene.SyncCameraTarget", syncCameraTarget),
	)
	a.AddSystems(ecs.Update,
		ecs.NewSystemWithPriority("scene.Rotate", -10, Rotate(p.Animate)),
		ecs.NewSystemWithPriority("scene.UpdateVolumes", -5, vu.run),
	)
}
