package blast

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/app"
	"blastview/internal/config"
	"blastview/internal/ecs"
	"blastview/internal/scene"
)

// BlockMass is the body mass every spawned block gets. The random mass of
// the discretized Block is kept on the Block only.
const BlockMass float32 = 2.0

// GroundHalfSize is the half extent of the static ground slab.
var GroundHalfSize = mgl32.Vec3{500, 0.05, 500}

var rockRed = scene.Color{1, 0, 0, 1}

// Plugin spawns a discretized bench on a static ground and fires its drill
// holes on schedule.
type Plugin struct {
	Bench   Bench
	Holes   DrillHoles
	Workers int
	Seed    uint64
	// Force is read every frame; nil uses config.GetBlastForce.
	Force func() float32
}

// FromConfig builds the plugin from the [blast] section.
func FromConfig(c config.Blast) *Plugin {
	p := &Plugin{
		Bench: Bench{
			Dimensions: c.BenchSize,
			Resolution: mgl32.Vec3{c.Resolution, c.Resolution, c.Resolution},
			Position:   c.BenchPosition,
		},
		Workers: c.Workers,
	}
	for _, h := range c.Holes {
		p.Holes = append(p.Holes, DrillHole{
			Position: h.Position,
			Radius:   h.Radius,
			Height:   h.Height,
			Timing:   h.Timing,
		})
	}
	for _, j := range c.Joints {
		joint := RockJoint{Friction: j.Friction}
		for _, pos := range j.Positions {
			joint.Positions = append(joint.Positions, pos)
		}
		p.Bench.Joints = append(p.Bench.Joints, joint)
	}
	return p
}

func (p *Plugin) Name() string { return "blast" }

func (p *Plugin) Build(a *app.App) {
	log := a.Logger().With("component", "blast")
	holes := append(DrillHoles(nil), p.Holes...)
	ecs.SetResource(a.World(), &holes)
	ecs.SetResource(a.World(), &Gravity{Acceleration: DefaultGravity})

	force := p.Force
	if force == nil {
		force = config.GetBlastForce
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	seed := p.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	a.AddSystems(ecs.Startup, ecs.NewSystem("blast.Setup", func(w *ecs.World) error {
		start := time.Now()
		spawnGround(w)
		blocks, err := DiscretizeBench(context.Background(), p.Bench, rand.New(rand.NewPCG(seed, 0)), workers)
		if err != nil {
			return fmt.Errorf("blast: discretize bench: %w", err)
		}
		for _, b := range blocks {
			SpawnBlock(w, b)
		}
		log.Info("bench spawned", "blocks", len(blocks), "holes", len(holes), "workers", workers, "took", time.Since(start))
		return nil
	}))
	a.AddSystems(ecs.Update,
		ecs.NewSystemWithPriority("blast.Boom", -20, Boom(force)),
		ecs.NewSystemWithPriority("blast.Step", -15, func(w *ecs.World) error {
			if t, ok := ecs.Resource[app.Time](w); ok {
				Step(w, t.DeltaSeconds())
			}
			return nil
		}),
	)
}

func spawnGround(w *ecs.World) ecs.Entity {
	e := w.Spawn()
	tr := scene.Identity()
	tr.Scale = GroundHalfSize.Mul(2)
	ecs.Insert(w, e, tr)
	ecs.Insert(w, e, RigidBody{HalfSize: GroundHalfSize, Static: true})
	return e
}

// SpawnBlock adds a dynamic body for b, drawn as a unit cube scaled to its size.
func SpawnBlock(w *ecs.World, b Block) ecs.Entity {
	e := w.Spawn()
	tr := scene.FromXYZ(b.Position.X(), b.Position.Y(), b.Position.Z())
	tr.Scale = b.Size
	ecs.Insert(w, e, tr)
	ecs.Insert(w, e, RigidBody{HalfSize: b.Size.Mul(0.5), Mass: BlockMass, Friction: b.Friction})
	ecs.Insert(w, e, scene.Mesh{Kind: scene.MeshCuboid, Color: rockRed})
	return e
}
