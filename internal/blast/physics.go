package blast

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
	"blastview/internal/geom"
	"blastview/internal/profiling"
	"blastview/internal/scene"
)

// RigidBody is an axis-aligned box simulated by Step. Its position is the
// entity's Transform translation.
type RigidBody struct {
	Velocity mgl32.Vec3
	HalfSize mgl32.Vec3
	Mass     float32
	Friction float32
	Static   bool
}

// ExternalImpulse is added to the body's momentum at the next step and
// then reset.
type ExternalImpulse struct {
	Impulse mgl32.Vec3
}

// Gravity is the resource holding world acceleration.
type Gravity struct {
	Acceleration mgl32.Vec3
}

// DefaultGravity points down the Y axis.
var DefaultGravity = mgl32.Vec3{0, -9.81, 0}

// MaxStep caps the simulated time per frame so that a stalled host does
// not tunnel bodies through the ground.
const MaxStep float32 = 1.0 / 30

func (rb RigidBody) box(center mgl32.Vec3) geom.AABB { return geom.FromCenter(center, rb.HalfSize) }

type simBody struct {
	e      ecs.Entity
	pos    mgl32.Vec3
	body   RigidBody
	impact bool
}

func (b *simBody) box() geom.AABB { return b.body.box(b.pos) }

type cell struct{ x, y, z int32 }

// Step advances every RigidBody by dt seconds: impulses, gravity and
// integration for dynamic bodies, then AABB contacts resolved along the
// axis of least penetration.
func Step(w *ecs.World, dt float32) {
	defer profiling.Track("blast.Step")()

	if dt <= 0 {
		return
	}
	dt = min(dt, MaxStep)
	g := DefaultGravity
	if res, ok := ecs.Resource[Gravity](w); ok {
		g = res.Acceleration
	}

	bodies := ecs.StoreOf[RigidBody](w)
	transforms := ecs.StoreOf[scene.Transform](w)
	impulses := ecs.StoreOf[ExternalImpulse](w)

	var dynamic, static []*simBody
	var largest float32
	bodies.Each(func(e ecs.Entity, rb *RigidBody) bool {
		tr, ok := transforms.Ref(e)
		if !ok {
			return true
		}
		sb := &simBody{e: e, pos: tr.Translation, body: *rb}
		if rb.Static {
			static = append(static, sb)
			return true
		}
		if imp, ok := impulses.Ref(e); ok && imp.Impulse != (mgl32.Vec3{}) && rb.Mass > 0 {
			sb.body.Velocity = sb.body.Velocity.Add(imp.Impulse.Mul(1 / rb.Mass))
		}
		sb.body.Velocity = sb.body.Velocity.Add(g.Mul(dt))
		sb.pos = sb.pos.Add(sb.body.Velocity.Mul(dt))
		largest = max(largest, rb.HalfSize.X(), rb.HalfSize.Y(), rb.HalfSize.Z())
		dynamic = append(dynamic, sb)
		return true
	})

	// statics are few and large; test them against every dynamic body
	for _, d := range dynamic {
		for _, s := range static {
			resolve(d, s)
		}
	}
	if largest > 0 {
		collideGrid(dynamic, 2*largest)
	}
	for _, d := range dynamic {
		if d.impact {
			applyFriction(&d.body, -g.Y(), dt)
		}
	}

	for _, d := range dynamic {
		if rb, ok := bodies.Mut(d.e); ok {
			*rb = d.body
		}
		if tr, ok := transforms.Mut(d.e); ok {
			tr.Translation = d.pos
		}
	}
	impulses.EachMut(func(_ ecs.Entity, imp *ExternalImpulse) bool {
		imp.Impulse = mgl32.Vec3{}
		return true
	})
}

// collideGrid hashes bodies into cells of the given size and tests each
// body against its own and neighbouring cells.
func collideGrid(bodies []*simBody, size float32) {
	key := func(p mgl32.Vec3) cell {
		return cell{
			int32(math.Floor(float64(p.X() / size))),
			int32(math.Floor(float64(p.Y() / size))),
			int32(math.Floor(float64(p.Z() / size))),
		}
	}
	grid := make(map[cell][]int, len(bodies))
	for i, b := range bodies {
		k := key(b.pos)
		grid[k] = append(grid[k], i)
	}
	for i, b := range bodies {
		k := key(b.pos)
		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				for dz := int32(-1); dz <= 1; dz++ {
					for _, j := range grid[cell{k.x + dx, k.y + dy, k.z + dz}] {
						if j > i {
							resolve(b, bodies[j])
						}
					}
				}
			}
		}
	}
}

// resolve pushes a and b apart along the axis of least penetration,
// weighted by mass. A static body never moves.
func resolve(a, b *simBody) {
	depth, axis := a.box().Penetration(b.box())
	if axis < 0 {
		return
	}
	// a moves towards negative axis when it sits below b
	sign := float32(1)
	if a.pos[axis] < b.pos[axis] {
		sign = -1
	}

	var moveA, moveB float32
	switch {
	case a.body.Static && b.body.Static:
		return
	case a.body.Static:
		moveB = depth
	case b.body.Static:
		moveA = depth
	default:
		total := a.body.Mass + b.body.Mass
		if total <= 0 {
			moveA, moveB = depth/2, depth/2
		} else {
			moveA = depth * b.body.Mass / total
			moveB = depth * a.body.Mass / total
		}
	}
	if !a.body.Static {
		a.pos[axis] += sign * moveA
		a.body.Velocity[axis] = 0
		a.impact = a.impact || axis == 1
	}
	if !b.body.Static {
		b.pos[axis] -= sign * moveB
		b.body.Velocity[axis] = 0
		b.impact = b.impact || axis == 1
	}
}

// applyFriction slows horizontal motion of a body resting on something.
func applyFriction(rb *RigidBody, gravity, dt float32) {
	h := mgl32.Vec2{rb.Velocity.X(), rb.Velocity.Z()}
	speed := h.Len()
	if speed == 0 {
		return
	}
	drop := rb.Friction * gravity * dt
	if drop >= speed {
		rb.Velocity[0], rb.Velocity[2] = 0, 0
		return
	}
	f := (speed - drop) / speed
	rb.Velocity[0] *= f
	rb.Velocity[2] *= f
}
