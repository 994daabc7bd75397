package blast

import (
	"blastview/internal/app"
	"blastview/internal/ecs"
	"blastview/internal/scene"
)

// Boom returns the system that fires active drill holes. Every dynamic
// body touching an active hole's cylinder gets an impulse of force()
// pointing away from the hole centre, once per frame while the hole is
// active.
func Boom(force func() float32) func(*ecs.World) error {
	return func(w *ecs.World) error {
		holes, ok := ecs.Resource[DrillHoles](w)
		if !ok || len(*holes) == 0 {
			return nil
		}
		t, ok := ecs.Resource[app.Time](w)
		if !ok {
			return nil
		}
		elapsed := t.ElapsedSeconds()

		var active []DrillHole
		for _, h := range *holes {
			if h.Active(elapsed) {
				active = append(active, h)
			}
		}
		if len(active) == 0 {
			return nil
		}

		f := force()
		bodies := ecs.StoreOf[RigidBody](w)
		transforms := ecs.StoreOf[scene.Transform](w)
		impulses := ecs.StoreOf[ExternalImpulse](w)
		bodies.Each(func(e ecs.Entity, rb *RigidBody) bool {
			if rb.Static {
				return true
			}
			tr, ok := transforms.Ref(e)
			if !ok {
				return true
			}
			for _, h := range active {
				if !h.Intersects(rb.box(tr.Translation)) {
					continue
				}
				push := h.Impulse(tr.Translation, f)
				if imp, ok := impulses.Mut(e); ok {
					imp.Impulse = imp.Impulse.Add(push)
				} else {
					impulses.Set(e, ExternalImpulse{Impulse: push})
				}
			}
			return true
		})
		return nil
	}
}
