package scene

import (
	"blastview/internal/app"
	"blastview/internal/ecs"
	"blastview/internal/window"
)

// GizmoLineWidth is the outline width used for highlighted shapes.
const GizmoLineWidth = 3

// Rotate spins every pickable around the world Y axis at half a radian per
// second while animate reports true.
func Rotate(animate func(*ecs.World) bool) func(*ecs.World) error {
	return func(w *ecs.World) error {
		if animate != nil && !animate(w) {
			return nil
		}
		t, ok := ecs.Resource[app.Time](w)
		if !ok {
			return nil
		}
		angle := t.DeltaSeconds() / 2
		if angle == 0 {
			return nil
		}
		transforms := ecs.StoreOf[Transform](w)
		ecs.StoreOf[Shape](w).Each(func(e ecs.Entity, _ *Shape) bool {
			if tr, ok := transforms.Mut(e); ok {
				tr.RotateY(angle)
			}
			return true
		})
		return nil
	}
}

// volumeUpdater keeps CurrentVolume in step with Shape and Transform.
type volumeUpdater struct {
	lastRun uint32
}

func (u *volumeUpdater) run(w *ecs.World) error {
	if g, ok := ecs.Resource[Gizmos](w); ok {
		g.LineWidth = GizmoLineWidth
	}

	shapes := ecs.StoreOf[Shape](w)
	transforms := ecs.StoreOf[Transform](w)
	volumes := ecs.StoreOf[CurrentVolume](w)
	shapes.Each(func(e ecs.Entity, s *Shape) bool {
		stale := !volumes.Has(e) ||
			shapes.ChangedSince(e, u.lastRun) ||
			transforms.ChangedSince(e, u.lastRun)
		if !stale {
			return true
		}
		tr, ok := transforms.Get(e)
		if !ok {
			return true
		}
		volumes.Set(e, CurrentVolume{s.AABB(tr.Translation, tr.Rotation)})
		return true
	})
	u.lastRun = w.Tick()
	return nil
}

// syncCameraTarget copies the primary window size into every camera so the
// projection and the cursor positions agree on units.
func syncCameraTarget(w *ecs.World) error {
	windows := ecs.StoreOf[window.Window](w)
	primary := ecs.StoreOf[window.Primary](w)
	var size [2]float32
	found := false
	windows.Each(func(e ecs.Entity, win *window.Window) bool {
		if !primary.Has(e) {
			return true
		}
		size = [2]float32{win.Resolution.Width(), win.Resolution.Height()}
		found = true
		return false
	})
	if !found {
		return nil
	}
	ecs.StoreOf[Camera](w).Each(func(_ ecs.Entity, c *Camera) bool {
		c.TargetSize[0], c.TargetSize[1] = size[0], size[1]
		return true
	})
	return nil
}
