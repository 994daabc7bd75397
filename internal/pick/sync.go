package pick

import (
	"blastview/internal/ecs"
	"blastview/internal/scene"
)

// Synchronize stamps hover and selected onto every pickable from ActiveInfo.
// Pickables without an ActiveState get one.
func Synchronize(w *ecs.World) error {
	info, ok := ecs.Resource[ActiveInfo](w)
	if !ok {
		return nil
	}
	states := ecs.StoreOf[ActiveState](w)
	ecs.StoreOf[scene.Shape](w).Each(func(e ecs.Entity, _ *scene.Shape) bool {
		_, hover := info.Hover[e]
		_, selected := info.Selection[e]
		next := ActiveState{Hover: hover, Selected: selected}
		if cur, ok := states.Get(e); !ok || cur != next {
			states.Set(e, next)
		}
		return true
	})
	return nil
}

// RenderActiveShapes queues an outline for every highlighted pickable.
// Selection wins over hover for the colour.
func RenderActiveShapes(w *ecs.World) error {
	gizmos, ok := ecs.Resource[scene.Gizmos](w)
	if !ok {
		return nil
	}
	shapes := ecs.StoreOf[scene.Shape](w)
	transforms := ecs.StoreOf[scene.Transform](w)
	ecs.StoreOf[ActiveState](w).Each(func(e ecs.Entity, s *ActiveState) bool {
		if !s.IsActive() {
			return true
		}
		shape, ok := shapes.Get(e)
		if !ok {
			return true
		}
		tr, ok := transforms.Get(e)
		if !ok {
			return true
		}
		color := scene.BlanchedAlmond
		if s.Selected {
			color = scene.Blue400
		}
		gizmos.Primitive(shape.Shape, tr.Translation, tr.Rotation, color)
		return true
	})
	return nil
}
