package pick

import (
	"errors"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
	"blastview/internal/geom"
	"blastview/internal/profiling"
	"blastview/internal/scene"
	"blastview/internal/window"
)

var (
	// ErrNoCamera means the world has no camera to pick through.
	ErrNoCamera = errors.New("pick: no camera")
	// ErrAmbiguousCamera means more than one camera exists.
	ErrAmbiguousCamera = errors.New("pick: more than one camera")
)

// DefaultMaxDistance bounds how far the pick ray reaches.
const DefaultMaxDistance = 30

// Drag deltas are measured on the plane z = 2, where the pickables live.
var (
	DragPlanePoint  = mgl32.Vec3{0, 0, 2}
	DragPlaneNormal = mgl32.Vec3{0, 0, 1}
)

// Resolver turns cursor events into drag moves or pick results.
type Resolver struct {
	MaxDistance float32

	cursor ecs.EventReader[window.CursorMoved]
	log    *slog.Logger
}

// NewResolver creates a resolver; a non-positive distance means DefaultMaxDistance.
func NewResolver(maxDistance float32, log *slog.Logger) *Resolver {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{MaxDistance: maxDistance, log: log}
}

// Run is the resolver system.
func (r *Resolver) Run(w *ecs.World) error {
	defer profiling.Track("pick.Resolve")()

	info, ok := ecs.Resource[ActiveInfo](w)
	if !ok {
		// no session yet, keep the reader current
		r.cursor.Read(ecs.EventsOf[window.CursorMoved](w))
		return nil
	}
	queue := ecs.EventsOf[window.CursorMoved](w)

	if info.Dragging() && r.cursor.Pending(queue) {
		events := r.cursor.Read(queue)
		r.drag(w, info, events[len(events)-1].Position)
		return nil
	}

	events := r.cursor.Read(queue)
	if len(events) == 0 {
		return nil
	}
	cam, camTr, err := SingleCamera(w)
	if err != nil {
		return err
	}

	seen := make(map[ecs.Entity]struct{})
	var hits []uint64
	for _, ev := range events {
		ray, err := cursorRay(cam, camTr, ev.Position)
		if err != nil {
			r.log.Debug("pick ray unavailable", "pos", ev.Position, "err", err)
			continue
		}
		for _, e := range Cast(w, geom.NewRayCast(ray, r.MaxDistance)) {
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			hits = append(hits, e.Bits())
		}
	}
	if len(hits) > 0 {
		outbox(w).Push(hits)
	}
	return nil
}

// Cast returns every pickable whose volume the ray cast intersects, in
// pickable order.
func Cast(w *ecs.World, rc geom.RayCast) []ecs.Entity {
	var out []ecs.Entity
	ecs.StoreOf[scene.CurrentVolume](w).Each(func(e ecs.Entity, v *scene.CurrentVolume) bool {
		if _, hit := rc.AABBIntersectionAt(v.AABB); hit {
			out = append(out, e)
		}
		return true
	})
	return out
}

func (r *Resolver) drag(w *ecs.World, info *ActiveInfo, pos mgl32.Vec2) {
	tr, ok := ecs.StoreOf[scene.Transform](w).Mut(info.Drag)
	if !ok || !ecs.StoreOf[scene.CurrentVolume](w).Has(info.Drag) {
		return
	}
	cam, camTr, err := SingleCamera(w)
	if err != nil {
		r.log.Debug("drag dropped", "err", err)
		return
	}
	cur, err := ScreenToWorld(cam, camTr, pos)
	if err != nil {
		r.log.Debug("drag dropped", "err", err)
		return
	}
	last, err := ScreenToWorld(cam, camTr, info.LastDragPos)
	if err != nil {
		r.log.Debug("drag dropped", "err", err)
		return
	}
	off := cur.Sub(last)
	tr.Translation = tr.Translation.Add(mgl32.Vec3{off.X(), off.Y(), 0})
	info.LastDragPos = pos
}

// SingleCamera returns the only camera and its transform.
func SingleCamera(w *ecs.World) (scene.Camera, scene.Transform, error) {
	cams := ecs.StoreOf[scene.Camera](w)
	switch cams.Len() {
	case 0:
		return scene.Camera{}, scene.Transform{}, ErrNoCamera
	case 1:
	default:
		return scene.Camera{}, scene.Transform{}, ErrAmbiguousCamera
	}
	e := cams.Entities()[0]
	c, _ := cams.Get(e)
	t, ok := ecs.Get[scene.Transform](w, e)
	if !ok {
		t = scene.Identity()
	}
	return c, t, nil
}

// ScreenToWorld projects a cursor position onto the drag plane.
func ScreenToWorld(cam scene.Camera, camTr scene.Transform, pos mgl32.Vec2) (mgl32.Vec3, error) {
	ray, err := cursorRay(cam, camTr, pos)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return ray.PlanePoint(DragPlanePoint, DragPlaneNormal)
}

func cursorRay(cam scene.Camera, camTr scene.Transform, pos mgl32.Vec2) (geom.Ray, error) {
	if cam.Viewport != nil {
		pos = pos.Sub(cam.Viewport.PhysicalPosition)
	}
	return cam.ViewportToWorld(camTr, pos)
}

func outbox(w *ecs.World) *Outbox {
	o, ok := ecs.Resource[Outbox](w)
	if !ok {
		o = &Outbox{}
		ecs.SetResource(w, o)
	}
	return o
}
