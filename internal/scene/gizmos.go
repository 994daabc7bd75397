package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
	"blastview/internal/geom"
)

// Gizmo is an immediate-mode outline drawn for one frame.
type Gizmo struct {
	Shape       geom.Shape
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Color       Color
}

// Gizmos collects the outlines of the current frame. Renderers read it
// after the update and it is cleared at the start of the next one.
type Gizmos struct {
	LineWidth float32
	items     []Gizmo
}

// Primitive queues an outline.
func (g *Gizmos) Primitive(s geom.Shape, translation mgl32.Vec3, rotation mgl32.Quat, c Color) {
	g.items = append(g.items, Gizmo{Shape: s, Translation: translation, Rotation: rotation, Color: c})
}

// Items returns the queued outlines.
func (g *Gizmos) Items() []Gizmo {
	return g.items
}

// Clear drops every queued outline.
func (g *Gizmos) Clear() {
	g.items = g.items[:0]
}

func clearGizmos(w *ecs.World) error {
	if g, ok := ecs.Resource[Gizmos](w); ok {
		g.Clear()
	}
	return nil
}
