// Package mesh turns the scene into line boxes for the renderer. It holds
// no GL state so it can be tested without a context.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"blastview/internal/ecs"
	"blastview/internal/geom"
	"blastview/internal/scene"
)

// UnitCubeEdges are the 12 edges of the unit cube centred on the origin, as
// pairs of xyz vertices for GL_LINES.
var UnitCubeEdges = []float32{
	// front face
	-0.5, -0.5, 0.5, 0.5, -0.5, 0.5,
	0.5, -0.5, 0.5, 0.5, 0.5, 0.5,
	0.5, 0.5, 0.5, -0.5, 0.5, 0.5,
	-0.5, 0.5, 0.5, -0.5, -0.5, 0.5,

	// back face
	-0.5, -0.5, -0.5, 0.5, -0.5, -0.5,
	0.5, -0.5, -0.5, 0.5, 0.5, -0.5,
	0.5, 0.5, -0.5, -0.5, 0.5, -0.5,
	-0.5, 0.5, -0.5, -0.5, -0.5, -0.5,

	// connecting edges
	-0.5, -0.5, 0.5, -0.5, -0.5, -0.5,
	0.5, -0.5, 0.5, 0.5, -0.5, -0.5,
	0.5, 0.5, 0.5, 0.5, 0.5, -0.5,
	-0.5, 0.5, 0.5, -0.5, 0.5, -0.5,
}

// UnitCubeVertexCount is len(UnitCubeEdges) / 3.
const UnitCubeVertexCount = 24

// GizmoInflate keeps highlight outlines from z-fighting with the shape.
const GizmoInflate = 1.01

// Outline is one box to draw.
type Outline struct {
	Model mgl32.Mat4
	Color scene.Color
}

// BoxModel maps the unit cube onto a box with the given half extents,
// rotated about its centre and moved to center.
func BoxModel(center mgl32.Vec3, rotation mgl32.Quat, half mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(center.X(), center.Y(), center.Z()).
		Mul4(rotation.Mat4()).
		Mul4(mgl32.Scale3D(2*half.X(), 2*half.Y(), 2*half.Z()))
}

// LocalHalfSize is the half extent of s in its own frame.
func LocalHalfSize(s geom.Shape) mgl32.Vec3 {
	return s.AABB(mgl32.Vec3{}, mgl32.QuatIdent()).HalfSize()
}

// Gizmos lists the frame's highlight outlines and the line width to use.
func Gizmos(w *ecs.World) ([]Outline, float32) {
	g, ok := ecs.Resource[scene.Gizmos](w)
	if !ok {
		return nil, 0
	}
	items := g.Items()
	out := make([]Outline, 0, len(items))
	for _, gz := range items {
		half := LocalHalfSize(gz.Shape).Mul(GizmoInflate)
		out = append(out, Outline{Model: BoxModel(gz.Translation, gz.Rotation, half), Color: gz.Color})
	}
	return out, g.LineWidth
}

// Shapes lists every entity with a mesh. Pickables use their pick shape;
// other cuboids use their scale, planes their size.
func Shapes(w *ecs.World) []Outline {
	transforms := ecs.StoreOf[scene.Transform](w)
	shapes := ecs.StoreOf[scene.Shape](w)
	var out []Outline
	ecs.StoreOf[scene.Mesh](w).Each(func(e ecs.Entity, m *scene.Mesh) bool {
		tr, ok := transforms.Get(e)
		if !ok {
			return true
		}
		var half mgl32.Vec3
		switch {
		case shapes.Has(e):
			s, _ := shapes.Get(e)
			half = LocalHalfSize(s.Shape)
		case m.Kind == scene.MeshPlane:
			half = mgl32.Vec3{m.Size.X() / 2, 0, m.Size.Y() / 2}
		default:
			half = tr.Scale.Mul(0.5)
		}
		out = append(out, Outline{Model: BoxModel(tr.Translation, tr.Rotation, half), Color: m.Color})
		return true
	})
	return out
}
